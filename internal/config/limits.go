package config

// Message and storage limits.
const (
	// MaxChatMessageRunes rejects oversized chat messages before any work.
	MaxChatMessageRunes = 2000

	// DefaultHistoryKeep is how many turns per session are kept and fed back
	// as context.
	DefaultHistoryKeep = 6

	// DefaultDigestMaxItems caps the entries in one digest.
	DefaultDigestMaxItems = 50

	// DigestMessageRunes truncates each parent message quoted in a digest.
	DigestMessageRunes = 220

	// WhatsAppMaxTextRunes is the Cloud API limit for a text body.
	WhatsAppMaxTextRunes = 4096
)
