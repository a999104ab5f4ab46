package config

import "time"

// HTTP server timeouts
const (
	// ChatProcessing bounds one chat turn, including the LLM call.
	ChatProcessing = 30 * time.Second

	// HTTPRead is the server read timeout. Chat and webhook payloads are small.
	HTTPRead = 10 * time.Second

	// HTTPWrite must cover ChatProcessing plus serialization.
	HTTPWrite = 35 * time.Second

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second
)

// Upstream timeouts
const (
	// HKORequest is the timeout for one Observatory feed request.
	HKORequest = 4 * time.Second

	// HKOCacheTTL is how long Observatory payloads are reused.
	HKOCacheTTL = 5 * time.Minute

	// LLMRequest bounds a single answerer call.
	LLMRequest = 20 * time.Second

	// LLMResponseCacheTTL is how long identical questions reuse an answer.
	LLMResponseCacheTTL = 120 * time.Second

	// WhatsAppSend bounds one Cloud API call.
	WhatsAppSend = 10 * time.Second

	// WebhookAsync bounds the background handling of a WhatsApp message
	// after the webhook has been acknowledged.
	WebhookAsync = 45 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// HolidayWarmInterval is how often the holiday calendar cache is rebuilt
	// around the current year.
	HolidayWarmInterval = 24 * time.Hour

	// RateLimiterCleanupInterval is how often idle session limiters are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute

	// SessionCleanupInterval is how often expired language sessions are dropped.
	SessionCleanupInterval = 10 * time.Minute

	// DigestRetryDelay is the pause after a failed digest run before the
	// scheduler computes the next slot again.
	DigestRetryDelay = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
