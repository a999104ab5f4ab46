package chat

import (
	"unicode"

	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Sources of the reply language, used as a metric label.
const (
	langExplicit = "explicit"
	langSession  = "session"
	langDetected = "detected"
)

// resolveLanguage picks the reply language. An explicit request value wins.
// Messages without enough letters to judge ("ok", "?", "9:30") reuse the
// language remembered for the session.
func (r *Router) resolveLanguage(req Request) (lang.Tag, string) {
	if req.Language != "" {
		return lang.Normalize(req.Language), langExplicit
	}
	if r.sessions != nil && req.SessionID != "" && !judgeable(req.Message) {
		if tag, ok := r.sessions.Get(req.SessionID); ok {
			return tag, langSession
		}
	}
	return lang.Detect(req.Message, req.AcceptLanguage), langDetected
}

func judgeable(message string) bool {
	letters := 0
	for _, r := range message {
		if unicode.Is(unicode.Han, r) {
			return true
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3
}
