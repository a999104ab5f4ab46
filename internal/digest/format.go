package digest

import (
	"strings"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

// FormatBody renders the WhatsApp text sent to the director.
func FormatBody(now time.Time, items []Item) string {
	now = now.In(hktime.Location())
	lines := []string{
		"[Daily Digest] Unanswered parent messages — " + now.Format("2006-01-02 (Mon)"),
		"",
	}
	for _, it := range items {
		lines = append(lines,
			"- Chat: "+it.SessionID+" | "+it.Time().Format("15:04")+" | Topic: "+it.Flags.TopicLabel(),
			"  “"+truncate(it.Message)+"”",
		)
	}
	return strings.Join(lines, "\n")
}

func truncate(msg string) string {
	msg = strings.ReplaceAll(strings.TrimSpace(msg), "\n", " ")
	runes := []rune(msg)
	if len(runes) > config.DigestMessageRunes {
		return string(runes[:config.DigestMessageRunes-3]) + "…"
	}
	return msg
}
