// Package history keeps the last few turns of each chat session so the
// language model can see what was said before.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Roles of a stored turn.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// DefaultKeep is how many turns survive Prune when no value is configured.
const DefaultKeep = 6

// Retention bounds how long an idle session's turns are kept.
const Retention = 7 * 24 * time.Hour

// Message is one stored turn.
type Message struct {
	SessionID string
	Role      string
	Text      string
	Lang      string
	At        time.Time
}

// Store persists chat turns per session.
type Store interface {
	Save(ctx context.Context, msg Message) error
	// Recent returns up to limit turns, oldest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// Prune deletes all but the newest keep turns.
	Prune(ctx context.Context, sessionID string, keep int) error
	Clear(ctx context.Context, sessionID string) error
	// DeleteBefore drops turns older than cutoff in every session.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// BuildContext renders turns as "Parent:" and "Bot:" lines. A non-empty
// pending message is appended as the final parent line.
func BuildContext(msgs []Message, pending string) string {
	lines := make([]string, 0, len(msgs)+1)
	for _, m := range msgs {
		prefix := "Bot:"
		if m.Role == RoleUser {
			prefix = "Parent:"
		}
		lines = append(lines, prefix+" "+m.Text)
	}
	if pending != "" {
		lines = append(lines, "Parent: "+pending)
	}
	return strings.Join(lines, "\n")
}

// Open returns the store selected by backend ("sqlite" or "memory").
func Open(ctx context.Context, backend, sqlitePath string) (Store, error) {
	switch backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return NewSQLite(ctx, sqlitePath)
	default:
		return nil, fmt.Errorf("history: unknown backend %q", backend)
	}
}
