package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps history in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Message)}
}

func (s *MemoryStore) Save(_ context.Context, msg Message) error {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	s.mu.Lock()
	s.sessions[msg.SessionID] = append(s.sessions[msg.SessionID], msg)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) Prune(_ context.Context, sessionID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.sessions[sessionID]
	if keep <= 0 {
		delete(s.sessions, sessionID)
		return nil
	}
	if len(msgs) > keep {
		s.sessions[sessionID] = append([]Message(nil), msgs[len(msgs)-keep:]...)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// DeleteBefore removes turns older than cutoff across all sessions.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, msgs := range s.sessions {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.At.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(s.sessions, id)
		} else {
			s.sessions[id] = kept
		}
	}
	return removed, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
