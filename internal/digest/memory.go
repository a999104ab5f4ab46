package digest

import (
	"context"
	"sync"
)

// MemoryStore keeps pending items in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Item // keyed by date + "/" + sk
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

func (s *MemoryStore) Add(_ context.Context, item Item) error {
	s.mu.Lock()
	s.items[item.Date+"/"+item.SK] = item
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ResolveSession(_ context.Context, day, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, it := range s.items {
		if it.Date == day && it.SessionID == sessionID && !it.Resolved {
			it.Resolved = true
			s.items[k] = it
		}
	}
	return nil
}

func (s *MemoryStore) ListUnresolved(_ context.Context, day string, limit int) ([]Item, error) {
	s.mu.Lock()
	var open []Item
	for _, it := range s.items {
		if it.Date == day && !it.Resolved {
			open = append(open, it)
		}
	}
	s.mu.Unlock()
	return latestPerSession(open, limit), nil
}
