package lang

import (
	"sync"
	"time"
)

// DefaultSessionTTL is how long a session keeps its language without new messages.
const DefaultSessionTTL = time.Hour

// SessionMemory remembers the language last used in each chat session so a
// short follow-up ("ok", "9am?") keeps the conversation's language.
type SessionMemory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]sessionEntry
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

type sessionEntry struct {
	tag  Tag
	seen time.Time
}

// NewSessionMemory creates a session memory. If cleanupEvery > 0 a background
// loop evicts expired sessions until Stop is called.
func NewSessionMemory(ttl, cleanupEvery time.Duration) *SessionMemory {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &SessionMemory{
		ttl:     ttl,
		entries: make(map[string]sessionEntry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go m.cleanupLoop(cleanupEvery)
	}
	return m
}

// Remember stores tag for sessionID. Empty IDs are ignored.
func (m *SessionMemory) Remember(sessionID string, tag Tag) {
	if sessionID == "" {
		return
	}
	m.mu.Lock()
	m.entries[sessionID] = sessionEntry{tag: tag, seen: m.now()}
	m.mu.Unlock()
}

// Get returns the remembered tag if it has not expired.
func (m *SessionMemory) Get(sessionID string) (Tag, bool) {
	if sessionID == "" {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sessionID]
	if !ok {
		return "", false
	}
	if m.now().Sub(e.seen) > m.ttl {
		delete(m.entries, sessionID)
		return "", false
	}
	return e.tag, true
}

// Len returns the number of tracked sessions, expired or not.
func (m *SessionMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stop ends the cleanup loop. Safe to call more than once.
func (m *SessionMemory) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

func (m *SessionMemory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *SessionMemory) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.entries {
		if now.Sub(e.seen) > m.ttl {
			delete(m.entries, id)
		}
	}
}
