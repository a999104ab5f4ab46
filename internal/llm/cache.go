package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	reply     Reply
	expiresAt time.Time
}

// responseCache remembers recent answers for identical questions asked
// against identical grounding.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// cacheKey ignores History so follow-ups to the same question share an entry.
func cacheKey(req Request) string {
	sum := sha256.Sum256([]byte(req.Context))
	return strings.Join([]string{
		req.Lang.String(),
		strings.TrimSpace(req.Message),
		hex.EncodeToString(sum[:])[:12],
		req.Hint,
	}, "|")
}

func (c *responseCache) get(key string) (Reply, bool) {
	if c == nil || c.ttl <= 0 {
		return Reply{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Reply{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return Reply{}, false
	}
	return e.reply, true
}

func (c *responseCache) set(key string, r Reply) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{reply: r, expiresAt: now.Add(c.ttl)}
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
