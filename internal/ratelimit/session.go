package ratelimit

import (
	"sync"
	"time"

	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
)

// SessionConfig configures a SessionLimiter.
type SessionConfig struct {
	Burst      float64 // bucket capacity per session
	RefillRate float64 // tokens per second
	DailyLimit int     // 0 disables the per-day cap

	CleanupPeriod time.Duration
	Metrics       *metrics.Metrics

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// SessionLimiter throttles chat turns per session ID (web session or
// WhatsApp number) with a token bucket plus a per-day cap.
type SessionLimiter struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	cfg     SessionConfig
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// The entry mutex makes the two-layer check-then-consume atomic.
type sessionEntry struct {
	mu     sync.Mutex
	bucket *Limiter
	daily  *DailyCounter
}

// NewSessionLimiter starts the cleanup loop when CleanupPeriod > 0.
// Call Stop when done.
func NewSessionLimiter(cfg SessionConfig) *SessionLimiter {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	sl := &SessionLimiter{
		entries: make(map[string]*sessionEntry),
		cfg:     cfg,
		now:     now,
		stopCh:  make(chan struct{}),
	}
	if cfg.CleanupPeriod > 0 {
		go sl.cleanupLoop()
	}
	return sl
}

// Check consumes one turn for sessionID. It returns
// ErrDailyLimitExceeded or ErrRateLimitExceeded without consuming anything
// when either layer is exhausted. Anonymous turns are never limited.
func (sl *SessionLimiter) Check(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	entry := sl.entry(sessionID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.daily.check() {
		sl.cfg.Metrics.RecordRateLimiterDrop("daily")
		return apperrors.ErrDailyLimitExceeded
	}
	if !entry.bucket.check() {
		sl.cfg.Metrics.RecordRateLimiterDrop("session")
		return apperrors.ErrRateLimitExceeded
	}

	entry.daily.consume()
	entry.bucket.consume()
	return nil
}

// DailyRemaining returns the turns left today for sessionID, or -1 when
// the daily cap is disabled.
func (sl *SessionLimiter) DailyRemaining(sessionID string) int {
	if sl.cfg.DailyLimit <= 0 {
		return -1
	}
	sl.mu.RLock()
	entry, ok := sl.entries[sessionID]
	sl.mu.RUnlock()
	if !ok {
		return sl.cfg.DailyLimit
	}
	return entry.daily.Remaining()
}

// ActiveCount returns the number of tracked sessions.
func (sl *SessionLimiter) ActiveCount() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return len(sl.entries)
}

func (sl *SessionLimiter) entry(key string) *sessionEntry {
	sl.mu.RLock()
	entry, ok := sl.entries[key]
	sl.mu.RUnlock()
	if ok {
		return entry
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if entry, ok = sl.entries[key]; ok {
		return entry
	}
	entry = &sessionEntry{
		bucket: newWithClock(sl.cfg.Burst, sl.cfg.RefillRate, sl.now),
		daily:  NewDailyCounter(sl.cfg.DailyLimit, sl.now),
	}
	sl.entries[key] = entry
	return entry
}

// Cleanup forgets sessions whose bucket has refilled and that have not
// used any of today's quota.
func (sl *SessionLimiter) Cleanup() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	removed := 0
	for key, entry := range sl.entries {
		if entry.bucket.IsFull() && entry.daily.idle() {
			delete(sl.entries, key)
			removed++
		}
	}
	return removed
}

func (sl *SessionLimiter) cleanupLoop() {
	ticker := time.NewTicker(sl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-sl.stopCh:
			return
		case <-ticker.C:
			sl.Cleanup()
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call multiple times.
func (sl *SessionLimiter) Stop() {
	sl.once.Do(func() { close(sl.stopCh) })
}
