package ratelimit

import (
	"sync"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

// DailyCounter caps requests per Hong Kong calendar day. The count resets
// at local midnight rather than on a rolling 24h window so a parent's quota
// lines up with the centre's day. A nil counter is unlimited.
type DailyCounter struct {
	mu    sync.Mutex
	limit int
	day   string
	count int
	now   func() time.Time
}

// NewDailyCounter returns nil when limit <= 0.
func NewDailyCounter(limit int, now func() time.Time) *DailyCounter {
	if limit <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &DailyCounter{limit: limit, now: now}
}

// must hold mu
func (d *DailyCounter) rotate() {
	if today := hktime.DayKey(d.now()); today != d.day {
		d.day = today
		d.count = 0
	}
}

func (d *DailyCounter) check() bool {
	if d == nil {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotate()
	return d.count < d.limit
}

func (d *DailyCounter) consume() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotate()
	d.count++
}

// Remaining returns the quota left today, or -1 when unlimited.
func (d *DailyCounter) Remaining() int {
	if d == nil {
		return -1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotate()
	return max(d.limit-d.count, 0)
}

// idle reports whether nothing was counted today.
func (d *DailyCounter) idle() bool {
	if d == nil {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotate()
	return d.count == 0
}
