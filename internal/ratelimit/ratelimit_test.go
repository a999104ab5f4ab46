package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

// fakeClock is a settable clock shared by limiters under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: hktime.Date(2025, time.March, 12, 10, 0)}
	l := newWithClock(3, 1, clock.Now)

	for i := range 3 {
		if !l.Allow() {
			t.Fatalf("request %d should be allowed within burst", i)
		}
	}
	if l.Allow() {
		t.Error("fourth request should be rejected")
	}

	clock.Advance(1500 * time.Millisecond)
	if !l.Allow() {
		t.Error("one token should have refilled")
	}
	if l.Allow() {
		t.Error("only one token should have refilled")
	}

	clock.Advance(time.Hour)
	if !l.IsFull() {
		t.Error("bucket should be capped at maxTokens")
	}
	if got := l.Available(); got != 3 {
		t.Errorf("Available() = %v, want 3", got)
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	l := New(1, 0.001)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want deadline exceeded", err)
	}
}

func TestDailyCounter_ResetsAtHongKongMidnight(t *testing.T) {
	clock := &fakeClock{t: hktime.Date(2025, time.March, 12, 23, 50)}
	d := NewDailyCounter(2, clock.Now)

	d.consume()
	d.consume()
	if d.check() {
		t.Error("third request on the same day should be rejected")
	}
	if got := d.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}

	clock.Advance(15 * time.Minute) // 00:05 next day
	if !d.check() {
		t.Error("quota should reset after midnight in Hong Kong")
	}
	if got := d.Remaining(); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}
}

func TestDailyCounter_Disabled(t *testing.T) {
	d := NewDailyCounter(0, nil)
	if d != nil {
		t.Fatal("limit 0 should disable the counter")
	}
	if !d.check() || d.Remaining() != -1 {
		t.Error("nil counter should be unlimited")
	}
}

func TestSessionLimiter_Check(t *testing.T) {
	clock := &fakeClock{t: hktime.Date(2025, time.March, 12, 10, 0)}
	sl := NewSessionLimiter(SessionConfig{Burst: 2, RefillRate: 1, DailyLimit: 3, Clock: clock.Now})
	defer sl.Stop()

	steps := []struct {
		advance time.Duration
		session string
		want    error
	}{
		{0, "85251180001", nil},
		{0, "85251180001", nil},
		{0, "85251180001", apperrors.ErrRateLimitExceeded},
		{0, "web-1", nil}, // independent bucket
		{2 * time.Second, "85251180001", nil},
		{2 * time.Second, "85251180001", apperrors.ErrDailyLimitExceeded},
		{0, "", nil}, // anonymous
	}

	for i, step := range steps {
		clock.Advance(step.advance)
		if got := sl.Check(step.session); !errors.Is(got, step.want) || (got == nil) != (step.want == nil) {
			t.Errorf("step %d Check(%q) = %v, want %v", i, step.session, got, step.want)
		}
	}

	if got := sl.DailyRemaining("85251180001"); got != 0 {
		t.Errorf("DailyRemaining() = %d, want 0", got)
	}
	if got := sl.DailyRemaining("unknown"); got != 3 {
		t.Errorf("DailyRemaining(unknown) = %d, want 3", got)
	}
}

func TestSessionLimiter_RejectedTurnDoesNotConsumeDaily(t *testing.T) {
	clock := &fakeClock{t: hktime.Date(2025, time.March, 12, 10, 0)}
	sl := NewSessionLimiter(SessionConfig{Burst: 1, RefillRate: 0.5, DailyLimit: 5, Clock: clock.Now})
	defer sl.Stop()

	_ = sl.Check("s")
	for range 3 {
		if err := sl.Check("s"); !errors.Is(err, apperrors.ErrRateLimitExceeded) {
			t.Fatalf("Check() = %v, want burst limit", err)
		}
	}
	if got := sl.DailyRemaining("s"); got != 4 {
		t.Errorf("DailyRemaining() = %d, want 4", got)
	}
}

func TestSessionLimiter_Cleanup(t *testing.T) {
	clock := &fakeClock{t: hktime.Date(2025, time.March, 12, 10, 0)}
	sl := NewSessionLimiter(SessionConfig{Burst: 2, RefillRate: 1, DailyLimit: 10, Clock: clock.Now})
	defer sl.Stop()

	_ = sl.Check("a")
	_ = sl.Check("b")
	clock.Advance(time.Minute)

	if removed := sl.Cleanup(); removed != 0 {
		t.Errorf("sessions with quota used today should be kept, removed %d", removed)
	}

	clock.Advance(24 * time.Hour)
	if removed := sl.Cleanup(); removed != 2 {
		t.Errorf("Cleanup() removed %d, want 2", removed)
	}
	if sl.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", sl.ActiveCount())
	}
}

func TestSessionLimiter_StopIsIdempotent(t *testing.T) {
	sl := NewSessionLimiter(SessionConfig{Burst: 1, RefillRate: 1, CleanupPeriod: time.Hour})
	sl.Stop()
	sl.Stop()
}
