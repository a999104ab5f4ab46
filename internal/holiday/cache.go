package holiday

import (
	"context"
	"sync"
	"time"
)

type yearRange struct {
	start, end int
}

type cachedCalendar struct {
	calendar Calendar
	source   string
	builtAt  time.Time
}

// BuildFunc produces a calendar for a year range and names its source.
type BuildFunc func(ctx context.Context, startYear, endYear int) (Calendar, string)

// CalendarCache memoizes calendars per year range. Builds are idempotent, so
// two goroutines racing on the same key may both build and the last write wins.
type CalendarCache struct {
	mu      sync.RWMutex
	entries map[yearRange]cachedCalendar
	build   BuildFunc
	now     func() time.Time
}

// NewCalendarCache creates an empty cache backed by build.
func NewCalendarCache(build BuildFunc) *CalendarCache {
	return &CalendarCache{
		entries: make(map[yearRange]cachedCalendar),
		build:   build,
		now:     time.Now,
	}
}

// Get returns the calendar for startYear..endYear, building it on first use.
func (c *CalendarCache) Get(ctx context.Context, startYear, endYear int) Calendar {
	key := yearRange{startYear, endYear}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry.calendar
	}

	cal, source := c.build(ctx, startYear, endYear)

	c.mu.Lock()
	c.entries[key] = cachedCalendar{calendar: cal, source: source, builtAt: c.now()}
	c.mu.Unlock()
	return cal
}

// Source reports which provider built the cached range and when.
func (c *CalendarCache) Source(startYear, endYear int) (string, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[yearRange{startYear, endYear}]
	return entry.source, entry.builtAt, ok
}

// Len returns the number of cached ranges.
func (c *CalendarCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate drops every cached calendar.
func (c *CalendarCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[yearRange]cachedCalendar)
	c.mu.Unlock()
}

// Warm pre-builds the range used for dates in year.
func (c *CalendarCache) Warm(ctx context.Context, year int) {
	c.Get(ctx, year-1, year+1)
}
