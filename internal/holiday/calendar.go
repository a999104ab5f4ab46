// Package holiday resolves Hong Kong general holidays.
//
// A Provider computes the official holiday labels for a range of years. The
// Resolver caches those calendars and answers two questions: whether a date
// is a public holiday, and when a named holiday next occurs. Free-text
// holiday mentions are mapped to canonical names by DetectKeyword.
package holiday

import (
	"context"
	"slices"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

// Entry is one holiday date with its official label.
type Entry struct {
	Date  time.Time
	Label string
}

// Calendar is an immutable set of holidays keyed by local day.
type Calendar struct {
	entries []Entry
	byDay   map[string]int
}

// NewCalendar builds a calendar from entries. When two entries share a day
// the first one wins.
func NewCalendar(entries []Entry) Calendar {
	c := Calendar{byDay: make(map[string]int, len(entries))}
	for _, e := range entries {
		day := hktime.StartOfDay(e.Date)
		key := hktime.DayKey(day)
		if _, dup := c.byDay[key]; dup {
			continue
		}
		c.byDay[key] = len(c.entries)
		c.entries = append(c.entries, Entry{Date: day, Label: e.Label})
	}
	slices.SortStableFunc(c.entries, func(a, b Entry) int { return a.Date.Compare(b.Date) })
	for i, e := range c.entries {
		c.byDay[hktime.DayKey(e.Date)] = i
	}
	return c
}

// Len returns the number of holidays.
func (c Calendar) Len() int { return len(c.entries) }

// Label returns the holiday label for the local day of t.
func (c Calendar) Label(t time.Time) (string, bool) {
	i, ok := c.byDay[hktime.DayKey(t)]
	if !ok {
		return "", false
	}
	return c.entries[i].Label, true
}

// Entries returns all holidays in date order.
func (c Calendar) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Year returns the holidays falling in year, in date order.
func (c Calendar) Year(year int) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}

// Provider supplies holiday calendars covering startYear..endYear inclusive.
type Provider interface {
	Lookup(ctx context.Context, startYear, endYear int) (Calendar, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, startYear, endYear int) (Calendar, error)

// Lookup calls f.
func (f ProviderFunc) Lookup(ctx context.Context, startYear, endYear int) (Calendar, error) {
	return f(ctx, startYear, endYear)
}
