package holiday

import (
	"context"
	"strings"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
)

// Calendar sources reported by the cache.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

// Match is a resolved holiday occurrence. Date is noon on the holiday.
type Match struct {
	Date  time.Time
	Label string
}

// Resolver answers holiday questions against a cached calendar.
type Resolver struct {
	primary  Provider
	fallback Provider
	cache    *CalendarCache
	logger   *logger.Logger
	onBuild  func(source string, took time.Duration)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFallback replaces the fixed-date fallback provider.
func WithFallback(p Provider) Option {
	return func(r *Resolver) { r.fallback = p }
}

// WithLogger sets the logger used when the primary provider degrades.
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithBuildHook is called after every calendar build.
func WithBuildHook(fn func(source string, took time.Duration)) Option {
	return func(r *Resolver) { r.onBuild = fn }
}

// NewResolver creates a resolver over primary. A nil primary means only the
// fallback table is available.
func NewResolver(primary Provider, opts ...Option) *Resolver {
	r := &Resolver{
		primary:  primary,
		fallback: NewFallbackProvider(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = NewCalendarCache(r.build)
	return r
}

// Cache exposes the calendar cache for warming and invalidation.
func (r *Resolver) Cache() *CalendarCache {
	return r.cache
}

func (r *Resolver) build(ctx context.Context, startYear, endYear int) (Calendar, string) {
	start := time.Now()
	cal, source := r.lookup(ctx, startYear, endYear)
	if r.onBuild != nil {
		r.onBuild(source, time.Since(start))
	}
	return cal, source
}

func (r *Resolver) lookup(ctx context.Context, startYear, endYear int) (Calendar, string) {
	if r.primary != nil {
		cal, err := r.primary.Lookup(ctx, startYear, endYear)
		if err == nil && cal.Len() > 0 {
			return cal, SourcePrimary
		}
		if r.logger != nil {
			log := r.logger.WithModule("holiday").WithField("years", []int{startYear, endYear})
			if err != nil {
				log = log.WithError(err)
			}
			log.Warn("Holiday provider unavailable, using fallback table")
		}
	}
	if r.fallback == nil {
		return Calendar{}, SourceFallback
	}
	cal, err := r.fallback.Lookup(ctx, startYear, endYear)
	if err != nil {
		return Calendar{}, SourceFallback
	}
	return cal, SourceFallback
}

func (r *Resolver) calendarFor(ctx context.Context, year int) Calendar {
	return r.cache.Get(ctx, year-1, year+1)
}

// IsPublicHoliday reports whether d is a public holiday and its official label.
func (r *Resolver) IsPublicHoliday(d time.Time) (bool, string) {
	return r.IsPublicHolidayContext(context.Background(), d)
}

// IsPublicHolidayContext is IsPublicHoliday with a context for the first build.
func (r *Resolver) IsPublicHolidayContext(ctx context.Context, d time.Time) (bool, string) {
	d = d.In(hktime.Location())
	label, ok := r.calendarFor(ctx, d.Year()).Label(d)
	return ok, label
}

// FindOccurrence returns the earliest holiday on or after base, within base's
// year and the next, whose label matches the canonical name or a synonym.
func (r *Resolver) FindOccurrence(name string, base time.Time) (Match, bool) {
	return r.FindOccurrenceContext(context.Background(), name, base)
}

// FindOccurrenceContext is FindOccurrence with a context for the first build.
func (r *Resolver) FindOccurrenceContext(ctx context.Context, name string, base time.Time) (Match, bool) {
	base = base.In(hktime.Location())
	baseDay := hktime.StartOfDay(base)
	synonyms := Synonyms(name)
	target := byName[strings.ToLower(name)]

	cal := r.calendarFor(ctx, base.Year())
	for _, year := range []int{base.Year(), base.Year() + 1} {
		for _, e := range cal.Year(year) {
			if e.Date.Before(baseDay) {
				continue
			}
			if owner, ok := ownerOf(e.Label); ok && target != nil && owner != target {
				continue
			}
			if labelMatches(e.Label, synonyms) {
				return Match{Date: hktime.AtClock(e.Date, 12, 0), Label: e.Label}, true
			}
		}
	}
	return Match{}, false
}

func labelMatches(label string, synonyms []string) bool {
	l := strings.ToLower(label)
	for _, s := range synonyms {
		if strings.Contains(l, s) || strings.Contains(s, l) {
			return true
		}
	}
	return false
}
