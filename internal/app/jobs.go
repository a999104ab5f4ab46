package app

import (
	"context"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/history"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// History cleanup runs daily at this Hong Kong wall-clock time.
const (
	historyCleanupHour   = 4
	historyCleanupMinute = 0
)

// weatherPrefetcher keeps the HKO feeds cached ahead of parent questions.
type weatherPrefetcher interface {
	Prefetch(ctx context.Context, tag lang.Tag) error
}

// startBackgroundJobs launches the digest scheduler, history cleanup and the
// holiday and weather warmers. All of them stop when ctx is cancelled.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	if a.digest != nil {
		a.wg.Go(func() { a.digest.Run(ctx) })
	}
	a.wg.Go(func() { a.historyCleanup(ctx) })
	a.wg.Go(func() { a.holidayWarmup(ctx) })
	if a.weather != nil && a.cfg.HKO.CacheTTL > 0 {
		a.wg.Go(func() { a.weatherWarmup(ctx) })
	}
}

// historyCleanup removes turns older than history.Retention once at startup
// and then daily.
func (a *Application) historyCleanup(ctx context.Context) {
	a.pruneHistory(ctx)
	for {
		next := hktime.NextAt(hktime.Now(), historyCleanupHour, historyCleanupMinute, nil)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			a.pruneHistory(ctx)
		}
	}
}

func (a *Application) pruneHistory(ctx context.Context) {
	start := time.Now()
	removed, err := a.history.DeleteBefore(ctx, time.Now().Add(-history.Retention))
	if err != nil {
		if ctx.Err() == nil {
			a.logger.WithError(err).Error("History cleanup failed")
		}
		return
	}
	a.logger.WithField("removed", removed).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("History cleanup completed")
}

// holidayWarmup rebuilds the holiday calendar around the current year so the
// first question after a year boundary does not pay for the build.
func (a *Application) holidayWarmup(ctx context.Context) {
	ticker := time.NewTicker(config.HolidayWarmInterval)
	defer ticker.Stop()

	a.warmHolidays(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.warmHolidays(ctx)
		}
	}
}

// warmHolidays builds the calendars and resolves the next occurrence of every
// named holiday, which spans into next year.
func (a *Application) warmHolidays(ctx context.Context) int {
	now := hktime.Now()
	a.holidays.Cache().Warm(ctx, now.Year())

	upcoming := 0
	for _, name := range holiday.CanonicalNames() {
		if _, ok := a.holidays.FindOccurrenceContext(ctx, name, now); ok {
			upcoming++
		}
	}
	a.logger.WithField("year", now.Year()).
		WithField("upcoming", upcoming).
		Debug("Holiday calendar warmed")
	return upcoming
}

// weatherWarmup refreshes the HKO feeds once per cache lifetime in every
// language, so a question rarely waits on the Observatory.
func (a *Application) weatherWarmup(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.HKO.CacheTTL)
	defer ticker.Stop()

	a.warmWeather(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.warmWeather(ctx)
		}
	}
}

func (a *Application) warmWeather(ctx context.Context) {
	for _, tag := range []lang.Tag{lang.ZhHK, lang.EN, lang.ZhCN} {
		if err := a.weather.Prefetch(ctx, tag); err != nil && ctx.Err() == nil {
			a.logger.WithError(err).WithField("lang", tag.String()).Debug("Weather prefetch incomplete")
		}
	}
}
