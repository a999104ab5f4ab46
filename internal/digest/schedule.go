package digest

import (
	"context"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

// HolidayChecker reports Hong Kong public holidays.
type HolidayChecker interface {
	IsPublicHolidayContext(ctx context.Context, d time.Time) (bool, string)
}

// NextRun returns the next hour:minute after now that falls on Monday to
// Saturday and is not a public holiday.
func NextRun(ctx context.Context, now time.Time, hour, minute int, holidays HolidayChecker) time.Time {
	return hktime.NextAt(now, hour, minute, func(t time.Time) bool {
		if t.Weekday() == time.Sunday {
			return false
		}
		if holidays != nil {
			if isHoliday, _ := holidays.IsPublicHolidayContext(ctx, t); isHoliday {
				return false
			}
		}
		return true
	})
}
