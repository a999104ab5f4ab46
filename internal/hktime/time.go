// Package hktime holds the Hong Kong time zone and the date helpers shared by
// the opening-hours engine, the digest scheduler and the chat layer.
package hktime

import (
	"fmt"
	"time"
)

// Hong Kong timezone for all business-hours reasoning and scheduling
var hkTZ *time.Location

func init() {
	var err error
	hkTZ, err = time.LoadLocation("Asia/Hong_Kong")
	if err != nil {
		// Fallback to UTC+8 if timezone data is not available
		hkTZ = time.FixedZone("Asia/Hong_Kong", 8*60*60)
	}
}

// Location returns the Asia/Hong_Kong location.
func Location() *time.Location {
	return hkTZ
}

// Now returns the current time in Hong Kong.
func Now() time.Time {
	return time.Now().In(hkTZ)
}

// Date builds a Hong Kong wall-clock time.
func Date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, hkTZ)
}

// StartOfDay truncates t to midnight in Hong Kong.
func StartOfDay(t time.Time) time.Time {
	t = t.In(hkTZ)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, hkTZ)
}

// AtClock returns t's date at hour:minute.
func AtClock(t time.Time, hour, minute int) time.Time {
	t = t.In(hkTZ)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, hkTZ)
}

// DayKey formats the calendar date as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.In(hkTZ).Format(time.DateOnly)
}

// SameDay reports whether a and b fall on the same Hong Kong date.
func SameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}

// FormatClock renders a wall-clock value as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// NextAt returns the first instant strictly after now whose wall clock is
// hour:minute and for which eligible (if non-nil) returns true. It looks at
// most eight days ahead and returns now+24h if nothing qualifies.
func NextAt(now time.Time, hour, minute int, eligible func(time.Time) bool) time.Time {
	now = now.In(hkTZ)
	for i := 0; i < 8; i++ {
		candidate := AtClock(now.AddDate(0, 0, i), hour, minute)
		if !candidate.After(now) {
			continue
		}
		if eligible != nil && !eligible(candidate) {
			continue
		}
		return candidate
	}
	return now.Add(24 * time.Hour)
}
