package hktime

import (
	"testing"
	"time"
)

func TestLocationOffset(t *testing.T) {
	utcMidnight := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	got := utcMidnight.In(Location()).Format("15:04")
	if got != "08:00" {
		t.Errorf("UTC midnight in Hong Kong = %s, want 08:00", got)
	}
}

func TestDayKeyAndSameDay(t *testing.T) {
	a := Date(2025, time.December, 25, 0, 5)
	b := Date(2025, time.December, 25, 23, 55)
	if DayKey(a) != "2025-12-25" {
		t.Errorf("DayKey = %s, want 2025-12-25", DayKey(a))
	}
	if !SameDay(a, b) {
		t.Error("SameDay should be true for times on the same date")
	}
	if SameDay(a, a.AddDate(0, 0, 1)) {
		t.Error("SameDay should be false for consecutive dates")
	}
}

func TestNextAt(t *testing.T) {
	// Friday 2025-01-10 19:00
	now := Date(2025, time.January, 10, 19, 0)
	notSunday := func(t time.Time) bool { return t.Weekday() != time.Sunday }

	tests := []struct {
		name     string
		now      time.Time
		eligible func(time.Time) bool
		want     time.Time
	}{
		{"later today", Date(2025, time.January, 10, 17, 0), nil, Date(2025, time.January, 10, 18, 0)},
		{"already passed rolls to tomorrow", now, nil, Date(2025, time.January, 11, 18, 0)},
		{"skips sunday", Date(2025, time.January, 11, 19, 0), notSunday, Date(2025, time.January, 13, 18, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAt(tt.now, 18, 0, tt.eligible)
			if !got.Equal(tt.want) {
				t.Errorf("NextAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(9, 5); got != "09:05" {
		t.Errorf("FormatClock(9, 5) = %q, want %q", got, "09:05")
	}
}
