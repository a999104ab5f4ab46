package holiday

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

func day(y int, m time.Month, d int) time.Time {
	return hktime.Date(y, m, d, 0, 0)
}

func TestHKProvider_2025(t *testing.T) {
	t.Parallel()

	cal, err := NewHKProvider().Lookup(context.Background(), 2025, 2025)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	tests := []struct {
		date  time.Time
		label string
	}{
		{day(2025, time.January, 1), LabelNewYear},
		{day(2025, time.January, 29), LabelLunarNewYear1},
		{day(2025, time.January, 30), LabelLunarNewYear2},
		{day(2025, time.January, 31), LabelLunarNewYear3},
		{day(2025, time.April, 4), LabelChingMing},
		{day(2025, time.April, 18), LabelGoodFriday},
		{day(2025, time.April, 19), LabelDayAfterGoodFri},
		{day(2025, time.April, 21), LabelEasterMonday},
		{day(2025, time.May, 1), LabelLabourDay},
		{day(2025, time.May, 5), LabelBuddha},
		{day(2025, time.May, 31), LabelTuenNg},
		{day(2025, time.July, 1), LabelEstablishmentDay},
		{day(2025, time.October, 1), LabelNationalDay},
		{day(2025, time.October, 7), LabelMidAutumnNext},
		{day(2025, time.October, 29), LabelChungYeung},
		{day(2025, time.December, 25), LabelChristmas},
		{day(2025, time.December, 26), LabelFirstAfterXmas},
	}

	for _, tt := range tests {
		got, ok := cal.Label(tt.date)
		if !ok || got != tt.label {
			t.Errorf("Label(%s) = %q, %v; want %q", hktime.DayKey(tt.date), got, ok, tt.label)
		}
	}

	if _, ok := cal.Label(day(2025, time.February, 1)); ok {
		t.Error("2025-02-01 should not be a holiday")
	}
	if got := len(cal.Year(2025)); got != len(tests) {
		t.Errorf("len(Year(2025)) = %d, want %d", got, len(tests))
	}
}

func TestHKProvider_SundayRules(t *testing.T) {
	t.Parallel()

	cal, err := NewHKProvider().Lookup(context.Background(), 2022, 2023)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	tests := []struct {
		name  string
		date  time.Time
		label string
	}{
		// Christmas 2022 fell on a Sunday.
		{"first weekday after Christmas", day(2022, time.December, 26), LabelFirstAfterXmas},
		{"observed Christmas moves past the 26th", day(2022, time.December, 27), observedPrefix + LabelChristmas},
		// Lunar New Year's Day 2023 fell on a Sunday.
		{"fourth day of Lunar New Year", day(2023, time.January, 25), LabelLunarNewYear4},
		// National Day 2023 fell on a Sunday.
		{"observed National Day", day(2023, time.October, 2), observedPrefix + LabelNationalDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cal.Label(tt.date)
			if !ok || got != tt.label {
				t.Errorf("Label(%s) = %q, %v; want %q", hktime.DayKey(tt.date), got, ok, tt.label)
			}
		})
	}
}

func TestHKProvider_InvertedRange(t *testing.T) {
	t.Parallel()

	_, err := NewHKProvider().Lookup(context.Background(), 2026, 2025)
	if !errors.Is(err, ErrEmptyRange) {
		t.Errorf("Lookup(2026, 2025) error = %v, want ErrEmptyRange", err)
	}
}

func TestFallbackProvider(t *testing.T) {
	t.Parallel()

	cal, err := NewFallbackProvider().Lookup(context.Background(), 2027, 2027)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if cal.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", cal.Len())
	}
	// Christmas 2027 is a Saturday, the 26th a Sunday.
	if got, _ := cal.Label(day(2027, time.December, 27)); got != LabelFirstAfterXmas {
		t.Errorf("Label(2027-12-27) = %q, want %q", got, LabelFirstAfterXmas)
	}
}
