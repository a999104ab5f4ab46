package holiday

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

// ErrEmptyRange is returned when a provider is asked for an inverted year range.
var ErrEmptyRange = errors.New("holiday: empty year range")

var sundayNextDay = []cal.AltDay{{Day: time.Sunday, Offset: 1}}

// HKProvider computes the Hong Kong general holidays. Gregorian and Easter
// based days come from rickar/cal; lunar festivals and Ching Ming come from
// lunar-go.
type HKProvider struct {
	holidays []*cal.Holiday
}

// NewHKProvider returns the Hong Kong general holiday provider.
func NewHKProvider() *HKProvider {
	return &HKProvider{holidays: []*cal.Holiday{
		{Name: LabelNewYear, Month: time.January, Day: 1, Observed: sundayNextDay, Func: cal.CalcDayOfMonth},
		{Name: LabelLunarNewYear1, Func: lunarDay(1, 1)},
		{Name: LabelLunarNewYear2, Func: lunarDay(1, 2)},
		{Name: LabelLunarNewYear3, Func: lunarDay(1, 3)},
		{Name: LabelLunarNewYear4, Func: lunarNewYearFourthDay},
		{Name: LabelChingMing, Observed: sundayNextDay, Func: chingMing},
		{Name: LabelGoodFriday, Offset: -2, Func: cal.CalcEasterOffset},
		{Name: LabelDayAfterGoodFri, Offset: -1, Func: cal.CalcEasterOffset},
		{Name: LabelEasterMonday, Offset: 1, Func: cal.CalcEasterOffset},
		{Name: LabelLabourDay, Month: time.May, Day: 1, Observed: sundayNextDay, Func: cal.CalcDayOfMonth},
		{Name: LabelBuddha, Observed: sundayNextDay, Func: lunarDay(4, 8)},
		{Name: LabelTuenNg, Observed: sundayNextDay, Func: lunarDay(5, 5)},
		{Name: LabelEstablishmentDay, Month: time.July, Day: 1, Observed: sundayNextDay, Func: cal.CalcDayOfMonth},
		{Name: LabelMidAutumnNext, Func: midAutumnNext},
		{Name: LabelMidAutumnSecond, Func: midAutumnSecond},
		{Name: LabelNationalDay, Month: time.October, Day: 1, Observed: sundayNextDay, Func: cal.CalcDayOfMonth},
		{Name: LabelChungYeung, Observed: sundayNextDay, Func: lunarDay(9, 9)},
		{Name: LabelChristmas, Month: time.December, Day: 25, Observed: sundayNextDay, Func: cal.CalcDayOfMonth},
		{Name: LabelFirstAfterXmas, Func: firstWeekdayAfterChristmas},
	}}
}

// Lookup implements Provider.
func (p *HKProvider) Lookup(ctx context.Context, startYear, endYear int) (Calendar, error) {
	if endYear < startYear {
		return Calendar{}, fmt.Errorf("%w: %d..%d", ErrEmptyRange, startYear, endYear)
	}
	var entries []Entry
	for year := startYear; year <= endYear; year++ {
		if err := ctx.Err(); err != nil {
			return Calendar{}, err
		}
		entries = append(entries, p.year(year)...)
	}
	return NewCalendar(entries), nil
}

// year resolves one year. Actual days are placed first; days displaced by a
// Sunday or by another holiday move to the next free non-Sunday and are
// labelled "The day following X".
func (p *HKProvider) year(year int) []Entry {
	type pending struct {
		date  time.Time
		label string
	}
	taken := map[string]struct{}{}
	var entries []Entry
	var displaced []pending

	for _, h := range p.holidays {
		actual, observed := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		day := localDay(actual)
		key := hktime.DayKey(day)
		if _, clash := taken[key]; clash {
			displaced = append(displaced, pending{day.AddDate(0, 0, 1), h.Name})
			continue
		}
		taken[key] = struct{}{}
		entries = append(entries, Entry{Date: day, Label: h.Name})
		if !observed.IsZero() && !observed.Equal(actual) {
			displaced = append(displaced, pending{localDay(observed), h.Name})
		}
	}

	slices.SortStableFunc(displaced, func(a, b pending) int { return a.date.Compare(b.date) })
	for _, d := range displaced {
		day := d.date
		for {
			_, clash := taken[hktime.DayKey(day)]
			if !clash && day.Weekday() != time.Sunday {
				break
			}
			day = day.AddDate(0, 0, 1)
		}
		taken[hktime.DayKey(day)] = struct{}{}
		entries = append(entries, Entry{Date: day, Label: observedPrefix + d.label})
	}
	return entries
}

func localDay(t time.Time) time.Time {
	return hktime.Date(t.Year(), t.Month(), t.Day(), 0, 0)
}

func lunarDay(month, day int) cal.HolidayFn {
	return func(_ *cal.Holiday, year int) time.Time {
		return fromLunar(year, month, day)
	}
}

func fromLunar(year, month, day int) time.Time {
	s := calendar.NewLunarFromYmd(year, month, day).GetSolar()
	return hktime.Date(s.GetYear(), time.Month(s.GetMonth()), s.GetDay(), 0, 0)
}

// lunarNewYearFourthDay is a holiday only when one of the first three days
// falls on a Sunday.
func lunarNewYearFourthDay(_ *cal.Holiday, year int) time.Time {
	first := fromLunar(year, 1, 1)
	for i := range 3 {
		if first.AddDate(0, 0, i).Weekday() == time.Sunday {
			return first.AddDate(0, 0, 3)
		}
	}
	return time.Time{}
}

func midAutumnNext(_ *cal.Holiday, year int) time.Time {
	next := fromLunar(year, 8, 16)
	if next.Weekday() == time.Sunday {
		return time.Time{}
	}
	return next
}

func midAutumnSecond(_ *cal.Holiday, year int) time.Time {
	next := fromLunar(year, 8, 16)
	if next.Weekday() != time.Sunday {
		return time.Time{}
	}
	return next.AddDate(0, 0, 1)
}

// chingMing finds the Qingming solar term, which falls on April 4, 5 or 6.
func chingMing(_ *cal.Holiday, year int) time.Time {
	for day := 3; day <= 6; day++ {
		if calendar.NewSolarFromYmd(year, 4, day).GetLunar().GetJieQi() == "清明" {
			return hktime.Date(year, time.April, day, 0, 0)
		}
	}
	return hktime.Date(year, time.April, 5, 0, 0)
}

func firstWeekdayAfterChristmas(_ *cal.Holiday, year int) time.Time {
	d := hktime.Date(year, time.December, 26, 0, 0)
	for d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// FallbackProvider serves a minimal fixed-date table used when the full
// provider is unavailable.
type FallbackProvider struct {
	holidays []*cal.Holiday
}

// NewFallbackProvider returns the fixed-date fallback table.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{holidays: []*cal.Holiday{
		{Name: LabelLabourDay, Month: time.May, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: LabelEstablishmentDay, Month: time.July, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: LabelNationalDay, Month: time.October, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: LabelChristmas, Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
		{Name: LabelFirstAfterXmas, Func: firstWeekdayAfterChristmas},
	}}
}

// Lookup implements Provider.
func (p *FallbackProvider) Lookup(_ context.Context, startYear, endYear int) (Calendar, error) {
	if endYear < startYear {
		return Calendar{}, fmt.Errorf("%w: %d..%d", ErrEmptyRange, startYear, endYear)
	}
	var entries []Entry
	for year := startYear; year <= endYear; year++ {
		for _, h := range p.holidays {
			actual, _ := h.Calc(year)
			if actual.IsZero() {
				continue
			}
			entries = append(entries, Entry{Date: localDay(actual), Label: h.Name})
		}
	}
	return NewCalendar(entries), nil
}
