package openinghours

import (
	"fmt"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/datetime"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Answer branches, in priority order.
const (
	BranchWeather = "weather"
	BranchHoliday = "holiday"
	BranchSunday  = "sunday"
	BranchOpen    = "open"
	BranchClosed  = "closed_at_time"
)

// nextOpenSearchDays bounds the forward scan for the next open day.
const nextOpenSearchDays = 14

// FormatOptions tunes the rendered answer.
type FormatOptions struct {
	// Brief drops the general hours line.
	Brief bool
}

// Formatter renders Facts as a localized answer.
type Formatter struct {
	table    Table
	holidays Holidays
}

// NewFormatter creates a formatter. holidays may be nil.
func NewFormatter(table Table, holidays Holidays) *Formatter {
	return &Formatter{table: table, holidays: holidays}
}

// Format renders f. Weather beats holiday, holiday beats Sunday, and only
// then are the day's hours considered.
func (fm *Formatter) Format(f Facts, opts FormatOptions) string {
	text, _ := fm.Render(f, opts)
	return text
}

// Render is Format that also reports which branch produced the answer.
func (fm *Formatter) Render(f Facts, opts FormatOptions) (string, string) {
	tag := f.Lang
	date := hktime.DayKey(f.Time)
	blurb := f.IsGeneralQuery && !opts.Brief

	switch {
	case f.WeatherHint != "":
		return lang.Pick(tag,
			fmt.Sprintf("Closed on %s due to severe weather. %s", date, f.WeatherHint),
			fmt.Sprintf("%s因惡劣天氣暫停開放。%s", date, f.WeatherHint),
			fmt.Sprintf("%s因恶劣天气暂停开放。%s", date, f.WeatherHint),
		), BranchWeather

	case f.IsHoliday:
		name := holiday.LocalizeName(f.HolidayName, tag)
		next := fm.nextOpenLine(f.Time, tag)
		text := lang.Pick(tag,
			fmt.Sprintf("Closed on %s due to a Hong Kong public holiday: %s. %s", date, name, next),
			fmt.Sprintf("%s因香港公眾假期（%s）休息。%s", date, name, next),
			fmt.Sprintf("%s因香港公众假期（%s）休息。%s", date, name, next),
		)
		return withBlurb(text, tag, blurb), BranchHoliday

	case f.IsSunday || f.Window.Closed:
		next := fm.nextOpenLine(f.Time, tag)
		text := lang.Pick(tag,
			fmt.Sprintf("Closed on %s (Sunday). %s", date, next),
			fmt.Sprintf("%s逢星期日休息。%s", date, next),
			fmt.Sprintf("%s周日休息。%s", date, next),
		)
		return withBlurb(text, tag, blurb), BranchSunday
	}

	w := f.Window
	if f.AskedSpecificTime {
		at := datetime.Clock{Hour: f.Time.Hour(), Minute: f.Time.Minute()}
		asked := clock(at)
		if w.Contains(at) {
			return lang.Pick(tag,
				fmt.Sprintf("Yes, %s at %s is within opening hours (%s).", date, asked, w),
				fmt.Sprintf("%s %s 仍在開放時段內（%s）。", date, asked, w),
				fmt.Sprintf("%s %s 在开放时段内（%s）。", date, asked, w),
			), BranchOpen
		}

		var next string
		if w.Before(at) {
			next = nextWindowLine(f.Time, w, tag)
		} else {
			next = fm.nextOpenLine(f.Time, tag)
		}
		return lang.Pick(tag,
			fmt.Sprintf("Closed at %s on %s. Day window: %s. %s", asked, date, w, next),
			fmt.Sprintf("%s %s 不在開放時段內。當日時段：%s。%s", date, asked, w, next),
			fmt.Sprintf("%s %s 不在开放时段内。当日时段：%s。%s", date, asked, w, next),
		), BranchClosed
	}

	text := lang.Pick(tag,
		fmt.Sprintf("%s open window: %s.", date, w),
		fmt.Sprintf("%s開放時段：%s。", date, w),
		fmt.Sprintf("%s开放时段：%s。", date, w),
	)
	return withBlurb(text, tag, blurb), BranchOpen
}

// HoursLine is the general hours blurb.
func HoursLine(tag lang.Tag) string {
	return lang.Pick(tag,
		"Hours: Mon–Fri 09:00–18:00; Sat 09:00–16:00; closed on Hong Kong public holidays.",
		"營業時間：星期一至五 09:00–18:00；星期六 09:00–16:00；香港公眾假期休息。",
		"营业时间：周一至周五 09:00–18:00；周六 09:00–16:00；香港公众假期休息。",
	)
}

func withBlurb(text string, tag lang.Tag, blurb bool) string {
	if !blurb {
		return text
	}
	return text + "\n" + HoursLine(tag)
}

func (fm *Formatter) nextOpenLine(from time.Time, tag lang.Tag) string {
	day, w := fm.NextOpenWindow(from)
	return nextWindowLine(day, w, tag)
}

func nextWindowLine(day time.Time, w Window, tag lang.Tag) string {
	d := hktime.DayKey(day)
	return lang.Pick(tag,
		fmt.Sprintf("Next open window: %s %s.", d, w),
		fmt.Sprintf("下一個開放時段：%s %s。", d, w),
		fmt.Sprintf("下一个开放时段：%s %s。", d, w),
	)
}

// NextOpenWindow returns the first open, non-holiday day after from. If none
// is found within two weeks it falls back to the following Monday.
func (fm *Formatter) NextOpenWindow(from time.Time) (time.Time, Window) {
	day := hktime.StartOfDay(from)
	for range nextOpenSearchDays {
		day = day.AddDate(0, 0, 1)
		w := fm.table.Window(day.Weekday())
		if w.Closed {
			continue
		}
		if fm.holidays != nil {
			if closed, _ := fm.holidays.IsPublicHoliday(day); closed {
				continue
			}
		}
		return day, w
	}

	monday := hktime.StartOfDay(from).AddDate(0, 0, 1)
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, 1)
	}
	return monday, DefaultTable().Window(time.Monday)
}
