package openinghours

import (
	"context"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/datetime"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Facts is everything the formatter needs to answer one hours question.
type Facts struct {
	Time              time.Time `json:"time"`
	Lang              lang.Tag  `json:"lang"`
	Window            Window    `json:"-"`
	Hours             string    `json:"hours"`
	IsSunday          bool      `json:"is_sunday"`
	IsHoliday         bool      `json:"is_holiday"`
	HolidayName       string    `json:"holiday_name,omitempty"`
	WeatherHint       string    `json:"weather_hint,omitempty"`
	AskedSpecificTime bool      `json:"asked_specific_time"`
	IsGeneralQuery    bool      `json:"is_general_query"`
	Trace             []string  `json:"trace,omitempty"`
}

// WeatherSource reports an active severe-weather closure. An empty string
// means nothing severe; implementations fail open.
type WeatherSource interface {
	Hint(ctx context.Context, tag lang.Tag) string
}

// Holidays is the part of the holiday resolver the engine depends on.
type Holidays interface {
	IsPublicHoliday(d time.Time) (bool, string)
	FindOccurrence(name string, base time.Time) (holiday.Match, bool)
}

// Assembler builds Facts from a message.
type Assembler struct {
	table     Table
	holidays  Holidays
	extractor *datetime.Extractor
	weather   WeatherSource
	now       func() time.Time
}

// NewAssembler wires the assembler. weather may be nil.
func NewAssembler(table Table, holidays Holidays, weather WeatherSource) *Assembler {
	return &Assembler{
		table:     table,
		holidays:  holidays,
		extractor: datetime.New(holidays),
		weather:   weather,
		now:       hktime.Now,
	}
}

// Assemble resolves the date in message and collects the facts about it.
func (a *Assembler) Assemble(ctx context.Context, message string, tag lang.Tag, isGeneral bool) Facts {
	var trace []string
	if name, ok := holiday.DetectKeyword(message); ok {
		trace = append(trace, "holiday-keyword: "+name)
	}

	res := a.extractor.Parse(message, a.now(), tag)
	trace = append(trace, res.Trace...)

	f := a.factsFor(ctx, res.Time, tag)
	if res.Holiday != "" {
		f.IsHoliday = true
		f.HolidayName = res.Holiday
	}
	f.AskedSpecificTime = datetime.MentionsClock(message)
	f.IsGeneralQuery = isGeneral
	f.Trace = trace
	return f
}

// factsFor fills in the window, holiday and weather facts for t.
func (a *Assembler) factsFor(ctx context.Context, t time.Time, tag lang.Tag) Facts {
	t = t.In(hktime.Location())
	w := a.table.Window(t.Weekday())
	f := Facts{
		Time:     t,
		Lang:     tag,
		Window:   w,
		Hours:    w.String(),
		IsSunday: t.Weekday() == time.Sunday,
	}
	if a.holidays != nil {
		f.IsHoliday, f.HolidayName = a.holidays.IsPublicHoliday(t)
	}
	if a.weather != nil {
		f.WeatherHint = a.weather.Hint(ctx, tag)
	}
	return f
}
