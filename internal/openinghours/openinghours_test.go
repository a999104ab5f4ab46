package openinghours

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/datetime"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// wednesday is 2025-03-12 10:00 in Hong Kong.
var wednesday = hktime.Date(2025, time.March, 12, 10, 0)

type fixedWeather string

func (w fixedWeather) Hint(context.Context, lang.Tag) string { return string(w) }

var resolver = holiday.NewResolver(holiday.NewHKProvider())

func newTestService(t *testing.T, now time.Time, weather WeatherSource) *Service {
	t.Helper()
	s, err := NewService(DefaultTable(), resolver, weather, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return s
}

func TestTable_Window(t *testing.T) {
	t.Parallel()
	table := DefaultTable()

	for wd := time.Monday; wd <= time.Friday; wd++ {
		if got := table.Window(wd).String(); got != "09:00–18:00" {
			t.Errorf("Window(%s) = %s, want 09:00–18:00", wd, got)
		}
	}
	if got := table.Window(time.Saturday).String(); got != "09:00–16:00" {
		t.Errorf("Window(Saturday) = %s, want 09:00–16:00", got)
	}
	if !table.Window(time.Sunday).Closed {
		t.Error("Window(Sunday) should be closed")
	}
}

func TestTable_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultTable().Validate(); err != nil {
		t.Errorf("DefaultTable().Validate() = %v", err)
	}
	if err := (Table{}).Validate(); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("empty table Validate() = %v, want ErrEmptyTable", err)
	}
	inverted := Table{time.Monday: {Open: datetime.Clock{Hour: 18}, Close: datetime.Clock{Hour: 9}}}
	if err := inverted.Validate(); err == nil {
		t.Error("inverted window should fail validation")
	}
	if _, err := NewService(Table{}, resolver, nil); err == nil {
		t.Error("NewService with empty table should fail")
	}
}

func TestService_ComputeOpeningAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		tag     lang.Tag
		opts    Options
		want    string
	}{
		{
			name:    "next monday",
			message: "Are you open next Monday?",
			tag:     lang.EN,
			want:    "2025-03-17 open window: 09:00–18:00.",
		},
		{
			name:    "christmas is a holiday",
			message: "What time do you close on Christmas?",
			tag:     lang.EN,
			want:    "Closed on 2025-12-25 due to a Hong Kong public holiday: Christmas Day. Next open window: 2025-12-27 09:00–16:00.",
		},
		{
			name:    "christmas eve in traditional chinese",
			message: "平安夜幾點開？",
			tag:     lang.ZhHK,
			want:    "2025-12-24開放時段：09:00–18:00。",
		},
		{
			name:    "sunday",
			message: "Are you open on Sunday?",
			tag:     lang.EN,
			want:    "Closed on 2025-03-16 (Sunday). Next open window: 2025-03-17 09:00–18:00.",
		},
		{
			name:    "sunday in simplified chinese",
			message: "星期天开门吗？",
			tag:     lang.ZhCN,
			want:    "2025-03-16周日休息。下一个开放时段：2025-03-17 09:00–18:00。",
		},
		{
			name:    "specific time within hours",
			message: "Are you open tomorrow at 3pm?",
			tag:     lang.EN,
			want:    "Yes, 2025-03-13 at 15:00 is within opening hours (09:00–18:00).",
		},
		{
			name:    "after closing",
			message: "Are you open tomorrow at 7pm?",
			tag:     lang.EN,
			want:    "Closed at 19:00 on 2025-03-13. Day window: 09:00–18:00. Next open window: 2025-03-14 09:00–18:00.",
		},
		{
			name:    "before opening points at the same day",
			message: "Are you open tomorrow at 8am?",
			tag:     lang.EN,
			want:    "Closed at 08:00 on 2025-03-13. Day window: 09:00–18:00. Next open window: 2025-03-13 09:00–18:00.",
		},
		{
			name:    "time only after closing uses today",
			message: "Are you open at 7pm?",
			tag:     lang.EN,
			want:    "Closed at 19:00 on 2025-03-12. Day window: 09:00–18:00. Next open window: 2025-03-13 09:00–18:00.",
		},
		{
			name:    "time only within hours",
			message: "Are you open at 3pm?",
			tag:     lang.EN,
			want:    "Yes, 2025-03-12 at 15:00 is within opening hours (09:00–18:00).",
		},
		{
			name:    "saturday after closing",
			message: "星期六下午五點開唔開？",
			tag:     lang.ZhHK,
			want:    "2025-03-15 17:00 不在開放時段內。當日時段：09:00–16:00。下一個開放時段：2025-03-17 09:00–18:00。",
		},
		{
			name:    "mid-autumn in traditional chinese",
			message: "中秋節開唔開？",
			tag:     lang.ZhHK,
			want:    "2025-10-07因香港公眾假期（中秋節翌日）休息。下一個開放時段：2025-10-08 09:00–18:00。",
		},
		{
			name:    "general query gets the blurb",
			message: "What are your opening hours?",
			tag:     lang.EN,
			opts:    Options{IsGeneral: true},
			want:    "2025-03-12 open window: 09:00–18:00.\nHours: Mon–Fri 09:00–18:00; Sat 09:00–16:00; closed on Hong Kong public holidays.",
		},
		{
			name:    "brief drops the blurb",
			message: "What are your opening hours?",
			tag:     lang.EN,
			opts:    Options{IsGeneral: true, Brief: true},
			want:    "2025-03-12 open window: 09:00–18:00.",
		},
		{
			name:    "explicit time suppresses the blurb",
			message: "Open at 10:00?",
			tag:     lang.EN,
			opts:    Options{IsGeneral: true},
			want:    "Yes, 2025-03-12 at 10:00 is within opening hours (09:00–18:00).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestService(t, wednesday, nil)
			got := s.ComputeOpeningAnswer(context.Background(), tt.message, tt.tag, tt.opts)
			if got != tt.want {
				t.Errorf("ComputeOpeningAnswer(%q)\n got: %q\nwant: %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestService_WeatherAlwaysWins(t *testing.T) {
	t.Parallel()
	hint := "Weather tip: Black Rainstorm Warning Signal"
	s := newTestService(t, wednesday, fixedWeather(hint))

	for _, msg := range []string{
		"What time do you close on Christmas?",
		"Are you open on Sunday?",
		"Are you open tomorrow at 3pm?",
	} {
		got, _, branch := s.Answer(context.Background(), msg, lang.EN, Options{IsGeneral: true})
		if branch != BranchWeather {
			t.Errorf("Answer(%q) branch = %s, want weather", msg, branch)
		}
		if !strings.Contains(got, hint) || !strings.Contains(got, "Closed") {
			t.Errorf("Answer(%q) = %q, want closure with hint", msg, got)
		}
	}
}

func TestService_HolidayNeverOpen(t *testing.T) {
	t.Parallel()

	cal, err := holiday.NewHKProvider().Lookup(context.Background(), 2025, 2026)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	for _, e := range cal.Entries() {
		now := hktime.AtClock(e.Date, 10, 0)
		s := newTestService(t, now, nil)
		for _, msg := range []string{"Are you open today?", "Open today at 11:00?"} {
			_, f, branch := s.Answer(context.Background(), msg, lang.EN, Options{})
			if !f.IsHoliday {
				t.Errorf("%s: facts not flagged as holiday", hktime.DayKey(e.Date))
			}
			if branch != BranchHoliday {
				t.Errorf("%s %q: branch = %s, want holiday", hktime.DayKey(e.Date), msg, branch)
			}
		}
	}
}

func TestService_NextOpenWindowSkipsSundayAndHolidays(t *testing.T) {
	t.Parallel()
	s := newTestService(t, wednesday, nil)

	// 2025-12-25 and 26 are holidays, the 27th a Saturday.
	day, w := s.NextOpenWindow(hktime.Date(2025, time.December, 24, 12, 0))
	if got := hktime.DayKey(day); got != "2025-12-27" || w.String() != "09:00–16:00" {
		t.Errorf("NextOpenWindow(12-24) = %s %s, want 2025-12-27 09:00–16:00", got, w)
	}
	day, _ = s.NextOpenWindow(hktime.Date(2025, time.March, 15, 12, 0))
	if got := hktime.DayKey(day); got != "2025-03-17" {
		t.Errorf("NextOpenWindow(Saturday) = %s, want the Monday", got)
	}
}

type everyDayHoliday struct{}

func (everyDayHoliday) IsPublicHoliday(time.Time) (bool, string) { return true, "Test Day" }
func (everyDayHoliday) FindOccurrence(string, time.Time) (holiday.Match, bool) {
	return holiday.Match{}, false
}

func TestFormatter_NextOpenWindowFallsBackToMonday(t *testing.T) {
	t.Parallel()
	fm := NewFormatter(DefaultTable(), everyDayHoliday{})

	day, w := fm.NextOpenWindow(wednesday)
	if got := hktime.DayKey(day); got != "2025-03-17" {
		t.Errorf("NextOpenWindow() = %s, want 2025-03-17", got)
	}
	if w.String() != "09:00–18:00" {
		t.Errorf("NextOpenWindow() window = %s", w)
	}
}

func TestService_ExtractOpeningContext(t *testing.T) {
	t.Parallel()
	s := newTestService(t, wednesday, nil)

	got := s.ExtractOpeningContext(context.Background(), "Are you open on Christmas?", lang.EN)
	for _, want := range []string{
		"weather: none",
		"date: 2025-12-25",
		"weekday: Thursday",
		"holiday: Christmas Day",
		"hours: 09:00–18:00",
		"status: closed (public holiday)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ExtractOpeningContext() missing %q in:\n%s", want, got)
		}
	}

	got = s.ExtractOpeningContext(context.Background(), "Open tomorrow at 7pm?", lang.EN)
	if !strings.Contains(got, "time: 19:00") || !strings.Contains(got, "status: closed at 19:00") {
		t.Errorf("ExtractOpeningContext(7pm) =\n%s", got)
	}
}

func TestService_SummarizeUserDateIntent(t *testing.T) {
	t.Parallel()
	s := newTestService(t, wednesday, nil)

	tests := []struct {
		message string
		tag     lang.Tag
		want    string
	}{
		{"We can't attend on 11/5. Sorry!", lang.EN, "You mentioned: 11/5."},
		{"聽日下午三點想請假", lang.ZhHK, "你提到的日期／時間：聽日、下午三點。"},
		{"Thank you!", lang.EN, ""},
	}
	for _, tt := range tests {
		got := s.SummarizeUserDateIntent(tt.message, tt.tag)
		if got != tt.want {
			t.Errorf("SummarizeUserDateIntent(%q) = %q, want %q", tt.message, got, tt.want)
		}
		if strings.Contains(strings.ToLower(got), "open") || strings.Contains(got, "休息") {
			t.Errorf("SummarizeUserDateIntent(%q) judged opening: %q", tt.message, got)
		}
	}
}

func TestService_CenterIsOpenNow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		now     time.Time
		weather WeatherSource
		want    bool
	}{
		{"weekday morning", wednesday, nil, true},
		{"weekday evening", hktime.Date(2025, time.March, 12, 19, 0), nil, false},
		{"saturday afternoon", hktime.Date(2025, time.March, 15, 15, 59), nil, true},
		{"saturday after four", hktime.Date(2025, time.March, 15, 16, 30), nil, false},
		{"sunday", hktime.Date(2025, time.March, 16, 10, 0), nil, false},
		{"public holiday", hktime.Date(2025, time.October, 1, 10, 0), nil, false},
		{"severe weather", wednesday, fixedWeather("Weather tip: Typhoon Signal No. 8"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestService(t, tt.now, tt.weather)
			if got := s.CenterIsOpenNow(context.Background(), lang.EN); got != tt.want {
				t.Errorf("CenterIsOpenNow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnswersKeepTheirLanguage(t *testing.T) {
	t.Parallel()

	messages := []string{
		"What time do you close on Christmas?",
		"Are you open on Sunday?",
		"Are you open tomorrow at 7pm?",
		"Are you open next Monday?",
	}
	weathers := map[lang.Tag]WeatherSource{
		lang.ZhHK: fixedWeather("天氣提示：黑色暴雨警告信號"),
		lang.ZhCN: fixedWeather("天气提示：黑色暴雨警告信号"),
		lang.EN:   fixedWeather("Weather tip: Black Rainstorm Warning Signal"),
	}

	for _, tag := range lang.All {
		for _, w := range []WeatherSource{nil, weathers[tag]} {
			s := newTestService(t, wednesday, w)
			for _, msg := range messages {
				answer := s.ComputeOpeningAnswer(context.Background(), msg, tag, Options{IsGeneral: true})
				if got := lang.Detect(answer, ""); got != tag {
					t.Errorf("Detect(answer for %q in %s) = %s\n%s", msg, tag, got, answer)
				}
			}
		}
	}
}
