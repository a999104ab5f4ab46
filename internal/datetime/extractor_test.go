package datetime

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// wednesday is 2025-03-12 10:00 in Hong Kong.
var wednesday = hktime.Date(2025, time.March, 12, 10, 0)

func TestExtractor_Parse(t *testing.T) {
	t.Parallel()
	ex := New(holiday.NewResolver(holiday.NewHKProvider()))

	tests := []struct {
		name     string
		message  string
		tag      lang.Tag
		now      time.Time
		want     string
		strategy string
		holiday  string
	}{
		{"next weekday", "Are you open next Monday?", lang.EN, wednesday, "2025-03-17 12:00", StrategyOrdinal, ""},
		{"short weekday with range", "Any class Tue 4-5pm?", lang.EN, wednesday, "2025-03-18 17:00", StrategyOrdinal, ""},
		{"tomorrow with time", "Are you open tomorrow at 3pm?", lang.EN, wednesday, "2025-03-13 15:00", StrategyRelative, ""},
		{"day after tomorrow", "What about the day after tomorrow?", lang.EN, wednesday, "2025-03-14 12:00", StrategyRelative, ""},
		{"zh relative with chinese time", "聽日下午三點半開唔開？", lang.ZhHK, wednesday, "2025-03-13 15:30", StrategyRelative, ""},
		{"zh day after", "后天开门吗", lang.ZhCN, wednesday, "2025-03-14 12:00", StrategyRelative, ""},
		{"zh weekday with time", "星期六上午10點有冇位？", lang.ZhHK, wednesday, "2025-03-15 10:00", StrategyOrdinal, ""},
		{"english ordinal", "Is the centre open on the 20th?", lang.EN, wednesday, "2025-03-20 12:00", StrategyOrdinal, ""},
		{"zh ordinal wraps month", "3號有冇課？", lang.ZhHK, wednesday, "2025-04-03 12:00", StrategyOrdinal, ""},
		{"special day", "平安夜幾點開？", lang.ZhHK, wednesday, "2025-12-24 12:00", StrategySpecialDay, ""},
		{"special day rolls over", "Open on Christmas Eve?", lang.EN, hktime.Date(2025, time.December, 26, 9, 0), "2026-12-24 12:00", StrategySpecialDay, ""},
		{"lunar new year's eve", "年三十開唔開", lang.ZhHK, wednesday, "2026-02-16 12:00", StrategySpecialDay, ""},
		{"english lunar eve", "Open on Lunar New Year's Eve?", lang.EN, wednesday, "2026-02-16 12:00", StrategySpecialDay, ""},
		{"new year's eve", "Are you open on New Year's Eve?", lang.EN, wednesday, "2025-12-31 12:00", StrategySpecialDay, ""},
		{"holiday name", "What time do you close on Christmas?", lang.EN, wednesday, "2025-12-25 12:00", StrategyHolidayName, holiday.LabelChristmas},
		{"zh holiday name", "中秋節開唔開？", lang.ZhHK, wednesday, "2025-10-07 12:00", StrategyHolidayName, holiday.LabelMidAutumnNext},
		{"slash date is day first", "We can't attend on 11/5. Sorry!", lang.EN, wednesday, "2025-05-11 12:00", StrategyGeneral, ""},
		{"past slash date rolls over", "Can we come on 5/2?", lang.EN, wednesday, "2026-02-05 12:00", StrategyGeneral, ""},
		{"explicit year never rolls", "Was it open on 5/2/2025?", lang.EN, wednesday, "2025-02-05 12:00", StrategyGeneral, ""},
		{"iso date", "2025-12-31 10:00 open?", lang.EN, wednesday, "2025-12-31 10:00", StrategyGeneral, ""},
		{"zh month day", "3月20日開唔開", lang.ZhHK, wednesday, "2025-03-20 12:00", StrategyGeneral, ""},
		{"zh numeral month day", "十二月二十號有冇開", lang.ZhHK, wednesday, "2025-12-20 12:00", StrategyGeneral, ""},
		{"english month day", "are you open on march 20th", lang.EN, wednesday, "2025-03-20 12:00", StrategyGeneral, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ex.Parse(tt.message, tt.now, tt.tag)
			if !got.Found {
				t.Fatalf("Parse(%q) found nothing, trace %v", tt.message, got.Trace)
			}
			if s := got.Time.Format("2006-01-02 15:04"); s != tt.want {
				t.Errorf("Parse(%q) = %s, want %s (trace %v)", tt.message, s, tt.want, got.Trace)
			}
			if got.Strategy != tt.strategy {
				t.Errorf("Parse(%q) strategy = %s, want %s", tt.message, got.Strategy, tt.strategy)
			}
			if got.Holiday != tt.holiday {
				t.Errorf("Parse(%q) holiday = %q, want %q", tt.message, got.Holiday, tt.holiday)
			}
			if got.Time.Location() != hktime.Location() {
				t.Errorf("Parse(%q) location = %v", tt.message, got.Time.Location())
			}
		})
	}
}

func TestExtractor_FallbackToNow(t *testing.T) {
	t.Parallel()
	ex := New(holiday.NewResolver(holiday.NewHKProvider()))

	for _, msg := range []string{"What are your opening hours?", "I have 3 kids", "營業時間係幾點？", ""} {
		got := ex.Parse(msg, wednesday, lang.EN)
		if got.Found || !got.Time.Equal(wednesday) || got.Strategy != "now" {
			t.Errorf("Parse(%q) = %v %s found=%v, want now", msg, got.Time, got.Strategy, got.Found)
		}
	}
}

func TestExtractor_FallbackKeepsAskedTime(t *testing.T) {
	t.Parallel()
	ex := New(holiday.NewResolver(holiday.NewHKProvider()))

	tests := []struct {
		message string
		tag     lang.Tag
		want    string
	}{
		{"Are you open at 3pm?", lang.EN, "2025-03-12 15:00"},
		{"Open at 19:30?", lang.EN, "2025-03-12 19:30"},
		{"下午五點開唔開？", lang.ZhHK, "2025-03-12 17:00"},
	}
	for _, tt := range tests {
		got := ex.Parse(tt.message, wednesday, tt.tag)
		if got.Found || got.Strategy != "now" {
			t.Errorf("Parse(%q) strategy = %s found=%v, want the fallback", tt.message, got.Strategy, got.Found)
		}
		if s := got.Time.Format("2006-01-02 15:04"); s != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.message, s, tt.want)
		}
		if last := got.Trace[len(got.Trace)-1]; !strings.HasPrefix(last, "fallback: today at") {
			t.Errorf("Parse(%q) trace = %v", tt.message, got.Trace)
		}
	}
}

type missingFinder struct{}

func (missingFinder) FindOccurrence(string, time.Time) (holiday.Match, bool) {
	return holiday.Match{}, false
}

func TestExtractor_HolidayNameHalts(t *testing.T) {
	t.Parallel()
	ex := New(missingFinder{})

	// "tomorrow" would hit the relative strategy if the chain continued.
	got := ex.Parse("Open on Tuen Ng tomorrow?", wednesday, lang.EN)
	if got.Found {
		t.Fatalf("Parse() found %v, want halt", got.Time)
	}
	if got.Strategy != StrategyHolidayName || !got.Time.Equal(wednesday) {
		t.Errorf("Parse() = %s at %v, want holiday-name halt at now", got.Strategy, got.Time)
	}
	if len(got.Trace) == 0 || !strings.Contains(got.Trace[len(got.Trace)-1], "halt") {
		t.Errorf("Trace = %v, want halt entry", got.Trace)
	}
}

func TestLooksLikeDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"11/5", true},
		{"Dec 3", true},
		{"3rd of March", true},
		{"3月5日", true},
		{"5號", true},
		{"friday", true},
		{"星期五", true},
		{"I have 3 kids", false},
		{"how much is the fee", false},
	}
	for _, tt := range tests {
		if got := LooksLikeDate(tt.in); got != tt.want {
			t.Errorf("LooksLikeDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMentions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"We can't attend on 11/5. Sorry!", []string{"11/5"}},
		{"Can we switch to next Monday 4pm?", []string{"next Monday", "4pm"}},
		{"聽日下午三點可以嗎", []string{"聽日", "下午三點"}},
		{"下星期三請假", []string{"下星期三"}},
		{"Thanks!", nil},
	}
	for _, tt := range tests {
		if got := Mentions(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("Mentions(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
