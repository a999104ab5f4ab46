package datetime

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/6tail/lunar-go/calendar"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
)

// Strategy names, as they appear in traces.
const (
	StrategySpecialDay  = "special-day"
	StrategyHolidayName = "holiday-name"
	StrategyRelative    = "relative-day"
	StrategyOrdinal     = "ordinal-weekday"
	StrategyGeneral     = "general-parser"
)

// specialDay is a named non-holiday date such as Christmas Eve.
type specialDay struct {
	name    string
	english []string
	chinese []string
	dateIn  func(year int) time.Time
}

var specialDays = []specialDay{
	{
		name:    "Christmas Eve",
		english: []string{"christmas eve", "xmas eve"},
		chinese: []string{"平安夜", "聖誕前夕", "圣诞前夕"},
		dateIn:  func(y int) time.Time { return hktime.Date(y, time.December, 24, 0, 0) },
	},
	{
		name:    "Lunar New Year's Eve",
		english: []string{"lunar new year's eve", "chinese new year's eve", "lunar new years eve", "chinese new years eve"},
		chinese: []string{"年三十", "年卅晚", "年卅", "大年夜", "除夕"},
		dateIn:  lunarNewYearsEve,
	},
	{
		name:    "New Year's Eve",
		english: []string{"new year's eve", "new years eve"},
		chinese: []string{"跨年", "新年前夕"},
		dateIn:  func(y int) time.Time { return hktime.Date(y, time.December, 31, 0, 0) },
	},
}

// lunarNewYearsEve returns the eve of the Lunar New Year that starts in year.
func lunarNewYearsEve(year int) time.Time {
	s := calendar.NewLunarFromYmd(year, 1, 1).GetSolar()
	return hktime.Date(s.GetYear(), time.Month(s.GetMonth()), s.GetDay(), 0, 0).AddDate(0, 0, -1)
}

func (d specialDay) mentionedIn(in *Input) bool {
	for _, kw := range d.english {
		if strings.Contains(in.Lower, kw) {
			return true
		}
	}
	for _, kw := range d.chinese {
		if strings.Contains(in.Message, kw) {
			return true
		}
	}
	return false
}

type specialDayStrategy struct{}

func (specialDayStrategy) Name() string { return StrategySpecialDay }

func (specialDayStrategy) Attempt(in *Input) (time.Time, Verdict) {
	today := hktime.StartOfDay(in.Now)
	for _, d := range specialDays {
		if !d.mentionedIn(in) {
			continue
		}
		date := d.dateIn(today.Year())
		if date.Before(today) {
			date = d.dateIn(today.Year() + 1)
		}
		in.Note = d.name
		return in.at(date), Hit
	}
	return time.Time{}, Miss
}

type holidayNameStrategy struct {
	finder HolidayFinder
}

func (holidayNameStrategy) Name() string { return StrategyHolidayName }

func (s holidayNameStrategy) Attempt(in *Input) (time.Time, Verdict) {
	if s.finder == nil {
		return time.Time{}, Miss
	}
	name, ok := holiday.DetectKeyword(in.Message)
	if !ok {
		return time.Time{}, Miss
	}
	m, ok := s.finder.FindOccurrence(name, in.Now)
	if !ok {
		in.Note = name + " not in calendar"
		return time.Time{}, Halt
	}
	in.Holiday = m.Label
	in.Note = m.Label
	return m.Date, Hit
}

type relativePhrase struct {
	phrase string
	offset int
	re     *regexp.Regexp
}

// relativePhrases is sorted longest first at init.
var relativePhrases = []relativePhrase{
	{phrase: "day after tomorrow", offset: 2},
	{phrase: "the day after tomorrow", offset: 2},
	{phrase: "tomorrow", offset: 1},
	{phrase: "tmrw", offset: 1},
	{phrase: "tmr", offset: 1},
	{phrase: "tonight", offset: 0},
	{phrase: "today", offset: 0},
	{phrase: "大後日", offset: 3},
	{phrase: "大後天", offset: 3},
	{phrase: "大后天", offset: 3},
	{phrase: "後日", offset: 2},
	{phrase: "後天", offset: 2},
	{phrase: "后天", offset: 2},
	{phrase: "聽日", offset: 1},
	{phrase: "听日", offset: 1},
	{phrase: "明日", offset: 1},
	{phrase: "明天", offset: 1},
	{phrase: "今日", offset: 0},
	{phrase: "今天", offset: 0},
	{phrase: "今晚", offset: 0},
}

func init() {
	slices.SortStableFunc(relativePhrases, func(a, b relativePhrase) int {
		return len([]rune(b.phrase)) - len([]rune(a.phrase))
	})
	for i := range relativePhrases {
		p := &relativePhrases[i]
		if isASCII(p.phrase) {
			p.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(p.phrase) + `\b`)
		}
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

type relativeDayStrategy struct{}

func (relativeDayStrategy) Name() string { return StrategyRelative }

func (relativeDayStrategy) Attempt(in *Input) (time.Time, Verdict) {
	for _, p := range relativePhrases {
		var hit bool
		if p.re != nil {
			hit = p.re.MatchString(in.Lower)
		} else {
			hit = strings.Contains(in.Message, p.phrase)
		}
		if hit {
			in.Note = p.phrase
			return in.at(in.Now.AddDate(0, 0, p.offset)), Hit
		}
	}
	return time.Time{}, Miss
}

var (
	enWeekdays = map[string]time.Weekday{
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
		"sunday": time.Sunday, "sun": time.Sunday,
	}
	zhWeekdays = map[string]time.Weekday{
		"一": time.Monday, "二": time.Tuesday, "三": time.Wednesday, "四": time.Thursday,
		"五": time.Friday, "六": time.Saturday, "日": time.Sunday, "天": time.Sunday,
	}

	enWeekdayRe = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues|tue|wed|thurs|thur|thu|fri|sat|sun)\b`)
	zhWeekdayRe = regexp.MustCompile(`(?:星期|禮拜|礼拜|週|周)([一二三四五六日天])`)

	enOrdinalRe = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)
	zhOrdinalRe = regexp.MustCompile(`(` + zhNumeral + `)\s*[號号]`)
	zhMonthRe   = regexp.MustCompile(`(` + zhNumeral + `)\s*月`)
)

// ordinalSearchDays bounds the forward scan for an ordinal day or weekday.
const ordinalSearchDays = 60

// findWeekday returns the first weekday named in the message.
func findWeekday(in *Input) (time.Weekday, bool) {
	if m := zhWeekdayRe.FindStringSubmatch(in.Message); m != nil {
		return zhWeekdays[m[1]], true
	}
	if m := enWeekdayRe.FindStringSubmatch(in.Lower); m != nil {
		return enWeekdays[m[1]], true
	}
	return 0, false
}

// findOrdinalDay returns a day of month written with an ordinal marker. Dates
// that also name a month are left to the general parser.
func findOrdinalDay(in *Input) (int, bool) {
	if zhMonthRe.MatchString(in.Message) || monthDayRe.MatchString(in.Lower) {
		return 0, false
	}
	if m := enOrdinalRe.FindStringSubmatch(in.Lower); m != nil {
		if n, ok := ChineseNumber(m[1]); ok && n >= 1 && n <= 31 {
			return n, true
		}
	}
	if m := zhOrdinalRe.FindStringSubmatch(in.Message); m != nil {
		if n, ok := ChineseNumber(m[1]); ok && n >= 1 && n <= 31 {
			return n, true
		}
	}
	return 0, false
}

type ordinalStrategy struct{}

func (ordinalStrategy) Name() string { return StrategyOrdinal }

func (ordinalStrategy) Attempt(in *Input) (time.Time, Verdict) {
	dom, hasDOM := findOrdinalDay(in)
	wd, hasWD := findWeekday(in)
	if !hasDOM && !hasWD {
		return time.Time{}, Miss
	}

	day := hktime.StartOfDay(in.Now)
	for range ordinalSearchDays {
		day = day.AddDate(0, 0, 1)
		if hasDOM && day.Day() != dom {
			continue
		}
		if hasWD && day.Weekday() != wd {
			continue
		}
		switch {
		case hasDOM && hasWD:
			in.Note = "day " + itoa(dom) + " " + wd.String()
		case hasDOM:
			in.Note = "day " + itoa(dom)
		default:
			in.Note = wd.String()
		}
		return in.at(day), Hit
	}
	return time.Time{}, Miss
}
