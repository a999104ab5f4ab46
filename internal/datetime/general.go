package datetime

import (
	"regexp"
	"strconv"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

const monthNames = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

var (
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	zhDateRe    = regexp.MustCompile(`(?:(\d{4})\s*年\s*)?(` + zhNumeral + `)\s*月\s*(` + zhNumeral + `)\s*[日號号]?`)
	zhDayMarkRe = regexp.MustCompile(`(` + zhNumeral + `)\s*[月日號号]`)
	monthDayRe  = regexp.MustCompile(`\b` + monthNames + `\.?\s+\d{1,2}(st|nd|rd|th)?\b|\b\d{1,2}(st|nd|rd|th)?\s+(of\s+)?` + monthNames + `\b`)
	yearRe      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// LooksLikeDate reports whether message plausibly contains an absolute date.
// The general parser is only tried when this holds.
func LooksLikeDate(message string) bool {
	in := newInput(message, time.Now(), "")
	return looksLikeDate(in)
}

func looksLikeDate(in *Input) bool {
	if slashDateRe.MatchString(in.Lower) || isoDateRe.MatchString(in.Lower) {
		return true
	}
	if monthDayRe.MatchString(in.Lower) {
		return true
	}
	if zhDayMarkRe.MatchString(in.Message) {
		return true
	}
	_, ok := findWeekday(in)
	return ok
}

type generalStrategy struct {
	parser *when.Parser
}

func newGeneralStrategy() generalStrategy {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return generalStrategy{parser: w}
}

func (generalStrategy) Name() string { return StrategyGeneral }

func (s generalStrategy) Attempt(in *Input) (time.Time, Verdict) {
	if !looksLikeDate(in) {
		return time.Time{}, Miss
	}
	today := hktime.StartOfDay(in.Now)

	if day, explicitYear, ok := parseNumericDate(in); ok {
		return in.at(rollForward(day, today, explicitYear)), Hit
	}

	if s.parser == nil {
		return time.Time{}, Miss
	}
	r, err := s.parser.Parse(in.Lower, in.Now)
	if err != nil || r == nil {
		in.Note = "unparsed"
		return time.Time{}, Miss
	}
	in.Note = r.Text
	day := hktime.StartOfDay(r.Time)
	return in.at(rollForward(day, today, yearRe.MatchString(in.Lower))), Hit
}

// parseNumericDate handles day/month[/year], ISO dates and Chinese M月D日.
func parseNumericDate(in *Input) (time.Time, bool, bool) {
	year := in.Now.Year()

	if m := isoDateRe.FindStringSubmatch(in.Lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := buildDate(y, mo, d); ok {
			in.Note = m[0]
			return t, true, true
		}
	}

	if m := slashDateRe.FindStringSubmatch(in.Lower); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, explicit := year, false
		if m[3] != "" {
			y, _ = strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
			explicit = true
		}
		if t, ok := buildDate(y, mo, d); ok {
			in.Note = m[0]
			return t, explicit, true
		}
	}

	if m := zhDateRe.FindStringSubmatch(in.Message); m != nil {
		y, explicit := year, false
		if m[1] != "" {
			y, _ = strconv.Atoi(m[1])
			explicit = true
		}
		mo, ok1 := ChineseNumber(m[2])
		d, ok2 := ChineseNumber(m[3])
		if ok1 && ok2 {
			if t, ok := buildDate(y, mo, d); ok {
				in.Note = m[0]
				return t, explicit, true
			}
		}
	}
	return time.Time{}, false, false
}

// buildDate rejects dates that time.Date would normalize, like 31/2.
func buildDate(y, mo, d int) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := hktime.Date(y, time.Month(mo), d, 0, 0)
	if t.Month() != time.Month(mo) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// rollForward moves a year-less date that has already passed to next year.
func rollForward(day, today time.Time, explicitYear bool) time.Time {
	if explicitYear || !day.Before(today) {
		return day
	}
	return day.AddDate(1, 0, 0)
}

func itoa(n int) string { return strconv.Itoa(n) }
