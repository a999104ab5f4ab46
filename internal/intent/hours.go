// Package intent classifies parent messages without calling a model.
//
// Two questions are answered here: is the message about opening hours, and
// is it a scheduling action (leave, make-up, availability, passing a note to
// staff) that must be handed to a human instead of answered from the
// business-hours table.
package intent

import (
	"regexp"
	"strings"

	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// patternSet is a list of independently scored patterns.
type patternSet []*regexp.Regexp

func compile(patterns ...string) patternSet {
	set := make(patternSet, len(patterns))
	for i, p := range patterns {
		set[i] = regexp.MustCompile("(?i)" + p)
	}
	return set
}

// hits returns the first match of every pattern that fires.
func (s patternSet) hits(message string) []string {
	var out []string
	for _, re := range s {
		if m := re.FindString(message); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (s patternSet) any(message string) bool {
	for _, re := range s {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

const enWeekdayNames = `mon|tue|wed|thu|fri|sat|sun|monday|tuesday|wednesday|thursday|friday|saturday|sunday`

var (
	hoursTerms = map[lang.Tag]patternSet{
		lang.EN: compile(
			`\bopen(?:ing)?\b`, `\bhours?\b`, `\bclosed?\b`, `\bbusiness hours?\b`,
			`\battend(?:ing)?\s+(?:class|lesson)\b`,
			`\btomorrow\b`, `\btoday\b`,
			`\b(?:next|this)\s+(?:week|`+enWeekdayNames+`)\b`,
			`\b(?:`+enWeekdayNames+`)\b`,
			`\bpublic holiday\b`, `\bholiday\b`,
		),
		lang.ZhHK: compile(
			`營業|營運|開放|開門|收(?:工|舖|店)|幾點(?:開|收)`,
			`上課|上堂|返學|返課`,
			`安排|改期`,
			`今日|聽日|後日|下周|下星期|星期[一二三四五六日天]|周[一二三四五六日天]`,
			`公眾假期|假期`,
		),
		lang.ZhCN: compile(
			`营业|开放|开门|关门|几点(?:开|关)`,
			`上课|上学`,
			`安排|改期`,
			`今天|明天|后天|下周|星期[一二三四五六日天]|周[一二三四五六日天]`,
			`公众假期|公休日|假期`,
		),
	}

	timeHints = compile(
		`\b\d{1,2}:\d{2}\b`,
		`\b\d{1,2}\s*(?:am|pm)\b`,
		`[上下]午`,
		`\d\s*[點点]`,
	)

	weatherMarkers = compile(
		`\b(?:typhoon|rainstorm|black rain|amber|red rain|t1|t3|t8)\b`,
		`颱風|台风|風球|风球|黑雨|紅雨|红雨|黃雨|黄雨|三號|三号|一號|一号|八號|八号`,
	)

	holidayHints = map[lang.Tag]patternSet{
		lang.EN: compile(
			`\blunar new year\b`, `\bchinese new year\b`,
			`\bching ming\b`, `\btomb-?sweeping\b`,
			`\bchung yeung\b`,
			`\btuen ng\b`, `\bdragon boat\b`,
			`\bmid[- ]autumn\b`,
			`\bbuddha(?:'s)? birthday\b`,
			`\bnational day\b`,
			`\blabou?r day\b`,
			`\bestablishment day\b`,
			`\bgood friday\b`, `\beaster monday\b`,
			`\bchristmas\b`,
		),
		lang.ZhHK: compile(
			`農曆新年|年初[一二三]|新年`,
			`清明`, `重陽`, `端午`, `中秋`, `佛誕`, `國慶`, `勞動節`,
			`回歸|香港特別行政區成立紀念日`,
			`耶穌受難日|復活節`,
			`聖誕`,
		),
		lang.ZhCN: compile(
			`农历新年|年初[一二三]|新年`,
			`清明`, `重阳`, `端午`, `中秋`, `佛诞`, `国庆`, `劳动节`,
			`回归|香港特别行政区成立纪念日`,
			`耶稣受难日|复活节`,
			`圣诞`,
		),
	}

	negativeTerms = map[lang.Tag]patternSet{
		lang.EN:   compile(`\b(?:tuition|fee|fees|price|cost)\b`, `\bclass\s*size\b`),
		lang.ZhHK: compile(`學費|收費|費用|價錢|價格|班級人數|人數`),
		lang.ZhCN: compile(`学费|收费|费用|价钱|价格|班级人数|人数`),
	}

	attendanceTerms = map[lang.Tag]*regexp.Regexp{
		lang.EN:   regexp.MustCompile(`(?i)\battend(?:ing)?\s+(?:class|lesson)\b`),
		lang.ZhHK: regexp.MustCompile(`上課|上堂|返學|返課`),
		lang.ZhCN: regexp.MustCompile(`上课|上学`),
	}
)

// Debug explains an opening-hours decision.
type Debug struct {
	Score       int      `json:"score"`
	BaseHits    []string `json:"base_hits,omitempty"`
	TimeHits    []string `json:"time_hits,omitempty"`
	WeatherHits []string `json:"weather_hits,omitempty"`
	HolidayHits []string `json:"holiday_hits,omitempty"`
	NegHits     []string `json:"neg_hits,omitempty"`
}

// DetectOpeningHoursIntent scores message for an opening-hours question.
// Every base term that fires counts one, any time hint adds one and any
// holiday name adds one. A negative term (fees, class size) vetoes the
// result whatever the score.
func DetectOpeningHoursIntent(message string, tag lang.Tag) (bool, Debug) {
	m := normalize(message)
	tag = lang.Normalize(string(tag))

	d := Debug{
		BaseHits:    hoursTerms[tag].hits(m),
		TimeHits:    timeHints.hits(m),
		WeatherHits: weatherMarkers.hits(m),
		HolidayHits: holidayHints[tag].hits(m),
		NegHits:     negativeTerms[tag].hits(m),
	}
	d.Score = len(d.BaseHits)
	if len(d.TimeHits) > 0 {
		d.Score++
	}
	if len(d.HolidayHits) > 0 {
		d.Score++
	}
	return d.Score >= 1 && len(d.NegHits) == 0, d
}

var (
	dayMarkers = compile(
		`\b(?:`+enWeekdayNames+`)\b`,
		`\b(?:today|tomorrow|yesterday|next week|this week)\b`,
		`(?:星期|周|週|礼拜|禮拜)[一二三四五六日天]`,
		`今天|今日|明天|聽日|后天|後日|下周|下星期|本周|本星期`,
		`\d{1,2}\s*(?:月|日|号|號)`,
		`\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s*\d{1,2}\b`,
		`\b\d{1,2}/\d{1,2}\b`,
	)
	enHolidayWordRe = regexp.MustCompile(`(?i)\b(?:public holidays?|holidays?)\b`)
	enOnDateRe      = regexp.MustCompile(`(?i)\bon\b.*\d{1,2}`)
)

// IsGeneralHoursQuery reports whether message asks about opening hours in
// general ("What are your opening hours?") rather than about a particular
// day. In English a holiday question without a date is general.
func IsGeneralHoursQuery(message string, tag lang.Tag) bool {
	if ok, _ := DetectOpeningHoursIntent(message, tag); !ok {
		return false
	}
	m := normalize(message)
	if dayMarkers.any(m) {
		return false
	}
	if lang.Normalize(string(tag)) == lang.EN && enHolidayWordRe.MatchString(m) {
		return !enOnDateRe.MatchString(m)
	}
	return true
}

// MentionsWeather reports whether message names a typhoon or rainstorm
// signal in any language.
func MentionsWeather(message string) bool {
	return weatherMarkers.any(normalize(message))
}

// MentionsAttendance reports whether message talks about going to class.
func MentionsAttendance(message string, tag lang.Tag) bool {
	return attendanceTerms[lang.Normalize(string(tag))].MatchString(message)
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

func normalize(message string) string {
	return apostrophes.Replace(strings.TrimSpace(message))
}
