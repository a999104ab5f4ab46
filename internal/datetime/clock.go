package datetime

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	meridiemRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)`)
	hhmmRe     = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

	zhNumeral = `[0-9]{1,2}|[零〇一二兩两三四五六七八九十]{1,3}`
	zhClockRe = regexp.MustCompile(`(上午|早上|朝早|中午|下午|晏晝|晏昼|晚上|夜晚|今晚)?\s*(` + zhNumeral + `)\s*[點点時时]\s*(?:(半)|(` + zhNumeral + `)\s*分)?`)

	// askedClockRe decides whether the user named a specific clock time.
	askedClockRe = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\b|\b\d{1,2}\s*(am|pm)\b|\d\s*點|\d\s*点|[上下]午.{0,3}[點点時时]`)
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// MentionsClock reports whether message names an explicit clock time.
func MentionsClock(message string) bool {
	return askedClockRe.MatchString(message)
}

// ParseClock extracts a time of day. Western forms are tried before Chinese
// numeral forms.
func ParseClock(message string) (Clock, bool) {
	if c, ok := parseMeridiem(message); ok {
		return c, true
	}
	if m := hhmmRe.FindStringSubmatch(message); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if valid(h, mi) {
			return Clock{h, mi}, true
		}
	}
	return parseChineseClock(message)
}

func parseMeridiem(message string) (Clock, bool) {
	m := meridiemRe.FindStringSubmatch(message)
	if m == nil {
		return Clock{}, false
	}
	h, _ := strconv.Atoi(m[1])
	mi := 0
	if m[2] != "" {
		mi, _ = strconv.Atoi(m[2])
	}
	if h < 1 || h > 12 || mi > 59 {
		return Clock{}, false
	}
	pm := strings.HasPrefix(strings.ToLower(m[3]), "p")
	switch {
	case pm && h != 12:
		h += 12
	case !pm && h == 12:
		h = 0
	}
	return Clock{h, mi}, true
}

func parseChineseClock(message string) (Clock, bool) {
	m := zhClockRe.FindStringSubmatch(message)
	if m == nil {
		return Clock{}, false
	}
	h, ok := ChineseNumber(m[2])
	if !ok {
		return Clock{}, false
	}
	mi := 0
	switch {
	case m[3] != "":
		mi = 30
	case m[4] != "":
		if mi, ok = ChineseNumber(m[4]); !ok {
			return Clock{}, false
		}
	}

	switch m[1] {
	case "下午", "晏晝", "晏昼", "晚上", "夜晚", "今晚":
		if h >= 1 && h <= 11 {
			h += 12
		}
	case "中午":
		if h >= 1 && h <= 2 {
			h += 12
		}
	}
	if !valid(h, mi) {
		return Clock{}, false
	}
	return Clock{h, mi}, true
}

func valid(h, m int) bool {
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}

var zhDigits = map[rune]int{
	'零': 0, '〇': 0, '一': 1, '二': 2, '兩': 2, '两': 2, '三': 3,
	'四': 4, '五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// ChineseNumber converts Arabic digits or a Chinese numeral below 100
// ("三", "十", "十一", "二十三") to an integer.
func ChineseNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	runes := []rune(s)
	idx := -1
	for i, r := range runes {
		if r == '十' {
			idx = i
			break
		}
	}
	if idx < 0 {
		if len(runes) != 1 {
			return 0, false
		}
		n, ok := zhDigits[runes[0]]
		return n, ok
	}

	tens := 1
	if idx > 0 {
		if idx != 1 {
			return 0, false
		}
		n, ok := zhDigits[runes[0]]
		if !ok {
			return 0, false
		}
		tens = n
	}
	ones := 0
	switch rest := runes[idx+1:]; len(rest) {
	case 0:
	case 1:
		n, ok := zhDigits[rest[0]]
		if !ok {
			return 0, false
		}
		ones = n
	default:
		return 0, false
	}
	return tens*10 + ones, true
}
