package datetime

import (
	"regexp"
	"slices"
	"strings"
)

var mentionPatterns = []*regexp.Regexp{
	isoDateRe,
	slashDateRe,
	zhDateRe,
	monthDayRe,
	enOrdinalRe,
	zhOrdinalRe,
	enWeekdayRe,
	zhWeekdayRe,
	regexp.MustCompile(`\b(next|this|coming)\s+(week|weekend|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(下|今|呢|這|这|本)(個|个)?(星期|禮拜|礼拜|週|周)[一二三四五六日天]?`),
	meridiemRe,
	hhmmRe,
	zhClockRe,
}

// Mentions returns the date, weekday, relative-day and clock fragments found
// in message, in order of appearance and without duplicates. It never
// interprets them.
func Mentions(message string) []string {
	lower := strings.ToLower(message)
	src := message
	if len(lower) != len(message) {
		src = lower
	}

	var spans [][2]int
	for _, p := range relativePhrases {
		if p.re != nil {
			for _, loc := range p.re.FindAllStringIndex(lower, -1) {
				spans = append(spans, [2]int{loc[0], loc[1]})
			}
			continue
		}
		spans = append(spans, allIndexes(lower, p.phrase)...)
	}
	for _, re := range mentionPatterns {
		for _, loc := range re.FindAllStringIndex(lower, -1) {
			spans = append(spans, [2]int{loc[0], loc[1]})
		}
	}

	// Longest fragments claim their bytes first.
	slices.SortStableFunc(spans, func(a, b [2]int) int { return (b[1] - b[0]) - (a[1] - a[0]) })
	covered := make([]bool, len(lower))
	var kept [][2]int
	for _, sp := range spans {
		if slices.Contains(covered[sp[0]:sp[1]], true) {
			continue
		}
		for i := sp[0]; i < sp[1]; i++ {
			covered[i] = true
		}
		kept = append(kept, sp)
	}

	slices.SortFunc(kept, func(a, b [2]int) int { return a[0] - b[0] })
	var out []string
	for _, sp := range kept {
		text := strings.TrimSpace(src[sp[0]:sp[1]])
		if text != "" && !slices.Contains(out, text) {
			out = append(out, text)
		}
	}
	return out
}

func allIndexes(s, sub string) [][2]int {
	var out [][2]int
	offset := 0
	for {
		i := strings.Index(s[offset:], sub)
		if i < 0 {
			return out
		}
		start := offset + i
		out = append(out, [2]int{start, start + len(sub)})
		offset = start + len(sub)
	}
}
