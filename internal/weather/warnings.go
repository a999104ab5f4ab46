package weather

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Severity ranks, strongest first.
const (
	rankTC10      = 100
	rankTC9       = 90
	rankTC8       = 80
	rankPre8      = 70
	rankBlackRain = 60
	rankSevereTxt = 50
	rankRedRain   = 45
	rankAmberRain = 40
	rankTC3       = 35
	rankBroadTxt  = 30
)

// Closure thresholds. Strict only closes for black rain, T8 and above or the
// pre-8 announcement. Broad also closes for red/amber rain and T3.
const (
	minRankStrict = rankSevereTxt
	minRankBroad  = rankBroadTxt
)

// swtMaxRunes bounds the special-weather-tip text carried into a hint.
const swtMaxRunes = 180

var (
	codesTC10 = []string{"TC10"}
	codesTC9  = []string{"TC9"}
	codesTC8  = []string{"TC8NE", "TC8SE", "TC8SW", "TC8NW"}
	codesPre8 = []string{"WTCPRE8"}
	codesRedR = []string{"WRAINR"}
	codesAmbR = []string{"WRAINA"}
	codesTC3  = []string{"TC3"}
	codesTC1  = []string{"TC1"}
	codesBlkR = []string{"WRAINB"}
)

var severeKeywords = []string{
	"black rain", "black rainstorm", "typhoon signal no. 8", "t8", "no. 8", "no.8", "gale or storm signal",
	"typhoon signal no. 9", "t9", "no. 9", "no.9", "increasing gale or storm",
	"typhoon signal no. 10", "t10", "no. 10", "no.10", "hurricane signal", "hurricane force",
	"pre-no. 8 special announcement", "pre-8 announcement",

	"黑雨", "黑色暴雨",
	"八號", "八號風球", "八號波", "烈風或暴風信號", "九號", "九號波", "十號", "十號波", "颶風信號",
	"預警八號", "八號預警", "預先發出之八號熱帶氣旋警告信號",

	"八号", "八号风球", "八号波", "烈风或暴风信号", "九号", "九号波", "十号", "十号波", "飓风信号",
	"预警八号", "八号预警", "预先发出之八号热带气旋警告信号",
}

var pre8Keywords = []string{
	"pre-no. 8 special announcement", "pre-8 announcement",
	"預警八號", "八號預警", "預先發出之八號熱帶氣旋警告信號",
	"预警八号", "八号预警", "预先发出之八号热带气旋警告信号",
}

var broadKeywords = []string{
	"rainstorm", "amber", "red rain", "typhoon", "tropical cyclone", "strong wind signal", "no. 3", "t3",
	"暴雨", "紅雨", "黃雨", "紅色暴雨", "黃色暴雨", "颱風", "熱帶氣旋", "三號", "強風信號",
	"红雨", "黄雨", "红色暴雨", "黄色暴雨", "台风", "热带气旋", "三号", "强风信号",
}

// warning is one HKO warning record reduced to the fields used for ranking.
type warning struct {
	Code          string
	Subtype       string
	StatementCode string
	Name          string
	Type          string
	Contents      string
}

func (w warning) label() string {
	for _, s := range []string{w.Name, w.Type, w.Subtype, w.Code, w.StatementCode} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (w warning) hasCode(codes []string) bool {
	for _, c := range codes {
		if strings.EqualFold(w.Code, c) || strings.EqualFold(w.Subtype, c) || strings.EqualFold(w.StatementCode, c) {
			return true
		}
	}
	return false
}

func (w warning) text() string {
	return strings.ToLower(strings.Join([]string{w.Name, w.Type, w.Code, w.Subtype, w.StatementCode, w.Contents}, " "))
}

// flattenWarnings accepts a warningInfo payload ({"details": [...]}), a
// warnsum payload (one object per warning code) or a bare list.
func flattenWarnings(payload any) []warning {
	var records []map[string]any
	switch p := payload.(type) {
	case []any:
		records = objects(p)
	case map[string]any:
		for _, key := range []string{"warningInfo", "details", "data", "records", "warnings"} {
			if list, ok := p[key].([]any); ok {
				records = append(records, objects(list)...)
			}
		}
		if len(records) == 0 {
			for _, v := range p {
				rec, ok := v.(map[string]any)
				if ok && hasAnyKey(rec, "code", "name", "type", "actionCode") {
					records = append(records, rec)
				}
			}
		}
		if len(records) == 0 && hasAnyKey(p, "code", "name", "type", "warningStatementCode") {
			records = append(records, p)
		}
	}

	out := make([]warning, 0, len(records))
	for _, r := range records {
		out = append(out, warning{
			Code:          firstString(r, "code", "warningCode"),
			Subtype:       firstString(r, "subtype"),
			StatementCode: firstString(r, "warningStatementCode"),
			Name:          firstString(r, "name", "warningName"),
			Type:          firstString(r, "type", "warningType"),
			Contents:      joinContents(r["contents"]),
		})
	}
	return out
}

func objects(list []any) []map[string]any {
	var out []map[string]any
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func joinContents(v any) string {
	switch c := v.(type) {
	case string:
		return strings.TrimSpace(c)
	case []any:
		parts := make([]string, 0, len(c))
		for _, x := range c {
			if s, ok := x.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}
	return ""
}

func containsAny(text string, needles []string) bool {
	low := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(low, n) {
			return true
		}
	}
	return false
}

// severity ranks w. Codes win over text; text-only matches get conservative
// ranks. Broad keywords only count when broad is set.
func severity(w warning, broad bool) int {
	switch {
	case w.hasCode(codesTC10):
		return rankTC10
	case w.hasCode(codesTC9):
		return rankTC9
	case w.hasCode(codesTC8):
		return rankTC8
	case w.hasCode(codesPre8):
		return rankPre8
	case w.hasCode(codesBlkR):
		return rankBlackRain
	}

	// A recognised lower-tier signal ranks by its code alone. Its bulletin
	// text often talks about higher signals that are not in force.
	if r, ok := lowerTierRank(w); ok {
		if !broad {
			return 0
		}
		return r
	}

	hay := w.text()
	if containsAny(hay, severeKeywords) {
		switch {
		case containsAny(hay, []string{"no. 10", "t10", "颶風信號", "飓风信号"}):
			return rankTC10
		case containsAny(hay, []string{"no. 9", "t9", "增強信號", "增强信号"}):
			return rankTC9
		case containsAny(hay, []string{"no. 8", "t8", "烈風或暴風信號", "烈风或暴风信号"}):
			return rankTC8
		case containsAny(hay, []string{"pre-no. 8", "預警八號", "预警八号"}):
			return rankPre8
		case containsAny(hay, []string{"black rain", "黑雨", "黑色暴雨"}):
			return rankBlackRain
		}
		return rankSevereTxt
	}

	if !broad {
		return 0
	}
	if containsAny(hay, broadKeywords) {
		return rankBroadTxt
	}
	return 0
}

func lowerTierRank(w warning) (int, bool) {
	switch {
	case w.hasCode(codesRedR):
		return rankRedRain, true
	case w.hasCode(codesAmbR):
		return rankAmberRain, true
	case w.hasCode(codesTC3):
		return rankTC3, true
	case w.hasCode(codesTC1):
		return 0, true
	}
	return 0, false
}

// pickSevere returns the highest ranked warning at or above minRank.
func pickSevere(warnings []warning, broad bool, minRank int) (warning, int, bool) {
	var best warning
	bestRank := 0
	for _, w := range warnings {
		if r := severity(w, broad); r > bestRank {
			best, bestRank = w, r
		}
	}
	if bestRank < minRank || bestRank == 0 {
		return warning{}, 0, false
	}
	return best, bestRank, true
}

// formatWarning renders w as a localized hint line with the standard labels
// for the signals parents recognise.
func formatWarning(w warning, tag lang.Tag) string {
	label := w.label()
	switch {
	case w.hasCode(codesTC10):
		label = orDefault(w.Type, lang.Pick(tag, "Tropical Cyclone Warning Signal No. 10", "十號颶風信號", "十号飓风信号"))
	case w.hasCode(codesTC9):
		label = orDefault(w.Type, lang.Pick(tag, "Tropical Cyclone Warning Signal No. 9", "九號烈風或暴風風力增強信號", "九号烈风或暴风风力增强信号"))
	case w.hasCode(codesTC8):
		label = orDefault(w.Type, lang.Pick(tag, "Tropical Cyclone Warning Signal No. 8", "八號烈風或暴風信號", "八号烈风或暴风信号"))
	case w.hasCode(codesBlkR):
		label = lang.Pick(tag, "Black Rainstorm Warning Signal", "黑色暴雨警告信號", "黑色暴雨警告信号")
	case w.hasCode(codesPre8):
		label = lang.Pick(tag, "Pre-No. 8 Special Announcement", "預先發出之八號熱帶氣旋警告信號", "预先发出之八号热带气旋警告信号")
	case w.hasCode(codesRedR):
		label = lang.Pick(tag, "Red Rainstorm Warning Signal", "紅色暴雨警告信號", "红色暴雨警告信号")
	case w.hasCode(codesAmbR):
		label = lang.Pick(tag, "Amber Rainstorm Warning Signal", "黃色暴雨警告信號", "黄色暴雨警告信号")
	case w.hasCode(codesTC3):
		label = orDefault(w.Type, lang.Pick(tag, "Strong Wind Signal No. 3", "三號強風信號", "三号强风信号"))
	}
	return strings.TrimSpace(prefix(tag) + label)
}

func prefix(tag lang.Tag) string {
	return lang.Pick(tag, "Weather tip: ", "天氣提示：", "天气提示：")
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

// flattenTips collects the distinct text chunks of a special weather tips
// payload.
func flattenTips(payload any) []string {
	var items []any
	switch p := payload.(type) {
	case map[string]any:
		items, _ = p["swt"].([]any)
	case []any:
		items = p
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, it := range items {
		switch v := it.(type) {
		case string:
			add(v)
		case map[string]any:
			for _, k := range []string{"desc", "details", "content", "title", "summary"} {
				if s, ok := v[k].(string); ok {
					add(s)
				}
			}
		}
	}
	return out
}

// tipHint returns a hint from the first tip naming a closure-level signal.
func tipHint(tips []string, broad bool, tag lang.Tag) (string, bool) {
	for _, t := range tips {
		if !containsAny(t, severeKeywords) && !(broad && containsAny(t, broadKeywords)) {
			continue
		}
		return prefix(tag) + truncate(strings.Join(strings.Fields(t), " "), swtMaxRunes), true
	}
	return "", false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
