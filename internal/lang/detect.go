package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// cjkThreshold is the minimum share of Han characters among letters for a
// message to count as Chinese.
const cjkThreshold = 0.3

const (
	tradGlyphs = "學體車國廣馬門風愛聽話醫龍書氣媽齡費號聯網臺灣課師資簡絡開關點時鐘後發會"
	simpGlyphs = "学体车国广马门风爱听话医龙书气妈龄费号联网台湾课师资简络开关点时钟后发会"
)

var (
	tradOnly = map[rune]struct{}{}
	simpOnly = map[rune]struct{}{}
)

func init() {
	for _, r := range tradGlyphs {
		tradOnly[r] = struct{}{}
	}
	for _, r := range simpGlyphs {
		simpOnly[r] = struct{}{}
	}
	// The two sets must be disjoint; glyphs shared by both scripts carry no signal.
	for r := range tradOnly {
		if _, ok := simpOnly[r]; ok {
			delete(tradOnly, r)
			delete(simpOnly, r)
		}
	}
}

var englishGreetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "hiya": {}, "yo": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
	"thanks": {}, "thank you": {}, "ok": {}, "okay": {}, "bye": {},
}

// NormalizeText applies NFKC, lower-cases and collapses whitespace.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Detect picks the reply language for text. acceptLanguage is the raw
// Accept-Language header and may be empty.
func Detect(text, acceptLanguage string) Tag {
	normalized := NormalizeText(text)
	pref, explicit := headerPreference(acceptLanguage)

	if normalized == "" {
		if pref == "" {
			return EN
		}
		return pref
	}

	if _, ok := englishGreetings[strings.Trim(normalized, "!.?, ")]; ok {
		return EN
	}

	if CJKRatio(normalized) < cjkThreshold {
		return EN
	}

	trad, simp := CountVariantGlyphs(normalized)
	switch {
	case trad > simp:
		return ZhHK
	case simp > trad:
		return ZhCN
	}
	if explicit && pref.IsChinese() {
		return pref
	}
	return ZhHK
}

// ChineseVariant resolves a text already known to be Chinese to zh-HK or
// zh-CN by glyph vote. Ties resolve to zh-HK.
func ChineseVariant(text string) Tag {
	trad, simp := CountVariantGlyphs(text)
	if simp > trad {
		return ZhCN
	}
	return ZhHK
}

// CJKRatio returns the share of Han characters among all letters in s.
func CJKRatio(s string) float64 {
	var han, letters int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(han) / float64(letters)
}

// ContainsCJK reports whether s has at least one Han character.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// CountVariantGlyphs counts traditional-only and simplified-only glyphs in s.
func CountVariantGlyphs(s string) (trad, simp int) {
	for _, r := range s {
		if _, ok := tradOnly[r]; ok {
			trad++
		}
		if _, ok := simpOnly[r]; ok {
			simp++
		}
	}
	return trad, simp
}

// headerPreference maps the highest-weighted Accept-Language entry to a tag.
// explicit is true when the entry names a script or region that pins the
// Chinese variant.
func headerPreference(header string) (Tag, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}

	base, _ := tags[0].Base()
	if base.String() != "zh" {
		return EN, false
	}

	script, scriptConf := tags[0].Script()
	region, regionConf := tags[0].Region()
	if scriptConf == language.Exact {
		switch script.String() {
		case "Hant":
			return ZhHK, true
		case "Hans":
			return ZhCN, true
		}
	}
	if regionConf == language.Exact {
		switch region.String() {
		case "HK", "TW", "MO":
			return ZhHK, true
		case "CN", "SG":
			return ZhCN, true
		}
	}
	return ZhHK, false
}
