// Package lang detects which of the three supported reply languages a message
// is written in: English, Traditional Chinese (Hong Kong) or Simplified
// Chinese (Mainland).
//
// Detection works on raw text and needs no external service:
//   - NFKC normalization, lower-casing and whitespace collapse
//   - ratio of CJK ideographs to all letters (>= 0.3 means Chinese)
//   - a vote between traditional-only and simplified-only glyphs
//   - ties and scripts without distinctive glyphs resolve to zh-HK
//
// Accept-Language only decides when the text itself is empty, or breaks a tie
// when it names a script explicitly.
package lang

import (
	"strings"
)

// Tag is a normalized reply language.
type Tag string

const (
	// EN is English.
	EN Tag = "en"
	// ZhHK is Traditional Chinese as written in Hong Kong.
	ZhHK Tag = "zh-HK"
	// ZhCN is Simplified Chinese.
	ZhCN Tag = "zh-CN"
)

// All lists every supported tag.
var All = []Tag{EN, ZhHK, ZhCN}

// IsChinese reports whether the tag is one of the Chinese variants.
func (t Tag) IsChinese() bool {
	return t == ZhHK || t == ZhCN
}

// String returns the BCP 47 form of the tag.
func (t Tag) String() string {
	return string(t)
}

// Normalize maps loose language labels ("zh-hk", "zh_TW", "zh-Hans", "zh")
// onto a supported tag. Unknown labels become EN.
func Normalize(s string) Tag {
	l := strings.ToLower(strings.TrimSpace(s))
	l = strings.ReplaceAll(l, "_", "-")
	switch {
	case l == "":
		return EN
	case strings.HasPrefix(l, "zh-hk"), strings.HasPrefix(l, "zh-tw"), strings.HasPrefix(l, "zh-mo"),
		strings.HasPrefix(l, "zh-hant"):
		return ZhHK
	case strings.HasPrefix(l, "zh-cn"), strings.HasPrefix(l, "zh-sg"), strings.HasPrefix(l, "zh-hans"):
		return ZhCN
	case l == "zh":
		return ZhHK
	default:
		return EN
	}
}

// Pick returns the string for t among the three localized forms.
func Pick(t Tag, en, zhHK, zhCN string) string {
	switch t {
	case ZhHK:
		return zhHK
	case ZhCN:
		return zhCN
	default:
		return en
	}
}

// HKOCode maps a tag to the Hong Kong Observatory API language code.
func HKOCode(t Tag) string {
	switch t {
	case ZhHK:
		return "tc"
	case ZhCN:
		return "sc"
	default:
		return "en"
	}
}
