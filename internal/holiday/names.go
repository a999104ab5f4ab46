package holiday

import (
	"regexp"
	"strings"

	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// canonical is one named holiday as users refer to it. Labels lists the
// official calendar labels the holiday owns.
type canonical struct {
	Name     string
	English  []string
	Chinese  []string
	Labels   []string
	patterns []*regexp.Regexp
}

// Official calendar labels produced by the Hong Kong provider.
const (
	LabelNewYear          = "The first day of January"
	LabelLunarNewYear1    = "Lunar New Year's Day"
	LabelLunarNewYear2    = "The second day of Lunar New Year"
	LabelLunarNewYear3    = "The third day of Lunar New Year"
	LabelLunarNewYear4    = "The fourth day of Lunar New Year"
	LabelChingMing        = "Ching Ming Festival"
	LabelGoodFriday       = "Good Friday"
	LabelDayAfterGoodFri  = "The day following Good Friday"
	LabelEasterMonday     = "Easter Monday"
	LabelLabourDay        = "Labour Day"
	LabelBuddha           = "The Birthday of the Buddha"
	LabelTuenNg           = "Tuen Ng Festival"
	LabelEstablishmentDay = "Hong Kong Special Administrative Region Establishment Day"
	LabelMidAutumnNext    = "The day following the Chinese Mid-Autumn Festival"
	LabelMidAutumnSecond  = "The second day following the Chinese Mid-Autumn Festival"
	LabelNationalDay      = "National Day"
	LabelChungYeung       = "Chung Yeung Festival"
	LabelChristmas        = "Christmas Day"
	LabelFirstAfterXmas   = "The first weekday after Christmas Day"
	observedPrefix        = "The day following "
)

// canonicals is the fixed detection table. Order matters: the first entry with
// a keyword hit wins.
var canonicals = []*canonical{
	{
		Name:    "Lunar New Year",
		English: []string{"lunar new year", "chinese new year", "cny", "spring festival"},
		Chinese: []string{"農曆新年", "农历新年", "年初一", "年初二", "年初三", "春節", "春节", "新春"},
		Labels:  []string{LabelLunarNewYear1, LabelLunarNewYear2, LabelLunarNewYear3, LabelLunarNewYear4},
	},
	{
		Name:    "The first day of January",
		English: []string{"new year's day", "new years day", "new year day"},
		Chinese: []string{"元旦"},
		Labels:  []string{LabelNewYear},
	},
	{
		Name:    "Ching Ming Festival",
		English: []string{"ching ming", "qingming", "tomb sweeping"},
		Chinese: []string{"清明"},
		Labels:  []string{LabelChingMing},
	},
	{
		Name:    "Good Friday",
		English: []string{"good friday"},
		Chinese: []string{"耶穌受難", "耶稣受难"},
		Labels:  []string{LabelGoodFriday, LabelDayAfterGoodFri},
	},
	{
		Name:    "Easter Monday",
		English: []string{"easter monday", "easter"},
		Chinese: []string{"復活節", "复活节"},
		Labels:  []string{LabelEasterMonday},
	},
	{
		Name:    "Labour Day",
		English: []string{"labour day", "labor day", "may day"},
		Chinese: []string{"勞動節", "劳动节", "勞工節", "劳工节"},
		Labels:  []string{LabelLabourDay},
	},
	{
		Name:    "The Birthday of the Buddha",
		English: []string{"buddha's birthday", "buddha", "vesak"},
		Chinese: []string{"佛誕", "佛诞"},
		Labels:  []string{LabelBuddha},
	},
	{
		Name:    "Tuen Ng Festival",
		English: []string{"tuen ng", "dragon boat", "duanwu"},
		Chinese: []string{"端午", "端陽", "端阳"},
		Labels:  []string{LabelTuenNg},
	},
	{
		Name:    "HKSAR Establishment Day",
		English: []string{"establishment day", "hksar day", "handover day"},
		Chinese: []string{"回歸紀念", "回归纪念", "特區成立", "特区成立"},
		Labels:  []string{LabelEstablishmentDay},
	},
	{
		Name:    "Mid-Autumn Festival",
		English: []string{"mid-autumn", "mid autumn", "moon festival", "moon cake festival"},
		Chinese: []string{"中秋"},
		Labels:  []string{LabelMidAutumnNext, LabelMidAutumnSecond},
	},
	{
		Name:    "National Day",
		English: []string{"national day"},
		Chinese: []string{"國慶", "国庆"},
		Labels:  []string{LabelNationalDay},
	},
	{
		Name:    "Chung Yeung Festival",
		English: []string{"chung yeung", "double ninth"},
		Chinese: []string{"重陽", "重阳", "重九"},
		Labels:  []string{LabelChungYeung},
	},
	{
		Name:    "Christmas Day",
		English: []string{"christmas", "xmas"},
		Chinese: []string{"聖誕", "圣诞"},
		Labels:  []string{LabelChristmas, LabelFirstAfterXmas},
	},
}

// aliases bridges canonical names to calendar labels that share no keyword
// with them. Only these three are known.
var aliases = map[string][]string{
	"Mid-Autumn Festival": {LabelMidAutumnNext},
	"Lunar New Year":      {LabelLunarNewYear1, "The first day of Lunar New Year"},
	"Christmas Day":       {"Christmas"},
}

type localized struct {
	zhHK string
	zhCN string
}

var labelNames = map[string]localized{
	LabelNewYear:          {"一月一日", "一月一日"},
	LabelLunarNewYear1:    {"農曆年初一", "农历年初一"},
	LabelLunarNewYear2:    {"農曆年初二", "农历年初二"},
	LabelLunarNewYear3:    {"農曆年初三", "农历年初三"},
	LabelLunarNewYear4:    {"農曆年初四", "农历年初四"},
	LabelChingMing:        {"清明節", "清明节"},
	LabelGoodFriday:       {"耶穌受難節", "耶稣受难节"},
	LabelDayAfterGoodFri:  {"耶穌受難節翌日", "耶稣受难节翌日"},
	LabelEasterMonday:     {"復活節星期一", "复活节星期一"},
	LabelLabourDay:        {"勞動節", "劳动节"},
	LabelBuddha:           {"佛誕", "佛诞"},
	LabelTuenNg:           {"端午節", "端午节"},
	LabelEstablishmentDay: {"香港特別行政區成立紀念日", "香港特别行政区成立纪念日"},
	LabelMidAutumnNext:    {"中秋節翌日", "中秋节翌日"},
	LabelMidAutumnSecond:  {"中秋節後第二日", "中秋节后第二日"},
	LabelNationalDay:      {"國慶日", "国庆日"},
	LabelChungYeung:       {"重陽節", "重阳节"},
	LabelChristmas:        {"聖誕節", "圣诞节"},
	LabelFirstAfterXmas:   {"聖誕節後首個工作天", "圣诞节后第一个工作日"},
}

var (
	byName     = map[string]*canonical{}
	labelOwner = map[string]*canonical{}
)

func init() {
	for _, c := range canonicals {
		byName[strings.ToLower(c.Name)] = c
		for _, kw := range c.English {
			c.patterns = append(c.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
		for _, l := range c.Labels {
			labelOwner[strings.ToLower(l)] = c
		}
	}
}

// CanonicalNames returns the canonical holiday names in detection order.
func CanonicalNames() []string {
	names := make([]string, len(canonicals))
	for i, c := range canonicals {
		names[i] = c.Name
	}
	return names
}

// DetectKeyword returns the first canonical holiday mentioned in message.
func DetectKeyword(message string) (string, bool) {
	hits := detect(message, 1)
	if len(hits) == 0 {
		return "", false
	}
	return hits[0], true
}

// DetectAll returns every canonical holiday mentioned in message, in table order.
func DetectAll(message string) []string {
	return detect(message, 0)
}

func detect(message string, limit int) []string {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	text := strings.ReplaceAll(message, "’", "'")
	var hits []string
	for _, c := range canonicals {
		if c.mentionedIn(text) {
			hits = append(hits, c.Name)
			if limit > 0 && len(hits) >= limit {
				break
			}
		}
	}
	return hits
}

func (c *canonical) mentionedIn(text string) bool {
	for _, re := range c.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	for _, kw := range c.Chinese {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Synonyms expands a canonical name to the lower-cased strings that may
// appear in, or contain, an official calendar label.
func Synonyms(name string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(name)
	if c, ok := byName[strings.ToLower(name)]; ok {
		for _, kw := range c.English {
			add(kw)
		}
		for _, kw := range c.Chinese {
			add(kw)
		}
		for _, a := range aliases[c.Name] {
			add(a)
		}
	}
	return out
}

// ownerOf returns the canonical holiday that owns label, following the
// "The day following X" form used for observed days.
func ownerOf(label string) (*canonical, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if c, ok := labelOwner[l]; ok {
		return c, true
	}
	if base, ok := strings.CutPrefix(l, strings.ToLower(observedPrefix)); ok {
		c, ok := labelOwner[base]
		return c, ok
	}
	return nil, false
}

// LocalizeName renders an official label in the reply language. Unknown
// labels are returned unchanged.
func LocalizeName(label string, tag lang.Tag) string {
	if !tag.IsChinese() || label == "" {
		return label
	}
	if name, ok := labelNames[label]; ok {
		return lang.Pick(tag, label, name.zhHK, name.zhCN)
	}
	if base, ok := strings.CutPrefix(label, observedPrefix); ok {
		if name, ok := labelNames[base]; ok {
			return lang.Pick(tag, label, name.zhHK, name.zhCN) + "翌日"
		}
	}
	for _, c := range canonicals {
		for _, l := range c.Labels {
			if strings.Contains(strings.ToLower(label), strings.ToLower(l)) {
				name := labelNames[l]
				return lang.Pick(tag, label, name.zhHK, name.zhCN)
			}
		}
	}
	return label
}
