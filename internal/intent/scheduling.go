package intent

import (
	"regexp"

	"github.com/decoders-hk/centre-assistant-go/internal/datetime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Digest topics, in precedence order.
const (
	TopicAvailability = "Availability/Timetable"
	TopicLeave        = "Leave/Reschedule/Cancel"
	TopicPassOn       = "Pass-on/Contact staff"
	TopicHomework     = "Individual homework/Pronunciation"
	TopicPlacement    = "Placement/Level"
	TopicPolicy       = "Policy question"
	TopicNone         = "—"
)

// SchedulingFlags is the flat result of ClassifySchedulingContext.
type SchedulingFlags struct {
	HasSchedVerbs             bool
	AvailabilityRequest       bool
	AdminActionRequest        bool
	StaffContactRequest       bool
	IndividualHomeworkRequest bool
	PlacementQuestion         bool
	HasPolicyIntent           bool
	HasDateTime               bool

	// HolidayHits lists the canonical holidays named in the message.
	HolidayHits []string
}

// IsSchedulingAction reports whether the message asks staff to act on a
// specific lesson or child. Policy questions are never actions.
func (f SchedulingFlags) IsSchedulingAction() bool {
	if f.HasPolicyIntent {
		return false
	}
	return f.HasSchedVerbs || f.AvailabilityRequest || f.AdminActionRequest ||
		f.StaffContactRequest || f.IndividualHomeworkRequest
}

// TopicLabel is the digest topic for the flags, or TopicNone.
func (f SchedulingFlags) TopicLabel() string {
	switch {
	case f.AvailabilityRequest:
		return TopicAvailability
	case f.HasSchedVerbs:
		return TopicLeave
	case f.StaffContactRequest || f.AdminActionRequest:
		return TopicPassOn
	case f.IndividualHomeworkRequest:
		return TopicHomework
	case f.PlacementQuestion:
		return TopicPlacement
	case f.HasPolicyIntent:
		return TopicPolicy
	default:
		return TopicNone
	}
}

// Map renders the flags with snake_case keys for JSON payloads and storage.
func (f SchedulingFlags) Map() map[string]any {
	m := map[string]any{
		"has_sched_verbs":             f.HasSchedVerbs,
		"availability_request":        f.AvailabilityRequest,
		"admin_action_request":        f.AdminActionRequest,
		"staff_contact_request":       f.StaffContactRequest,
		"individual_homework_request": f.IndividualHomeworkRequest,
		"placement_question":          f.PlacementQuestion,
		"has_policy_intent":           f.HasPolicyIntent,
		"has_date_time":               f.HasDateTime,
	}
	if len(f.HolidayHits) > 0 {
		m["holiday_hits"] = f.HolidayHits
	}
	return m
}

// FlagsFromMap is the inverse of Map. Unknown keys are ignored.
func FlagsFromMap(m map[string]any) SchedulingFlags {
	b := func(key string) bool {
		v, _ := m[key].(bool)
		return v
	}
	f := SchedulingFlags{
		HasSchedVerbs:             b("has_sched_verbs"),
		AvailabilityRequest:       b("availability_request"),
		AdminActionRequest:        b("admin_action_request"),
		StaffContactRequest:       b("staff_contact_request"),
		IndividualHomeworkRequest: b("individual_homework_request"),
		PlacementQuestion:         b("placement_question"),
		HasPolicyIntent:           b("has_policy_intent"),
		HasDateTime:               b("has_date_time"),
	}
	switch hits := m["holiday_hits"].(type) {
	case []string:
		f.HolidayHits = hits
	case []any:
		for _, h := range hits {
			if s, ok := h.(string); ok {
				f.HolidayHits = append(f.HolidayHits, s)
			}
		}
	}
	return f
}

// flagRules holds one pattern per language family for a flag.
type flagRules struct {
	en, zhHK, zhCN *regexp.Regexp
}

func rules(en, zhHK, zhCN string) flagRules {
	return flagRules{
		en:   regexp.MustCompile(`(?i)` + en),
		zhHK: regexp.MustCompile(zhHK),
		zhCN: regexp.MustCompile(zhCN),
	}
}

// match checks English always, and the Chinese family for tag. A message
// tagged English that still carries Chinese text is checked against both
// Chinese families.
func (r flagRules) match(message string, tag lang.Tag, hasCJK bool) bool {
	if r.en.MatchString(message) {
		return true
	}
	switch {
	case tag == lang.ZhHK:
		return r.zhHK.MatchString(message)
	case tag == lang.ZhCN:
		return r.zhCN.MatchString(message)
	case hasCJK:
		return r.zhHK.MatchString(message) || r.zhCN.MatchString(message)
	}
	return false
}

var (
	schedVerbRules = rules(
		`\b(?:cancel(?:led|ling)?|reschedul(?:e|ed|ing)|postpone|take (?:a )?leave|sick leave|absent|skip(?:ping)? (?:the )?(?:class|lesson)|miss(?:ing)? (?:the )?(?:class|lesson))\b|\b(?:can't|cannot|can not|won't|unable to|not able to) (?:attend|come|make it|join)\b`,
		`請假|改期|取消|轉堂|調堂|缺席|唔能夠(?:上|返|嚟)|嚟唔到|來唔到|去唔到|上唔到|返唔到|唔上堂|唔返學`,
		`请假|改期|取消|转课|调课|缺席|来不了|去不了|上不了|不能(?:上课|来)|不来上课`,
	)
	// Make-up lessons are an action unless the message asks about the policy.
	makeUpRules = rules(
		`\bmake[- ]?up (?:class|lesson)s?\b`,
		`補課|補堂`,
		`补课`,
	)
	availabilityRules = rules(
		`\b(?:any|have|is there|are there)\b.{0,30}\b(?:available|availability|vacanc(?:y|ies)|openings?|spaces?|seats?|slots?)\b|\b(?:timetable|schedule for)\b|\bavailable\b.{0,20}\b(?:class|lesson|slot)s?\b`,
		`有冇位|有無位|仲有位|有冇(?:班|堂)|時間表|上課時間|餘位|空位`,
		`有没有位|还有位|有没有(?:班|课)|时间表|上课时间|余位|空位|名额`,
	)
	adminActionRules = rules(
		`\b(?:pass (?:this |it )?on|let (?:the )?(?:teacher|director|staff)s? know|tell (?:the )?(?:teacher|director|staff)|inform (?:the )?(?:teacher|director|staff)|remind (?:the )?(?:teacher|director))\b`,
		`轉告|話俾(?:老師|主任)|通知(?:老師|主任)|同(?:老師|主任)講|提醒(?:老師|主任)`,
		`转告|告诉(?:老师|主任)|通知(?:老师|主任)|跟(?:老师|主任)说|提醒(?:老师|主任)`,
	)
	staffContactRules = rules(
		`\b(?:speak|talk|chat) (?:to|with) (?:the |a )?(?:teacher|director|staff|someone|human|person)\b|\b(?:contact|call back|reach) (?:the )?(?:teacher|director|staff)\b|\bcall me\b`,
		`聯絡(?:老師|主任|職員)|搵(?:老師|主任|職員|人)|同(?:老師|主任|職員)傾|覆電|回電`,
		`联系(?:老师|主任|职员)|找(?:老师|主任|职员|人工)|和(?:老师|主任)聊|回电`,
	)
	homeworkRules = rules(
		`\b(?:homework|worksheet|pronunciation|pronounce|phonics) (?:for|of) (?:my|our)\b|\b(?:my|our) (?:son|daughter|child|kid)'?s? (?:homework|pronunciation|worksheet)\b|\bcheck (?:his|her|my child's) (?:homework|pronunciation)\b`,
		`(?:個仔|個女|小朋友|佢).{0,10}(?:功課|發音|讀音)|(?:功課|發音|讀音).{0,10}(?:個仔|個女|佢)|改功課`,
		`(?:儿子|女儿|孩子|他|她).{0,10}(?:作业|发音|读音)|(?:作业|发音|读音).{0,10}(?:儿子|女儿|孩子)|批改作业`,
	)
	placementRules = rules(
		`\b(?:placement|which level|what level|right level|suitable (?:level|class)|too (?:young|old|advanced|easy|hard))\b`,
		`程度|級別|分班|適合(?:邊|哪|佢|我)|太細|太大|跟唔跟得上`,
		`程度|级别|分班|适合(?:哪|他|她|我)|太小|太大|跟不跟得上`,
	)
	// Hours vocabulary is removed before availability matching so that
	// "opening hours" never reads as a class opening.
	hoursPhrase = regexp.MustCompile(`(?i)\b(?:opening|business|office|operating) hours?\b`)
	policyRules = rules(
		`\b(?:policy|policies|quota|notice period|rules?|terms)\b`,
		`政策|規則|規定|限額|名額上限|通知期`,
		`政策|规则|规定|限额|名额上限|通知期`,
	)
)

// ClassifySchedulingContext sets the scheduling flags for message. Each flag
// is evaluated on its own.
func ClassifySchedulingContext(message string, tag lang.Tag) SchedulingFlags {
	m := normalize(message)
	tag = lang.Normalize(string(tag))
	cjk := lang.ContainsCJK(m)

	f := SchedulingFlags{
		AvailabilityRequest:       availabilityRules.match(hoursPhrase.ReplaceAllString(m, " "), tag, cjk),
		AdminActionRequest:        adminActionRules.match(m, tag, cjk),
		StaffContactRequest:       staffContactRules.match(m, tag, cjk),
		IndividualHomeworkRequest: homeworkRules.match(m, tag, cjk),
		PlacementQuestion:         placementRules.match(m, tag, cjk),
		HasPolicyIntent:           policyRules.match(m, tag, cjk),
		HasDateTime:               hasDateTime(m),
		HolidayHits:               holiday.DetectAll(m),
	}
	f.HasSchedVerbs = schedVerbRules.match(m, tag, cjk) ||
		(!f.HasPolicyIntent && makeUpRules.match(m, tag, cjk))
	return f
}

func hasDateTime(message string) bool {
	return datetime.MentionsClock(message) ||
		datetime.LooksLikeDate(message) ||
		len(datetime.Mentions(message)) > 0
}
