package llm

import (
	"regexp"
	"strings"

	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

func instructions(tag lang.Tag) string {
	return lang.Pick(tag,
		"You are the assistant of Decoders Learning Space, a children's education centre in Hong Kong. "+
			"Answer ONLY from the system context and what you know about the centre. Use short bullets. "+
			"If the information is insufficient to answer confidently, say that you cannot find it.",
		"你是香港兒童教育中心 Decoders Learning Space 的助理。只可根據系統資料作答。用精簡要點。若資料不足，請直接表明找不到所需資訊。",
		"你是香港儿童教育中心 Decoders Learning Space 的助理。仅按系统资料作答。用精简要点。若资料不足，请直接表明找不到所需信息。",
	)
}

func weatherGuardrail(tag lang.Tag) string {
	return lang.Pick(tag,
		"Important: Do NOT reference weather unless the user asked, or there is an active Black Rainstorm Signal or Typhoon Signal No. 8 (or above).",
		"重要：除非用戶主動詢問天氣，或正生效黑雨或八號（或以上）風球，否則不要提及任何天氣資訊或天氣政策文件。",
		"重要：除非用户主动询问天气，或正生效黑雨或八号（及以上）台风信号，否则不要引用任何天气信息或天气政策文档。",
	)
}

func holidayGuardrail(tag lang.Tag) string {
	return lang.Pick(tag,
		"Also: Do NOT mention public holidays unless the user asked, or the resolved date is a Hong Kong public holiday.",
		"同時：除非用戶主動詢問或所涉日期是香港公眾假期，否則不要提及公眾假期。",
		"同时：除非用户主动询问或所涉日期为香港公众假期，否则不要提及公众假期。",
	)
}

func contactGuardrail(tag lang.Tag) string {
	return lang.Pick(tag,
		"If the user asks for contact details, reply with ONLY phone and email on separate lines. Do not include address/map/social unless explicitly requested.",
		"如用戶詢問聯絡方式，只回覆電話及電郵，各佔一行。除非用戶明確要求，請不要加入地址、地圖或社交連結。",
		"如用户询问联系方式，只回复电话和电邮，各占一行。除非用户明确要求，请不要加入地址、地图或社交链接。",
	)
}

// StaffFooter is appended to every LLM answer.
func StaffFooter(tag lang.Tag) string {
	return lang.Pick(tag,
		"If needed, contact our staff: +852 2537 9519 (Call), +852 5118 2819 (WhatsApp), info@decoders-ls.com",
		"如需協助，請聯絡職員：+852 2537 9519（致電）、+852 5118 2819（WhatsApp）、info@decoders-ls.com",
		"如需协助，请联系职员：+852 2537 9519（致电）、+852 5118 2819（WhatsApp）、info@decoders-ls.com",
	)
}

// NoAnswer is sent when no provider produced a usable answer.
func NoAnswer(tag lang.Tag) string {
	return lang.Pick(tag,
		"Sorry, I couldn't find an answer to that. Please try rephrasing your question or contact our staff.",
		"抱歉，暫時找不到相關答案。請換個方式提問，或聯絡我們的職員。",
		"抱歉，暂时找不到相关答案。请换个方式提问，或联系我们的职员。",
	)
}

var (
	contactEN   = regexp.MustCompile(`(?i)\b(contact|phone|call|email|e-?mail|whatsapp)\b`)
	contactZhHK = regexp.MustCompile(`(?i)聯絡|電話|致電|電郵|whatsapp|联系`)
	contactZhCN = regexp.MustCompile(`(?i)联系|电话|致电|电邮|邮箱|whatsapp`)
)

// IsContactQuery reports whether message asks for contact details.
func IsContactQuery(message string, tag lang.Tag) bool {
	switch tag {
	case lang.ZhHK:
		return contactZhHK.MatchString(message)
	case lang.ZhCN:
		return contactZhCN.MatchString(message)
	default:
		return contactEN.MatchString(message)
	}
}

// BuildPrompt returns the system instruction and the user turn.
func BuildPrompt(req Request) (system, prompt string) {
	parts := []string{instructions(req.Lang)}
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		parts = append(parts, "\nSYSTEM CONTEXT:\n"+ctx+"\n")
	}
	if req.Hint == HintOpeningHours {
		parts = append(parts, weatherGuardrail(req.Lang), holidayGuardrail(req.Lang))
	}
	if IsContactQuery(req.Message, req.Lang) {
		parts = append(parts, contactGuardrail(req.Lang))
	}
	system = strings.Join(parts, "\n")

	var b strings.Builder
	if h := strings.TrimSpace(req.History); h != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	b.WriteString("User question: ")
	b.WriteString(strings.TrimSpace(req.Message))
	return system, b.String()
}

var apologyMarkers = []string{
	"sorry", "i am unable", "i'm unable", "i cannot", "i can't",
	"抱歉", "很抱歉", "對不起", "对不起",
	"無提供相關信息", "沒有相關信息", "沒有資料", "沒有相关资料", "暂无相关信息", "暂无资料",
}

// silenceReason returns "empty" or "apology" when answer should not be
// sent to a parent, or "".
func silenceReason(answer string) string {
	stripped := strings.TrimSpace(answer)
	if stripped == "" {
		return "empty"
	}
	lower := strings.ToLower(stripped)
	for _, m := range apologyMarkers {
		if strings.Contains(lower, m) {
			return "apology"
		}
	}
	return ""
}
