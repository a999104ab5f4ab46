package chat

import "github.com/decoders-hk/centre-assistant-go/internal/lang"

// handOff tells the parent a person will follow up on a scheduling request.
func handOff(tag lang.Tag) string {
	return lang.Pick(tag,
		"Thanks! We've passed your message to our staff and they will get back to you as soon as possible.",
		"多謝你的訊息！我們已轉交職員跟進，會盡快回覆你。",
		"谢谢你的信息！我们已转交职员跟进，会尽快回复你。",
	)
}

// RateLimited is the reply for a throttled session.
func RateLimited(tag lang.Tag) string {
	return lang.Pick(tag,
		"You're sending messages too quickly. Please wait a moment and try again.",
		"訊息太頻密，請稍後再試。",
		"信息太频繁，请稍后再试。",
	)
}

// DailyLimited is the reply once a session has used up today's turns.
func DailyLimited(tag lang.Tag) string {
	return lang.Pick(tag,
		"You've reached today's message limit. Please contact our staff or try again tomorrow.",
		"你今日的訊息數量已達上限，請聯絡職員或明天再試。",
		"你今天的信息数量已达上限，请联系职员或明天再试。",
	)
}

// Unavailable is shown when a turn fails unexpectedly.
func Unavailable(tag lang.Tag) string {
	return lang.Pick(tag,
		"Sorry, something went wrong on our side. Please try again later.",
		"抱歉，系統暫時出現問題，請稍後再試。",
		"抱歉，系统暂时出现问题，请稍后再试。",
	)
}
