package openinghours

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/datetime"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Options tunes ComputeOpeningAnswer.
type Options struct {
	Brief     bool
	IsGeneral bool
}

// Service is the opening-hours engine used by the chat router.
type Service struct {
	table     Table
	holidays  Holidays
	weather   WeatherSource
	assembler *Assembler
	formatter *Formatter
	now       func() time.Time
	onAnswer  func(branch string, tag lang.Tag)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithAnswerHook is called with the branch of every computed answer.
func WithAnswerHook(fn func(branch string, tag lang.Tag)) ServiceOption {
	return func(s *Service) { s.onAnswer = fn }
}

// NewService validates table and wires the engine. weather may be nil.
func NewService(table Table, holidays Holidays, weather WeatherSource, opts ...ServiceOption) (*Service, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		table:    table,
		holidays: holidays,
		weather:  weather,
		now:      hktime.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.assembler = NewAssembler(table, holidays, weather)
	s.assembler.now = s.now
	s.formatter = NewFormatter(table, holidays)
	return s, nil
}

// Facts assembles the facts for message without rendering them.
func (s *Service) Facts(ctx context.Context, message string, tag lang.Tag, isGeneral bool) Facts {
	return s.assembler.Assemble(ctx, message, tag, isGeneral)
}

// Answer computes the facts and the rendered answer together.
func (s *Service) Answer(ctx context.Context, message string, tag lang.Tag, opts Options) (string, Facts, string) {
	f := s.assembler.Assemble(ctx, message, tag, opts.IsGeneral)
	text, branch := s.formatter.Render(f, FormatOptions{Brief: opts.Brief})
	if s.onAnswer != nil {
		s.onAnswer(branch, tag)
	}
	return text, f, branch
}

// ComputeOpeningAnswer returns the localized opening-hours answer for message.
func (s *Service) ComputeOpeningAnswer(ctx context.Context, message string, tag lang.Tag, opts Options) string {
	text, _, _ := s.Answer(ctx, message, tag, opts)
	return text
}

// ExtractOpeningContext dumps the facts as key/value lines for LLM grounding.
func (s *Service) ExtractOpeningContext(ctx context.Context, message string, tag lang.Tag) string {
	f := s.assembler.Assemble(ctx, message, tag, false)

	var b strings.Builder
	fmt.Fprintf(&b, "weather: %s\n", orNone(f.WeatherHint))
	fmt.Fprintf(&b, "date: %s\n", hktime.DayKey(f.Time))
	fmt.Fprintf(&b, "weekday: %s\n", f.Time.Weekday())
	if f.AskedSpecificTime {
		fmt.Fprintf(&b, "time: %s\n", f.Time.Format("15:04"))
	}
	fmt.Fprintf(&b, "holiday: %s\n", orNone(f.HolidayName))
	fmt.Fprintf(&b, "hours: %s\n", f.Window)
	fmt.Fprintf(&b, "status: %s", status(f))
	return b.String()
}

func status(f Facts) string {
	switch {
	case f.WeatherHint != "":
		return "closed (severe weather)"
	case f.IsHoliday:
		return "closed (public holiday)"
	case f.IsSunday || f.Window.Closed:
		return "closed (Sunday)"
	case f.AskedSpecificTime && !f.Window.Contains(datetime.Clock{Hour: f.Time.Hour(), Minute: f.Time.Minute()}):
		return "closed at " + f.Time.Format("15:04")
	default:
		return "open"
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// SummarizeUserDateIntent echoes the date and time fragments of message
// without judging whether the centre is open. It returns "" when there are
// none.
func (s *Service) SummarizeUserDateIntent(message string, tag lang.Tag) string {
	mentions := datetime.Mentions(message)
	if len(mentions) == 0 {
		return ""
	}
	return lang.Pick(tag,
		"You mentioned: "+strings.Join(mentions, ", ")+".",
		"你提到的日期／時間："+strings.Join(mentions, "、")+"。",
		"你提到的日期／时间："+strings.Join(mentions, "、")+"。",
	)
}

// CenterIsOpenNow reports whether the centre is open at this moment.
func (s *Service) CenterIsOpenNow(ctx context.Context, tag lang.Tag) bool {
	now := s.now().In(hktime.Location())
	f := s.assembler.factsFor(ctx, now, tag)
	if f.WeatherHint != "" || f.IsHoliday || f.IsSunday {
		return false
	}
	return f.Window.Contains(datetime.Clock{Hour: now.Hour(), Minute: now.Minute()})
}

// NextOpenWindow exposes the formatter's next-open search.
func (s *Service) NextOpenWindow(from time.Time) (time.Time, Window) {
	return s.formatter.NextOpenWindow(from)
}
