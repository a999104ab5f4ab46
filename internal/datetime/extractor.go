// Package datetime turns free text in English or Chinese into a concrete Hong
// Kong date-time.
//
// Parsing is a chain of strategies tried in a fixed order; the first strategy
// that hits wins. A strategy may also halt the chain, in which case the
// result falls back to "now" without trying the remaining strategies.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Verdict is the outcome of one strategy attempt.
type Verdict int

const (
	// Miss passes control to the next strategy.
	Miss Verdict = iota
	// Hit ends the chain with the returned time.
	Hit
	// Halt ends the chain without a result.
	Halt
)

// Input is the message under consideration plus values shared by strategies.
type Input struct {
	Message string
	Lower   string
	Now     time.Time
	Lang    lang.Tag

	clock    Clock
	hasClock bool

	// Holiday is the official label of a matched holiday, if any.
	Holiday string
	// Note is a short trace line left by the strategy.
	Note string
}

func newInput(message string, now time.Time, tag lang.Tag) *Input {
	in := &Input{
		Message: message,
		Lower:   strings.ToLower(strings.ReplaceAll(message, "’", "'")),
		Now:     now.In(hktime.Location()),
		Lang:    tag,
	}
	in.clock, in.hasClock = ParseClock(message)
	return in
}

// at returns day at the explicit clock time, or noon.
func (in *Input) at(day time.Time) time.Time {
	if in.hasClock {
		return hktime.AtClock(day, in.clock.Hour, in.clock.Minute)
	}
	return hktime.AtClock(day, 12, 0)
}

// Strategy is one link in the extraction chain.
type Strategy interface {
	Name() string
	Attempt(in *Input) (time.Time, Verdict)
}

// Result is the outcome of Parse.
type Result struct {
	Time     time.Time
	Strategy string
	Found    bool
	Holiday  string
	Trace    []string
}

// HolidayFinder resolves the next occurrence of a named holiday.
type HolidayFinder interface {
	FindOccurrence(name string, base time.Time) (holiday.Match, bool)
}

// Extractor runs the strategy chain.
type Extractor struct {
	strategies []Strategy
}

// New returns an extractor with the default chain: special days, holiday
// names, relative days, ordinal day or weekday, then the general parser.
func New(holidays HolidayFinder) *Extractor {
	return NewWithStrategies(DefaultStrategies(holidays)...)
}

// NewWithStrategies returns an extractor running strategies in order.
func NewWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// DefaultStrategies returns the standard chain.
func DefaultStrategies(holidays HolidayFinder) []Strategy {
	return []Strategy{
		specialDayStrategy{},
		holidayNameStrategy{finder: holidays},
		relativeDayStrategy{},
		ordinalStrategy{},
		newGeneralStrategy(),
	}
}

// Parse resolves message against now. When nothing matches the result is now
// with Found false, moved to the asked clock time when the message has one.
func (e *Extractor) Parse(message string, now time.Time, tag lang.Tag) Result {
	in := newInput(message, now, tag)
	var trace []string

	for _, s := range e.strategies {
		in.Note = ""
		t, verdict := s.Attempt(in)
		switch verdict {
		case Hit:
			trace = append(trace, traceLine(s.Name(), "hit", in.Note))
			return Result{Time: t, Strategy: s.Name(), Found: true, Holiday: in.Holiday, Trace: trace}
		case Halt:
			trace = append(trace, traceLine(s.Name(), "halt", in.Note))
			return Result{Time: in.Now, Strategy: s.Name(), Trace: trace}
		}
	}

	if in.hasClock {
		trace = append(trace, fmt.Sprintf("fallback: today at %02d:%02d", in.clock.Hour, in.clock.Minute))
		return Result{Time: in.at(in.Now), Strategy: "now", Trace: trace}
	}
	trace = append(trace, "fallback: now")
	return Result{Time: in.Now, Strategy: "now", Trace: trace}
}

func traceLine(name, verdict, note string) string {
	if note == "" {
		return fmt.Sprintf("%s: %s", name, verdict)
	}
	return fmt.Sprintf("%s: %s (%s)", name, verdict, note)
}
