// Package openinghours decides whether the centre is open on the date a
// message refers to, and renders the answer in the reply language.
//
// The flow is Assembler (message to Facts) then Formatter (Facts to text).
// Service bundles both behind the entry points used by the chat router.
package openinghours

import (
	"errors"
	"fmt"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/datetime"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
)

// ErrEmptyTable is returned when no weekday has opening hours.
var ErrEmptyTable = errors.New("openinghours: business-hours table is empty")

// Window is the opening window of one day. Closed means no hours at all.
type Window struct {
	Open   datetime.Clock
	Close  datetime.Clock
	Closed bool
}

// Contains reports whether c falls within the window, bounds included.
func (w Window) Contains(c datetime.Clock) bool {
	if w.Closed {
		return false
	}
	m := minutes(c)
	return m >= minutes(w.Open) && m <= minutes(w.Close)
}

// Before reports whether c is earlier than opening.
func (w Window) Before(c datetime.Clock) bool {
	return !w.Closed && minutes(c) < minutes(w.Open)
}

// String renders the window as "09:00–18:00", or "closed".
func (w Window) String() string {
	if w.Closed {
		return "closed"
	}
	return fmt.Sprintf("%s–%s", clock(w.Open), clock(w.Close))
}

func minutes(c datetime.Clock) int { return c.Hour*60 + c.Minute }

func clock(c datetime.Clock) string { return hktime.FormatClock(c.Hour, c.Minute) }

// Table maps each weekday to its window. Missing weekdays are closed.
type Table map[time.Weekday]Window

// DefaultTable is Mon–Fri 09:00–18:00, Sat 09:00–16:00, Sunday closed.
func DefaultTable() Table {
	weekday := Window{Open: datetime.Clock{Hour: 9}, Close: datetime.Clock{Hour: 18}}
	return Table{
		time.Monday:    weekday,
		time.Tuesday:   weekday,
		time.Wednesday: weekday,
		time.Thursday:  weekday,
		time.Friday:    weekday,
		time.Saturday:  {Open: datetime.Clock{Hour: 9}, Close: datetime.Clock{Hour: 16}},
		time.Sunday:    {Closed: true},
	}
}

// Window returns the window for wd.
func (t Table) Window(wd time.Weekday) Window {
	w, ok := t[wd]
	if !ok {
		return Window{Closed: true}
	}
	return w
}

// Validate rejects a table with no open day or an inverted window.
func (t Table) Validate() error {
	open := 0
	for wd, w := range t {
		if w.Closed {
			continue
		}
		if minutes(w.Close) <= minutes(w.Open) {
			return fmt.Errorf("openinghours: %s closes at %s before opening at %s", wd, clock(w.Close), clock(w.Open))
		}
		open++
	}
	if open == 0 {
		return ErrEmptyTable
	}
	return nil
}
