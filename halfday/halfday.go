// Package halfday models dates at half-day resolution: every calendar date
// splits into a forenoon and an afternoon session, and each (date, session)
// pair maps to a single totally ordered integer value. Leave arithmetic is
// done on these values, never on raw strings.
package halfday

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SESSION - Half of a calendar day
// =============================================================================

type Session int

const (
	Forenoon  Session = iota // first half of the day
	Afternoon                // second half of the day
)

// String returns the canonical marker spelling. Rendering with configured
// markers goes through TokenFormat; this is for logs and debugging.
func (s Session) String() string {
	if s == Forenoon {
		return "FN"
	}
	return "AN"
}

// =============================================================================
// VALUE - Totally ordered half-day point
// =============================================================================

// Value encodes one half-day as dayOrdinal*2 + session, where dayOrdinal is
// the calendar day count relative to the Unix epoch and session is 0 for
// forenoon, 1 for afternoon. Values compare with ordinary integer operators,
// and adjacent half-days differ by exactly 1.
type Value int64

const secondsPerDay = 86400

// New builds the Value for a calendar date and session. The date is taken as
// given; callers holding untrusted text should go through TokenFormat.Parse,
// which validates the calendar.
func New(year int, month time.Month, day int, s Session) Value {
	return FromDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), s)
}

// FromDate builds the Value for the calendar date of t (time-of-day and
// location are discarded) and the given session.
func FromDate(t time.Time, s Session) Value {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Value(midnight.Unix()/secondsPerDay*2) + Value(s)
}

// Date returns the calendar date (UTC midnight) encoded in v.
func (v Value) Date() time.Time {
	return time.Unix((int64(v)>>1)*secondsPerDay, 0).UTC()
}

// Session returns the session encoded in v.
func (v Value) Session() Session { return Session(v & 1) }

// Next steps to the adjacent later half-day: forenoon to the same day's
// afternoon, afternoon to the next day's forenoon.
func (v Value) Next() Value { return v + 1 }

// Prev steps to the adjacent earlier half-day.
func (v Value) Prev() Value { return v - 1 }

func (v Value) String() string { return Default.Format(v) }

// =============================================================================
// DURATION - Inclusive half-day arithmetic
// =============================================================================

var two = decimal.NewFromInt(2)

// DaysBetween returns the inclusive duration (to - from + 1) / 2 in days:
// a single session is 0.5, a full forenoon-to-afternoon day is 1.0. It fails
// with a RangeError when to precedes from; callers must treat that as an
// unusable span, not a reason to abort the batch.
func DaysBetween(from, to Value) (decimal.Decimal, error) {
	if to < from {
		return decimal.Decimal{}, &RangeError{From: from, To: to}
	}
	halves := int64(to-from) + 1
	return decimal.NewFromInt(halves).Div(two), nil
}
