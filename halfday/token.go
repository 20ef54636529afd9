package halfday

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// =============================================================================
// TOKEN FORMAT - Configurable date+session grammar
// =============================================================================

// TokenFormat describes the accepted date-token grammar: the date layout
// (day/month/year order as a Go reference layout) and the two session marker
// spellings that immediately follow the date. The zero value is not usable;
// call Validate before parsing with a format from configuration.
type TokenFormat struct {
	DateLayout string // Go reference layout, e.g. "02/01/2006"
	Forenoon   string // marker for the first half of the day
	Afternoon  string // marker for the second half of the day
}

// Default is the upstream HR system's grammar: DD/MM/YYYY with FN/AN markers.
var Default = TokenFormat{DateLayout: "02/01/2006", Forenoon: "FN", Afternoon: "AN"}

// Validate reports whether the format can parse and render tokens. The date
// layout must round-trip a reference date and must not contain '-' (reserved
// as the range separator between two tokens) or spaces (a token is scanned
// as one unbroken run). Markers must be distinct, non-empty and letters
// only, so the marker boundary inside a token stays unambiguous.
func (f TokenFormat) Validate() error {
	if f.DateLayout == "" {
		return &FormatError{Field: "date layout", Reason: "empty"}
	}
	if strings.Contains(f.DateLayout, "-") {
		return &FormatError{Field: "date layout", Reason: "contains the range separator '-'"}
	}
	if strings.ContainsAny(f.DateLayout, " \t") {
		return &FormatError{Field: "date layout", Reason: "contains whitespace"}
	}
	ref := time.Date(2006, time.January, 2, 0, 0, 0, 0, time.UTC)
	parsed, err := time.Parse(f.DateLayout, ref.Format(f.DateLayout))
	if err != nil || !parsed.Equal(ref) {
		return &FormatError{Field: "date layout", Reason: fmt.Sprintf("%q does not encode day, month and year", f.DateLayout)}
	}
	for _, m := range []string{f.Forenoon, f.Afternoon} {
		if m == "" {
			return &FormatError{Field: "session marker", Reason: "empty"}
		}
		for _, r := range m {
			if !unicode.IsLetter(r) {
				return &FormatError{Field: "session marker", Reason: fmt.Sprintf("%q contains non-letter characters", m)}
			}
		}
	}
	if f.Forenoon == f.Afternoon {
		return &FormatError{Field: "session marker", Reason: "forenoon and afternoon markers are identical"}
	}
	return nil
}

// Parse converts one date+session token into a Value. The date portion must
// be a real Gregorian calendar date under the configured layout (month
// lengths and leap years enforced) followed immediately by a session marker.
// Nothing else is accepted.
func (f TokenFormat) Parse(token string) (Value, error) {
	datePart, sess, ok := f.splitMarker(token)
	if !ok {
		return 0, &TokenError{Token: token, Reason: "missing session marker"}
	}
	t, err := time.Parse(f.DateLayout, datePart)
	if err != nil {
		return 0, &TokenError{Token: token, Reason: "not a valid calendar date"}
	}
	return FromDate(t, sess), nil
}

// splitMarker strips the session marker suffix. The longer marker is tried
// first so a marker that happens to be a suffix of the other cannot shadow it.
func (f TokenFormat) splitMarker(token string) (string, Session, bool) {
	markers := [2]string{f.Forenoon, f.Afternoon}
	sessions := [2]Session{Forenoon, Afternoon}
	if len(f.Afternoon) > len(f.Forenoon) {
		markers[0], markers[1] = markers[1], markers[0]
		sessions[0], sessions[1] = sessions[1], sessions[0]
	}
	for i, m := range markers {
		if strings.HasSuffix(token, m) {
			return strings.TrimSuffix(token, m), sessions[i], true
		}
	}
	return "", 0, false
}

// Format renders a Value as a full token, marker included.
func (f TokenFormat) Format(v Value) string {
	return v.Date().Format(f.DateLayout) + f.Marker(v.Session())
}

// FormatDate renders only the calendar date, the form used in output records.
func (f TokenFormat) FormatDate(v Value) string {
	return v.Date().Format(f.DateLayout)
}

// Marker returns the configured spelling for a session.
func (f TokenFormat) Marker(s Session) string {
	if s == Forenoon {
		return f.Forenoon
	}
	return f.Afternoon
}
