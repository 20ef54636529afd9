/*
errors.go - Error types for the half-day date model

PURPOSE:
  Sentinels for errors.Is checks plus structured types carrying the offending
  input. The parser layer matches on the sentinels to decide what to skip;
  the structured types feed parse-miss reporting.

SEE ALSO:
  - token.go: produces TokenError and FormatError
  - halfday.go: produces RangeError
*/
package halfday

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedToken is returned when text does not match the date+session
	// grammar or names an impossible calendar date.
	ErrMalformedToken = errors.New("malformed date token")

	// ErrInvalidRange is returned when a range's to-value precedes its
	// from-value. Callers drop the span and continue.
	ErrInvalidRange = errors.New("invalid range: to before from")

	// ErrInvalidFormat is returned when a TokenFormat cannot be used at all.
	// Unlike the two above this is a configuration fault, not input noise.
	ErrInvalidFormat = errors.New("invalid token format")
)

// TokenError reports one unparsable date+session token.
type TokenError struct {
	Token  string
	Reason string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("malformed date token %q: %s", e.Token, e.Reason)
}

func (e *TokenError) Unwrap() error { return ErrMalformedToken }

// RangeError reports a reversed range.
type RangeError struct {
	From Value
	To   Value
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: %s before %s", e.To, e.From)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// FormatError reports an unusable TokenFormat field.
type FormatError struct {
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid token format: %s: %s", e.Field, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

// IsMalformedToken returns true if the error came from token parsing.
func IsMalformedToken(err error) bool { return errors.Is(err, ErrMalformedToken) }

// IsInvalidRange returns true if the error came from a reversed range.
func IsInvalidRange(err error) bool { return errors.Is(err, ErrInvalidRange) }
