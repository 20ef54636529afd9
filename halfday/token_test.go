package halfday_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/leave-engine/halfday"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParseValidTokens(t *testing.T) {
	// GIVEN well-formed tokens in the default grammar
	cases := []struct {
		token   string
		year    int
		month   time.Month
		day     int
		session halfday.Session
	}{
		{"28/09/2025FN", 2025, time.September, 28, halfday.Forenoon},
		{"03/10/2025AN", 2025, time.October, 3, halfday.Afternoon},
		{"29/02/2024FN", 2024, time.February, 29, halfday.Forenoon},
		{"01/01/2026AN", 2026, time.January, 1, halfday.Afternoon},
	}

	for _, c := range cases {
		v, err := halfday.Default.Parse(c.token)
		if err != nil {
			t.Errorf("parse %q: %v", c.token, err)
			continue
		}
		date := v.Date()
		if date.Year() != c.year || date.Month() != c.month || date.Day() != c.day || v.Session() != c.session {
			t.Errorf("parse %q: got %v %v", c.token, date, v.Session())
		}
	}
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	// GIVEN tokens violating the grammar or the calendar
	bad := []string{
		"30/02/2025FN", // February has no day 30
		"31/11/2025AN", // November has 30 days
		"29/02/2025FN", // 2025 is not a leap year
		"00/09/2025FN",
		"13/13/2025AN", // month out of range
		"28/09/2025",   // missing marker
		"28/09/2025fn", // markers are case-sensitive
		"2/1/2025FN",   // day and month must be two digits
		"28/09/25AN",   // year must be four digits
		"28-09-2025FN", // wrong separator
		"FN",
		"",
		"leave from 28/09/2025FN", // leading text
	}

	for _, token := range bad {
		_, err := halfday.Default.Parse(token)
		if err == nil {
			t.Errorf("parse %q: expected error", token)
			continue
		}
		// THEN the error matches the malformed-token sentinel
		if !halfday.IsMalformedToken(err) {
			t.Errorf("parse %q: error %v does not wrap ErrMalformedToken", token, err)
		}
		var tokenErr *halfday.TokenError
		if !errors.As(err, &tokenErr) {
			t.Errorf("parse %q: expected *TokenError, got %T", token, err)
		} else if tokenErr.Token != token {
			t.Errorf("parse %q: TokenError carries %q", token, tokenErr.Token)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	// GIVEN a valid token
	for _, token := range []string{"28/09/2025FN", "30/09/2025AN", "29/02/2024AN"} {
		v, err := halfday.Default.Parse(token)
		if err != nil {
			t.Fatalf("parse %q: %v", token, err)
		}
		// THEN formatting the parsed value reproduces the token exactly
		if got := halfday.Default.Format(v); got != token {
			t.Errorf("round trip %q: got %q", token, got)
		}
	}
}

func TestFormatDateDropsMarker(t *testing.T) {
	v := tok(t, "30/09/2025AN")
	if got := halfday.Default.FormatDate(v); got != "30/09/2025" {
		t.Errorf("FormatDate = %q, want 30/09/2025", got)
	}
}

// =============================================================================
// CUSTOM GRAMMARS
// =============================================================================

func TestParseWithAlternateLayout(t *testing.T) {
	// GIVEN a month-first grammar with different markers
	f := halfday.TokenFormat{DateLayout: "01/02/2006", Forenoon: "AM", Afternoon: "PM"}
	if err := f.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	v, err := f.Parse("09/28/2025PM")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	date := v.Date()
	if date.Month() != time.September || date.Day() != 28 || v.Session() != halfday.Afternoon {
		t.Errorf("got %v %v", date, v.Session())
	}
}

func TestMarkerSuffixShadowing(t *testing.T) {
	// GIVEN markers where one is a suffix of the other
	f := halfday.TokenFormat{DateLayout: "02/01/2006", Forenoon: "N", Afternoon: "AN"}
	if err := f.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// WHEN the token ends with the longer marker
	v, err := f.Parse("12/09/2025AN")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// THEN the longer marker wins
	if v.Session() != halfday.Afternoon {
		t.Errorf("session = %v, want Afternoon", v.Session())
	}
}

func TestValidateRejectsUnusableFormats(t *testing.T) {
	cases := []struct {
		name string
		f    halfday.TokenFormat
	}{
		{"empty layout", halfday.TokenFormat{Forenoon: "FN", Afternoon: "AN"}},
		{"layout with range separator", halfday.TokenFormat{DateLayout: "02-01-2006", Forenoon: "FN", Afternoon: "AN"}},
		{"layout with spaces", halfday.TokenFormat{DateLayout: "02 01 2006", Forenoon: "FN", Afternoon: "AN"}},
		{"layout missing fields", halfday.TokenFormat{DateLayout: "2006", Forenoon: "FN", Afternoon: "AN"}},
		{"empty marker", halfday.TokenFormat{DateLayout: "02/01/2006", Forenoon: "", Afternoon: "AN"}},
		{"identical markers", halfday.TokenFormat{DateLayout: "02/01/2006", Forenoon: "X", Afternoon: "X"}},
		{"non-letter marker", halfday.TokenFormat{DateLayout: "02/01/2006", Forenoon: "F1", Afternoon: "AN"}},
	}

	for _, c := range cases {
		err := c.f.Validate()
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !errors.Is(err, halfday.ErrInvalidFormat) {
			t.Errorf("%s: error %v does not wrap ErrInvalidFormat", c.name, err)
		}
	}
}

func TestDefaultFormatValidates(t *testing.T) {
	if err := halfday.Default.Validate(); err != nil {
		t.Fatalf("default format should validate: %v", err)
	}
}
