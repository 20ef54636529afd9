package factory_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/halfday"
	"github.com/warp/leave-engine/leave"
)

func TestDefaultRules_ParseSucceeds(t *testing.T) {
	// GIVEN: The shipped default rules JSON
	// WHEN: Parsing it
	// THEN: The source system's constants come back out

	f := factory.NewRulesFactory()
	rs, err := f.ParseRules(factory.DefaultRulesJSON)
	require.NoError(t, err, "shipped defaults must always parse")

	assert.Equal(t, "30/09/2025AN", rs.Config.Tokens.Format(rs.Config.Boundary))
	assert.Equal(t, []string{"COL", "LAP", "LHAP"}, rs.Config.SplittableTypes)
	assert.Equal(t, "02/01/2006", rs.Config.Tokens.DateLayout)
	assert.True(t, rs.IncludeAuthority, "authority column is on by default")
}

func TestParseRules_AppliesDefaults(t *testing.T) {
	// GIVEN: A rule set that only names the boundary
	// WHEN: Parsing it
	// THEN: Layout, markers and the authority flag fall back to defaults

	f := factory.NewRulesFactory()
	rs, err := f.ParseRules(`{"boundary": "15/06/2025FN"}`)
	require.NoError(t, err)

	assert.Equal(t, halfday.Default.DateLayout, rs.Config.Tokens.DateLayout)
	assert.Equal(t, halfday.Default.Forenoon, rs.Config.Tokens.Forenoon)
	assert.Equal(t, halfday.Default.Afternoon, rs.Config.Tokens.Afternoon)
	assert.True(t, rs.IncludeAuthority)
	assert.Empty(t, rs.Config.SplittableTypes, "no types splittable unless configured")
}

func TestParseRules_MissingBoundary_Fatal(t *testing.T) {
	// GIVEN: Rule sets without a usable boundary
	// WHEN: Parsing them
	// THEN: Parsing fails; there is no default boundary to fall back to

	f := factory.NewRulesFactory()

	_, err := f.ParseRules(`{}`)
	assert.Error(t, err, "empty rules must not parse")

	_, err = f.ParseRules(`{"boundary": "   "}`)
	assert.Error(t, err, "blank boundary must not parse")
}

func TestParseRules_UnparsableBoundary_Fatal(t *testing.T) {
	// GIVEN: Boundaries the configured grammar cannot read
	// WHEN: Parsing the rule set
	// THEN: The error carries the token failure, and nothing half-parses

	f := factory.NewRulesFactory()

	// Not a real calendar date.
	_, err := f.ParseRules(`{"boundary": "31/11/2025FN"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, halfday.ErrMalformedToken), "calendar failure surfaces as a token error")

	// Missing the session marker entirely.
	_, err = f.ParseRules(`{"boundary": "30/09/2025"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, halfday.ErrMalformedToken))
}

func TestParseRules_RejectsBadJSON(t *testing.T) {
	f := factory.NewRulesFactory()
	_, err := f.ParseRules(`{"boundary": `)
	assert.Error(t, err)
}

func TestParseRules_RejectsBadTokenFormat(t *testing.T) {
	// GIVEN: Identical forenoon and afternoon markers
	// WHEN: Parsing the rule set
	// THEN: Format validation fails before the boundary is ever read

	f := factory.NewRulesFactory()
	_, err := f.ParseRules(`{"boundary": "30/09/2025XX", "forenoon_marker": "XX", "afternoon_marker": "XX"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, halfday.ErrInvalidFormat))
}

func TestParseRules_NormalizesSplittableTypes(t *testing.T) {
	// GIVEN: Messy type codes (case, whitespace, duplicates, blanks)
	// WHEN: Parsing the rule set
	// THEN: The stored list is trimmed, uppercased, deduped and sorted

	f := factory.NewRulesFactory()
	rs, err := f.ParseRules(`{"boundary": "30/09/2025AN", "splittable_types": [" lap", "LHAP", "lap", "", "col "]}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"COL", "LAP", "LHAP"}, rs.Config.SplittableTypes)
}

func TestParseRules_AlternateGrammar(t *testing.T) {
	// GIVEN: A US-style layout with AM/PM session markers
	// WHEN: Parsing a rule set written in that grammar
	// THEN: The boundary lands on the same instant and round-trips

	f := factory.NewRulesFactory()
	rs, err := f.ParseRules(`{
		"boundary": "09/30/2025PM",
		"date_layout": "01/02/2006",
		"forenoon_marker": "AM",
		"afternoon_marker": "PM"
	}`)
	require.NoError(t, err)

	want, err := halfday.TokenFormat{DateLayout: "01/02/2006", Forenoon: "AM", Afternoon: "PM"}.Parse("09/30/2025PM")
	require.NoError(t, err)
	assert.Equal(t, want, rs.Config.Boundary)
	assert.Equal(t, "09/30/2025PM", rs.Config.Tokens.Format(rs.Config.Boundary))
}

func TestParseRules_IncludeAuthorityOff(t *testing.T) {
	f := factory.NewRulesFactory()
	rs, err := f.ParseRules(`{"boundary": "30/09/2025AN", "include_authority": false}`)
	require.NoError(t, err)
	assert.False(t, rs.IncludeAuthority)
}

func TestToJSON_RoundTrip(t *testing.T) {
	// GIVEN: The parsed default rule set
	// WHEN: Converting back to JSON and parsing again
	// THEN: The effective rules are identical

	f := factory.NewRulesFactory()
	rs, err := f.ParseRules(factory.DefaultRulesJSON)
	require.NoError(t, err)

	again, err := f.FromJSON(f.ToJSON(rs))
	require.NoError(t, err)

	assert.Equal(t, rs.Config.Boundary, again.Config.Boundary)
	assert.Equal(t, rs.Config.SplittableTypes, again.Config.SplittableTypes)
	assert.Equal(t, rs.Config.Tokens, again.Config.Tokens)
	assert.Equal(t, rs.IncludeAuthority, again.IncludeAuthority)
}

func TestParsedRules_ConstructEngine(t *testing.T) {
	// The factory's output must be directly usable by the engine.
	rs, err := factory.LoadRules("")
	require.NoError(t, err)

	engine, err := leave.New(rs.Config)
	require.NoError(t, err)
	assert.Equal(t, rs.Config.Boundary, engine.Boundary())
	assert.Equal(t, []string{"COL", "LAP", "LHAP"}, engine.SplittableTypes())
}

func TestLoadRules_EmptyPathUsesDefaults(t *testing.T) {
	rs, err := factory.LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, "30/09/2025AN", rs.Config.Tokens.Format(rs.Config.Boundary))
}

func TestLoadRules_ReadsFile(t *testing.T) {
	// GIVEN: A rules file with a custom boundary
	// WHEN: Loading it by path
	// THEN: The file's rules win over the shipped defaults

	path := filepath.Join(t.TempDir(), "rules.json")
	err := os.WriteFile(path, []byte(`{"boundary": "31/03/2026AN", "splittable_types": ["LAP"]}`), 0o644)
	require.NoError(t, err)

	rs, err := factory.LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "31/03/2026AN", rs.Config.Tokens.Format(rs.Config.Boundary))
	assert.Equal(t, []string{"LAP"}, rs.Config.SplittableTypes)
}

func TestLoadRules_MissingFileFails(t *testing.T) {
	_, err := factory.LoadRules(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
