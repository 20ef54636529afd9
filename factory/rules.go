/*
Package factory provides JSON to Go rule-set conversion.

PURPOSE:
  Converts JSON rule definitions into a validated leave.Config plus output
  options. This enables rule configuration without code changes - HR can
  adjust the boundary or the splittable leave types in JSON, and the factory
  creates the proper Go structs.

WHY JSON?
  - Non-developers can modify rules
  - Easy integration with admin UI
  - Version control for rule definitions
  - Database storage of rule configs

JSON SCHEMA:
  {
    "boundary": "30/09/2025AN",
    "splittable_types": ["LAP", "LHAP", "COL"],
    "date_layout": "02/01/2006",
    "forenoon_marker": "FN",
    "afternoon_marker": "AN",
    "include_authority": true
  }

KEY FEATURES:
  - Validates the token format before touching the boundary
  - Sets sensible defaults for omitted fields
  - Parses the boundary with the configured grammar (unparsable = fatal)
  - Normalizes splittable types (trim, uppercase, dedupe, sorted)
  - Round-trips back to JSON for display endpoints

USAGE:
  factory := NewRulesFactory()

  // From JSON string
  rules, err := factory.ParseRules(jsonString)

  // Shipped defaults (the source system's constants)
  rules, err := factory.ParseRules(DefaultRulesJSON)

  // From a file path, falling back to defaults when empty
  rules, err := LoadRules(cfg.RulesPath)

  // Use in system
  engine, err := leave.New(rules.Config)

SEE ALSO:
  - leave/engine.go: Config type definition and engine construction
  - halfday/token.go: TokenFormat validation and boundary parsing
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/warp/leave-engine/halfday"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleSetJSON is the JSON representation of a rule set.
type RuleSetJSON struct {
	Boundary         string   `json:"boundary"`
	SplittableTypes  []string `json:"splittable_types,omitempty"`
	DateLayout       string   `json:"date_layout,omitempty"`
	ForenoonMarker   string   `json:"forenoon_marker,omitempty"`
	AfternoonMarker  string   `json:"afternoon_marker,omitempty"`
	IncludeAuthority *bool    `json:"include_authority,omitempty"` // Default true
}

// =============================================================================
// RULES FACTORY
// =============================================================================

// RuleSet is a parsed, validated rule configuration. Config drives the
// splitting engine; IncludeAuthority drives the output layers (CSV column,
// PDF column, API payloads).
type RuleSet struct {
	Config           leave.Config
	IncludeAuthority bool
}

// RulesFactory converts JSON rule sets to Go structs.
type RulesFactory struct{}

// NewRulesFactory creates a new rules factory.
func NewRulesFactory() *RulesFactory {
	return &RulesFactory{}
}

// ParseRules parses a JSON string into a RuleSet.
func (f *RulesFactory) ParseRules(jsonStr string) (RuleSet, error) {
	var rj RuleSetJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules JSON: %w", err)
	}

	return f.FromJSON(rj)
}

// FromJSON converts RuleSetJSON to a RuleSet.
func (f *RulesFactory) FromJSON(rj RuleSetJSON) (RuleSet, error) {
	// Build the token format first: the boundary can only be interpreted
	// through it.
	format := halfday.TokenFormat{
		DateLayout: rj.DateLayout,
		Forenoon:   rj.ForenoonMarker,
		Afternoon:  rj.AfternoonMarker,
	}
	if format.DateLayout == "" {
		format.DateLayout = halfday.Default.DateLayout
	}
	if format.Forenoon == "" {
		format.Forenoon = halfday.Default.Forenoon
	}
	if format.Afternoon == "" {
		format.Afternoon = halfday.Default.Afternoon
	}
	if err := format.Validate(); err != nil {
		return RuleSet{}, fmt.Errorf("invalid token format: %w", err)
	}

	// The boundary is the one field without a usable default: splitting is
	// meaningless without it.
	boundaryToken := strings.TrimSpace(rj.Boundary)
	if boundaryToken == "" {
		return RuleSet{}, fmt.Errorf("rules are missing the boundary token")
	}
	boundary, err := format.Parse(boundaryToken)
	if err != nil {
		return RuleSet{}, fmt.Errorf("invalid boundary %q: %w", rj.Boundary, err)
	}

	rs := RuleSet{
		Config: leave.Config{
			Boundary:        boundary,
			SplittableTypes: normalizeTypes(rj.SplittableTypes),
			Tokens:          format,
		},
		IncludeAuthority: true,
	}
	if rj.IncludeAuthority != nil {
		rs.IncludeAuthority = *rj.IncludeAuthority
	}

	return rs, nil
}

// ToJSON converts a RuleSet back to its JSON representation. The boundary is
// rendered with the rule set's own token format, so a parsed rule set
// round-trips to the same effective rules.
func (f *RulesFactory) ToJSON(rs RuleSet) RuleSetJSON {
	include := rs.IncludeAuthority
	return RuleSetJSON{
		Boundary:         rs.Config.Tokens.Format(rs.Config.Boundary),
		SplittableTypes:  rs.Config.SplittableTypes,
		DateLayout:       rs.Config.Tokens.DateLayout,
		ForenoonMarker:   rs.Config.Tokens.Forenoon,
		AfternoonMarker:  rs.Config.Tokens.Afternoon,
		IncludeAuthority: &include,
	}
}

// LoadRules reads and parses a rules file. An empty path loads the shipped
// defaults.
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return NewRulesFactory().ParseRules(DefaultRulesJSON)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return NewRulesFactory().ParseRules(string(data))
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// normalizeTypes trims, uppercases, dedupes and sorts leave type codes so
// that a rule set compares and displays deterministically. The engine applies
// the same normalization; doing it here keeps ToJSON output canonical.
func normalizeTypes(types []string) []string {
	seen := make(map[string]struct{}, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		code := strings.ToUpper(strings.TrimSpace(t))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// DEFAULT RULES
// =============================================================================

// DefaultRulesJSON carries the constants the source HR system was built
// around: the 2025-26 half-year boundary and the three leave types that may
// legally straddle it.
const DefaultRulesJSON = `{
  "boundary": "30/09/2025AN",
  "splittable_types": ["LAP", "LHAP", "COL"],
  "date_layout": "02/01/2006",
  "forenoon_marker": "FN",
  "afternoon_marker": "AN",
  "include_authority": true
}`
