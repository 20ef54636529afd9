/*
engine.go - Leave segmentation engine

PURPOSE:
  Turns one employee row into boundary-respecting leave segments. The engine
  is pure: configuration in, records out, no I/O, no state across rows.

SPLIT RULE:
  Accounting closes a period at a fixed half-day boundary. A leave of a
  splittable type whose range starts at or before the boundary and ends
  strictly after it must never reach downstream accounting in one piece:
  it is emitted as exactly two segments, one per period, with durations
  recomputed per side. Every other range passes through unsplit.

EXAMPLE:
  engine, _ := leave.New(leave.Config{
      Boundary:        mustParse("30/09/2025AN"),
      SplittableTypes: []string{"LAP", "LHAP", "COL"},
      Tokens:          halfday.Default,
  })
  result := engine.ProcessRow(row)
  // result.Segments: ordered output records
  // result.Misses:   skipped input, for the caller to log

SEE ALSO:
  - parser.go: clause extraction feeding ProcessRow
  - batch.go: parallel processing of whole row slices
*/
package leave

import (
	"sort"
	"strings"

	"github.com/warp/leave-engine/halfday"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config carries the three parameters that vary between deployments:
// where the accounting period closes, which leave types divide there,
// and what a date token looks like.
type Config struct {
	// Boundary is the last half-day of the closing period. The zero value
	// (the epoch forenoon) is treated as unset and rejected.
	Boundary halfday.Value

	// SplittableTypes lists the leave-type codes subject to the boundary
	// split. Codes are matched case-insensitively; an empty list disables
	// splitting entirely.
	SplittableTypes []string

	// Tokens is the date-token grammar. Zero value means halfday.Default.
	Tokens halfday.TokenFormat
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	boundary   halfday.Value
	splittable map[string]struct{}
	tokens     halfday.TokenFormat
}

// New validates the configuration and builds an engine. An unusable
// configuration is the only fatal error in this package; everything after
// construction is skip-and-continue.
func New(cfg Config) (*Engine, error) {
	if cfg.Boundary == 0 {
		return nil, &ConfigError{Field: "boundary", Reason: "not set"}
	}
	tokens := cfg.Tokens
	if tokens == (halfday.TokenFormat{}) {
		tokens = halfday.Default
	}
	if err := tokens.Validate(); err != nil {
		return nil, &ConfigError{Field: "token format", Reason: err.Error()}
	}
	splittable := make(map[string]struct{}, len(cfg.SplittableTypes))
	for _, t := range cfg.SplittableTypes {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			splittable[t] = struct{}{}
		}
	}
	return &Engine{boundary: cfg.Boundary, splittable: splittable, tokens: tokens}, nil
}

// Boundary returns the configured period-closing half-day.
func (e *Engine) Boundary() halfday.Value { return e.boundary }

// SplittableTypes returns the configured type codes, sorted for display.
func (e *Engine) SplittableTypes() []string {
	out := make([]string, 0, len(e.splittable))
	for t := range e.splittable {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tokens returns the grammar the engine parses and renders with.
func (e *Engine) Tokens() halfday.TokenFormat { return e.tokens }

func (e *Engine) isSplittable(leaveType string) bool {
	_, ok := e.splittable[leaveType]
	return ok
}

// =============================================================================
// ROW PROCESSING
// =============================================================================

// ProcessRow turns one row into segments. Malformed clauses, groups and
// tokens reduce the output and land in Misses; nothing aborts the row.
func (e *Engine) ProcessRow(row Row) RowResult {
	clauses, misses := ParseDetails(row.LeaveDetails, e.tokens)
	res := RowResult{Misses: misses}

	for _, cl := range clauses {
		for _, g := range cl.Groups {
			for _, sp := range e.spans(cl.Type, g) {
				days, err := halfday.DaysBetween(sp.from, sp.to)
				if err != nil {
					// Unusable span: drop it, never emit a partial record.
					res.Misses = append(res.Misses, Miss{
						Stage: MissRange,
						Input: e.tokens.Format(g.From) + "-" + e.tokens.Format(g.To),
						Err:   err,
					})
					continue
				}
				res.Segments = append(res.Segments, Segment{
					Name:        row.Name,
					HRMSID:      row.HRMSID,
					IPASNo:      row.IPASNo,
					Designation: row.Designation,
					LeaveType:   cl.Type,
					From:        sp.from,
					To:          sp.to,
					Days:        days,
					Authority:   g.Authority,
				})
			}
		}
	}
	return res
}

type span struct{ from, to halfday.Value }

// spans applies the split rule: a splittable type whose range starts at or
// before the boundary and ends strictly after it becomes two spans meeting
// at the boundary; anything else is one span.
func (e *Engine) spans(leaveType string, g Group) []span {
	if e.isSplittable(leaveType) && g.From <= e.boundary && e.boundary < g.To {
		return []span{{g.From, e.boundary}, {e.boundary.Next(), g.To}}
	}
	return []span{{g.From, g.To}}
}
