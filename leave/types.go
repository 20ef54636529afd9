package leave

import (
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/halfday"
)

// =============================================================================
// INPUT - One employee row from the ingestion layer
// =============================================================================

// Row is the engine's input record. Identity fields pass through to every
// segment unchanged; LeaveDetails is the free-text field the parser consumes.
type Row struct {
	Name         string
	HRMSID       string
	IPASNo       string
	Designation  string
	LeaveDetails string
}

// =============================================================================
// PARSE TREE - Clauses and groups extracted from the text
// =============================================================================

// Clause is one recognized leave entry: a type code, the claimed day count
// written next to it, and the date-range groups from the parenthesized body.
// ClaimedDays is informational only; durations are always recomputed from
// the ranges.
type Clause struct {
	Type        string
	ClaimedDays decimal.Decimal
	Groups      []Group
}

// Group is one date range inside a clause body, with the sanctioning
// authority when one was written. Authority is empty when absent; absence is
// not an error.
type Group struct {
	From      halfday.Value
	To        halfday.Value
	Authority string
}

// =============================================================================
// OUTPUT - Segments and parse misses
// =============================================================================

// Segment is one boundary-respecting leave range, the atomic output unit.
type Segment struct {
	Name        string
	HRMSID      string
	IPASNo      string
	Designation string
	LeaveType   string
	From        halfday.Value
	To          halfday.Value
	Days        decimal.Decimal
	Authority   string
}

// MissStage identifies the grammar level at which input was skipped.
type MissStage string

const (
	MissClause MissStage = "clause" // candidate clause head that did not complete
	MissGroup  MissStage = "group"  // date-range group that did not parse
	MissRange  MissStage = "range"  // group parsed but its range was unusable
)

// Miss records one skipped piece of input. Misses are data, not failures:
// they reduce the row's output and are surfaced for logging and audit.
type Miss struct {
	Stage MissStage
	Input string
	Err   error
}

// RowResult is the outcome of processing one row: the segments produced, in
// text order, plus every miss encountered along the way.
type RowResult struct {
	Segments []Segment
	Misses   []Miss
}
