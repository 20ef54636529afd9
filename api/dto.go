/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - Stable wire format while internal types evolve

NAMING CONVENTION:
  - *DTO: Response types returned to clients

TYPES:
  Batches:
    BatchSummaryDTO, BatchDTO

  Segments:
    SegmentDTO (one output record, dates rendered marker-free)

  Misses:
    MissDTO (one skipped piece of input)

  Errors:
    ErrorResponse

RENDERING:
  Half-day values are stored as integers; DTOs render them through the
  configured token grammar. From/To dates are marker-free, matching the
  CSV report. Day counts are fixed to one decimal place.

SEE ALSO:
  - handlers.go: Uses these types
  - export/csv.go: The CSV rendering these DTOs mirror
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/halfday"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// BatchSummaryDTO is the header view of a processed upload.
type BatchSummaryDTO struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	ContentHash  string `json:"content_hash"`
	RowCount     int    `json:"row_count"`
	SegmentCount int    `json:"segment_count"`
	MissCount    int    `json:"miss_count"`
	CreatedAt    string `json:"created_at"`
}

// BatchDTO is a full batch: header plus segments and parse misses.
// Duplicate is set when an upload was answered from an earlier batch
// with the same content hash.
type BatchDTO struct {
	BatchSummaryDTO
	Duplicate bool         `json:"duplicate,omitempty"`
	Segments  []SegmentDTO `json:"segments"`
	Misses    []MissDTO    `json:"misses"`
}

// SegmentDTO is one boundary-respecting leave record.
type SegmentDTO struct {
	Name        string `json:"name"`
	HRMSID      string `json:"hrms_id"`
	IPASNo      string `json:"ipas_no"`
	Designation string `json:"designation"`
	LeaveType   string `json:"leave_type"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	LeaveDays   string `json:"leave_days"`
	Authority   string `json:"authority,omitempty"`
}

// MissDTO is one skipped piece of input, tied to its zero-based row.
type MissDTO struct {
	Row    int    `json:"row"`
	Stage  string `json:"stage"`
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toBatchSummaryDTO(b sqlite.Batch) BatchSummaryDTO {
	return BatchSummaryDTO{
		ID:           b.ID,
		Source:       b.Source,
		ContentHash:  b.ContentHash,
		RowCount:     b.RowCount,
		SegmentCount: b.SegmentCount,
		MissCount:    b.MissCount,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
}

func toBatchSummaryDTOs(batches []sqlite.Batch) []BatchSummaryDTO {
	dtos := make([]BatchSummaryDTO, len(batches))
	for i, b := range batches {
		dtos[i] = toBatchSummaryDTO(b)
	}
	return dtos
}

func toSegmentDTO(s leave.Segment, tokens halfday.TokenFormat, includeAuthority bool) SegmentDTO {
	dto := SegmentDTO{
		Name:        s.Name,
		HRMSID:      s.HRMSID,
		IPASNo:      s.IPASNo,
		Designation: s.Designation,
		LeaveType:   s.LeaveType,
		FromDate:    tokens.FormatDate(s.From),
		ToDate:      tokens.FormatDate(s.To),
		LeaveDays:   s.Days.StringFixed(1),
	}
	if includeAuthority {
		dto.Authority = s.Authority
	}
	return dto
}

func toMissDTO(m sqlite.MissRecord) MissDTO {
	return MissDTO{
		Row:    m.Row,
		Stage:  m.Stage,
		Input:  m.Input,
		Reason: m.Reason,
	}
}

func (h *Handler) toBatchDTO(b sqlite.Batch, duplicate bool) BatchDTO {
	tokens := h.Engine.Tokens()
	segments := make([]SegmentDTO, len(b.Segments))
	for i, s := range b.Segments {
		segments[i] = toSegmentDTO(s, tokens, h.Rules.IncludeAuthority)
	}
	misses := make([]MissDTO, len(b.Misses))
	for i, m := range b.Misses {
		misses[i] = toMissDTO(m)
	}
	return BatchDTO{
		BatchSummaryDTO: toBatchSummaryDTO(b),
		Duplicate:       duplicate,
		Segments:        segments,
		Misses:          misses,
	}
}
