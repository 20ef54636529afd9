/*
Package ingest reads uploaded leave spreadsheets into engine rows.

PURPOSE:
  Turns the tabular files HR actually uploads (CSV or XLSX, usually with a
  title row above the real header) into []leave.Row. The source system
  hard-coded "header is the second row"; here the header row is located by
  scanning the leading rows for one that carries every required column, so
  files with or without a title row both work.

PIPELINE:
  Read(r, filename)
    -> ReadCSV / ReadXLSX        (extension dispatch)
    -> locateHeader              (scan first rows, normalized column match)
    -> leave.Row extraction      (ragged rows tolerated, padding rows dropped)

COLUMN MATCHING:
  Header cells are normalized before comparison: trimmed, punctuation
  stripped, whitespace collapsed, lowercased. "HRMS ID.", " hrms id " and
  "HRMS ID" all name the same column.

SEE ALSO:
  - leave/types.go: the Row the engine consumes
  - api/handlers.go: upload endpoint calling Read
*/
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/warp/leave-engine/leave"
)

// headerScanLimit bounds the search for the header row. Real uploads carry at
// most a title row and a blank row above the header.
const headerScanLimit = 10

// RequiredColumns are the columns a usable upload must carry, in the source
// system's spelling. Matching is normalized, so punctuation and case in the
// actual file do not matter.
var RequiredColumns = []string{"HRMS ID", "IPAS No", "Name", "Designation", "Leave Details"}

var (
	// ErrMissingColumns is returned when no candidate header row carries all
	// required columns.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrNoData is returned for files with no rows at all.
	ErrNoData = errors.New("file contains no data")
)

// MissingColumnsError lists the columns absent from the best header
// candidate, for actionable upload errors.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// =============================================================================
// READERS
// =============================================================================

// Read parses an uploaded file into engine rows, dispatching on the file
// extension: .xlsx goes through excelize, everything else is treated as CSV.
func Read(r io.Reader, filename string) ([]leave.Row, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ReadXLSX(r)
	}
	return ReadCSV(r)
}

// ReadCSV parses CSV input. Ragged rows are tolerated; short rows read as
// blank cells.
func ReadCSV(r io.Reader) ([]leave.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromRecords(records)
}

// ReadXLSX parses the first sheet of an xlsx workbook.
func ReadXLSX(r io.Reader) ([]leave.Row, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoData
	}
	records, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return fromRecords(records)
}

// =============================================================================
// HEADER DETECTION AND ROW EXTRACTION
// =============================================================================

func fromRecords(records [][]string) ([]leave.Row, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	headerIdx, index, missing := locateHeader(records)
	if headerIdx < 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	rows := make([]leave.Row, 0, len(records)-headerIdx-1)
	for _, rec := range records[headerIdx+1:] {
		row := leave.Row{
			Name:         cell(rec, index["name"]),
			HRMSID:       cell(rec, index["hrms id"]),
			IPASNo:       cell(rec, index["ipas no"]),
			Designation:  cell(rec, index["designation"]),
			LeaveDetails: cell(rec, index["leave details"]),
		}
		// Padding rows (no identity at all) carry nothing attributable.
		if row.Name == "" && row.HRMSID == "" && row.IPASNo == "" && row.Designation == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// locateHeader scans the leading rows for one containing every required
// column. Returns the header row index and a normalized-name -> column-index
// map, or -1 plus the columns missing from the closest candidate.
func locateHeader(records [][]string) (int, map[string]int, []string) {
	required := make([]string, len(RequiredColumns))
	for i, c := range RequiredColumns {
		required[i] = normalizeHeader(c)
	}

	limit := len(records)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	bestMissing := RequiredColumns
	for i := 0; i < limit; i++ {
		index := make(map[string]int, len(records[i]))
		for col, name := range records[i] {
			key := normalizeHeader(name)
			if key == "" {
				continue
			}
			if _, ok := index[key]; !ok {
				index[key] = col
			}
		}

		var missing []string
		for j, key := range required {
			if _, ok := index[key]; !ok {
				missing = append(missing, RequiredColumns[j])
			}
		}
		if len(missing) == 0 {
			return i, index, nil
		}
		if len(missing) < len(bestMissing) {
			bestMissing = missing
		}
	}
	return -1, nil, bestMissing
}

// cell reads one field from a possibly short record.
func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// normalizeHeader lowercases a column name, strips punctuation and collapses
// whitespace, mirroring the source system's header cleanup.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
