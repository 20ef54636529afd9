/*
Package export renders processed leave segments for download.

PURPOSE:
  Produces the two artifacts users take away from a processed batch: the
  structured CSV (the source system's one output, column-for-column) and a
  tabular PDF report. Rendering is presentation only; segments arrive fully
  computed from the engine.

OUTPUT CONTRACT (CSV):
  Column order and spelling follow the source system exactly, including the
  lowercase 'a' in "Sanction authority". Dates are rendered date-only (the
  session marker is dropped), day counts with one decimal place.

SEE ALSO:
  - leave/types.go: Segment, the unit being rendered
  - pdf.go: the PDF report
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/warp/leave-engine/halfday"
	"github.com/warp/leave-engine/leave"
)

// DefaultFilename is the download name the source system used for the
// structured CSV.
const DefaultFilename = "Structured_Leave_Report_Clean.csv"

// Options controls rendering. A zero Tokens falls back to the default token
// format; IncludeAuthority toggles the sanction authority column.
type Options struct {
	Tokens           halfday.TokenFormat
	IncludeAuthority bool
}

func (o Options) tokens() halfday.TokenFormat {
	if o.Tokens == (halfday.TokenFormat{}) {
		return halfday.Default
	}
	return o.Tokens
}

// WriteCSV writes segments as the structured leave report.
func WriteCSV(w io.Writer, segments []leave.Segment, opts Options) error {
	tokens := opts.tokens()

	cw := csv.NewWriter(w)
	header := []string{"Name", "HRMS ID", "IPAS No", "Designation", "Leave Type", "From Date", "To Date", "Leave Days"}
	if opts.IncludeAuthority {
		header = append(header, "Sanction authority")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, s := range segments {
		rec := []string{
			s.Name,
			s.HRMSID,
			s.IPASNo,
			s.Designation,
			s.LeaveType,
			tokens.FormatDate(s.From),
			tokens.FormatDate(s.To),
			s.Days.StringFixed(1),
		}
		if opts.IncludeAuthority {
			rec = append(rec, s.Authority)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
