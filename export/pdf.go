package export

import (
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/leave-engine/leave"
)

// Meta labels a PDF report. Source is usually the uploaded filename; a zero
// GeneratedAt renders as now.
type Meta struct {
	Source      string
	GeneratedAt time.Time
	Boundary    string
	Splittable  []string
}

// Page geometry for landscape A4 in millimeters.
const (
	pdfRowHeight  = 6.0
	pdfBreakAt    = 190.0
	pdfTitle      = "Structured Leave Report"
	pdfTimeLayout = "02/01/2006 15:04"
)

// WritePDF renders segments as a landscape A4 table. The table header
// repeats on every page.
func WritePDF(w io.Writer, segments []leave.Segment, meta Meta, opts Options) error {
	tokens := opts.tokens()
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	headers := []string{"Name", "HRMS ID", "IPAS No", "Designation", "Type", "From Date", "To Date", "Days"}
	widths := []float64{52, 28, 28, 46, 18, 27, 27, 16}
	if opts.IncludeAuthority {
		headers = append(headers, "Sanction authority")
		widths = []float64{38, 24, 24, 36, 16, 25, 25, 14, 75}
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, pdfTitle)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	if meta.Source != "" {
		pdf.Cell(0, 6, "Source: "+meta.Source)
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Generated: "+meta.GeneratedAt.Format(pdfTimeLayout))
	pdf.Ln(6)
	if meta.Boundary != "" {
		summary := "Boundary: " + meta.Boundary
		if len(meta.Splittable) > 0 {
			summary += "   Splittable types: " + strings.Join(meta.Splittable, ", ")
		}
		pdf.Cell(0, 6, summary)
		pdf.Ln(6)
	}
	pdf.Ln(3)

	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range headers {
			pdf.CellFormat(widths[i], pdfRowHeight, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(pdfRowHeight)
		pdf.SetFont("Helvetica", "", 9)
	}
	tableHeader()

	for _, s := range segments {
		if pdf.GetY() > pdfBreakAt {
			pdf.AddPage()
			tableHeader()
		}
		cells := []string{
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
			cells = append(cells, s.Authority)
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], pdfRowHeight, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(pdfRowHeight)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.Ln(3)
	pdf.Cellf(0, 5, "%d segments", len(segments))

	return pdf.Output(w)
}
