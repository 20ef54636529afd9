package export_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/export"
	"github.com/warp/leave-engine/halfday"
	"github.com/warp/leave-engine/leave"
)

func seg(t *testing.T, name, leaveType, from, to, days, authority string) leave.Segment {
	t.Helper()
	f, err := halfday.Default.Parse(from)
	require.NoError(t, err)
	u, err := halfday.Default.Parse(to)
	require.NoError(t, err)
	return leave.Segment{
		Name:        name,
		HRMSID:      "H001",
		IPASNo:      "IP001",
		Designation: "Clerk",
		LeaveType:   leaveType,
		From:        f,
		To:          u,
		Days:        decimal.RequireFromString(days),
		Authority:   authority,
	}
}

func TestWriteCSV_MatchesSourceSystemLayout(t *testing.T) {
	// GIVEN: A split pair of segments as the engine emits them
	// WHEN: Rendering the structured CSV
	// THEN: Header spelling, column order, marker-free dates and one-decimal
	//       day counts all match the source system's output

	segments := []leave.Segment{
		seg(t, "Asha Rao", "LAP", "28/09/2025FN", "30/09/2025AN", "3", "(E123) Shri Kumar"),
		seg(t, "Asha Rao", "LAP", "01/10/2025FN", "03/10/2025AN", "3", "(E123) Shri Kumar"),
	}

	var buf bytes.Buffer
	err := export.WriteCSV(&buf, segments, export.Options{IncludeAuthority: true})
	require.NoError(t, err)

	want := strings.Join([]string{
		"Name,HRMS ID,IPAS No,Designation,Leave Type,From Date,To Date,Leave Days,Sanction authority",
		"Asha Rao,H001,IP001,Clerk,LAP,28/09/2025,30/09/2025,3.0,(E123) Shri Kumar",
		"Asha Rao,H001,IP001,Clerk,LAP,01/10/2025,03/10/2025,3.0,(E123) Shri Kumar",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_WithoutAuthorityColumn(t *testing.T) {
	segments := []leave.Segment{
		seg(t, "Vikram Singh", "CL", "05/09/2025AN", "05/09/2025AN", "0.5", "(E9) Rao"),
	}

	var buf bytes.Buffer
	err := export.WriteCSV(&buf, segments, export.Options{IncludeAuthority: false})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,HRMS ID,IPAS No,Designation,Leave Type,From Date,To Date,Leave Days", lines[0])
	assert.NotContains(t, lines[1], "(E9)", "authority must not leak into the row")
	assert.True(t, strings.HasSuffix(lines[1], ",0.5"))
}

func TestWriteCSV_AlternateTokenFormat(t *testing.T) {
	// Dates render in the configured layout, still marker-free.
	tokens := halfday.TokenFormat{DateLayout: "01/02/2006", Forenoon: "AM", Afternoon: "PM"}
	from, err := tokens.Parse("09/28/2025AM")
	require.NoError(t, err)
	to, err := tokens.Parse("09/30/2025PM")
	require.NoError(t, err)

	segments := []leave.Segment{{
		Name: "Asha Rao", HRMSID: "H001", IPASNo: "IP001", Designation: "Clerk",
		LeaveType: "LAP", From: from, To: to, Days: decimal.RequireFromString("3"),
	}}

	var buf bytes.Buffer
	err = export.WriteCSV(&buf, segments, export.Options{Tokens: tokens})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "09/28/2025,09/30/2025,3.0")
}

func TestWriteCSV_EmptySegmentsStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	err := export.WriteCSV(&buf, nil, export.Options{IncludeAuthority: true})
	require.NoError(t, err)
	assert.Equal(t, "Name,HRMS ID,IPAS No,Designation,Leave Type,From Date,To Date,Leave Days,Sanction authority\n", buf.String())
}

func TestWritePDF_ProducesDocument(t *testing.T) {
	segments := []leave.Segment{
		seg(t, "Asha Rao", "LAP", "28/09/2025FN", "30/09/2025AN", "3", "(E123) Shri Kumar"),
		seg(t, "Asha Rao", "LAP", "01/10/2025FN", "03/10/2025AN", "3", "(E123) Shri Kumar"),
	}
	meta := export.Meta{
		Source:      "leave_report.xlsx",
		GeneratedAt: time.Date(2025, time.October, 6, 9, 30, 0, 0, time.UTC),
		Boundary:    "30/09/2025AN",
		Splittable:  []string{"COL", "LAP", "LHAP"},
	}

	var buf bytes.Buffer
	err := export.WritePDF(&buf, segments, meta, export.Options{IncludeAuthority: true})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "output must be a PDF document")
}

func TestWritePDF_ManyRowsSpanPages(t *testing.T) {
	// Enough rows to force a page break; the document must still render.
	var segments []leave.Segment
	for i := 0; i < 80; i++ {
		segments = append(segments, seg(t, "Asha Rao", "LAP", "28/09/2025FN", "30/09/2025AN", "3", "(E123) Shri Kumar"))
	}

	var onePage, manyPages bytes.Buffer
	err := export.WritePDF(&onePage, segments[:1], export.Meta{}, export.Options{IncludeAuthority: true})
	require.NoError(t, err)
	err = export.WritePDF(&manyPages, segments, export.Meta{}, export.Options{IncludeAuthority: true})
	require.NoError(t, err)

	assert.Greater(t, manyPages.Len(), onePage.Len())
}
