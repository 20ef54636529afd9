/*
sample.go - Built-in demo input for testing and demonstrations

PURPOSE:

	Serves a small roster in the upstream HR export shape so the service can
	be tried end to end without access to a real export. The rows exercise
	the interesting paths: a range crossing the period boundary (split), a
	non-splittable type crossing it (kept whole), a single half-day pair
	sitting exactly on the boundary, and a half-day duration.

USAGE:

	curl -O http://localhost:8080/api/sample.csv
	curl -F file=@sample_leave_input.csv http://localhost:8080/api/batches

NOTE:

	The sample is written against the shipped default rules. Servers running
	custom rules (other boundary, other grammar) will parse it differently.

SEE ALSO:
  - handlers.go: UploadBatch, the endpoint this feeds
  - factory/rules.go: DefaultRulesJSON
*/
package api

import "net/http"

const sampleFilename = "sample_leave_input.csv"

const sampleCSV = `No,HRMS ID,IPAS No,Name,Designation,Leave Details
1,HR1001,50331,A K SHARMA,Station Master,"LAP 10 days (26/09/2025FN-05/10/2025AN (O) Sr.DPO)"
2,HR1002,50332,S K VERMA,Pointsman,"LHAP 4 days (29/09/2025FN-02/10/2025AN (O) Sr.DSO), CL 1 days (15/10/2025FN-15/10/2025AN)"
3,HR1003,50333,R N GUPTA,Technician-I,"COL 1 days (30/09/2025FN-30/09/2025AN (1212) DOM)"
4,HR1004,50334,M DEVI,Office Clerk,"LAP 5.5 days (01/10/2025FN-06/10/2025FN (O) Sr.DPO)"
`

// SampleCSV serves the demo input file.
// GET /api/sample.csv
func (h *Handler) SampleCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sampleFilename+`"`)
	w.Write([]byte(sampleCSV))
}
