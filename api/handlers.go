/*
handlers.go - HTTP API handlers for the leave segmentation service

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic: ingest, engine,
  store, export.

ENDPOINTS:
  Rules:
    GET    /api/rules                      Effective rule set

  Batches:
    POST   /api/batches                    Upload + process + persist
    GET    /api/batches?limit=N            Batch summaries, newest first
    GET    /api/batches/{id}               Batch with segments and misses
    GET    /api/batches/{id}/segments.csv  CSV report download
    GET    /api/batches/{id}/report.pdf    PDF report download
    DELETE /api/batches/{id}               Delete batch

  Sample:
    GET    /api/sample.csv                 Demo input file

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Engine: Parsing and boundary splitting
  - Rules: The rule set the engine was built from
  - Re-upload cache and per-client upload limiter

REQUEST FLOW (upload):
  1. Enforce size cap, read multipart file
  2. Hash content, answer repeats from the earlier batch
  3. Ingest rows, run the batch through the engine
  4. Persist atomically, respond with the stored batch

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Bad upload, unreadable input, missing columns
  - 404: Unknown batch
  - 429: Upload rate exceeded
  - 500: Internal errors

SEE ALSO:
  - dto.go: Response data structures
  - sample.go: Demo input
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/export"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/ingest"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// pdfFilename is the download name for the PDF rendering of a batch.
const pdfFilename = "Structured_Leave_Report.pdf"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Engine  *leave.Engine
	Rules   factory.RuleSet
	Factory *factory.RulesFactory

	cfg *config.Config

	// Re-upload detection: content hash -> batch id, bounded by the TTL.
	recent *gocache.Cache

	// Per-client token bucket for the upload endpoint.
	uploads *ipLimiter
}

// NewHandler creates a new handler. The engine must have been built from the
// given rule set; both are kept because exports need the output-layer flags
// the engine does not carry.
func NewHandler(store *sqlite.Store, engine *leave.Engine, rules factory.RuleSet, cfg *config.Config) *Handler {
	return &Handler{
		Store:   store,
		Engine:  engine,
		Rules:   rules,
		Factory: factory.NewRulesFactory(),
		cfg:     cfg,
		recent:  gocache.New(cfg.Upload.CacheTTL, 2*cfg.Upload.CacheTTL),
		uploads: newIPLimiter(cfg.Upload.RateRPS, cfg.Upload.RateBurst),
	}
}

// =============================================================================
// RULES HANDLERS
// =============================================================================

// GetRules returns the rule set the server is running with.
// GET /api/rules
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Factory.ToJSON(h.Rules))
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

// UploadBatch accepts an input file, runs it through the engine and persists
// the result. A repeat upload of identical bytes inside the cache window is
// answered from the already-stored batch instead of reprocessing.
// POST /api/batches
func (h *Handler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxBytes)
	if err := r.ParseMultipartForm(h.cfg.Upload.MaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse upload", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload", err)
		return
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	if batch, ok := h.recentBatch(r.Context(), contentHash); ok {
		writeJSON(w, http.StatusOK, h.toBatchDTO(batch, true))
		return
	}

	rows, err := ingest.Read(bytes.NewReader(data), header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrMissingColumns):
			writeError(w, http.StatusBadRequest, "Input is missing required columns", err)
		case errors.Is(err, ingest.ErrNoData):
			writeError(w, http.StatusBadRequest, "Input file has no data rows", err)
		default:
			writeError(w, http.StatusBadRequest, "Unreadable input file", err)
		}
		return
	}

	result, err := h.Engine.ProcessBatch(r.Context(), rows, h.cfg.Processing.Workers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Processing aborted", err)
		return
	}

	batch, err := h.Store.SaveBatch(r.Context(), header.Filename, contentHash, result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save batch", err)
		return
	}
	h.recent.Set(contentHash, batch.ID, gocache.DefaultExpiration)

	writeJSON(w, http.StatusCreated, h.toBatchDTO(batch, false))
}

// recentBatch finds a batch already stored for this content hash inside the
// re-upload window, preferring the in-process cache over a table lookup. The
// store fallback keeps deduplication working across restarts.
func (h *Handler) recentBatch(ctx context.Context, contentHash string) (sqlite.Batch, bool) {
	if id, found := h.recent.Get(contentHash); found {
		if batch, err := h.Store.GetBatch(ctx, id.(string)); err == nil {
			return batch, true
		}
		// Batch was deleted under the cache entry.
		h.recent.Delete(contentHash)
	}

	header, err := h.Store.FindByContentHash(ctx, contentHash)
	if err != nil || time.Since(header.CreatedAt) >= h.cfg.Upload.CacheTTL {
		return sqlite.Batch{}, false
	}
	batch, err := h.Store.GetBatch(ctx, header.ID)
	if err != nil {
		return sqlite.Batch{}, false
	}
	h.recent.Set(contentHash, batch.ID, gocache.DefaultExpiration)
	return batch, true
}

// ListBatches returns batch summaries, newest first.
// GET /api/batches?limit=N
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = n
	}

	batches, err := h.Store.ListBatches(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batches", err)
		return
	}

	writeJSON(w, http.StatusOK, toBatchSummaryDTOs(batches))
}

// GetBatch returns a single batch with its segments and misses.
// GET /api/batches/{id}
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.Store.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Batch not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load batch", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toBatchDTO(batch, false))
}

// DownloadCSV streams the batch as the structured CSV report.
// GET /api/batches/{id}/segments.csv
func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	batch, err := h.Store.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Batch not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load batch", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFilename))
	// Headers are sent once writing starts; errors past this point are moot.
	_ = export.WriteCSV(w, batch.Segments, h.exportOptions())
}

// DownloadPDF streams the batch as a printable PDF report.
// GET /api/batches/{id}/report.pdf
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	batch, err := h.Store.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Batch not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load batch", err)
		return
	}

	meta := export.Meta{
		Source:      batch.Source,
		GeneratedAt: time.Now(),
		Boundary:    h.Engine.Tokens().Format(h.Engine.Boundary()),
		Splittable:  h.Engine.SplittableTypes(),
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdfFilename))
	_ = export.WritePDF(w, batch.Segments, meta, h.exportOptions())
}

// DeleteBatch removes a batch and its segments.
// DELETE /api/batches/{id}
func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteBatch(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Batch not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete batch", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) exportOptions() export.Options {
	return export.Options{
		Tokens:           h.Engine.Tokens(),
		IncludeAuthority: h.Rules.IncludeAuthority,
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
