/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP from proxy headers (feeds the upload limiter)
  3. CORS:       Cross-origin requests for browser clients
  4. httplog:    Structured request logging (slog JSON, ECS schema)
  5. CleanPath:  Normalize request paths
  6. Recoverer:  Panic recovery (500 instead of crash)
  7. Heartbeat:  GET /healthz liveness

ROUTE GROUPS:
  /api/rules        Effective rule set
  /api/batches/*    Upload, inspect, download, delete
  /api/sample.csv   Demo input file
  /                 Plain HTML endpoint index

SECURITY NOTE:
  No authentication middleware. The upload endpoint is rate limited per
  client IP; everything else is open.

SEE ALSO:
  - handlers.go: Handler implementations
  - ratelimit.go: Upload rate limiting
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       ParseLogLevel(h.cfg.Server.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "leave-engine"),
	)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/rules", h.GetRules)
		r.Get("/sample.csv", h.SampleCSV)

		// Batch routes
		r.Route("/batches", func(r chi.Router) {
			r.With(h.uploads.middleware).Post("/", h.UploadBatch)
			r.Get("/", h.ListBatches)
			r.Get("/{id}", h.GetBatch)
			r.Get("/{id}/segments.csv", h.DownloadCSV)
			r.Get("/{id}/report.pdf", h.DownloadPDF)
			r.Delete("/{id}", h.DeleteBatch)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Leave Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Leave Engine API</h1>
<p>Upload a leave roster and download the boundary-split report.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/rules">/api/rules</a> - Effective rule set</li>
<li><a href="/api/batches">/api/batches</a> - Processed batches</li>
<li><a href="/api/sample.csv">/api/sample.csv</a> - Sample input file</li>
<li><a href="/healthz">/healthz</a> - Liveness</li>
</ul>
<p>POST a multipart form with a <code>file</code> field to <code>/api/batches</code> to process a roster.</p>
</body>
</html>`))
	})

	return r
}

// ParseLogLevel maps a config string to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
