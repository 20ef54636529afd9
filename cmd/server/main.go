/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave segmentation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment, optional .env file)
  2. Load and validate the rule set (fatal before any processing)
  3. Initialize SQLite store
  4. Build the engine and API handler
  5. Start server, plus the retention sweeper when one is configured

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the retention sweeper, close the database
  4. Exit

ENVIRONMENT:
  See config/config.go: PORT, DB_PATH, RULES_PATH, RETENTION_DAYS,
  CORS_ORIGINS, LOG_LEVEL, UPLOAD_MAX_MB, CACHE_TTL_MIN, RATE_RPS,
  RATE_BURST, WORKERS. A local .env file is honored when present.

EXAMPLES:
  # Run with defaults (leave.db in the working directory)
  ./server

  # Custom rules and port
  PORT=3000 RULES_PATH=./rules.json ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - factory/rules.go: Rule set loading
*/
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Rules are validated before anything else comes up: a server with a bad
	// boundary must never accept an upload.
	rules, err := factory.LoadRules(cfg.Storage.RulesPath)
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}
	engine, err := leave.New(rules.Config)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, engine, rules, cfg)
	router := api.NewRouter(handler)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: api.ParseLogLevel(cfg.Server.LogLevel),
	})).With(slog.String("app", "leave-engine"))

	if cfg.Storage.RetentionDays > 0 {
		maxAge := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
		sweeper := api.NewRetentionSweeper(store, maxAge, logger)
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("addr", server.Addr),
			slog.String("boundary", engine.Tokens().Format(engine.Boundary())),
			slog.Any("splittable", engine.SplittableTypes()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server stopped")
}
