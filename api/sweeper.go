/*
sweeper.go - Background retention pruning for stored batches

PURPOSE:
  Every processed upload is persisted in full, segments and misses included,
  so an unattended server accumulates batches without bound. The sweeper
  periodically deletes batches older than the retention window.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Sweeps once immediately on start, then on every tick
  - A zero or negative retention disables the sweeper entirely

USAGE:
  sweeper := NewRetentionSweeper(store, 90*24*time.Hour, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - store/sqlite: DeleteBatchesBefore
  - cmd/server/main.go: Starts the sweeper when RETENTION_DAYS is set
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/leave-engine/store/sqlite"
)

// RetentionSweeper deletes batches older than the retention window.
type RetentionSweeper struct {
	Store         *sqlite.Store
	MaxAge        time.Duration
	CheckInterval time.Duration

	log    *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetentionSweeper creates a new sweeper with a one-hour check interval.
func NewRetentionSweeper(store *sqlite.Store, maxAge time.Duration, logger *slog.Logger) *RetentionSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionSweeper{
		Store:         store,
		MaxAge:        maxAge,
		CheckInterval: time.Hour,
		log:           logger,
		stop:          make(chan struct{}),
	}
}

// Start begins the sweeper.
func (rs *RetentionSweeper) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.MaxAge <= 0 {
		rs.log.Info("retention sweeper disabled, keeping batches forever")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.log.Info("retention sweeper started",
		slog.Duration("max_age", rs.MaxAge),
		slog.Duration("check_interval", rs.CheckInterval))
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
func (rs *RetentionSweeper) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.log.Info("retention sweeper stopped")
	}
}

func (rs *RetentionSweeper) run() {
	defer rs.wg.Done()

	// Sweep immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RetentionSweeper) sweep() {
	cutoff := time.Now().Add(-rs.MaxAge)

	pruned, err := rs.Store.DeleteBatchesBefore(context.Background(), cutoff)
	if err != nil {
		rs.log.Error("retention sweep failed", slog.Any("error", err))
		return
	}
	if pruned > 0 {
		rs.log.Info("retention sweep pruned batches",
			slog.Int("pruned", pruned),
			slog.Time("cutoff", cutoff))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (rs *RetentionSweeper) RunNow() {
	rs.sweep()
}
