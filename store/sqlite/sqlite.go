/*
Package sqlite provides SQLite-backed batch persistence.

PURPOSE:
  Persists processed upload batches - the batch header, every emitted
  segment, and every parse miss - so users can revisit, re-download and
  delete earlier runs. The engine itself stays pure; this is the only
  stateful layer.

KEY TABLES:
  batches:  One row per processed upload (source name, content hash, counts)
  segments: Emitted leave segments, ordered by position within the batch
  misses:   Skipped input pieces with stage and reason, for audit

STORAGE SHAPE:
  From/to half-days are stored as their canonical integer encoding, not as
  rendered text, so stored history re-renders correctly under whatever token
  format is configured at read time. Day counts are stored as decimal TEXT
  to avoid float drift.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  batch, err := store.SaveBatch(ctx, "report.xlsx", hash, result)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/batch.go: BatchResult, the unit being persisted
  - api/handlers.go: upload/history endpoints over this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/halfday"
	"github.com/warp/leave-engine/leave"
)

// ErrNotFound is returned when a batch id or content hash matches nothing.
var ErrNotFound = errors.New("batch not found")

// Store persists batches in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Batch is a stored processing run. Segments and Misses are populated by
// GetBatch; list operations return headers only.
type Batch struct {
	ID           string
	Source       string
	ContentHash  string
	RowCount     int
	SegmentCount int
	MissCount    int
	CreatedAt    time.Time
	Segments     []leave.Segment
	Misses       []MissRecord
}

// MissRecord is a persisted parse miss. The original error is flattened to
// its message; misses are audit data, not control flow.
type MissRecord struct {
	Row    int
	Stage  string
	Input  string
	Reason string
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Batches (one per processed upload)
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		segment_count INTEGER NOT NULL,
		miss_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batches_created_at
		ON batches(created_at DESC);

	-- For re-upload detection
	CREATE INDEX IF NOT EXISTS idx_batches_content_hash
		ON batches(content_hash);

	-- Segments, ordered by position within their batch
	CREATE TABLE IF NOT EXISTS segments (
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		hrms_id TEXT NOT NULL,
		ipas_no TEXT NOT NULL,
		designation TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		from_value INTEGER NOT NULL,
		to_value INTEGER NOT NULL,
		leave_days TEXT NOT NULL,
		authority TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (batch_id, position)
	);

	-- Parse misses, for the audit trail
	CREATE TABLE IF NOT EXISTS misses (
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		row_index INTEGER NOT NULL,
		stage TEXT NOT NULL,
		input TEXT NOT NULL,
		reason TEXT NOT NULL,
		PRIMARY KEY (batch_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITE PATH
// =============================================================================

// SaveBatch persists one processing run atomically: header, segments and
// misses land together or not at all. The batch id is assigned here.
func (s *Store) SaveBatch(ctx context.Context, source, contentHash string, result leave.BatchResult) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := Batch{
		ID:           uuid.NewString(),
		Source:       source,
		ContentHash:  contentHash,
		RowCount:     result.Rows,
		SegmentCount: len(result.Segments),
		MissCount:    len(result.Misses),
		CreatedAt:    time.Now().UTC(),
		Segments:     result.Segments,
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO batches (id, source, content_hash, row_count, segment_count, miss_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Source, batch.ContentHash,
		batch.RowCount, batch.SegmentCount, batch.MissCount,
		batch.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to insert batch: %w", err)
	}

	for i, seg := range result.Segments {
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO segments (batch_id, position, name, hrms_id, ipas_no, designation,
			                      leave_type, from_value, to_value, leave_days, authority)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batch.ID, i, seg.Name, seg.HRMSID, seg.IPASNo, seg.Designation,
			seg.LeaveType, int64(seg.From), int64(seg.To), seg.Days.String(), seg.Authority,
		)
		if err != nil {
			return Batch{}, fmt.Errorf("failed to insert segment %d: %w", i, err)
		}
	}

	for i, miss := range result.Misses {
		reason := ""
		if miss.Err != nil {
			reason = miss.Err.Error()
		}
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO misses (batch_id, position, row_index, stage, input, reason)
			VALUES (?, ?, ?, ?, ?, ?)`,
			batch.ID, i, miss.Row, string(miss.Stage), miss.Input, reason,
		)
		if err != nil {
			return Batch{}, fmt.Errorf("failed to insert miss %d: %w", i, err)
		}
		batch.Misses = append(batch.Misses, MissRecord{
			Row: miss.Row, Stage: string(miss.Stage), Input: miss.Input, Reason: reason,
		})
	}

	if err := sqlTx.Commit(); err != nil {
		return Batch{}, fmt.Errorf("failed to commit batch: %w", err)
	}
	return batch, nil
}

// DeleteBatch removes a batch; segments and misses cascade.
func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBatchesBefore removes every batch created before the cutoff and
// returns how many were removed. Retention pruning; nothing to prune is not
// an error.
func (s *Store) DeleteBatchesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM batches WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune batches: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// =============================================================================
// READ PATH
// =============================================================================

// GetBatch returns a batch with its segments and misses.
func (s *Store) GetBatch(ctx context.Context, id string) (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, err := s.scanBatchHeader(s.db.QueryRowContext(ctx, `
		SELECT id, source, content_hash, row_count, segment_count, miss_count, created_at
		FROM batches WHERE id = ?`, id))
	if err != nil {
		return Batch{}, err
	}

	if batch.Segments, err = s.querySegments(ctx, id); err != nil {
		return Batch{}, err
	}
	if batch.Misses, err = s.queryMisses(ctx, id); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

// ListBatches returns batch headers, newest first. A non-positive limit
// means no limit.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means unlimited
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, content_hash, row_count, segment_count, miss_count, created_at
		FROM batches
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := s.scanBatchHeader(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// FindByContentHash returns the most recent batch for an upload's content
// hash, header only.
func (s *Store) FindByContentHash(ctx context.Context, hash string) (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanBatchHeader(s.db.QueryRowContext(ctx, `
		SELECT id, source, content_hash, row_count, segment_count, miss_count, created_at
		FROM batches
		WHERE content_hash = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, hash))
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanBatchHeader(row rowScanner) (Batch, error) {
	var b Batch
	var createdAt string

	err := row.Scan(&b.ID, &b.Source, &b.ContentHash,
		&b.RowCount, &b.SegmentCount, &b.MissCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, ErrNotFound
	}
	if err != nil {
		return Batch{}, fmt.Errorf("failed to scan batch: %w", err)
	}

	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return b, nil
}

func (s *Store) querySegments(ctx context.Context, batchID string) ([]leave.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, hrms_id, ipas_no, designation, leave_type, from_value, to_value, leave_days, authority
		FROM segments
		WHERE batch_id = ?
		ORDER BY position ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []leave.Segment
	for rows.Next() {
		var seg leave.Segment
		var from, to int64
		var days string
		if err := rows.Scan(&seg.Name, &seg.HRMSID, &seg.IPASNo, &seg.Designation,
			&seg.LeaveType, &from, &to, &days, &seg.Authority); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		seg.From = halfday.Value(from)
		seg.To = halfday.Value(to)
		seg.Days, err = decimal.NewFromString(days)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored day count %q: %w", days, err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func (s *Store) queryMisses(ctx context.Context, batchID string) ([]MissRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_index, stage, input, reason
		FROM misses
		WHERE batch_id = ?
		ORDER BY position ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query misses: %w", err)
	}
	defer rows.Close()

	var misses []MissRecord
	for rows.Next() {
		var m MissRecord
		if err := rows.Scan(&m.Row, &m.Stage, &m.Input, &m.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan miss: %w", err)
		}
		misses = append(misses, m)
	}
	return misses, rows.Err()
}
