package leave

import (
	"context"

	"github.com/warp/leave-engine/worker"
)

// =============================================================================
// BATCH PROCESSING - Many rows, parallel workers, stable output order
// =============================================================================

// RowMiss ties a parse miss to the zero-based index of the row it came from.
type RowMiss struct {
	Row int
	Miss
}

// BatchResult aggregates a whole run: all segments in row order (and text
// order within a row), every miss with its row, and the row count.
type BatchResult struct {
	Segments []Segment
	Misses   []RowMiss
	Rows     int
}

type rowJob struct {
	index  int
	row    Row
	engine *Engine
}

type rowJobResult struct {
	index  int
	result RowResult
}

func (j rowJob) Index() int { return j.index }

func (j rowJob) Execute(ctx context.Context) worker.Result {
	return rowJobResult{index: j.index, result: j.engine.ProcessRow(j.row)}
}

func (r rowJobResult) Index() int { return r.index }
func (r rowJobResult) Err() error { return nil }

// ProcessBatch runs every row through the engine. Rows are independent, so
// they fan out across the pool; results are reassembled in input order, so
// the output is identical whatever the parallelism. A context error aborts
// feeding and returns the rows completed so far.
func (e *Engine) ProcessBatch(ctx context.Context, rows []Row, workers int) (BatchResult, error) {
	jobs := make([]worker.Job, len(rows))
	for i, row := range rows {
		jobs[i] = rowJob{index: i, row: row, engine: e}
	}

	results, err := worker.NewPool(workers).Run(ctx, jobs)

	out := BatchResult{Rows: len(rows)}
	for _, r := range results {
		rr := r.(rowJobResult)
		out.Segments = append(out.Segments, rr.result.Segments...)
		for _, m := range rr.result.Misses {
			out.Misses = append(out.Misses, RowMiss{Row: rr.index, Miss: m})
		}
	}
	return out, err
}
