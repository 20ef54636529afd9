// Package worker provides a bounded pool for running independent, indexed
// jobs in parallel and collecting their results in submission order.
package worker

import (
	"context"
	"sort"
	"sync"
)

// Job is one unit of work. Index ties the job to its position in the input
// so results can be reassembled in order regardless of completion order.
type Job interface {
	Index() int
	Execute(ctx context.Context) Result
}

// Result is what a job produces.
type Result interface {
	Index() int
	Err() error
}

// Pool runs jobs across a fixed number of goroutines. A Pool is stateless
// between runs and safe to reuse.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given parallelism. Values below 1 mean
// sequential execution.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes every job and returns the results sorted by job index.
// Cancelling the context stops feeding and lets in-flight jobs finish; the
// partial, still-ordered results are returned together with the context
// error.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, ctx.Err()
	}

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan Job)
	resCh := make(chan Result, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resCh <- job.Execute(ctx)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobCh <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resCh)
	}()

	results := make([]Result, 0, len(jobs))
	for r := range resCh {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index() < results[j].Index() })

	return results, ctx.Err()
}
