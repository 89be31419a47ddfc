package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/avhagen/pollster/polly"
)

// EvaluatorOption configures a concurrent evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers caps the number of goroutines evaluating chunks
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithChunkSize sets the chunk size; poll sets no larger than one chunk are
// evaluated sequentially
func WithChunkSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.chunkSize = size
		}
	}
}

// ConcurrentEvaluator evaluates a filter across chunks of polls in parallel.
// Results preserve the input order.
type ConcurrentEvaluator struct {
	workers   int
	chunkSize int
}

// NewConcurrentEvaluator creates an evaluator sized to the machine
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workers:   runtime.GOMAXPROCS(0),
		chunkSize: 100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate returns the polls matching the filter.
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, polls []polly.Poll) ([]polly.Poll, error) {
	if len(polls) == 0 {
		return []polly.Poll{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Small sets are not worth the goroutine overhead.
	if len(polls) <= e.chunkSize {
		return Apply(filter, polls), nil
	}

	chunks := (len(polls) + e.chunkSize - 1) / e.chunkSize
	results := make([][]polly.Poll, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := 0; i < chunks; i++ {
		start := i * e.chunkSize
		end := min(start+e.chunkSize, len(polls))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Apply(filter, polls[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]polly.Poll, 0, len(polls))
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}
