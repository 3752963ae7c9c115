package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of jobs run at once when not configured.
const DefaultConcurrency = 10

// BatchProcessor runs several jobs concurrently, each through a fresh
// pipeline from the factory.
type BatchProcessor struct {
	pipelineFactory func() *Pipeline
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the batch logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets how many jobs run at once. Values below 1 are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs jobs and returns them in input order. A failed job
// keeps its error in Job.Err and does not stop its siblings; only
// cancellation of ctx is returned as an error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) ([]*Job, error) {
	bp.logger.Info("starting batch", "jobs", len(jobs), "concurrency", bp.concurrency)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				job.Err = err
				return err
			}

			bp.logger.Info("running job", "category", job.Category, "index", i+1, "total", len(jobs))
			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				bp.logger.Warn("job failed", "category", job.Category, "error", err)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			bp.logger.Info("job completed", "category", job.Category)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch complete", "jobs", len(jobs), "elapsed", time.Since(start))
	return jobs, err
}
