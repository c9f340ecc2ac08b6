package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/gridcrop/internal/model"
)

// DefaultConcurrency is the number of jobs run at once when
// WithConcurrency is not given.
const DefaultConcurrency = 4

// BatchProcessor runs one pipeline per input file concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each job, so that editor
	// state never leaks between files.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	mu sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per job.
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

// ProcessBatch runs a job per source with the same edit options.
// The returned slice is in source order. A job that never started because
// ctx was cancelled is nil; a job that failed carries its error.
// The error return is only the cancellation cause, if any.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string, opts model.JobOptions) ([]*model.Job, error) {
	results := make([]*model.Job, len(sources))
	err := bp.ProcessBatchWithCallback(ctx, sources, opts, func(job *model.Job, index int) {
		bp.mu.Lock()
		results[index] = job
		bp.mu.Unlock()
	})
	return results, err
}

// ProcessBatchWithCallback runs a job per source and calls callback as each
// one finishes. callback runs on the job's goroutine, so it must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	opts model.JobOptions,
	callback func(job *model.Job, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_files", len(sources),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("processing file",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)

			job := model.NewJob(source, opts)
			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				// Recorded in the job; other files keep going.
				bp.logger.Warn("job failed",
					"source", source,
					"error", err,
				)
			}

			callback(job, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_files", len(sources),
		"elapsed", time.Since(startTime),
	)

	return err
}
