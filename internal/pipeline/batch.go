package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/siteporter/siteporter/internal/config"
)

// BatchProcessor handles concurrent processing of multiple seed URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-job execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
//
// Concurrency here is across sites. Within one site, fetching stays
// strictly sequential; parallel jobs never share an origin server.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each job.
	// We use a factory to ensure each job gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// configFor resolves the effective configuration for a seed, applying
	// any per-site overrides.
	configFor func(seed string) *config.Config

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed jobs.
	// Access is synchronized via mutex.
	results []*Job
	mu      sync.Mutex
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
// Default is config.DefaultBatchSize if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each job to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// jobs. The configFor function resolves the per-seed configuration.
func NewBatchProcessor(pipelineFactory func() *Pipeline, configFor func(seed string) *config.Config, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		configFor:       configFor,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch migrates multiple sites concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each seed gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all jobs in seed order, even for sites that failed.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*Job, error) {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain seed order
	bp.results = make([]*Job, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("migrating site",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			job := NewJob(seed, bp.configFor(seed))

			p := bp.pipelineFactory()
			err := p.Execute(ctx, job)

			// Store the job regardless of error; it carries the error
			// information for the caller.
			bp.mu.Lock()
			bp.results[i] = job
			bp.mu.Unlock()

			if err != nil {
				job.Err = err
				bp.logger.Warn("job failed",
					"seed", seed,
					"error", err,
				)
				// Don't return the error to errgroup - we want the other
				// sites to finish.
				return nil
			}

			bp.logger.Info("job completed", "seed", seed)
			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_seeds", len(seeds),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback migrates multiple sites and calls a callback
// for each completed job. This is useful for streaming results.
//
// The callback receives the job and the index of the seed in the original
// slice. The callback is called from the goroutine that completed the job,
// so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(job *Job, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			job := NewJob(seed, bp.configFor(seed))
			p := bp.pipelineFactory()
			if err := p.Execute(ctx, job); err != nil {
				job.Err = err
			}

			callback(job, i)
			return nil
		})
	}

	return g.Wait()
}
