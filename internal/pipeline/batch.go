package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent audits of multiple sites.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-audit execution
// 2. It allows different batch strategies (e.g., per-host limits, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each target.
	// We use a factory so each audit gets a fresh pipeline configured
	// for its own site.
	pipelineFactory func(target string) *Pipeline

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed audit reports.
	// Access is synchronized via mutex.
	results []*model.AuditReport
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

// WithConcurrency sets the maximum number of concurrent audits.
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
// The pipelineFactory function is called with each target to create a
// fresh pipeline instance. This ensures that crawl state doesn't leak
// between audits and lets each site use its own configuration.
func NewBatchProcessor(pipelineFactory func(target string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
		results:         make([]*model.AuditReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits multiple sites concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each target gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected in target order, even for audits that
// failed. Targets never started because of cancellation have a nil report.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.AuditReport, error) {
	bp.logger.Info("starting batch processing",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.AuditReport, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing site",
				"url", target,
				"index", i+1,
				"total", len(targets),
			)

			report := model.NewAuditReport(target)
			pipeline := bp.pipelineFactory(target)
			err := pipeline.Execute(ctx, report)

			// Store result regardless of error
			// The report contains error information if the audit failed
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("audit failed",
					"url", target,
					"error", err,
				)
				// Don't return error to errgroup - we want to continue other audits
				return nil
			}

			bp.logger.Info("audit completed",
				"url", target,
			)

			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_targets", len(targets),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback audits multiple sites and calls a callback
// for each completed audit. This is useful for streaming results.
//
// The callback receives the report and the index of the target in the
// original slice. The callback is called from the goroutine that completed
// the audit, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(report *model.AuditReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewAuditReport(target)
			pipeline := bp.pipelineFactory(target)
			_ = pipeline.Execute(ctx, report) //nolint:errcheck // Error is stored in report

			// Call the callback with the result
			callback(report, i)

			return nil
		})
	}

	return g.Wait()
}
