package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of sites processed at once.
const DefaultConcurrency = 2

// Factory builds the pipeline for one site.
type Factory func(site string) (*Pipeline, error)

// BatchProcessor runs one pipeline per site with a concurrency limit.
// Each site gets a fresh pipeline, so no state leaks between runs.
type BatchProcessor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every site and returns the runs in input order. A
// failed run keeps its error in Run.Err and does not stop the others; the
// returned error is only set when ctx is cancelled; sites not started by
// then are left nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sites []string) ([]*Run, error) {
	runs := make([]*Run, len(sites))
	err := bp.ProcessBatchWithCallback(ctx, sites, func(run *Run, index int) {
		runs[index] = run
	})
	return runs, err
}

// ProcessBatchWithCallback runs every site and calls callback with each
// finished run and its index in sites. The callback is called from the
// goroutine of the run.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sites []string,
	callback func(run *Run, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_sites", len(sites),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, site := range sites {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			run := NewRun(site)
			bp.process(ctx, run, i, len(sites))
			callback(run, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_sites", len(sites),
		"elapsed", time.Since(startTime),
	)
	return err
}

func (bp *BatchProcessor) process(ctx context.Context, run *Run, index, total int) {
	bp.logger.Info("processing site",
		"site", run.Site,
		"index", index+1,
		"total", total,
	)

	p, err := bp.factory(run.Site)
	if err != nil {
		run.Err = err
		bp.logger.Warn("failed to build pipeline", "site", run.Site, "error", err)
		return
	}

	if err := p.Execute(ctx, run); err != nil {
		bp.logger.Warn("run failed", "site", run.Site, "error", err)
		return
	}
	bp.logger.Info("run completed", "site", run.Site)
}
