package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/nao1215/orphancrawl/internal/model"
)

// Run is the state of one run as it moves through the steps.
type Run struct {
	// Site is the site the run is for. It labels log records only.
	Site string

	// SiteResult and ServerResult are the finished crawls.
	SiteResult   *model.CrawlResult
	ServerResult *model.CrawlResult

	// Report is the reconciled orphan report.
	Report *model.OrphanReport

	// RunID is the archive ID, set once the report is archived.
	RunID string

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string

	// Err is the last step error.
	Err error

	mu    sync.Mutex
	pages []*model.Page
}

// NewRun creates the state for a run over site.
func NewRun(site string) *Run {
	return &Run{Site: site}
}

// AddPage records a fetched site page. The body is dropped once the hash
// is known; only the metadata is archived.
func (r *Run) AddPage(p *model.Page) {
	if p == nil {
		return
	}
	if p.Hash == "" {
		p.ComputeHash()
	}
	p.Raw = nil

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, p)
}

// Pages returns the recorded pages.
func (r *Run) Pages() []*model.Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pages)
}

// setResult stores a finished crawl by kind. Crawls finish concurrently.
func (r *Run) setResult(res *model.CrawlResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.Kind == model.CrawlKindServer {
		r.ServerResult = res
		return
	}
	r.SiteResult = res
}

func (r *Run) results() (site, server *model.CrawlResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.SiteResult, r.ServerResult
}

// Step is one stage of a run.
type Step interface {
	// Do executes the step. A returned error is recorded in Run.Err.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps executing after a failed step.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Later steps see whatever state the failed step
// left behind.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step; steps handle their own timeouts.
//
// It returns the first step error unless the pipeline continues on error.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			run.Err = err
			return err
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"site", run.Site,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"site", run.Site,
				"error", err,
			)
			run.Err = err
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"site", run.Site,
			)
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
