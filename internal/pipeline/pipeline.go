package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

// Step is one stage of an audit. Steps run in order and share one report.
//
// Design decision: We use an interface rather than function types because:
// 1. Steps carry their own configuration (spider limits, link checker)
// 2. Name() gives every log line and PerformedSteps entry a stable label
// 3. Optional behavior can be added through extra interfaces (see offlineStep)
type Step interface {
	// Do runs the step against the report.
	// Failures that only affect part of the result (a page that did not
	// load, a link that could not be probed) are recorded in the report and
	// do not produce an error.
	Do(ctx context.Context, report *model.AuditReport) error

	// Name returns the step's name for logging and PerformedSteps.
	Name() string
}

// offlineStep is implemented by steps that never block on the network.
// They still run after the context is cancelled so that an interrupted
// audit scores the pages crawled so far.
type offlineStep interface {
	Offline() bool
}

func isOffline(step Step) bool {
	o, ok := step.(offlineStep)
	return ok && o.Offline()
}

// Pipeline runs audit steps in order against one report.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps running later steps after a step fails.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps the pipeline going after a failed step.
// The first failure is kept in report.ErrorMessage. A failed link check
// then still leaves the crawled pages scored.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0, 4)}
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

// AddSteps appends several steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order against report.
//
// Cancellation is checked before each step. Once the context is done,
// steps that need the network are skipped and report.TimedOut is set, but
// offline steps (analysis, advice) still run on whatever was crawled. The
// context error is returned at the end.
//
// Completed steps are recorded in report.PerformedSteps and failed ones in
// report.FailedSteps. A step that returns ErrNoCrawlResult is in neither:
// the crawl failure that caused it has already been recorded.
func (p *Pipeline) Execute(ctx context.Context, report *model.AuditReport) error {
	for _, step := range p.steps {
		if ctx.Err() != nil && !isOffline(step) {
			p.logger.Warn("skipping step after cancellation",
				"step", step.Name(),
				"url", report.URL,
				"reason", ctx.Err(),
			)
			report.TimedOut = true
			continue
		}

		p.logger.Info("executing step", "step", step.Name(), "url", report.URL)
		start := time.Now()

		err := step.Do(ctx, report)
		switch {
		case err == nil:
			p.logger.Debug("step completed",
				"step", step.Name(),
				"url", report.URL,
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
			report.PerformedSteps = append(report.PerformedSteps, step.Name())
		case errors.Is(err, ErrNoCrawlResult):
			p.logger.Debug("step skipped", "step", step.Name(), "url", report.URL)
		default:
			p.logger.Error("step failed", "step", step.Name(), "url", report.URL, "error", err)
			report.FailedSteps = append(report.FailedSteps, step.Name())
			if report.ErrorMessage == "" {
				report.ErrorMessage = err.Error()
			}
			if ctx.Err() != nil {
				report.TimedOut = true
			}
			if !p.continueOnError {
				return err
			}
		}
	}

	return ctx.Err()
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
