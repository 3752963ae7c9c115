package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/walmart"
)

// Counter names written to the import run report.
const (
	CounterFetched            = "total_fetched"
	CounterValidationFailed   = "validation_failed"
	CounterCategoryFiltered   = "category_filtered"
	CounterThirdPartyFiltered = "third_party_filtered"
	CounterSkippedDuplicates  = "skipped_duplicates"
	CounterImported           = "imported"
	CounterFailed             = "failed"
)

// ImportCounters lists the import counters in report order.
var ImportCounters = []string{
	CounterFetched,
	CounterValidationFailed,
	CounterCategoryFiltered,
	CounterThirdPartyFiltered,
	CounterImported,
	CounterFailed,
	CounterSkippedDuplicates,
}

// Job is one category import moving through the pipeline.
type Job struct {
	// Category is a category keyword ("Electronics") or a Walmart category
	// ID ("3944"). IDs are also sent to the catalog endpoint.
	Category string

	// Target is the number of items to fetch.
	Target int

	// Items holds fetched items, then only the ones that passed the filter.
	Items []walmart.Item

	// Cursors holds the catalog position after each fetched page.
	Cursors []Cursor

	// Pages maps each entry of Items to the index in Cursors of the page
	// it came from. It stays index aligned with Items.
	Pages []int

	// Products are the transformed items, index aligned with Items.
	Products []*shopify.Product

	// Report is shared by every job of a run.
	Report *model.RunReport

	// Steps lists the steps that completed.
	Steps []string

	// Err is the error that stopped the job, if any.
	Err error
}

// NewJob creates a job that records into report.
func NewJob(category string, target int, report *model.RunReport) *Job {
	return &Job{
		Category: category,
		Target:   target,
		Report:   report,
	}
}

// Cursor is the catalog position after one page.
type Cursor struct {
	// LastDoc is the cursor of the next page; empty at the end of the catalog.
	LastDoc string

	// Fetched counts the items of the category walked so far, including
	// the runs this one resumed from.
	Fetched int
}

// pageOf returns the page of Items[i], or -1 when pages are not tracked.
func (j *Job) pageOf(i int) int {
	if len(j.Pages) != len(j.Items) || i >= len(j.Pages) {
		return -1
	}
	return j.Pages[i]
}

// Step is one stage of a category import.
type Step interface {
	// Do runs the step. Per-item problems are recorded in job.Report;
	// an error means the job cannot continue.
	Do(ctx context.Context, job *Job) error

	// Name identifies the step in logs and in Job.Steps.
	Name() string
}

// Pipeline runs steps in order over a job.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step over job. Cancellation is checked between steps;
// steps honor ctx themselves while running.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "category", job.Category, "reason", err)
			job.Err = err
			return err
		}

		p.logger.Info("executing step", "step", step.Name(), "category", job.Category)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "category", job.Category, "error", err)
			job.Err = err
			return err
		}

		p.logger.Debug("step completed", "step", step.Name(), "category", job.Category, "items", len(job.Items))
		job.Steps = append(job.Steps, step.Name())
	}
	return nil
}
