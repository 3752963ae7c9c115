package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/wmsync/internal/metrics"
	"github.com/nao1215/wmsync/internal/model"
)

// ErrNoCategories is returned when an import is started without categories.
var ErrNoCategories = errors.New("at least one category is required")

// TestModeTarget is the total target of an import run with TestMode.
const TestModeTarget = 10

// ImportOptions are the knobs of one import run.
type ImportOptions struct {
	// Categories are imported as separate jobs.
	Categories []string

	// Target is the total number of items to fetch, split evenly across categories.
	Target int

	// BatchSize is the catalog page size.
	BatchSize int

	// Workers is the number of categories imported at once.
	Workers int

	// Fresh ignores stored checkpoints.
	Fresh bool

	// DryRun transforms but does not create products. Checkpoints are
	// neither read nor written.
	DryRun bool

	// TestMode imports TestModeTarget items of the first category only.
	TestMode bool
}

// Store is the state database as seen by an import. *database.DB implements it.
type Store interface {
	Ledger
	Checkpoints
}

// Importer runs category imports.
type Importer struct {
	catalog Catalog
	creator ProductCreator
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithStore enables checkpoints, the ledger and duplicate skipping.
func WithStore(s Store) ImporterOption {
	return func(im *Importer) {
		im.store = s
	}
}

// WithMetrics counts items per stage.
func WithMetrics(m *metrics.Metrics) ImporterOption {
	return func(im *Importer) {
		im.metrics = m
	}
}

// WithImporterLogger sets the logger used by the importer and its steps.
func WithImporterLogger(logger *slog.Logger) ImporterOption {
	return func(im *Importer) {
		im.logger = logger
	}
}

// NewImporter creates an Importer reading from catalog and writing through creator.
func NewImporter(catalog Catalog, creator ProductCreator, opts ...ImporterOption) *Importer {
	im := &Importer{
		catalog: catalog,
		creator: creator,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Plan returns one job per category with the per-category target.
func Plan(o ImportOptions, report *model.RunReport) ([]*Job, error) {
	categories := o.Categories
	target := o.Target
	if o.TestMode {
		target = TestModeTarget
		if len(categories) > 1 {
			categories = categories[:1]
		}
	}
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	per := target / len(categories)
	if per < 1 {
		per = 1
	}
	jobs := make([]*Job, 0, len(categories))
	for _, c := range categories {
		jobs = append(jobs, NewJob(c, per, report))
	}
	return jobs, nil
}

// Run imports every category and returns the run report and the finished jobs.
// Job failures are recorded in the report; the error is only set when the
// run could not start or was cancelled.
func (im *Importer) Run(ctx context.Context, o ImportOptions) (*model.RunReport, []*Job, error) {
	report := model.NewRunReport(model.RunImport, ImportCounters...)
	report.DryRun = o.DryRun

	jobs, err := Plan(o, report)
	if err != nil {
		return report, nil, err
	}

	claims := NewClaims()
	factory := func() *Pipeline {
		fetchOpts := []FetchStepOption{
			WithBatchSize(o.BatchSize),
			WithFresh(o.Fresh),
			WithFetchMetrics(im.metrics),
			WithFetchLogger(im.logger),
		}
		filterOpts := []FilterStepOption{WithClaims(claims), WithFilterLogger(im.logger)}
		publishOpts := []PublishStepOption{
			WithDryRun(o.DryRun),
			WithPublishMetrics(im.metrics),
			WithPublishLogger(im.logger),
		}
		if im.store != nil {
			filterOpts = append(filterOpts, WithSkipImported(im.store))
			publishOpts = append(publishOpts, WithLedger(im.store))
			// A preview starts from the first page and leaves the cursor alone.
			if !o.DryRun {
				fetchOpts = append(fetchOpts, WithCheckpoints(im.store))
				publishOpts = append(publishOpts, WithPublishCheckpoints(im.store))
			}
		}

		p := New(WithLogger(im.logger))
		p.AddSteps(
			NewFetchStep(im.catalog, fetchOpts...),
			NewFilterStep(filterOpts...),
			NewTransformStep(),
			NewPublishStep(im.creator, publishOpts...),
		)
		return p
	}

	bp := NewBatchProcessor(factory, WithConcurrency(o.Workers), WithBatchLogger(im.logger))
	jobs, err = bp.ProcessBatch(ctx, jobs)

	for _, job := range jobs {
		if job.Err != nil && !errors.Is(job.Err, context.Canceled) {
			report.Fail(job.Category, job.Err)
		}
	}
	report.Finish()
	return report, jobs, err
}
