package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/nao1215/wmsync/internal/database"
	"github.com/nao1215/wmsync/internal/metrics"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/transform"
	"github.com/nao1215/wmsync/internal/walmart"
)

// Catalog walks the Walmart paginated catalog. *walmart.Client implements it.
type Catalog interface {
	Walk(ctx context.Context, q walmart.Query, maxItems int, fn func([]walmart.Item) error, opts ...walmart.WalkOption) (int, error)
}

// Ledger records imported items. *database.DB implements it.
type Ledger interface {
	IsImported(ctx context.Context, itemID string) (bool, error)
	RecordImport(ctx context.Context, rec database.ImportRecord) error
}

// Checkpoints stores walk cursors. *database.DB implements it.
type Checkpoints interface {
	LoadCheckpoint(ctx context.Context, key string) (*database.Checkpoint, error)
	SaveCheckpoint(ctx context.Context, cp database.Checkpoint) error
	ClearCheckpoint(ctx context.Context, key string) error
}

// ProductCreator creates store products. *shopify.Client implements it.
type ProductCreator interface {
	CreateProduct(ctx context.Context, p *shopify.Product) (*shopify.Product, error)
}

// categoryIDPattern matches Walmart category IDs such as "3944" or "3944_1060825".
var categoryIDPattern = regexp.MustCompile(`^\d+(_\d+)*$`)

// CheckpointKey names the checkpoint of a category import.
func CheckpointKey(category string) string {
	return "import:" + category
}

// FetchStep walks the catalog until the job's target is reached.
type FetchStep struct {
	catalog     Catalog
	checkpoints Checkpoints
	batchSize   int
	fresh       bool
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithCheckpoints resumes from the stored cursor of each category. The
// cursor itself is saved by PublishStep once a page is imported.
func WithCheckpoints(cp Checkpoints) FetchStepOption {
	return func(s *FetchStep) {
		s.checkpoints = cp
	}
}

// WithBatchSize sets the page size.
func WithBatchSize(n int) FetchStepOption {
	return func(s *FetchStep) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithFresh ignores stored checkpoints and starts from the first page.
func WithFresh(fresh bool) FetchStepOption {
	return func(s *FetchStep) {
		s.fresh = fresh
	}
}

// WithFetchMetrics counts fetched items.
func WithFetchMetrics(m *metrics.Metrics) FetchStepOption {
	return func(s *FetchStep) {
		s.metrics = m
	}
}

// WithFetchLogger sets the step logger.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a FetchStep reading from catalog.
func NewFetchStep(catalog Catalog, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		catalog:   catalog,
		batchSize: walmartMaxCount,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// walmartMaxCount is the largest page the catalog returns.
const walmartMaxCount = 100

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches up to job.Target items into job.Items.
func (s *FetchStep) Do(ctx context.Context, job *Job) error {
	q := walmart.Query{Count: s.batchSize}
	if categoryIDPattern.MatchString(job.Category) {
		q.Category = job.Category
	}

	key := CheckpointKey(job.Category)
	base := 0
	if s.checkpoints != nil {
		if s.fresh {
			if err := s.checkpoints.ClearCheckpoint(ctx, key); err != nil {
				return err
			}
		} else if cp, err := s.checkpoints.LoadCheckpoint(ctx, key); err != nil {
			return err
		} else if cp != nil && cp.LastDoc != "" {
			s.logger.Info("resuming from checkpoint", "category", job.Category, "fetched_before", cp.Fetched)
			q.LastDoc = cp.LastDoc
			base = cp.Fetched
		}
	}

	n, err := s.catalog.Walk(ctx, q, job.Target, func(items []walmart.Item) error {
		page := len(job.Cursors)
		for range items {
			job.Pages = append(job.Pages, page)
		}
		job.Items = append(job.Items, items...)
		return nil
	}, walmart.WithCheckpoint(func(lastDoc string, fetched int) error {
		job.Cursors = append(job.Cursors, Cursor{LastDoc: lastDoc, Fetched: base + fetched})
		return nil
	}))
	job.Report.Add(CounterFetched, n)
	s.metrics.AddItems("fetched", n)
	if err != nil {
		if len(job.Items) == 0 {
			return fmt.Errorf("fetch %s: %w", job.Category, err)
		}
		// Keep what was fetched; the next run resumes from the checkpoint.
		s.logger.Warn("fetch stopped early", "category", job.Category, "fetched", n, "error", err)
		job.Report.Notef("%s: fetch stopped after %d items: %v", job.Category, n, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	s.logger.Info("fetched items", "category", job.Category, "items", n)
	return nil
}

// Claims is a set of item IDs shared by the jobs of one run, so two
// categories never import the same item.
type Claims struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewClaims creates an empty set.
func NewClaims() *Claims {
	return &Claims{ids: make(map[int64]struct{})}
}

// Claim adds id and reports whether it was not already claimed.
func (c *Claims) Claim(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[id]; ok {
		return false
	}
	c.ids[id] = struct{}{}
	return true
}

// FilterStep drops items that are invalid, outside the job's category,
// sold by third parties or already imported.
type FilterStep struct {
	ledger Ledger
	claims *Claims
	logger *slog.Logger
}

// FilterStepOption configures a FilterStep.
type FilterStepOption func(*FilterStep)

// WithSkipImported drops items already in the ledger.
func WithSkipImported(l Ledger) FilterStepOption {
	return func(s *FilterStep) {
		s.ledger = l
	}
}

// WithClaims drops items another job of the run already kept.
func WithClaims(c *Claims) FilterStepOption {
	return func(s *FilterStep) {
		s.claims = c
	}
}

// WithFilterLogger sets the step logger.
func WithFilterLogger(logger *slog.Logger) FilterStepOption {
	return func(s *FilterStep) {
		s.logger = logger
	}
}

// NewFilterStep creates a FilterStep.
func NewFilterStep(opts ...FilterStepOption) *FilterStep {
	s := &FilterStep{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.claims == nil {
		s.claims = NewClaims()
	}
	return s
}

// Name returns the step name.
func (s *FilterStep) Name() string {
	return "filter"
}

// Do keeps the importable items of job.Items. The checks run in order and
// an item is counted under the first one it fails.
func (s *FilterStep) Do(ctx context.Context, job *Job) error {
	var categories []string
	if job.Category != "" {
		categories = []string{job.Category}
	}

	kept := job.Items[:0]
	var keptPages []int
	for i, item := range job.Items {
		switch {
		case !transform.IsValid(item):
			job.Report.Inc(CounterValidationFailed)
			continue
		case !transform.MatchesCategory(item, categories):
			job.Report.Inc(CounterCategoryFiltered)
			continue
		case !transform.IsWalmartSeller(item):
			job.Report.Inc(CounterThirdPartyFiltered)
			continue
		}

		if s.ledger != nil {
			imported, err := s.ledger.IsImported(ctx, item.ID())
			if err != nil {
				return err
			}
			if imported {
				job.Report.Inc(CounterSkippedDuplicates)
				continue
			}
		}
		if !s.claims.Claim(item.ItemID) {
			job.Report.Inc(CounterSkippedDuplicates)
			continue
		}
		kept = append(kept, item)
		if page := job.pageOf(i); page >= 0 {
			keptPages = append(keptPages, page)
		}
	}
	if len(job.Pages) > 0 {
		job.Pages = keptPages
	}
	job.Items = kept
	s.logger.Info("filtered items", "category", job.Category, "kept", len(kept))
	return nil
}

// TransformStep maps every item onto a Shopify product.
type TransformStep struct{}

// NewTransformStep creates a TransformStep.
func NewTransformStep() *TransformStep {
	return &TransformStep{}
}

// Name returns the step name.
func (s *TransformStep) Name() string {
	return "transform"
}

// Do fills job.Products.
func (s *TransformStep) Do(_ context.Context, job *Job) error {
	job.Products = make([]*shopify.Product, len(job.Items))
	for i, item := range job.Items {
		job.Products[i] = transform.ToProduct(item)
	}
	return nil
}

// PublishStep creates the products in the store and records them in the
// ledger. With checkpoints it moves the category cursor past every page
// whose items were all handled.
type PublishStep struct {
	creator     ProductCreator
	ledger      Ledger
	checkpoints Checkpoints
	source      string
	dryRun      bool
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// PublishStepOption configures a PublishStep.
type PublishStepOption func(*PublishStep)

// WithLedger records every created product.
func WithLedger(l Ledger) PublishStepOption {
	return func(s *PublishStep) {
		s.ledger = l
	}
}

// WithPublishCheckpoints saves the cursor of each finished page.
func WithPublishCheckpoints(cp Checkpoints) PublishStepOption {
	return func(s *PublishStep) {
		s.checkpoints = cp
	}
}

// WithDryRun skips product creation; the products stay in Job.Products.
func WithDryRun(dryRun bool) PublishStepOption {
	return func(s *PublishStep) {
		s.dryRun = dryRun
	}
}

// WithPublishMetrics counts published items.
func WithPublishMetrics(m *metrics.Metrics) PublishStepOption {
	return func(s *PublishStep) {
		s.metrics = m
	}
}

// WithPublishLogger sets the step logger.
func WithPublishLogger(logger *slog.Logger) PublishStepOption {
	return func(s *PublishStep) {
		s.logger = logger
	}
}

// NewPublishStep creates a PublishStep writing through creator.
func NewPublishStep(creator ProductCreator, opts ...PublishStepOption) *PublishStep {
	s := &PublishStep{
		creator: creator,
		source:  "import",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PublishStep) Name() string {
	return "publish"
}

// Do creates job.Products one by one. A failed product is recorded and
// the rest continue. A page's cursor is saved only once all of its items
// were created or recorded as failed, so a resumed run never skips an item
// that was fetched but not handled.
func (s *PublishStep) Do(ctx context.Context, job *Job) error {
	if s.dryRun {
		s.logger.Info("dry run, not publishing", "category", job.Category, "products", len(job.Products))
		return nil
	}

	committed := -1
	for i, p := range job.Products {
		// Pages before this item's page are done, including fully filtered ones.
		if page := job.pageOf(i); page > 0 {
			if err := s.commit(ctx, job, page-1, &committed); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		item := job.Items[i]

		created, err := s.creator.CreateProduct(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("failed to create product", "item_id", item.ItemID, "error", err)
			job.Report.Inc(CounterFailed)
			job.Report.Fail(item.ID(), err)
			continue
		}

		job.Report.Inc(CounterImported)
		s.metrics.AddItems("published", 1)
		s.logger.Debug("created product", "item_id", item.ItemID, "product_id", created.ID)

		if s.ledger != nil {
			price := ""
			if v := p.FirstVariant(); v != nil {
				price = v.Price
			}
			rec := database.ImportRecord{
				ItemID:    item.ID(),
				ProductID: created.ID,
				Title:     p.Title,
				Price:     price,
				Source:    s.source,
			}
			// The product exists now; the ledger write must not be lost to a cancel.
			if err := s.ledger.RecordImport(context.WithoutCancel(ctx), rec); err != nil {
				s.logger.Warn("failed to record import", "item_id", item.ItemID, "error", err)
			}
		}
	}
	return s.commit(ctx, job, len(job.Cursors)-1, &committed)
}

// commit saves the cursor of page when it is past the last committed one.
// The cursor at the end of the catalog clears the checkpoint instead.
func (s *PublishStep) commit(ctx context.Context, job *Job, page int, committed *int) error {
	if s.checkpoints == nil || page < 0 || page <= *committed || page >= len(job.Cursors) {
		return nil
	}
	*committed = page
	ctx = context.WithoutCancel(ctx)
	key := CheckpointKey(job.Category)
	cur := job.Cursors[page]
	if cur.LastDoc == "" {
		return s.checkpoints.ClearCheckpoint(ctx, key)
	}
	if err := s.checkpoints.SaveCheckpoint(ctx, database.Checkpoint{Key: key, LastDoc: cur.LastDoc, Fetched: cur.Fetched}); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
