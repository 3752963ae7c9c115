package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/wmsync/internal/metrics"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/shopify"
)

// Counter names written to the sync run report.
const (
	CounterUpdated  = "updated"
	CounterArchived = "archived"
	CounterPaused   = "paused"
	CounterSkipped  = "skipped"
)

// SyncCounters lists the sync counters in report order.
var SyncCounters = []string{
	CounterUpdated,
	CounterArchived,
	CounterPaused,
	CounterSkipped,
	CounterFailed,
}

// Tags written by a sync.
const (
	TagSynced = "Walmart-Synced, Valid"
	TagOOS    = "Walmart-OOS"
)

// ProductUpdater is the part of the Shopify client a sync uses.
// *shopify.Client implements it.
type ProductUpdater interface {
	GetProduct(ctx context.Context, id int64) (*shopify.Product, error)
	UpdateProduct(ctx context.Context, p *shopify.Product) (*shopify.Product, error)
	UpdateVariant(ctx context.Context, v *shopify.Variant) (*shopify.Variant, error)
}

// Change is the store update planned for one audit row.
type Change struct {
	ProductID int64
	Title     string
	Action    model.Action
	Status    string
	Tags      string

	// Price is set for repricing changes only.
	Price string

	counter string
}

// String describes the change for dry-run output.
func (c Change) String() string {
	s := fmt.Sprintf("%d %q: %s -> status=%s tags=%q", c.ProductID, c.Title, c.Action, c.Status, c.Tags)
	if c.Price != "" {
		s += " price=" + c.Price
	}
	return s
}

// Plan returns the change for row, or false when its action has no update.
func Plan(row model.AuditRow) (Change, bool) {
	c := Change{ProductID: row.ShopifyID, Title: row.Title, Action: row.Action}
	switch row.Action {
	case model.ActionUpdatePrice:
		c.Status = shopify.StatusActive
		c.Tags = TagSynced
		c.Price = row.TargetPrice
		c.counter = CounterUpdated
	case model.ActionArchive, model.ActionArchiveThirdParty:
		c.Status = shopify.StatusArchived
		c.Tags = "Archived: " + row.Status.String()
		c.counter = CounterArchived
	case model.ActionPause:
		c.Status = shopify.StatusArchived
		c.Tags = TagOOS
		c.counter = CounterPaused
	default:
		return Change{}, false
	}
	return c, true
}

// Syncer applies audit rows to the store.
type Syncer struct {
	store   ProductUpdater
	dryRun  bool
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithSyncDryRun counts the planned changes without calling the store.
func WithSyncDryRun(dryRun bool) SyncOption {
	return func(s *Syncer) {
		s.dryRun = dryRun
	}
}

// WithSyncMetrics counts synced products.
func WithSyncMetrics(m *metrics.Metrics) SyncOption {
	return func(s *Syncer) {
		s.metrics = m
	}
}

// WithSyncLogger sets the logger.
func WithSyncLogger(logger *slog.Logger) SyncOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// NewSyncer creates a Syncer.
func NewSyncer(store ProductUpdater, opts ...SyncOption) *Syncer {
	s := &Syncer{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run applies every row in order. A failed row is recorded and the rest
// continue; only cancellation stops the run.
func (s *Syncer) Run(ctx context.Context, rows []model.AuditRow) (*model.RunReport, error) {
	report := model.NewRunReport(model.RunSync, SyncCounters...)
	report.DryRun = s.dryRun
	defer report.Finish()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		change, ok := Plan(row)
		if !ok {
			s.logger.Debug("no update for action", "product_id", row.ShopifyID, "action", row.Action)
			report.Inc(CounterSkipped)
			continue
		}
		if s.dryRun {
			report.Inc(change.counter)
			continue
		}

		if err := s.apply(ctx, change); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			s.logger.Warn("sync failed", "product_id", change.ProductID, "action", change.Action, "error", err)
			report.Inc(CounterFailed)
			report.Fail(itoa(change.ProductID), err)
			continue
		}
		report.Inc(change.counter)
		s.metrics.AddItems("synced", 1)
	}
	return report, nil
}

func (s *Syncer) apply(ctx context.Context, c Change) error {
	if c.Action == model.ActionUpdatePrice {
		if c.Price == "" {
			return ErrMissingTargetPrice
		}
		// The variant ID is not in the audit CSV, so read it back first.
		p, err := s.store.GetProduct(ctx, c.ProductID)
		if err != nil {
			return err
		}
		v := p.FirstVariant()
		if v == nil {
			return ErrNoVariant
		}
		if _, err := s.store.UpdateVariant(ctx, &shopify.Variant{
			ID:                  v.ID,
			Price:               c.Price,
			InventoryManagement: "shopify",
		}); err != nil {
			return err
		}
	}

	_, err := s.store.UpdateProduct(ctx, &shopify.Product{
		ID:     c.ProductID,
		Status: c.Status,
		Tags:   c.Tags,
	})
	return err
}
