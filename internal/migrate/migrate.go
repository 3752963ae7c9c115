package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wmsync/internal/metrics"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/shopify"
)

const (
	// DefaultWorkers is the number of variants migrated at once.
	DefaultWorkers = 10

	// DefaultQuantity is the stock set at the fulfillment location.
	DefaultQuantity = 50

	// LowStock is the quantity at or below which an already migrated
	// variant is topped up.
	LowStock = 10
)

// Counter names written to the migration run report.
const (
	CounterVariants = "variants"
	CounterMigrated = "migrated"
	CounterToppedUp = "topped_up"
	CounterSkipped  = "skipped"
	CounterFailed   = "failed"
)

// Counters lists the migration counters in report order.
var Counters = []string{
	CounterVariants,
	CounterMigrated,
	CounterToppedUp,
	CounterSkipped,
	CounterFailed,
}

var (
	// ErrMissingHandle is returned when no fulfillment service handle is configured.
	ErrMissingHandle = errors.New("fulfillment service handle is required")

	// ErrMissingLocation is returned when no fulfillment location is configured.
	ErrMissingLocation = errors.New("fulfillment location ID is required")

	// ErrNotApplied is returned when Shopify accepts an update but the
	// response does not reflect it.
	ErrNotApplied = errors.New("update not applied")
)

// Store is the part of the Shopify client a migration uses.
// *shopify.Client implements it.
type Store interface {
	ListProducts(ctx context.Context, fields []string, fn func([]shopify.Product) error) (int, error)
	UpdateVariant(ctx context.Context, v *shopify.Variant) (*shopify.Variant, error)
	SetInventory(ctx context.Context, inventoryItemID, locationID int64, available int) (*shopify.InventoryLevel, error)
}

// Options select the fulfillment service and stock level.
type Options struct {
	Handle     string
	LocationID int64
	Quantity   int
	Workers    int
	DryRun     bool
}

func (o Options) validate() error {
	if o.Handle == "" {
		return ErrMissingHandle
	}
	if o.LocationID == 0 {
		return ErrMissingLocation
	}
	return nil
}

// Decision is what a migration does with one variant.
type Decision int

const (
	// Skip leaves a migrated, stocked variant alone.
	Skip Decision = iota

	// TopUp restocks a migrated variant.
	TopUp

	// Move assigns the variant to the fulfillment service and stocks it.
	Move
)

// Decide returns what to do with v for the service handle.
func Decide(v shopify.Variant, handle string) Decision {
	if v.FulfillmentService != handle {
		return Move
	}
	if v.InventoryQuantity > LowStock {
		return Skip
	}
	return TopUp
}

// Migrator moves variants to a fulfillment service.
type Migrator struct {
	store   Store
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithMetrics counts migrated variants.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mg *Migrator) {
		mg.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(mg *Migrator) {
		mg.logger = logger
	}
}

// New creates a Migrator. Zero Quantity and Workers take the defaults.
func New(store Store, o Options, opts ...Option) *Migrator {
	if o.Quantity <= 0 {
		o.Quantity = DefaultQuantity
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	m := &Migrator{store: store, opts: o, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run migrates every variant in the store. Variant failures are recorded
// in the report; only cancellation or a failed product listing return an
// error.
func (m *Migrator) Run(ctx context.Context) (*model.RunReport, error) {
	report := model.NewRunReport(model.RunMigrate, Counters...)
	report.DryRun = m.opts.DryRun
	defer report.Finish()

	if err := m.opts.validate(); err != nil {
		return report, err
	}
	report.Notef("fulfillment service %s at location %d, quantity %d", m.opts.Handle, m.opts.LocationID, m.opts.Quantity)

	var variants []shopify.Variant
	_, err := m.store.ListProducts(ctx, []string{"id", "title", "variants"}, func(page []shopify.Product) error {
		for _, p := range page {
			variants = append(variants, p.Variants...)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("list products: %w", err)
	}
	report.Add(CounterVariants, len(variants))
	m.logger.Info("migrating variants", "variants", len(variants), "workers", m.opts.Workers)

	var g errgroup.Group
	g.SetLimit(m.opts.Workers)
	for _, v := range variants {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return m.migrate(ctx, v, report)
		})
	}
	return report, g.Wait()
}

func (m *Migrator) migrate(ctx context.Context, v shopify.Variant, report *model.RunReport) error {
	decision := Decide(v, m.opts.Handle)
	if decision == Skip {
		report.Inc(CounterSkipped)
		return nil
	}
	counter := CounterMigrated
	if decision == TopUp {
		counter = CounterToppedUp
	}
	if m.opts.DryRun {
		report.Inc(counter)
		return nil
	}

	err := m.apply(ctx, v, decision)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.logger.Warn("variant migration failed", "variant_id", v.ID, "error", err)
		report.Inc(CounterFailed)
		report.Fail(strconv.FormatInt(v.ID, 10), err)
		return nil
	}
	report.Inc(counter)
	m.metrics.AddItems("migrated", 1)
	return nil
}

func (m *Migrator) apply(ctx context.Context, v shopify.Variant, decision Decision) error {
	if decision == Move {
		updated, err := m.store.UpdateVariant(ctx, &shopify.Variant{
			ID:                  v.ID,
			FulfillmentService:  m.opts.Handle,
			InventoryManagement: "shopify",
		})
		if err != nil {
			return fmt.Errorf("update variant: %w", err)
		}
		if updated.FulfillmentService != m.opts.Handle {
			return fmt.Errorf("%w: fulfillment_service is %q", ErrNotApplied, updated.FulfillmentService)
		}
	}

	level, err := m.store.SetInventory(ctx, v.InventoryItemID, m.opts.LocationID, m.opts.Quantity)
	if err != nil {
		return fmt.Errorf("set inventory: %w", err)
	}
	if level.Available == nil || *level.Available != m.opts.Quantity {
		return fmt.Errorf("%w: available is not %d", ErrNotApplied, m.opts.Quantity)
	}
	return nil
}
