package pipeline

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/nao1215/wmsync/internal/database"
	"github.com/nao1215/wmsync/internal/metrics"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/transform"
	"github.com/nao1215/wmsync/internal/walmart"
)

// Best seller search limits.
const (
	DefaultBestSellerPages    = 20
	DefaultBestSellerPageSize = 25
	DefaultBestSellerMaxItems = 500
)

// Counter names written to the best seller run report.
const (
	CounterKeywords          = "keywords"
	CounterCandidates        = "candidates"
	CounterSelected          = "selected"
	CounterInventoryFallback = "inventory_fallback"
)

// BestSellerCounters lists the best seller counters in report order.
var BestSellerCounters = []string{
	CounterKeywords,
	CounterCandidates,
	CounterSelected,
	CounterImported,
	CounterFailed,
	CounterSkippedDuplicates,
	CounterInventoryFallback,
}

// DefaultKeywordCategories is the order categories are processed in.
var DefaultKeywordCategories = []string{
	"Electronics", "Home", "Toys", "Sports", "Automotive", "Office", "Patio & Garden",
}

// DefaultKeywords are high volume search terms covering each best seller category.
var DefaultKeywords = map[string][]string{
	"Electronics": {
		"TV", "Laptop", "Headphones", "Tablet", "Camera", "Speaker", "Monitor", "Printer", "Smart Watch", "Drone",
		"Gaming Console", "Soundbar", "Projector", "Hard Drive", "Keyboard", "Mouse", "Webcam", "Microphone", "Smart Home Hub", "Router",
	},
	"Home": {
		"Vacuum", "Blender", "Coffee Maker", "Air Fryer", "Microwave", "Toaster", "Mixer", "Iron", "Fan", "Heater",
		"Bedding", "Towels", "Curtains", "Rug", "Lamp", "Mirror", "Clock", "Pillow", "Blanket", "Organizer",
		"Slow Cooker", "Pressure Cooker", "Air Purifier", "Dehumidifier", "Humidifier", "Food Processor", "Juicer", "Rice Cooker", "Waffle Maker", "Griddle",
	},
	"Toys": {
		"Lego", "Lego Star Wars", "Lego Technic", "Lego City", "Lego Friends", "Lego Ninjago", "Lego Marvel", "Lego Harry Potter",
		"Doll", "Action Figure", "Board Game", "Puzzle", "Bike", "Scooter", "Drone", "Robot", "Car",
		"Nerf", "Barbie", "Hot Wheels", "Play Dough", "Stuffed Animal", "Building Blocks", "Art Set", "Science Kit", "Outdoor Play", "Trampoline", "Swing Set",
	},
	"Sports": {
		"Treadmill", "Dumbbell", "Yoga Mat", "Tent", "Sleeping Bag", "Backpack", "Cooler", "Fishing Rod", "Golf Clubs", "Basketball",
		"Soccer Ball", "Football", "Baseball Bat", "Tennis Racket", "Helmet", "Kettlebell", "Resistance Bands", "Exercise Bike", "Elliptical", "Rowing Machine",
	},
	"Automotive": {
		"Car Vacuum", "Dash Cam", "Car Seat Covers", "Floor Mats",
		"Jump Starter", "Tire Inflator", "Car Wash Kit", "Oil", "Wiper Blades", "Battery Charger",
	},
	"Office": {
		"Office Chair", "Computer Desk", "Printer", "Shredder",
		"File Cabinet", "Desk Lamp", "Monitor Stand", "Keyboard", "Mouse", "Webcam",
	},
	"Patio & Garden": {
		"Patio Set", "Grill", "Fire Pit", "Lawn Mower",
		"Leaf Blower", "Garden Hose", "Planter", "Pressure Washer", "String Lights", "Hammock",
	},
}

// Searcher runs keyword searches. *walmart.Client implements it.
type Searcher interface {
	SearchAll(ctx context.Context, q walmart.SearchQuery, maxPages, maxItems int) ([]walmart.Item, error)
}

// StoreWriter is the part of the Shopify client a best seller import uses.
// *shopify.Client implements it.
type StoreWriter interface {
	ProductCreator
	FulfillmentHandleForLocation(ctx context.Context, locationID int64) (string, error)
	StockOnlyAt(ctx context.Context, inventoryItemID, locationID int64, available int) error
}

// BestSellerOptions are the knobs of one best seller run.
type BestSellerOptions struct {
	// Category restricts the run to one keyword category. Empty runs all.
	Category string

	// Keywords replaces DefaultKeywords when non-empty.
	Keywords map[string][]string

	MaxPages int
	MaxItems int

	// Quantity is the stock set for every created product.
	Quantity int

	// LocationID is the fulfillment location stock is placed at.
	LocationID int64

	// FulfillmentHandle skips discovery when set.
	FulfillmentHandle string

	DryRun bool
}

// BestSellerImporter imports the most reviewed first-party items per keyword.
type BestSellerImporter struct {
	search    Searcher
	store     StoreWriter
	ledger    Ledger
	affiliate func(walmart.Item) string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// BestSellerOption configures a BestSellerImporter.
type BestSellerOption func(*BestSellerImporter)

// WithBestSellerLedger skips items already imported and records new ones.
func WithBestSellerLedger(l Ledger) BestSellerOption {
	return func(b *BestSellerImporter) {
		b.ledger = l
	}
}

// WithAffiliateLinks sets how the affiliate_url metafield is built.
func WithAffiliateLinks(fn func(walmart.Item) string) BestSellerOption {
	return func(b *BestSellerImporter) {
		b.affiliate = fn
	}
}

// WithBestSellerMetrics counts published items.
func WithBestSellerMetrics(m *metrics.Metrics) BestSellerOption {
	return func(b *BestSellerImporter) {
		b.metrics = m
	}
}

// WithBestSellerLogger sets the logger.
func WithBestSellerLogger(logger *slog.Logger) BestSellerOption {
	return func(b *BestSellerImporter) {
		b.logger = logger
	}
}

// NewBestSellerImporter creates a BestSellerImporter.
func NewBestSellerImporter(search Searcher, store StoreWriter, opts ...BestSellerOption) *BestSellerImporter {
	b := &BestSellerImporter{
		search:    search,
		store:     store,
		affiliate: func(walmart.Item) string { return "" },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SelectBestSellers keeps first-party, in-stock, priced items and orders
// them by review count, most reviewed first. Ties keep search order.
func SelectBestSellers(items []walmart.Item) []walmart.Item {
	kept := lo.Filter(items, func(item walmart.Item, _ int) bool {
		return transform.IsFirstParty(item) && transform.InStock(item) && item.SalePrice > 0
	})
	kept = lo.UniqBy(kept, func(item walmart.Item) int64 { return item.ItemID })
	slices.SortStableFunc(kept, func(a, b walmart.Item) int {
		return int(b.NumReviews) - int(a.NumReviews)
	})
	return kept
}

// Run searches every keyword and imports the selected items.
func (b *BestSellerImporter) Run(ctx context.Context, o BestSellerOptions) (*model.RunReport, error) {
	report := model.NewRunReport(model.RunBestSellers, BestSellerCounters...)
	report.DryRun = o.DryRun

	keywords := o.Keywords
	categories := DefaultKeywordCategories
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	} else {
		categories = lo.Keys(keywords)
		slices.Sort(categories)
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultBestSellerPages
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultBestSellerMaxItems
	}

	handle := o.FulfillmentHandle
	if handle == "" && !o.DryRun && o.LocationID != 0 {
		h, err := b.store.FulfillmentHandleForLocation(ctx, o.LocationID)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			b.logger.Warn("could not look up fulfillment service", "location_id", o.LocationID, "error", err)
		}
		handle = h
	}
	if handle != "" {
		report.Notef("fulfillment service: %s", handle)
	}

	for _, category := range categories {
		if o.Category != "" && category != o.Category {
			continue
		}
		for _, keyword := range keywords[category] {
			if err := ctx.Err(); err != nil {
				report.Finish()
				return report, err
			}
			report.Inc(CounterKeywords)
			if err := b.importKeyword(ctx, o, category, keyword, handle, report); err != nil {
				report.Finish()
				return report, err
			}
		}
	}
	report.Finish()
	return report, nil
}

func (b *BestSellerImporter) importKeyword(ctx context.Context, o BestSellerOptions, category, keyword, handle string, report *model.RunReport) error {
	q := walmart.SearchQuery{Query: keyword, NumItems: DefaultBestSellerPageSize}
	items, err := b.search.SearchAll(ctx, q, o.MaxPages, o.MaxItems)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Warn("search failed", "keyword", keyword, "error", err)
		report.Fail("search:"+keyword, err)
		return nil
	}
	report.Add(CounterCandidates, len(items))

	selected := SelectBestSellers(items)
	report.Add(CounterSelected, len(selected))
	b.logger.Info("selected best sellers", "category", category, "keyword", keyword, "candidates", len(items), "selected", len(selected))

	for _, item := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.ledger != nil {
			imported, err := b.ledger.IsImported(ctx, item.ID())
			if err != nil {
				return err
			}
			if imported {
				report.Inc(CounterSkippedDuplicates)
				continue
			}
		}

		p := transform.ToBestSellerProduct(item, transform.BestSeller{
			Category:          category,
			Keyword:           keyword,
			AffiliateURL:      b.affiliate(item),
			FulfillmentHandle: handle,
			Quantity:          o.Quantity,
		})
		if o.DryRun {
			continue
		}

		created, err := b.store.CreateProduct(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("failed to create best seller", "item_id", item.ItemID, "error", err)
			report.Inc(CounterFailed)
			report.Fail(item.ID(), err)
			continue
		}
		report.Inc(CounterImported)
		b.metrics.AddItems("published", 1)

		if b.ledger != nil {
			rec := database.ImportRecord{
				ItemID:    item.ID(),
				ProductID: created.ID,
				Title:     p.Title,
				Source:    string(model.RunBestSellers),
			}
			if v := p.FirstVariant(); v != nil {
				rec.Price = v.Price
			}
			// The product exists now; the ledger write must not be lost to a cancel.
			if err := b.ledger.RecordImport(context.WithoutCancel(ctx), rec); err != nil {
				b.logger.Warn("failed to record import", "item_id", item.ItemID, "error", err)
			}
		}
		if handle == "" && o.LocationID != 0 {
			b.placeStock(ctx, o, created, report)
		}
	}
	return nil
}

// placeStock moves a new product's stock to the fulfillment location when
// no fulfillment service could be attached to the variant.
func (b *BestSellerImporter) placeStock(ctx context.Context, o BestSellerOptions, created *shopify.Product, report *model.RunReport) {
	v := created.FirstVariant()
	if v == nil || v.InventoryItemID == 0 {
		return
	}
	if err := b.store.StockOnlyAt(ctx, v.InventoryItemID, o.LocationID, o.Quantity); err != nil {
		b.logger.Warn("failed to place stock at fulfillment location",
			"product_id", created.ID,
			"location_id", o.LocationID,
			"error", err,
		)
		return
	}
	report.Inc(CounterInventoryFallback)
}
