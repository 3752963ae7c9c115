package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/wmsync/internal/database"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/walmart"
)

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]walmart.Item
	queries []walmart.SearchQuery
}

func (f *fakeSearcher) SearchAll(_ context.Context, q walmart.SearchQuery, _, _ int) ([]walmart.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	items, ok := f.results[q.Query]
	if !ok {
		return nil, errors.New("no results")
	}
	return items, nil
}

// fakeStoreWriter is a fakeCreator that also resolves fulfillment handles
// and records stock placements.
type fakeStoreWriter struct {
	fakeCreator
	handle string
	stock  []int64
}

func (f *fakeStoreWriter) FulfillmentHandleForLocation(context.Context, int64) (string, error) {
	return f.handle, nil
}

func (f *fakeStoreWriter) StockOnlyAt(_ context.Context, inventoryItemID, _ int64, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock = append(f.stock, inventoryItemID)
	return nil
}

// cancellingStoreWriter cancels the run right after the first product was created.
type cancellingStoreWriter struct {
	fakeStoreWriter
	cancel context.CancelFunc
}

func (c *cancellingStoreWriter) CreateProduct(ctx context.Context, p *shopify.Product) (*shopify.Product, error) {
	out, err := c.fakeStoreWriter.CreateProduct(ctx, p)
	c.cancel()
	return out, err
}

func bestSellerItem(id int64, reviews int) walmart.Item {
	return walmart.Item{
		ItemID:     id,
		Name:       "Best seller",
		SalePrice:  20,
		Stock:      "Available",
		NumReviews: walmart.FlexInt(reviews),
		LargeImage: "https://i5.walmartimages.com/large.jpg",
	}
}

func TestSelectBestSellers(t *testing.T) {
	t.Parallel()

	oos := bestSellerItem(4, 9000)
	oos.Stock = "Not available"
	thirdParty := bestSellerItem(5, 9000)
	thirdParty.Marketplace = true
	thirdParty.SellerInfo = "Gadget Hub"
	free := bestSellerItem(6, 9000)
	free.SalePrice = 0

	got := SelectBestSellers([]walmart.Item{
		bestSellerItem(1, 10),
		bestSellerItem(2, 500),
		oos,
		thirdParty,
		free,
		bestSellerItem(3, 10),
		bestSellerItem(2, 500),
	})

	want := []int64{2, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ItemID != id {
			t.Errorf("position %d = %d, want %d", i, got[i].ItemID, id)
		}
	}
}

func TestBestSellerImporterRun(t *testing.T) {
	t.Parallel()

	keywords := map[string][]string{
		"Toys":   {"Lego", "Missing"},
		"Office": {"Stapler"},
	}

	t.Run("creates products with a discovered handle", func(t *testing.T) {
		t.Parallel()
		search := &fakeSearcher{results: map[string][]walmart.Item{
			"Lego":    {bestSellerItem(1, 5), bestSellerItem(2, 50)},
			"Stapler": {bestSellerItem(3, 1)},
		}}
		store := &fakeStoreWriter{handle: "autods-prod-wwbybglb"}
		ledger := newFakeStore()
		ledger.imported["3"] = database.ImportRecord{ItemID: "3"}

		b := NewBestSellerImporter(search, store,
			WithBestSellerLedger(ledger),
			WithAffiliateLinks(func(item walmart.Item) string { return "https://goto.walmart.com/" + item.ID() }),
			WithBestSellerLogger(discardLogger()),
		)
		report, err := b.Run(context.Background(), BestSellerOptions{
			Keywords:   keywords,
			Quantity:   50,
			LocationID: 80020111495,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Count(CounterImported) != 2 || report.Count(CounterSkippedDuplicates) != 1 {
			t.Errorf("unexpected counters %+v", report.Snapshot())
		}
		if report.Count(CounterKeywords) != 3 || len(report.Failures) != 1 {
			t.Errorf("expected 3 keywords and the failed search recorded, got %+v", report.Failures)
		}
		if len(store.created) != 2 || store.created[0].FirstVariant().SKU != "2" {
			t.Fatalf("expected the most reviewed item first, got %+v", store.created)
		}
		if v := store.created[0].FirstVariant(); v.FulfillmentService != "autods-prod-wwbybglb" {
			t.Errorf("expected the fulfillment handle, got %+v", v)
		}
		if len(store.stock) != 0 {
			t.Errorf("stock should not be placed when a handle is set")
		}
		if rec := ledger.imported["2"]; rec.Source != "bestsellers" {
			t.Errorf("unexpected ledger entry %+v", rec)
		}
	})

	t.Run("places stock without a handle", func(t *testing.T) {
		t.Parallel()
		search := &fakeSearcher{results: map[string][]walmart.Item{"Lego": {bestSellerItem(1, 5)}}}
		store := &fakeStoreWriter{}
		b := NewBestSellerImporter(search, store, WithBestSellerLogger(discardLogger()))

		report, err := b.Run(context.Background(), BestSellerOptions{
			Category:   "Toys",
			Keywords:   map[string][]string{"Toys": {"Lego"}},
			Quantity:   50,
			LocationID: 80020111495,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.stock) != 1 || report.Count(CounterInventoryFallback) != 1 {
			t.Errorf("expected stock to be placed once, got %v", store.stock)
		}
	})

	t.Run("records the ledger even when cancelled after the create", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		search := &fakeSearcher{results: map[string][]walmart.Item{"Lego": {bestSellerItem(1, 5), bestSellerItem(2, 3)}}}
		store := &cancellingStoreWriter{cancel: cancel}
		ledger := newFakeStore()
		b := NewBestSellerImporter(search, store, WithBestSellerLedger(ledger), WithBestSellerLogger(discardLogger()))

		_, err := b.Run(ctx, BestSellerOptions{Category: "Toys", Keywords: map[string][]string{"Toys": {"Lego"}}})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if store.count() != 1 {
			t.Fatalf("expected one product before the cancel, got %d", store.count())
		}
		if rec, ok := ledger.imported["1"]; !ok || rec.Source != "bestsellers" {
			t.Errorf("the created product is missing from the ledger: %v", ledger.imported)
		}
	})

	t.Run("category restricts keywords", func(t *testing.T) {
		t.Parallel()
		search := &fakeSearcher{results: map[string][]walmart.Item{}}
		b := NewBestSellerImporter(search, &fakeStoreWriter{}, WithBestSellerLogger(discardLogger()))

		if _, err := b.Run(context.Background(), BestSellerOptions{Category: "Office", Keywords: keywords, DryRun: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(search.queries) != 1 || search.queries[0].Query != "Stapler" || search.queries[0].NumItems != DefaultBestSellerPageSize {
			t.Errorf("unexpected queries %+v", search.queries)
		}
	})

	t.Run("default keywords cover every category", func(t *testing.T) {
		t.Parallel()
		for _, c := range DefaultKeywordCategories {
			if len(DefaultKeywords[c]) == 0 {
				t.Errorf("no keywords for %s", c)
			}
		}
		if len(DefaultKeywords) != len(DefaultKeywordCategories) {
			t.Errorf("categories and keyword map disagree")
		}
	})
}
