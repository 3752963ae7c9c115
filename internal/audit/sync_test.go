package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/shopify"
)

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []model.AuditRow{
		{ShopifyID: 1, Title: "Lamp, brass", SKU: "123", Status: model.AuditValid, Seller: "Walmart", Stock: "Available", Cost: "10.00", CurrentPrice: "15.00", TargetPrice: "12.46", GTINFound: "Yes", Action: model.ActionUpdatePrice},
		{ShopifyID: 2, Title: "Mystery", SKU: "ABC", Status: model.AuditInvalidSKU, Action: model.ActionCheckSKU},
	}

	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	if err := w.Write(rows...); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !strings.HasPrefix(buf.String(), strings.Join(Headers, ",")+"\n") {
		t.Fatalf("unexpected header in %q", buf.String())
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0] != rows[0] || got[1] != rows[1] {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", got, rows)
	}
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	header := strings.Join(Headers, ",") + "\n"
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"bad product ID", header + "abc,T,1,Valid,,,,,,,Update Price & Sync\n", ErrInvalidProductID},
		{"unknown status", header + "1,T,1,Gone,,,,,,,Archive/Delete\n", ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ReadCSV(strings.NewReader(tt.input)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		row    model.AuditRow
		ok     bool
		status string
		tags   string
	}{
		{"reprice", model.AuditRow{ShopifyID: 1, Status: model.AuditValid, Action: model.ActionUpdatePrice, TargetPrice: "12.46"}, true, shopify.StatusActive, TagSynced},
		{"archive not found", model.AuditRow{ShopifyID: 1, Status: model.AuditNotFound, Action: model.ActionArchive}, true, shopify.StatusArchived, "Archived: Not Found in Walmart API"},
		{"archive third party", model.AuditRow{ShopifyID: 1, Status: model.AuditThirdParty, Action: model.ActionArchiveThirdParty}, true, shopify.StatusArchived, "Archived: Third Party"},
		{"pause", model.AuditRow{ShopifyID: 1, Status: model.AuditOutOfStock, Action: model.ActionPause}, true, shopify.StatusArchived, TagOOS},
		{"check SKU is manual", model.AuditRow{ShopifyID: 1, Status: model.AuditInvalidSKU, Action: model.ActionCheckSKU}, false, "", ""},
		{"review is manual", model.AuditRow{ShopifyID: 1, Status: model.AuditMissingGTIN, Action: model.ActionReview}, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, ok := Plan(tt.row)
			if ok != tt.ok || c.Status != tt.status || c.Tags != tt.tags {
				t.Errorf("Plan() = %+v, %v", c, ok)
			}
		})
	}
}

type fakeStore struct {
	mu       sync.Mutex
	products map[int64]*shopify.Product
	updates  []shopify.Product
	variants []shopify.Variant
	fail     map[int64]bool
}

func (f *fakeStore) GetProduct(_ context.Context, id int64) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("404 Not Found")
	}
	return p, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *shopify.Product) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[p.ID] {
		return nil, errors.New("422 Unprocessable Entity")
	}
	f.updates = append(f.updates, *p)
	return p, nil
}

func (f *fakeStore) UpdateVariant(_ context.Context, v *shopify.Variant) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variants = append(f.variants, *v)
	return v, nil
}

func TestSyncerRun(t *testing.T) {
	t.Parallel()

	rows := []model.AuditRow{
		{ShopifyID: 1, Status: model.AuditValid, Action: model.ActionUpdatePrice, TargetPrice: "12.46"},
		{ShopifyID: 2, Status: model.AuditThirdParty, Action: model.ActionArchiveThirdParty},
		{ShopifyID: 3, Status: model.AuditOutOfStock, Action: model.ActionPause},
		{ShopifyID: 4, Status: model.AuditInvalidSKU, Action: model.ActionCheckSKU},
		{ShopifyID: 5, Status: model.AuditValid, Action: model.ActionUpdatePrice},
		{ShopifyID: 6, Status: model.AuditNotFound, Action: model.ActionArchive},
	}

	t.Run("applies each action", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{
			products: map[int64]*shopify.Product{1: {ID: 1, Variants: []shopify.Variant{{ID: 11}}}},
			fail:     map[int64]bool{6: true},
		}
		report, err := NewSyncer(store, WithSyncLogger(discardLogger())).Run(context.Background(), rows)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := map[string]int{
			CounterUpdated:  1,
			CounterArchived: 1,
			CounterPaused:   1,
			CounterSkipped:  1,
			CounterFailed:   2,
		}
		for name, n := range want {
			if got := report.Count(name); got != n {
				t.Errorf("%s = %d, want %d", name, got, n)
			}
		}
		if len(store.variants) != 1 || store.variants[0].ID != 11 || store.variants[0].Price != "12.46" || store.variants[0].InventoryManagement != "shopify" {
			t.Errorf("unexpected variant updates %+v", store.variants)
		}
		if store.updates[0].Status != shopify.StatusActive || store.updates[2].Tags != TagOOS {
			t.Errorf("unexpected product updates %+v", store.updates)
		}
		if f := report.Failures[0]; f.ID != "5" || f.Message != ErrMissingTargetPrice.Error() {
			t.Errorf("expected the missing price failure first, got %+v", report.Failures)
		}
	})

	t.Run("dry run", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{}
		report, err := NewSyncer(store, WithSyncDryRun(true), WithSyncLogger(discardLogger())).Run(context.Background(), rows)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.updates) != 0 || len(store.variants) != 0 {
			t.Error("dry run should not call the store")
		}
		if !report.DryRun || report.Count(CounterUpdated) != 2 || report.Count(CounterArchived) != 2 {
			t.Errorf("unexpected counters %+v", report.Snapshot())
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewSyncer(&fakeStore{}, WithSyncLogger(discardLogger())).Run(ctx, rows); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
