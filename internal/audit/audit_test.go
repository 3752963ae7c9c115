package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/pricing"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/walmart"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func product(id int64, sku, price string) shopify.Product {
	return shopify.Product{
		ID:       id,
		Title:    "Product " + sku,
		Variants: []shopify.Variant{{ID: id * 10, SKU: sku, Price: price}},
	}
}

func walmartItem(id int64) walmart.Item {
	return walmart.Item{ItemID: id, SalePrice: 10, Stock: "Available", UPC: "012345678905"}
}

func TestIsItemID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sku  string
		want bool
	}{
		{"123456", true},
		{"", false},
		{"ABC-1", false},
		{"12 34", false},
		{"١٢٣", false},
	}
	for _, tt := range tests {
		if got := IsItemID(tt.sku); got != tt.want {
			t.Errorf("IsItemID(%q) = %v, want %v", tt.sku, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	thirdParty := walmartItem(1)
	thirdParty.Marketplace = true
	thirdParty.SellerInfo = "Gadget Hub"
	oos := walmartItem(1)
	oos.Stock = "Not available"
	noGTIN := walmartItem(1)
	noGTIN.UPC = ""
	marketplaceWalmart := walmartItem(1)
	marketplaceWalmart.Marketplace = true
	marketplaceWalmart.SellerInfo = "Walmart.com"

	tests := []struct {
		name    string
		product shopify.Product
		item    *walmart.Item
		status  model.AuditStatus
		action  model.Action
		seller  string
	}{
		{"non numeric SKU", product(1, "ABC", "9.99"), nil, model.AuditInvalidSKU, model.ActionCheckSKU, ""},
		{"no variants", shopify.Product{ID: 1}, nil, model.AuditInvalidSKU, model.ActionCheckSKU, ""},
		{"missing from the API", product(1, "1", "9.99"), nil, model.AuditNotFound, model.ActionArchive, ""},
		{"third party seller", product(1, "1", "9.99"), &thirdParty, model.AuditThirdParty, model.ActionArchiveThirdParty, "Gadget Hub"},
		{"out of stock", product(1, "1", "9.99"), &oos, model.AuditOutOfStock, model.ActionPause, "Walmart"},
		{"no GTIN", product(1, "1", "9.99"), &noGTIN, model.AuditMissingGTIN, model.ActionReview, "Walmart"},
		{"walmart on the marketplace", product(1, "1", "9.99"), &marketplaceWalmart, model.AuditValid, model.ActionUpdatePrice, "Walmart.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			row := Classify(tt.product, tt.item, pricing.Audit)
			if row.Status != tt.status || row.Action != tt.action {
				t.Errorf("Classify() = %v/%q, want %v/%q", row.Status, row.Action, tt.status, tt.action)
			}
			if row.Seller != tt.seller {
				t.Errorf("Seller = %q, want %q", row.Seller, tt.seller)
			}
		})
	}

	t.Run("valid rows carry prices", func(t *testing.T) {
		t.Parallel()
		item := walmartItem(1)
		row := Classify(product(7, "1", "15.00"), &item, pricing.Audit)
		if row.Status != model.AuditValid {
			t.Fatalf("expected valid, got %v", row.Status)
		}
		// (10 * 1.18 + 0.30) / 0.971 = 12.46
		if row.TargetPrice != "12.46" || row.Cost != "10.00" || row.CurrentPrice != "15.00" || row.GTINFound != "Yes" {
			t.Errorf("unexpected row %+v", row)
		}
	})

	t.Run("only valid rows get a target price", func(t *testing.T) {
		t.Parallel()
		row := Classify(product(7, "1", "15.00"), &oos, pricing.Audit)
		if row.TargetPrice != "" || row.Stock != "Not available" {
			t.Errorf("unexpected row %+v", row)
		}
	})
}

type fakeCatalog struct {
	items []walmart.Item
	err   error
	calls [][]string
}

func (f *fakeCatalog) ItemsByIDs(_ context.Context, ids []string, _ string) ([]walmart.Item, error) {
	f.calls = append(f.calls, ids)
	return f.items, f.err
}

type fakeLister struct {
	pages [][]shopify.Product
	seen  []string
}

func (f *fakeLister) ListProducts(_ context.Context, fields []string, fn func([]shopify.Product) error) (int, error) {
	f.seen = fields
	n := 0
	for _, page := range f.pages {
		n += len(page)
		if err := fn(page); err != nil {
			return n, err
		}
	}
	return n, nil
}

func TestAuditorRun(t *testing.T) {
	t.Parallel()

	t.Run("classifies every page", func(t *testing.T) {
		t.Parallel()
		oos := walmartItem(2)
		oos.Stock = "Not available"
		catalog := &fakeCatalog{items: []walmart.Item{walmartItem(1), oos}}
		lister := &fakeLister{pages: [][]shopify.Product{
			{product(10, "1", "9.99"), product(11, "bad-sku", "1.00")},
			{product(12, "2", "9.99"), product(13, "3", "9.99")},
		}}

		var rows []model.AuditRow
		a := NewAuditor(catalog, lister, WithLogger(discardLogger()))
		report, err := a.Run(context.Background(), func(row model.AuditRow) error {
			rows = append(rows, row)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lister.seen) != 4 || lister.seen[2] != "variants" {
			t.Errorf("unexpected fields %v", lister.seen)
		}
		if len(catalog.calls) != 2 || len(catalog.calls[0]) != 1 || catalog.calls[1][1] != "3" {
			t.Errorf("unexpected lookups %v", catalog.calls)
		}

		want := map[string]int{
			CounterTotal:      4,
			CounterValid:      1,
			CounterInvalidSKU: 1,
			CounterOutOfStock: 1,
			CounterNotFound:   1,
		}
		for name, n := range want {
			if got := report.Count(name); got != n {
				t.Errorf("%s = %d, want %d", name, got, n)
			}
		}
		if len(rows) != 4 || rows[3].Status != model.AuditNotFound {
			t.Errorf("unexpected rows %+v", rows)
		}
	})

	t.Run("a failed lookup skips the page's items", func(t *testing.T) {
		t.Parallel()
		catalog := &fakeCatalog{err: errors.New("503 Service Unavailable")}
		lister := &fakeLister{pages: [][]shopify.Product{{product(10, "1", "9.99"), product(11, "x", "1")}}}

		var rows []model.AuditRow
		report, err := NewAuditor(catalog, lister, WithLogger(discardLogger())).Run(context.Background(), func(row model.AuditRow) error {
			rows = append(rows, row)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Count(CounterFailed) != 1 || len(report.Failures) != 1 || report.Failures[0].ID != "10" {
			t.Errorf("expected product 10 to fail, got %+v", report.Failures)
		}
		if len(rows) != 1 || rows[0].Status != model.AuditInvalidSKU {
			t.Errorf("expected only the invalid SKU row, got %+v", rows)
		}
	})

	t.Run("row callback errors stop the audit", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("disk full")
		lister := &fakeLister{pages: [][]shopify.Product{{product(11, "x", "1")}, {product(12, "y", "1")}}}
		_, err := NewAuditor(&fakeCatalog{}, lister, WithLogger(discardLogger())).Run(context.Background(), func(model.AuditRow) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})
}
