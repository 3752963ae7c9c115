package migrate

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/nao1215/wmsync/internal/shopify"
)

const testHandle = "autods-prod-wwbybglb"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore serves products from memory and applies updates unless the
// variant is listed in ignore (accepted but not applied) or fail.
type fakeStore struct {
	mu       sync.Mutex
	products []shopify.Product
	ignore   map[int64]bool
	fail     map[int64]bool
	updated  []int64
	stocked  map[int64]int
	listErr  error
}

func (f *fakeStore) ListProducts(_ context.Context, _ []string, fn func([]shopify.Product) error) (int, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	return len(f.products), fn(f.products)
}

func (f *fakeStore) UpdateVariant(_ context.Context, v *shopify.Variant) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[v.ID] {
		return nil, errors.New("422 Unprocessable Entity")
	}
	f.updated = append(f.updated, v.ID)
	out := *v
	if f.ignore[v.ID] {
		out.FulfillmentService = "manual"
	}
	return &out, nil
}

func (f *fakeStore) SetInventory(_ context.Context, inventoryItemID, locationID int64, available int) (*shopify.InventoryLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stocked == nil {
		f.stocked = make(map[int64]int)
	}
	f.stocked[inventoryItemID] = available
	return &shopify.InventoryLevel{InventoryItemID: inventoryItemID, LocationID: locationID, Available: &available}, nil
}

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant shopify.Variant
		want    Decision
	}{
		{"other service", shopify.Variant{FulfillmentService: "manual", InventoryQuantity: 99}, Move},
		{"migrated and stocked", shopify.Variant{FulfillmentService: testHandle, InventoryQuantity: 11}, Skip},
		{"migrated with low stock", shopify.Variant{FulfillmentService: testHandle, InventoryQuantity: 10}, TopUp},
	}
	for _, tt := range tests {
		if got := Decide(tt.variant, testHandle); got != tt.want {
			t.Errorf("%s: Decide() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func testStore() *fakeStore {
	return &fakeStore{products: []shopify.Product{
		{ID: 1, Variants: []shopify.Variant{
			{ID: 11, InventoryItemID: 111, FulfillmentService: "manual"},
			{ID: 12, InventoryItemID: 112, FulfillmentService: testHandle, InventoryQuantity: 50},
		}},
		{ID: 2, Variants: []shopify.Variant{
			{ID: 21, InventoryItemID: 121, FulfillmentService: testHandle, InventoryQuantity: 2},
			{ID: 22, InventoryItemID: 122, FulfillmentService: "manual"},
			{ID: 23, InventoryItemID: 123, FulfillmentService: "manual"},
		}},
	}}
}

func TestMigratorRun(t *testing.T) {
	t.Parallel()

	t.Run("moves, tops up and skips", func(t *testing.T) {
		t.Parallel()
		store := testStore()
		store.ignore = map[int64]bool{22: true}
		store.fail = map[int64]bool{23: true}

		m := New(store, Options{Handle: testHandle, LocationID: 80020111495, Workers: 3}, WithLogger(discardLogger()))
		report, err := m.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := map[string]int{
			CounterVariants: 5,
			CounterMigrated: 1,
			CounterToppedUp: 1,
			CounterSkipped:  1,
			CounterFailed:   2,
		}
		for name, n := range want {
			if got := report.Count(name); got != n {
				t.Errorf("%s = %d, want %d", name, got, n)
			}
		}
		if store.stocked[111] != DefaultQuantity || store.stocked[121] != DefaultQuantity {
			t.Errorf("unexpected stock %v", store.stocked)
		}
		if _, ok := store.stocked[122]; ok {
			t.Error("a variant whose move was not applied should not be stocked")
		}
		for _, f := range report.Failures {
			if f.ID == "22" && !bytes.Contains([]byte(f.Message), []byte(ErrNotApplied.Error())) {
				t.Errorf("expected a verification failure, got %q", f.Message)
			}
		}
	})

	t.Run("top-up sets inventory without a variant PUT", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{products: []shopify.Product{{ID: 9, Variants: []shopify.Variant{
			{ID: 91, InventoryItemID: 910, FulfillmentService: testHandle, InventoryQuantity: 4},
		}}}}
		report, err := New(store, Options{Handle: testHandle, LocationID: 1, Quantity: 50}, WithLogger(discardLogger())).Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.updated) != 0 {
			t.Errorf("expected no variant update, got %v", store.updated)
		}
		if store.stocked[910] != 50 || report.Count(CounterToppedUp) != 1 || report.Count(CounterMigrated) != 0 {
			t.Errorf("unexpected stock %v and counters %+v", store.stocked, report.Snapshot())
		}
	})

	t.Run("dry run", func(t *testing.T) {
		t.Parallel()
		store := testStore()
		report, err := New(store, Options{Handle: testHandle, LocationID: 1, DryRun: true}, WithLogger(discardLogger())).Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.updated) != 0 || len(store.stocked) != 0 {
			t.Error("dry run should not call the store")
		}
		if report.Count(CounterMigrated) != 3 || report.Count(CounterToppedUp) != 1 {
			t.Errorf("unexpected counters %+v", report.Snapshot())
		}
	})

	t.Run("requires a handle and location", func(t *testing.T) {
		t.Parallel()
		if _, err := New(testStore(), Options{LocationID: 1}).Run(context.Background()); !errors.Is(err, ErrMissingHandle) {
			t.Errorf("expected ErrMissingHandle, got %v", err)
		}
		if _, err := New(testStore(), Options{Handle: testHandle}).Run(context.Background()); !errors.Is(err, ErrMissingLocation) {
			t.Errorf("expected ErrMissingLocation, got %v", err)
		}
	})

	t.Run("listing errors fail the run", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{listErr: errors.New("401 Unauthorized")}
		if _, err := New(store, Options{Handle: testHandle, LocationID: 1}, WithLogger(discardLogger())).Run(context.Background()); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	store := &fakeStore{products: []shopify.Product{
		{
			Handle:  "tee",
			Title:   "Tee",
			Options: []shopify.Option{{Name: "Size"}, {Name: "Color"}},
			Variants: []shopify.Variant{
				{SKU: "1", Option1: "S", Option2: "Red"},
				{SKU: "2", Option1: "M", Option2: "Red"},
			},
		},
		{Handle: "lamp", Title: "Lamp", Variants: []shopify.Variant{{SKU: "3", Option1: "Default Title"}}},
	}}

	var buf bytes.Buffer
	n, err := WriteCSV(context.Background(), store, &buf, Options{Handle: testHandle, Quantity: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 || len(records[0]) != len(CSVHeaders) {
		t.Fatalf("unexpected records %v", records)
	}
	first, second := records[1], records[2]
	if first[1] != "Tee" || first[2] != "Size" || first[4] != "Color" || first[3] != "S" {
		t.Errorf("unexpected first row %v", first)
	}
	if second[1] != "" || second[2] != "" || second[3] != "M" || second[0] != "tee" {
		t.Errorf("later rows should omit title and option names, got %v", second)
	}
	if first[9] != "shopify" || first[10] != testHandle || first[11] != "deny" || first[12] != "25" {
		t.Errorf("unexpected inventory columns %v", first[9:])
	}

	if _, err := WriteCSV(context.Background(), store, &buf, Options{}); !errors.Is(err, ErrMissingHandle) {
		t.Errorf("expected ErrMissingHandle, got %v", err)
	}
}
