package migrate

import (
	"context"
	"io"
	"strconv"

	"github.com/nao1215/wmsync/internal/report"
	"github.com/nao1215/wmsync/internal/shopify"
)

// CSVHeaders are the Shopify bulk-edit columns the CSV fills.
var CSVHeaders = []string{
	"Handle",
	"Title",
	"Option1 Name", "Option1 Value",
	"Option2 Name", "Option2 Value",
	"Option3 Name", "Option3 Value",
	"Variant SKU",
	"Variant Inventory Tracker",
	"Variant Fulfillment Service",
	"Variant Inventory Policy",
	"Variant Inventory Qty",
}

// BulkEditRow is one variant line of the bulk-edit CSV.
type BulkEditRow struct {
	Handle       string
	Title        string
	OptionNames  [3]string
	OptionValues [3]string
	SKU          string
	Service      string
	Quantity     int
}

func (r BulkEditRow) record() []string {
	return []string{
		r.Handle,
		r.Title,
		r.OptionNames[0], r.OptionValues[0],
		r.OptionNames[1], r.OptionValues[1],
		r.OptionNames[2], r.OptionValues[2],
		r.SKU,
		"shopify",
		r.Service,
		"deny",
		strconv.Itoa(r.Quantity),
	}
}

// BulkEditRows returns one row per variant of p. Title and option names
// are only written on the first row, as in Shopify's own exports.
func BulkEditRows(p shopify.Product, handle string, quantity int) []BulkEditRow {
	rows := make([]BulkEditRow, 0, len(p.Variants))
	for i, v := range p.Variants {
		row := BulkEditRow{
			Handle:       p.Handle,
			OptionValues: [3]string{v.Option1, v.Option2, v.Option3},
			SKU:          v.SKU,
			Service:      handle,
			Quantity:     quantity,
		}
		if i == 0 {
			row.Title = p.Title
			for j, opt := range p.Options {
				if j < len(row.OptionNames) {
					row.OptionNames[j] = opt.Name
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the bulk-edit CSV for every product in the store and
// returns the number of variant rows.
func WriteCSV(ctx context.Context, store Store, w io.Writer, o Options) (int, error) {
	if o.Handle == "" {
		return 0, ErrMissingHandle
	}
	if o.Quantity <= 0 {
		o.Quantity = DefaultQuantity
	}

	out := report.NewCSVWriter(w, CSVHeaders, BulkEditRow.record)
	if err := out.WriteHeader(); err != nil {
		return 0, err
	}
	rows := 0
	_, err := store.ListProducts(ctx, []string{"handle", "title", "variants", "options"}, func(page []shopify.Product) error {
		for _, p := range page {
			r := BulkEditRows(p, o.Handle, o.Quantity)
			if err := out.Write(r...); err != nil {
				return err
			}
			rows += len(r)
		}
		return nil
	})
	if err != nil {
		return rows, err
	}
	return rows, out.Flush()
}
