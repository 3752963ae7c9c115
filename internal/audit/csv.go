package audit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/report"
)

// Audit CSV columns.
const (
	ColShopifyID    = "Shopify_ID"
	ColTitle        = "Title"
	ColSKU          = "SKU"
	ColStatus       = "Walmart_Status"
	ColSeller       = "Seller"
	ColStock        = "Stock"
	ColCost         = "Cost"
	ColCurrentPrice = "Current_Price"
	ColTargetPrice  = "Target_Price"
	ColGTINFound    = "GTIN_Found"
	ColAction       = "Action_Needed"
)

// Headers are the audit CSV columns in order.
var Headers = []string{
	ColShopifyID, ColTitle, ColSKU, ColStatus, ColSeller, ColStock,
	ColCost, ColCurrentPrice, ColTargetPrice, ColGTINFound, ColAction,
}

// Record converts a row to CSV fields in Headers order.
func Record(row model.AuditRow) []string {
	return []string{
		itoa(row.ShopifyID),
		row.Title,
		row.SKU,
		row.Status.String(),
		row.Seller,
		row.Stock,
		row.Cost,
		row.CurrentPrice,
		row.TargetPrice,
		row.GTINFound,
		row.Action.String(),
	}
}

// NewCSVWriter returns a writer for audit rows.
func NewCSVWriter(w io.Writer) *report.CSVWriter[model.AuditRow] {
	return report.NewCSVWriter(w, Headers, Record)
}

// ReadCSV reads an audit CSV. Action_Needed is taken as written so that
// hand edits to the file are honored.
func ReadCSV(r io.Reader) ([]model.AuditRow, error) {
	records, err := report.ReadCSV(r, ColShopifyID, ColStatus, ColAction)
	if err != nil {
		return nil, err
	}
	rows := make([]model.AuditRow, 0, len(records))
	for i, rec := range records {
		row, err := parseRecord(rec)
		if err != nil {
			return rows, fmt.Errorf("audit CSV line %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec map[string]string) (model.AuditRow, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rec[ColShopifyID]), 10, 64)
	if err != nil || id <= 0 {
		return model.AuditRow{}, fmt.Errorf("%w: %q", ErrInvalidProductID, rec[ColShopifyID])
	}
	status, ok := model.ParseAuditStatus(strings.TrimSpace(rec[ColStatus]))
	if !ok {
		return model.AuditRow{}, fmt.Errorf("%w: %q", ErrUnknownStatus, rec[ColStatus])
	}
	return model.AuditRow{
		ShopifyID:    id,
		Title:        rec[ColTitle],
		SKU:          rec[ColSKU],
		Status:       status,
		Seller:       rec[ColSeller],
		Stock:        rec[ColStock],
		Cost:         rec[ColCost],
		CurrentPrice: rec[ColCurrentPrice],
		TargetPrice:  strings.TrimSpace(rec[ColTargetPrice]),
		GTINFound:    rec[ColGTINFound],
		Action:       model.Action(strings.TrimSpace(rec[ColAction])),
	}, nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
