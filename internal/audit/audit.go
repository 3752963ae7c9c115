package audit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/nao1215/wmsync/internal/metrics"
	"github.com/nao1215/wmsync/internal/model"
	"github.com/nao1215/wmsync/internal/pricing"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/transform"
	"github.com/nao1215/wmsync/internal/walmart"
)

// Counter names written to the audit run report.
const (
	CounterTotal       = "total"
	CounterValid       = "valid_walmart"
	CounterThirdParty  = "third_party"
	CounterOutOfStock  = "out_of_stock"
	CounterMissingGTIN = "missing_gtin"
	CounterInvalidSKU  = "invalid_sku"
	CounterNotFound    = "not_found"
	CounterFailed      = "failed"
)

// Counters lists the audit counters in report order.
var Counters = []string{
	CounterTotal,
	CounterValid,
	CounterThirdParty,
	CounterOutOfStock,
	CounterMissingGTIN,
	CounterInvalidSKU,
	CounterNotFound,
	CounterFailed,
}

var statusCounters = map[model.AuditStatus]string{
	model.AuditValid:       CounterValid,
	model.AuditThirdParty:  CounterThirdParty,
	model.AuditOutOfStock:  CounterOutOfStock,
	model.AuditMissingGTIN: CounterMissingGTIN,
	model.AuditInvalidSKU:  CounterInvalidSKU,
	model.AuditNotFound:    CounterNotFound,
}

// productFields are the product attributes an audit reads.
var productFields = []string{"id", "title", "variants", "status"}

// Catalog looks up Walmart items. *walmart.Client implements it.
type Catalog interface {
	ItemsByIDs(ctx context.Context, ids []string, postalCode string) ([]walmart.Item, error)
}

// ProductLister pages through the store. *shopify.Client implements it.
type ProductLister interface {
	ListProducts(ctx context.Context, fields []string, fn func([]shopify.Product) error) (int, error)
}

// Auditor classifies store products.
type Auditor struct {
	catalog  Catalog
	products ProductLister
	formula  pricing.Formula
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithFormula sets the formula for Target_Price. The default is pricing.Audit.
func WithFormula(f pricing.Formula) Option {
	return func(a *Auditor) {
		a.formula = f
	}
}

// WithMetrics counts audited products.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Auditor) {
		a.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// NewAuditor creates an Auditor.
func NewAuditor(catalog Catalog, products ProductLister, opts ...Option) *Auditor {
	a := &Auditor{
		catalog:  catalog,
		products: products,
		formula:  pricing.Audit,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run audits every product in the store, passing each row to fn as soon
// as its page is classified. Products on a page whose Walmart lookup
// fails are recorded as failures and produce no row.
func (a *Auditor) Run(ctx context.Context, fn func(model.AuditRow) error) (*model.RunReport, error) {
	report := model.NewRunReport(model.RunAudit, Counters...)

	_, err := a.products.ListProducts(ctx, productFields, func(page []shopify.Product) error {
		return a.auditPage(ctx, page, report, fn)
	})
	report.Finish()
	return report, err
}

func (a *Auditor) auditPage(ctx context.Context, page []shopify.Product, report *model.RunReport, fn func(model.AuditRow) error) error {
	ids := lo.FilterMap(page, func(p shopify.Product, _ int) (string, bool) {
		sku := SKU(p)
		return sku, IsItemID(sku)
	})

	var items map[string]walmart.Item
	if len(ids) > 0 {
		found, err := a.catalog.ItemsByIDs(ctx, ids, "")
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Warn("walmart lookup failed", "products", len(ids), "error", err)
			for _, p := range page {
				if IsItemID(SKU(p)) {
					report.Inc(CounterFailed)
					report.Fail(itoa(p.ID), err)
				}
			}
			ids = nil
		}
		items = lo.KeyBy(found, func(item walmart.Item) string { return item.ID() })
	}
	lookedUp := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })

	for _, p := range page {
		sku := SKU(p)
		if IsItemID(sku) {
			if _, ok := lookedUp[sku]; !ok {
				continue
			}
		}

		var item *walmart.Item
		if found, ok := items[sku]; ok {
			item = &found
		}
		row := Classify(p, item, a.formula)
		report.Inc(CounterTotal)
		report.Inc(statusCounters[row.Status])
		if err := fn(row); err != nil {
			return err
		}
	}
	a.metrics.AddItems("audited", len(page))
	a.logger.Info("audited page", "products", len(page), "total", report.Count(CounterTotal))
	return nil
}

// SKU returns the trimmed SKU of a product's first variant.
func SKU(p shopify.Product) string {
	v := p.FirstVariant()
	if v == nil {
		return ""
	}
	return strings.TrimSpace(v.SKU)
}

// IsItemID reports whether sku looks like a Walmart item ID: one or more digits.
func IsItemID(sku string) bool {
	if sku == "" {
		return false
	}
	for _, r := range sku {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Classify builds the audit row of a product. item is the Walmart item
// behind the product's SKU, or nil when the lookup did not return it.
// The checks run in order and the first match decides the status.
func Classify(p shopify.Product, item *walmart.Item, formula pricing.Formula) model.AuditRow {
	row := model.AuditRow{
		ShopifyID: p.ID,
		Title:     p.Title,
		SKU:       SKU(p),
	}
	if !IsItemID(row.SKU) {
		return withStatus(row, model.AuditInvalidSKU)
	}
	if v := p.FirstVariant(); v != nil {
		row.CurrentPrice = v.Price
	}
	if item == nil {
		return withStatus(row, model.AuditNotFound)
	}

	if item.SalePrice > 0 {
		row.Cost = pricing.FormatFloat(item.SalePrice)
	}
	row.Stock = item.Stock
	row.Seller = seller(*item)
	row.GTINFound = "No"
	if item.Barcode() != "" {
		row.GTINFound = "Yes"
	}

	switch {
	case !transform.IsFirstParty(*item):
		return withStatus(row, model.AuditThirdParty)
	case !transform.InStock(*item):
		return withStatus(row, model.AuditOutOfStock)
	case item.Barcode() == "":
		return withStatus(row, model.AuditMissingGTIN)
	}
	row.TargetPrice = formula.TargetString(item.SalePrice)
	return withStatus(row, model.AuditValid)
}

func withStatus(row model.AuditRow, status model.AuditStatus) model.AuditRow {
	row.Status = status
	row.Action = status.Action()
	return row
}

// seller names who sells item: the seller info when present, else Walmart
// for first-party listings.
func seller(item walmart.Item) string {
	switch {
	case item.SellerInfo != "":
		return item.SellerInfo
	case !item.Marketplace:
		return "Walmart"
	default:
		return "Unknown"
	}
}
