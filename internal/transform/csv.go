package transform

import (
	"strconv"
	"strings"

	"github.com/nao1215/wmsync/internal/pricing"
	"github.com/nao1215/wmsync/internal/walmart"
	"github.com/samber/lo"
)

// csvHeaders is the column order of Shopify's product import template.
var csvHeaders = []string{
	"Handle", "Title", "Body (HTML)", "Vendor", "Product Category", "Type", "Tags", "Published",
	"Option1 Name", "Option1 Value", "Option2 Name", "Option2 Value", "Option3 Name", "Option3 Value",
	"Variant SKU", "Variant Grams", "Variant Inventory Tracker", "Variant Inventory Qty",
	"Variant Price", "Variant Compare At Price", "Variant Requires Shipping", "Variant Taxable",
	"Image Src", "Image Position", "Image Alt Text", "Gift Card", "SEO Title", "SEO Description",
	"Google Shopping / Google Product Category", "Google Shopping / Gender", "Google Shopping / Age Group",
	"Google Shopping / MPN", "Google Shopping / AdWords Grouping", "Google Shopping / AdWords Labels",
	"Google Shopping / Condition", "Google Shopping / Custom Product",
	"Google Shopping / Custom Label 0", "Google Shopping / Custom Label 1", "Google Shopping / Custom Label 2",
	"Google Shopping / Custom Label 3", "Google Shopping / Custom Label 4",
	"Variant Image", "Variant Weight Unit", "Cost per item",
}

const (
	// CSVInventoryQty is the stock written for exported rows.
	CSVInventoryQty = 10

	// MaxSEODescription is the SEO description length, in runes.
	MaxSEODescription = 320
)

// CSVHeaders returns a copy of the product CSV header row.
func CSVHeaders() []string {
	return append([]string(nil), csvHeaders...)
}

// CSVRow maps item onto one product CSV row aligned with CSVHeaders,
// pricing it with markup.
func CSVRow(item walmart.Item, markup pricing.Formula) []string {
	title := cleanText(item.Name)
	description := cleanText(item.LongDescription)
	if description == "" {
		description = cleanText(item.ShortDescription)
	}
	vendor := cleanText(item.BrandName)
	if vendor == "" {
		vendor = DefaultVendor
	}
	productType := DefaultProductType
	if segs := categorySegments(item.CategoryPath); len(segs) > 0 {
		productType = cleanText(segs[0])
	}

	price := markup.Target(item.SalePrice)
	image := item.LargestImage()

	values := map[string]string{
		"Handle":                      Handle(title),
		"Title":                       title,
		"Body (HTML)":                 description,
		"Vendor":                      vendor,
		"Type":                        productType,
		"Tags":                        csvTags(item),
		"Published":                   "TRUE",
		"Option1 Name":                "Title",
		"Option1 Value":               "Default Title",
		"Variant SKU":                 item.ID(),
		"Variant Grams":               "0",
		"Variant Inventory Tracker":   "shopify",
		"Variant Inventory Qty":       strconv.Itoa(CSVInventoryQty),
		"Variant Price":               pricing.Format(price),
		"Variant Compare At Price":    pricing.CompareAt(item.MSRP, price),
		"Variant Requires Shipping":   "TRUE",
		"Variant Taxable":             "TRUE",
		"Image Src":                   image,
		"Image Alt Text":              title,
		"Gift Card":                   "FALSE",
		"SEO Title":                   title,
		"SEO Description":             truncateRunes(description, MaxSEODescription),
		"Google Shopping / Condition": "New",
		"Variant Weight Unit":         "lb",
		"Cost per item":               pricing.FormatFloat(item.SalePrice),
	}
	if image != "" {
		values["Image Position"] = "1"
	}

	return lo.Map(csvHeaders, func(h string, _ int) string { return values[h] })
}

func csvTags(item walmart.Item) string {
	tags := []string{"Walmart", "Ship to Home"}
	if item.PickupTodayEligible {
		tags = append(tags, "Same Day")
	}
	if item.Clearance {
		tags = append(tags, "Clearance")
	}
	tags = append(tags, categorySegments(item.CategoryPath)...)
	tags = append(tags, "Source:Walmart")
	return strings.Join(lo.Uniq(tags), ",")
}
