package transform

import (
	"fmt"
	"strings"

	"github.com/nao1215/wmsync/internal/pricing"
	"github.com/nao1215/wmsync/internal/shopify"
	"github.com/nao1215/wmsync/internal/walmart"
	"github.com/samber/lo"
)

const (
	// MaxTags caps the number of tags put on a product.
	MaxTags = 20

	// MaxFeatures caps the bullet list in a description.
	MaxFeatures = 10

	// MaxExtraImages caps the gallery images added after the primary one.
	MaxExtraImages = 5

	// DefaultVendor is used when an item has no brand.
	DefaultVendor = "Walmart"

	// DefaultProductType is used when an item has no category path.
	DefaultProductType = "General"

	// MetafieldNamespace holds Walmart data attached to products.
	MetafieldNamespace = "walmart"

	fallbackDescription = "<p>High-quality product from Walmart.</p>"
)

// Metafield types used by the transformer.
const (
	metafieldText = "single_line_text_field"
	metafieldURL  = "url"
)

// BuildDescription renders the HTML body of a product from its
// descriptions and feature list.
func BuildDescription(short, long string, features []string) string {
	var parts []string
	if short != "" {
		parts = append(parts, "<p>"+short+"</p>")
	}
	if long != "" && long != short {
		parts = append(parts, "<div>"+long+"</div>")
	}
	if len(features) > 0 {
		parts = append(parts, "<h3>Features:</h3>", "<ul>")
		for _, f := range lo.Slice(features, 0, MaxFeatures) {
			parts = append(parts, "<li>"+f+"</li>")
		}
		parts = append(parts, "</ul>")
	}
	if len(parts) == 0 {
		return fallbackDescription
	}
	return strings.Join(parts, "\n")
}

// ProductType returns the most specific segment of a category path.
func ProductType(categoryPath string) string {
	if categoryPath == "" {
		return DefaultProductType
	}
	segs := strings.Split(categoryPath, "/")
	if last := strings.TrimSpace(segs[len(segs)-1]); last != "" {
		return last
	}
	return DefaultProductType
}

// Tags returns the comma separated tag list for an imported item.
func Tags(item walmart.Item) string {
	var tags []string
	if item.BrandName != "" {
		tags = append(tags, item.BrandName)
	}
	tags = append(tags, categorySegments(item.CategoryPath)...)
	if item.AvailableOnline {
		tags = append(tags, "Available Online")
	}
	if item.FreeShipping {
		tags = append(tags, "Free Shipping")
	}
	if item.SpecialOffer != "" {
		tags = append(tags, "Special Offer")
	}
	tags = append(tags, "Walmart")

	return strings.Join(lo.Slice(lo.Uniq(tags), 0, MaxTags), ", ")
}

// ToProduct maps a Walmart item onto a new Shopify product with one
// variant. The price is the item's sale price, or MSRP when it has none.
func ToProduct(item walmart.Item) *shopify.Product {
	vendor := item.BrandName
	if vendor == "" {
		vendor = DefaultVendor
	}

	variant := shopify.Variant{
		Price:               pricing.FormatFloat(item.Price()),
		SKU:                 item.ID(),
		InventoryManagement: "shopify",
		InventoryPolicy:     "deny",
		FulfillmentService:  "manual",
		RequiresShipping:    shopify.Bool(true),
		Taxable:             shopify.Bool(true),
		Weight:              item.Weight.Float(),
		WeightUnit:          "lb",
		Option1:             "Default Title",
	}
	if item.UPC != "" {
		variant.Barcode = shopify.String(item.UPC)
	}

	return &shopify.Product{
		Title:       CleanTitle(item.Name),
		BodyHTML:    BuildDescription(item.ShortDescription, item.LongDescription, item.Features),
		Vendor:      vendor,
		ProductType: ProductType(item.CategoryPath),
		Tags:        Tags(item),
		Published:   shopify.Bool(true),
		Variants:    []shopify.Variant{variant},
		Options:     []shopify.Option{{Name: "Title", Values: []string{"Default Title"}}},
		Images:      productImages(item),
		Metafields:  productMetafields(item),
	}
}

func productImages(item walmart.Item) []shopify.Image {
	var images []shopify.Image
	if src := item.PrimaryImage(); src != "" {
		images = append(images, shopify.Image{Src: src, Alt: item.Name})
	}
	for _, img := range lo.Slice(item.ImageEntities, 0, MaxExtraImages) {
		if img.MediumImage != "" {
			images = append(images, shopify.Image{Src: img.MediumImage, Alt: item.Name})
		}
	}
	return images
}

func productMetafields(item walmart.Item) []shopify.Metafield {
	fields := []shopify.Metafield{
		{Namespace: MetafieldNamespace, Key: "item_id", Value: item.ID(), Type: metafieldText},
		{Namespace: MetafieldNamespace, Key: "product_url", Value: item.ProductPage(), Type: metafieldURL},
	}
	if item.UPC != "" {
		fields = append(fields, shopify.Metafield{Namespace: MetafieldNamespace, Key: "upc", Value: item.UPC, Type: metafieldText})
	}
	if item.ModelNumber != "" {
		fields = append(fields, shopify.Metafield{Namespace: MetafieldNamespace, Key: "model_number", Value: item.ModelNumber, Type: metafieldText})
	}
	return fields
}

// BestSeller describes how a best seller item is listed.
type BestSeller struct {
	// Category becomes the product type and a tag.
	Category string

	// Keyword is the search term that found the item.
	Keyword string

	// AffiliateURL is stored in the walmart.affiliate_url metafield.
	AffiliateURL string

	// FulfillmentHandle, when set, hands inventory to that service.
	FulfillmentHandle string

	// Quantity is the stocked amount.
	Quantity int
}

// ToBestSellerProduct lists item as an active best seller, priced with
// pricing.BestSeller.
func ToBestSellerProduct(item walmart.Item, bs BestSeller) *shopify.Product {
	variant := shopify.Variant{
		Price:               pricing.BestSeller.TargetString(item.SalePrice),
		SKU:                 item.ID(),
		InventoryManagement: "shopify",
		InventoryPolicy:     "deny",
		InventoryQuantity:   bs.Quantity,
	}
	if bs.FulfillmentHandle != "" {
		variant.FulfillmentService = bs.FulfillmentHandle
		variant.InventoryManagement = bs.FulfillmentHandle
	}

	body := item.LongDescription
	if body == "" {
		body = item.ShortDescription
	}

	p := &shopify.Product{
		Title:       CleanTitle(item.Name),
		BodyHTML:    body,
		Vendor:      DefaultVendor,
		ProductType: bs.Category,
		Tags:        fmt.Sprintf("Best-Seller, %s, Sold-by-Walmart, %s", bs.Category, bs.Keyword),
		Status:      shopify.StatusActive,
		Variants:    []shopify.Variant{variant},
	}

	for _, img := range item.ImageEntities {
		if img.LargeImage != "" {
			p.Images = append(p.Images, shopify.Image{Src: img.LargeImage})
		}
	}
	if len(item.ImageEntities) == 0 && item.LargeImage != "" {
		p.Images = []shopify.Image{{Src: item.LargeImage}}
	}

	if bs.AffiliateURL != "" {
		p.Metafields = []shopify.Metafield{{
			Namespace: MetafieldNamespace,
			Key:       "affiliate_url",
			Value:     bs.AffiliateURL,
			Type:      metafieldText,
		}}
	}
	return p
}
