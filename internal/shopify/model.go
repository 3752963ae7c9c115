package shopify

import "time"

// Product status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusDraft    = "draft"
)

// Product is a Shopify product. Zero fields are omitted from request bodies,
// so an update only sends what the caller set.
type Product struct {
	ID          int64       `json:"id,omitempty"`
	Title       string      `json:"title,omitempty"`
	BodyHTML    string      `json:"body_html,omitempty"`
	Vendor      string      `json:"vendor,omitempty"`
	ProductType string      `json:"product_type,omitempty"`
	Handle      string      `json:"handle,omitempty"`
	Status      string      `json:"status,omitempty"`
	Tags        string      `json:"tags,omitempty"`
	Published   *bool       `json:"published,omitempty"`
	Variants    []Variant   `json:"variants,omitempty"`
	Options     []Option    `json:"options,omitempty"`
	Images      []Image     `json:"images,omitempty"`
	Metafields  []Metafield `json:"metafields,omitempty"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// FirstVariant returns the first variant, or nil when the product has none.
func (p *Product) FirstVariant() *Variant {
	if p == nil || len(p.Variants) == 0 {
		return nil
	}
	return &p.Variants[0]
}

// Variant is a product variant.
type Variant struct {
	ID                  int64   `json:"id,omitempty"`
	ProductID           int64   `json:"product_id,omitempty"`
	Title               string  `json:"title,omitempty"`
	Price               string  `json:"price,omitempty"`
	CompareAtPrice      *string `json:"compare_at_price,omitempty"`
	SKU                 string  `json:"sku,omitempty"`
	Barcode             *string `json:"barcode,omitempty"`
	Position            int     `json:"position,omitempty"`
	Option1             string  `json:"option1,omitempty"`
	Option2             string  `json:"option2,omitempty"`
	Option3             string  `json:"option3,omitempty"`
	InventoryPolicy     string  `json:"inventory_policy,omitempty"`
	InventoryManagement string  `json:"inventory_management,omitempty"`
	FulfillmentService  string  `json:"fulfillment_service,omitempty"`
	InventoryItemID     int64   `json:"inventory_item_id,omitempty"`
	InventoryQuantity   int     `json:"inventory_quantity,omitempty"`
	RequiresShipping    *bool   `json:"requires_shipping,omitempty"`
	Taxable             *bool   `json:"taxable,omitempty"`
	Weight              float64 `json:"weight,omitempty"`
	WeightUnit          string  `json:"weight_unit,omitempty"`
	Grams               int     `json:"grams,omitempty"`
}

// Option is a product option such as Size or Color.
type Option struct {
	ID        int64    `json:"id,omitempty"`
	ProductID int64    `json:"product_id,omitempty"`
	Name      string   `json:"name"`
	Position  int      `json:"position,omitempty"`
	Values    []string `json:"values,omitempty"`
}

// Image is a product image.
type Image struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Position  int    `json:"position,omitempty"`
	Src       string `json:"src"`
	Alt       string `json:"alt,omitempty"`
}

// Metafield attaches custom data to a resource.
type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// InventoryLevel is the stock of one inventory item at one location.
type InventoryLevel struct {
	InventoryItemID int64      `json:"inventory_item_id"`
	LocationID      int64      `json:"location_id"`
	Available       *int       `json:"available"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Location is a place where inventory is stocked.
type Location struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Legacy   bool   `json:"legacy"`
	Address1 string `json:"address1,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
	Country  string `json:"country,omitempty"`
	Zip      string `json:"zip,omitempty"`
}

// FulfillmentService is a third party that fulfills orders for a location.
type FulfillmentService struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Handle              string `json:"handle"`
	Email               string `json:"email,omitempty"`
	ServiceName         string `json:"service_name,omitempty"`
	LocationID          int64  `json:"location_id"`
	InventoryManagement bool   `json:"inventory_management"`
	TrackingSupport     bool   `json:"tracking_support"`
}

// Shop describes the store.
type Shop struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Domain            string `json:"domain"`
	MyshopifyDomain   string `json:"myshopify_domain"`
	PlanName          string `json:"plan_name"`
	Currency          string `json:"currency"`
	PrimaryLocationID int64  `json:"primary_location_id"`
}

// Bool returns a pointer to b, for the optional boolean fields.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s, for the optional string fields.
func String(s string) *string {
	return &s
}
