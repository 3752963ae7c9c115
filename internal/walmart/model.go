package walmart

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Item is a product record returned by the affiliate API.
// Only the fields wmsync reads are declared.
type Item struct {
	ItemID           int64  `json:"itemId"`
	ParentItemID     int64  `json:"parentItemId,omitempty"`
	Name             string `json:"name"`
	ShortDescription string `json:"shortDescription,omitempty"`
	LongDescription  string `json:"longDescription,omitempty"`
	BrandName        string `json:"brandName,omitempty"`
	ModelNumber      string `json:"modelNumber,omitempty"`

	MSRP      float64 `json:"msrp,omitempty"`
	SalePrice float64 `json:"salePrice,omitempty"`

	UPC  string `json:"upc,omitempty"`
	GTIN string `json:"gtin,omitempty"`

	CategoryPath string `json:"categoryPath,omitempty"`
	CategoryNode string `json:"categoryNode,omitempty"`

	ThumbnailImage string        `json:"thumbnailImage,omitempty"`
	MediumImage    string        `json:"mediumImage,omitempty"`
	LargeImage     string        `json:"largeImage,omitempty"`
	ImageEntities  []ImageEntity `json:"imageEntities,omitempty"`

	ProductURL            string `json:"productUrl,omitempty"`
	ProductTrackingURL    string `json:"productTrackingUrl,omitempty"`
	AffiliateAddToCartURL string `json:"affiliateAddToCartUrl,omitempty"`

	Stock             string `json:"stock,omitempty"`
	AvailableOnline   bool   `json:"availableOnline"`
	Marketplace       bool   `json:"marketplace"`
	SellerInfo        string `json:"sellerInfo,omitempty"`
	FulfillmentSource string `json:"fulfillmentSource,omitempty"`

	FreeShipping        bool   `json:"freeShipping,omitempty"`
	SpecialOffer        string `json:"specialOffer,omitempty"`
	Clearance           bool   `json:"clearance,omitempty"`
	PickupTodayEligible bool   `json:"pickupTodayEligible,omitempty"`

	CustomerRating FlexString `json:"customerRating,omitempty"`
	NumReviews     FlexInt    `json:"numReviews,omitempty"`

	Features []string   `json:"features,omitempty"`
	Weight   FlexString `json:"weight,omitempty"`
	Size     string     `json:"size,omitempty"`
	Color    string     `json:"color,omitempty"`
}

// ID returns the item ID as a string, the form used as a Shopify SKU.
func (i Item) ID() string {
	if i.ItemID == 0 {
		return ""
	}
	return strconv.FormatInt(i.ItemID, 10)
}

// Price returns the sale price, falling back to MSRP.
func (i Item) Price() float64 {
	if i.SalePrice > 0 {
		return i.SalePrice
	}
	return i.MSRP
}

// PrimaryImage returns the medium image, else the large one, else the thumbnail.
func (i Item) PrimaryImage() string {
	switch {
	case i.MediumImage != "":
		return i.MediumImage
	case i.LargeImage != "":
		return i.LargeImage
	default:
		return i.ThumbnailImage
	}
}

// LargestImage returns the large image, else the medium one, else the thumbnail.
func (i Item) LargestImage() string {
	switch {
	case i.LargeImage != "":
		return i.LargeImage
	case i.MediumImage != "":
		return i.MediumImage
	default:
		return i.ThumbnailImage
	}
}

// Barcode returns the UPC, falling back to the GTIN.
func (i Item) Barcode() string {
	if i.UPC != "" {
		return i.UPC
	}
	return i.GTIN
}

// ImageEntity is one entry of an item's image gallery.
type ImageEntity struct {
	ThumbnailImage string `json:"thumbnailImage,omitempty"`
	MediumImage    string `json:"mediumImage,omitempty"`
	LargeImage     string `json:"largeImage,omitempty"`
	EntityType     string `json:"entityType,omitempty"`
}

// ItemsPage is one page of the paginated catalog.
type ItemsPage struct {
	Items      []Item `json:"items"`
	TotalPages int    `json:"totalPages,omitempty"`
	NextPage   string `json:"nextPage,omitempty"`
}

// LastDoc returns the lastDoc cursor carried in NextPage, or "" on the last page.
func (p *ItemsPage) LastDoc() string {
	if p == nil || p.NextPage == "" {
		return ""
	}
	u, err := url.Parse(p.NextPage)
	if err != nil {
		return ""
	}
	return u.Query().Get("lastDoc")
}

// SearchResult is one page of keyword search results.
type SearchResult struct {
	Query        string `json:"query"`
	Sort         string `json:"sort,omitempty"`
	TotalResults int    `json:"totalResults"`
	Start        int    `json:"start"`
	NumItems     int    `json:"numItems"`
	Items        []Item `json:"items"`
}

// parseItems decodes an items response in any of the shapes the endpoint
// returns: {"items": [...]}, {"data": [...]} or a bare array.
func parseItems(data []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapped struct {
		Items []Item `json:"items"`
		Data  []Item `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if len(wrapped.Items) > 0 {
		return wrapped.Items, nil
	}
	return wrapped.Data, nil
}

// FlexInt decodes a JSON number or a numeric string. Anything else decodes to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexInt(int(v))
		return nil
	}
	*f = 0
	return nil
}

// FlexString decodes a JSON string or number into its string form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// Float parses the value as a float, returning 0 when it is not numeric.
// Units after the number are ignored ("2.5 lb" is 2.5).
func (f FlexString) Float() float64 {
	s := strings.TrimSpace(string(f))
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
