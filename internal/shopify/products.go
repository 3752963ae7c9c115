package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomnomnom/linkheader"
)

// MaxPageSize is the largest page the products endpoint returns.
const MaxPageSize = 250

// ErrStopList can be returned by a ListProducts callback to stop paging
// without an error.
var ErrStopList = errors.New("stop listing")

// CountProducts returns the number of products in the store.
func (c *Client) CountProducts(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if _, err := c.do(ctx, "shopify count products", http.MethodGet, "/products/count.json", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ListProducts pages through every product, 250 at a time, following the
// Link rel="next" header. fields limits the returned attributes when set.
// fn is called once per page; it returns the number of products seen.
func (c *Client) ListProducts(ctx context.Context, fields []string, fn func([]Product) error) (int, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(MaxPageSize))
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}

	path := "/products.json"
	seen := 0
	for page := 1; path != ""; page++ {
		var out struct {
			Products []Product `json:"products"`
		}
		resp, err := c.do(ctx, "shopify list products", http.MethodGet, path, query, nil, &out)
		if err != nil {
			return seen, err
		}
		seen += len(out.Products)
		c.logger.Debug("listed products page", "page", page, "products", len(out.Products), "seen", seen)

		if len(out.Products) > 0 {
			if err := fn(out.Products); err != nil {
				if errors.Is(err, ErrStopList) {
					return seen, nil
				}
				return seen, err
			}
		}

		// The next link already carries limit, fields and page_info.
		path = nextLink(resp.Header.Get("Link"))
		query = nil
	}
	return seen, nil
}

func nextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, link := range linkheader.Parse(header).FilterByRel("next") {
		if link.URL != "" {
			return link.URL
		}
	}
	return ""
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	path := fmt.Sprintf("/products/%d.json", id)
	if _, err := c.do(ctx, "shopify get product", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// CreateProduct creates p and returns the stored product.
func (c *Client) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	in := struct {
		Product *Product `json:"product"`
	}{p}
	var out struct {
		Product Product `json:"product"`
	}
	if _, err := c.do(ctx, "shopify create product", http.MethodPost, "/products.json", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// UpdateProduct sends the non-zero fields of p to the product with p.ID.
func (c *Client) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.ID == 0 {
		return nil, ErrMissingID
	}
	in := struct {
		Product *Product `json:"product"`
	}{p}
	var out struct {
		Product Product `json:"product"`
	}
	path := fmt.Sprintf("/products/%d.json", p.ID)
	if _, err := c.do(ctx, "shopify update product", http.MethodPut, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/products/%d.json", id)
	_, err := c.do(ctx, "shopify delete product", http.MethodDelete, path, nil, nil, nil)
	return err
}

// UpdateVariant sends the non-zero fields of v to the variant with v.ID.
func (c *Client) UpdateVariant(ctx context.Context, v *Variant) (*Variant, error) {
	if v.ID == 0 {
		return nil, ErrMissingID
	}
	in := struct {
		Variant *Variant `json:"variant"`
	}{v}
	var out struct {
		Variant Variant `json:"variant"`
	}
	path := fmt.Sprintf("/variants/%d.json", v.ID)
	if _, err := c.do(ctx, "shopify update variant", http.MethodPut, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Variant, nil
}
