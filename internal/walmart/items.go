package walmart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/nao1215/wmsync/internal/httpclient"
)

// MaxIDsPerLookup is the largest number of identifiers the items endpoint accepts.
const MaxIDsPerLookup = 20

// Query selects a page of the paginated catalog.
type Query struct {
	// Count is the page size, at most 100.
	Count int

	Category     string
	Brand        string
	SpecialOffer string

	// LastDoc is the cursor of the previous page; empty for the first page.
	LastDoc string
}

func (q Query) params() url.Values {
	params := url.Values{}
	count := q.Count
	if count <= 0 {
		count = 25
	}
	params.Set("count", strconv.Itoa(count))
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Brand != "" {
		params.Set("brand", q.Brand)
	}
	if q.SpecialOffer != "" {
		params.Set("specialOffer", q.SpecialOffer)
	}
	if q.LastDoc != "" {
		params.Set("lastDoc", q.LastDoc)
	}
	return params
}

// Paginated fetches one page of the catalog.
func (c *Client) Paginated(ctx context.Context, q Query) (*ItemsPage, error) {
	page, _, err := c.paginated(ctx, q)
	return page, err
}

func (c *Client) paginated(ctx context.Context, q Query) (*ItemsPage, int, error) {
	params := q.params()
	c.affiliateParams(params)

	body, err := c.get(ctx, "walmart paginated items", c.cfg.ItemsURL, params)
	if err != nil {
		return nil, 0, err
	}
	var page ItemsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, len(body), fmt.Errorf("decode paginated items: %w", err)
	}
	return &page, len(body), nil
}

// Ping checks the signing key locally, then sends a count=1 catalog request
// to verify credentials and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.signer.SelfCheck(); err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	_, err := c.Paginated(ctx, Query{Count: 1})
	return err
}

// WalkOption configures Walk.
type WalkOption func(*WalkOptions)

// WalkOptions are the resolved options of a walk. Catalog implementations
// other than Client read them through ApplyWalkOptions.
type WalkOptions struct {
	// Checkpoint is called after every page, once the page's items were
	// handed to the callback.
	Checkpoint func(lastDoc string, fetched int) error
}

// WithCheckpoint calls fn after every page with the cursor of the next page
// and the number of items handed to the callback so far.
func WithCheckpoint(fn func(lastDoc string, fetched int) error) WalkOption {
	return func(o *WalkOptions) {
		o.Checkpoint = fn
	}
}

// ApplyWalkOptions resolves opts.
func ApplyWalkOptions(opts ...WalkOption) WalkOptions {
	var o WalkOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Walk follows the catalog from q.LastDoc, passing each page's items to fn.
//
// It stops when there is no next page, a page is empty, max items have been
// passed to fn (max <= 0 means no limit) or fn returns ErrStopWalk. It returns
// the number of items passed to fn.
func (c *Client) Walk(ctx context.Context, q Query, maxItems int, fn func([]Item) error, opts ...WalkOption) (int, error) {
	o := ApplyWalkOptions(opts...)

	fetched := 0
	for page := 1; ; page++ {
		if maxItems > 0 && q.Count > maxItems-fetched {
			q.Count = maxItems - fetched
		}

		p, err := c.Paginated(ctx, q)
		if err != nil {
			return fetched, err
		}
		if len(p.Items) == 0 {
			c.logger.Debug("empty page, stopping walk", "page", page, "fetched", fetched)
			return fetched, nil
		}

		items := p.Items
		if maxItems > 0 && len(items) > maxItems-fetched {
			items = items[:maxItems-fetched]
		}
		fetched += len(items)

		next := p.LastDoc()
		c.logger.Debug("fetched page",
			"page", page,
			"items", len(items),
			"fetched", fetched,
			"has_next", next != "",
		)

		if err := fn(items); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return fetched, nil
			}
			return fetched, err
		}
		if o.Checkpoint != nil {
			if err := o.Checkpoint(next, fetched); err != nil {
				return fetched, fmt.Errorf("save checkpoint: %w", err)
			}
		}

		if next == "" || (maxItems > 0 && fetched >= maxItems) {
			return fetched, nil
		}
		q.LastDoc = next
	}
}

// ItemsByIDs looks up items by ID in batches of Config.LookupBatch.
// IDs Walmart does not know are silently absent from the result.
func (c *Client) ItemsByIDs(ctx context.Context, ids []string, postalCode string) ([]Item, error) {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}

	var items []Item
	for _, batch := range lo.Chunk(ids, c.cfg.LookupBatch) {
		found, err := c.lookup(ctx, "ids", batch, postalCode)
		if err != nil {
			return items, err
		}
		items = append(items, found...)
	}
	return items, nil
}

// ItemsByUPC looks up items by UPC. A batch the endpoint rejects under the
// upc parameter is retried under gtin.
func (c *Client) ItemsByUPC(ctx context.Context, upcs []string, postalCode string) ([]Item, error) {
	upcs = normalizeIDs(upcs)
	if len(upcs) == 0 {
		return nil, ErrNoIDs
	}

	var items []Item
	for _, batch := range lo.Chunk(upcs, c.cfg.LookupBatch) {
		found, err := c.lookup(ctx, "upc", batch, postalCode)
		if err != nil {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			c.logger.Info("upc lookup failed, retrying as gtin", "error", err)
			found, err = c.lookup(ctx, "gtin", batch, postalCode)
			if err != nil {
				return items, err
			}
		}
		items = append(items, found...)
	}
	return items, nil
}

func (c *Client) lookup(ctx context.Context, param string, values []string, postalCode string) ([]Item, error) {
	params := url.Values{}
	params.Set(param, strings.Join(values, ","))
	if postalCode != "" {
		params.Set("postalCode", postalCode)
	}
	c.affiliateParams(params)

	body, err := c.get(ctx, "walmart items by "+param, c.cfg.LookupURL, params)
	if err != nil {
		if isNoResults(err) {
			return nil, nil
		}
		return nil, err
	}
	items, err := parseItems(body)
	if err != nil {
		return nil, fmt.Errorf("decode items by %s: %w", param, err)
	}
	return items, nil
}

// isNoResults reports whether err is Walmart's way of saying none of the
// requested items exist: a 404, or a 400 carrying error code 6001.
func isNoResults(err error) bool {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.StatusCode {
	case http.StatusNotFound:
		return true
	case http.StatusBadRequest:
		return isResultsNotFound(se.Body)
	default:
		return false
	}
}

func isResultsNotFound(body string) bool {
	body = strings.TrimSpace(body)
	if body == "" {
		return false
	}

	type apiError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	var payload struct {
		apiError
		Errors []apiError `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		for _, e := range append(payload.Errors, payload.apiError) {
			if e.Code == 6001 || strings.Contains(strings.ToLower(e.Message), "results not found") {
				return true
			}
		}
	}

	lower := strings.ToLower(body)
	return strings.Contains(lower, "6001") && strings.Contains(lower, "results not found")
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return lo.Uniq(out)
}
