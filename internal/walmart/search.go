package walmart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSearchPageSize is the number of results requested per search page.
const DefaultSearchPageSize = 25

// SearchQuery selects one page of keyword search results.
type SearchQuery struct {
	Query string

	// Page is zero based.
	Page int

	// NumItems is the page size; DefaultSearchPageSize when zero.
	NumItems int

	// Sort is passed through when set, e.g. "bestseller" or "price".
	Sort string
}

// Start returns the 1-based offset of the page's first result.
func (q SearchQuery) Start() int {
	return q.Page*q.pageSize() + 1
}

func (q SearchQuery) pageSize() int {
	if q.NumItems <= 0 {
		return DefaultSearchPageSize
	}
	return q.NumItems
}

// Search runs one page of a keyword search.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("numItems", strconv.Itoa(q.pageSize()))
	params.Set("start", strconv.Itoa(q.Start()))
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	c.affiliateParams(params)

	body, err := c.get(ctx, "walmart search", c.cfg.SearchURL, params)
	if err != nil {
		if isNoResults(err) {
			return &SearchResult{Query: q.Query, Start: q.Start()}, nil
		}
		return nil, err
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &result, nil
}

// SearchAll pages through a search starting at q.Page. It stops after
// maxPages pages, when the next start offset would exceed maxItems
// (maxItems <= 0 means no limit), or at the first empty page.
//
// A failure on the first page is returned. A later failure ends the search
// and the items gathered so far are returned without an error.
func (c *Client) SearchAll(ctx context.Context, q SearchQuery, maxPages, maxItems int) ([]Item, error) {
	var items []Item
	for i := 0; maxPages <= 0 || i < maxPages; i++ {
		if maxItems > 0 && q.Start() > maxItems {
			break
		}

		res, err := c.Search(ctx, q)
		if err != nil {
			if i == 0 || ctx.Err() != nil {
				return items, err
			}
			c.logger.Warn("search page failed, keeping earlier pages",
				"query", q.Query,
				"start", q.Start(),
				"error", err,
			)
			break
		}
		if len(res.Items) == 0 {
			break
		}
		items = append(items, res.Items...)
		q.Page++
	}
	return items, nil
}
