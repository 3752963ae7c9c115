package walmart

import (
	"context"
	"time"
)

// BenchResult is the outcome of one timed catalog request.
type BenchResult struct {
	Count   int           `json:"count"`
	Items   int           `json:"items"`
	Bytes   int           `json:"bytes"`
	Elapsed time.Duration `json:"elapsed"`
	HasNext bool          `json:"hasNext"`
	Error   string        `json:"error,omitempty"`
}

// OK reports whether the request succeeded.
func (r BenchResult) OK() bool {
	return r.Error == ""
}

// Bench times one paginated request per page size in counts. A failed request
// is recorded in its result and does not stop the benchmark; cancellation does.
func (c *Client) Bench(ctx context.Context, counts []int, category string) ([]BenchResult, error) {
	results := make([]BenchResult, 0, len(counts))
	for _, count := range counts {
		start := time.Now()
		page, size, err := c.paginated(ctx, Query{Count: count, Category: category})
		r := BenchResult{Count: count, Bytes: size, Elapsed: time.Since(start)}
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			r.Error = err.Error()
			c.logger.Warn("bench request failed", "count", count, "error", err)
		} else {
			r.Items = len(page.Items)
			r.HasNext = page.LastDoc() != ""
		}
		results = append(results, r)
	}
	return results, nil
}
