package walmart

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nao1215/wmsync/internal/httpclient"
)

// Default endpoints of the affiliate product API.
const (
	DefaultItemsURL  = "https://developer.api.walmart.com/api-proxy/service/affil/product/v2/paginated/items"
	DefaultLookupURL = "https://developer.api.walmart.com/api-proxy/service/affil/product/v2/items"
	DefaultSearchURL = "https://developer.api.walmart.com/api-proxy/service/affil/product/v2/search"
)

// Config holds the endpoints and affiliate identifiers for a Client.
type Config struct {
	// ItemsURL is the paginated catalog endpoint.
	ItemsURL string

	// LookupURL is the items-by-ids endpoint.
	LookupURL string

	// SearchURL is the keyword search endpoint.
	SearchURL string

	// LookupBatch is the number of identifiers per lookup request. Zero or
	// anything above MaxIDsPerLookup means MaxIDsPerLookup.
	LookupBatch int

	// Affiliate identifies the publisher for tracking links and requests.
	Affiliate AffiliateIDs
}

// Client calls the Walmart Affiliate API.
// It is safe for concurrent use.
type Client struct {
	signer *Signer
	http   *httpclient.Client
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a Client. Requests are signed by signer and sent through
// hc, whose limiter also spaces paginated requests.
func NewClient(signer *Signer, hc *httpclient.Client, cfg Config, logger *slog.Logger) *Client {
	if cfg.ItemsURL == "" {
		cfg.ItemsURL = DefaultItemsURL
	}
	if cfg.LookupURL == "" {
		cfg.LookupURL = DefaultLookupURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.LookupBatch <= 0 || cfg.LookupBatch > MaxIDsPerLookup {
		cfg.LookupBatch = MaxIDsPerLookup
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{signer: signer, http: hc, cfg: cfg, logger: logger}
}

// Signer returns the request signer.
func (c *Client) Signer() *Signer {
	return c.signer
}

// get sends a signed GET to endpoint with params and returns the body.
func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse %s URL: %w", op, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	target := u.String()

	resp, err := c.http.Do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		if err := c.signer.Apply(req); err != nil {
			return nil, err
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// affiliateParams adds the configured publisher identifiers to params.
func (c *Client) affiliateParams(params url.Values) {
	if c.cfg.Affiliate.PublisherID != "" {
		params.Set("publisherId", c.cfg.Affiliate.PublisherID)
	}
	if c.cfg.Affiliate.CampaignID != "" {
		params.Set("campaignId", c.cfg.Affiliate.CampaignID)
	}
	if c.cfg.Affiliate.AdID != "" {
		params.Set("adId", c.cfg.Affiliate.AdID)
	}
}

// AffiliateLink returns the tracking link for item using the client's publisher IDs.
func (c *Client) AffiliateLink(item Item) string {
	return AffiliateLink(item, c.cfg.Affiliate)
}
