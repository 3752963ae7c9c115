package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/wmsync/internal/httpclient"
)

const (
	// DefaultAPIVersion is the Admin API version used when none is configured.
	DefaultAPIVersion = "2024-01"

	// HeaderAccessToken carries the Admin API access token.
	HeaderAccessToken = "X-Shopify-Access-Token" //nolint:gosec // header name, not a credential
)

// Config identifies the store and credentials.
type Config struct {
	// Shop is the shop domain ("example.myshopify.com") or bare shop name.
	Shop string

	// AccessToken is the Admin API access token.
	AccessToken string

	// APIVersion is the Admin API version, e.g. "2024-01".
	APIVersion string

	// BaseURL overrides the derived https://{shop}/admin/api/{version} root.
	BaseURL string
}

// Client calls the Shopify Admin REST API.
// It is safe for concurrent use.
type Client struct {
	http    *httpclient.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

// BaseURL returns the Admin API root for shop and version. A bare shop
// name gets the myshopify.com domain.
func BaseURL(shop, version string) string {
	shop = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(shop, "https://"), "http://"), "/")
	if !strings.Contains(shop, ".") {
		shop += ".myshopify.com"
	}
	if version == "" {
		version = DefaultAPIVersion
	}
	return fmt.Sprintf("https://%s/admin/api/%s", shop, version)
}

// NewClient creates a Client that sends requests through hc.
func NewClient(cfg Config, hc *httpclient.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Shop) == "" && cfg.BaseURL == "" {
		return nil, ErrMissingShop
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, ErrMissingToken
	}
	base := cfg.BaseURL
	if base == "" {
		base = BaseURL(cfg.Shop, cfg.APIVersion)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimSuffix(base, "/"),
		token:   cfg.AccessToken,
		logger:  logger,
	}, nil
}

// do sends a request. path is relative to the API root unless it is an
// absolute URL (pagination links). in is JSON encoded as the body when
// non-nil; out is decoded from the response when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (*httpclient.Response, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + path
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	resp, err := c.http.Do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set(HeaderAccessToken, c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if out != nil && len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return resp, nil
}

// Shop returns the store's details. It doubles as a credentials check.
func (c *Client) Shop(ctx context.Context) (*Shop, error) {
	var out struct {
		Shop Shop `json:"shop"`
	}
	if _, err := c.do(ctx, "shopify shop", http.MethodGet, "/shop.json", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Shop, nil
}
