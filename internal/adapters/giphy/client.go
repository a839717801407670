// Package giphy looks up sign demonstration GIFs.
package giphy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/okian/signconnect/pkg/metrics"
)

// Defaults.
const (
	DefaultURL     = "https://api.giphy.com/v1/gifs/search"
	DefaultTimeout = 5 * time.Second
)

// Sentinel errors.
var (
	ErrNotConfigured = errors.New("giphy api key not configured")
	ErrEmptyQuery    = errors.New("query is required")
	ErrUpstream      = errors.New("giphy request failed")
)

// Doer performs HTTP requests. *fasthttp.Client implements it.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// Client queries the GIF search API.
type Client struct {
	url     string
	apiKey  string
	timeout time.Duration
	doer    Doer
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithURL overrides the search endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDoer replaces the HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// New creates a client using apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		url:     DefaultURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		doer:    &fasthttp.Client{Name: "signconnect"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Query builds the search phrase for text.
func Query(text string) string {
	return "ASL " + strings.TrimSpace(text)
}

type searchResponse struct {
	Data []struct {
		Images struct {
			Downsized struct {
				URL string `json:"url"`
			} `json:"downsized"`
		} `json:"images"`
	} `json:"data"`
}

// Search returns the downsized URL of the best GIF for text, or "" when
// nothing matched.
func (c *Client) Search(ctx context.Context, text string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("gif search: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	args := req.URI().QueryArgs()
	args.Set("api_key", c.apiKey)
	args.Set("q", Query(text))
	args.Set("limit", "1")

	start := time.Now()
	err := c.doer.DoTimeout(req, resp, c.timeout)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordExternalCall("giphy", "error", latency)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		metrics.RecordExternalCall("giphy", "bad_status", latency)
		return "", fmt.Errorf("%w: status %d", ErrUpstream, code)
	}

	var out searchResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		metrics.RecordExternalCall("giphy", "bad_body", latency)
		return "", fmt.Errorf("%w: decode: %w", ErrUpstream, err)
	}
	metrics.RecordExternalCall("giphy", "ok", latency)

	if len(out.Data) == 0 {
		return "", nil
	}
	return out.Data[0].Images.Downsized.URL, nil
}
