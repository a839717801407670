// Package predictor forwards camera frames to the gesture classifier
// service over HTTP.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/okian/signconnect/internal/domain/predict"
	"github.com/okian/signconnect/pkg/metrics"
)

// DefaultTimeout bounds one classifier call.
const DefaultTimeout = 5 * time.Second

const formField = "image"

// Sentinel errors.
var (
	ErrNotConfigured = errors.New("predictor url not configured")
	ErrUpstream      = errors.New("predictor request failed")
)

// Doer performs HTTP requests. *fasthttp.Client implements it.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// Client is a predict.Predictor backed by a remote classifier that accepts
// a multipart "image" field and answers {"prediction": "<label>"}.
type Client struct {
	url     string
	timeout time.Duration
	doer    Doer
}

var _ predict.Predictor = (*Client)(nil)

// Option applies a configuration option to the Client.
type Option func(*Client)

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

// New creates a client for the classifier at url.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		timeout: DefaultTimeout,
		doer:    &fasthttp.Client{Name: "signconnect"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a classifier URL is set.
func (c *Client) Configured() bool { return c.url != "" }

type response struct {
	Prediction string `json:"prediction"`
}

// Predict uploads img and returns the raw classifier label.
func (c *Client) Predict(ctx context.Context, img predict.Image) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return "", fmt.Errorf("predict: %w", context.DeadlineExceeded)
		}
		if left < timeout {
			timeout = left
		}
	}

	body, contentType, err := encodeImage(img)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(contentType)
	req.SetBodyRaw(body)

	start := time.Now()
	err = c.doer.DoTimeout(req, resp, timeout)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordExternalCall("predictor", "error", latency)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		metrics.RecordExternalCall("predictor", "bad_status", latency)
		return "", fmt.Errorf("%w: status %d", ErrUpstream, code)
	}

	var out response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		metrics.RecordExternalCall("predictor", "bad_body", latency)
		return "", fmt.Errorf("%w: decode: %w", ErrUpstream, err)
	}
	metrics.RecordExternalCall("predictor", "ok", latency)
	return out.Prediction, nil
}

func encodeImage(img predict.Image) ([]byte, string, error) {
	filename := img.Filename
	if filename == "" {
		filename = "gesture.jpg"
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
