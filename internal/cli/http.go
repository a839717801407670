package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/signconnect/internal/domain/types"
)

// ErrAPI is returned for non-2xx answers.
var ErrAPI = errors.New("api error")

// httpClient wraps http.Client with the service base URL.
type httpClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(cfg *Config) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// apiErrorBody mirrors the service error envelope.
type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends a request with an optional JSON body and decodes a JSON answer
// into out when it is non-nil.
func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		var e apiErrorBody
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("%w: %d %s: %s", ErrAPI, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%w: %d", ErrAPI, resp.StatusCode)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *httpClient) createSession(ctx context.Context) (types.Session, error) {
	var s types.Session
	err := c.do(ctx, http.MethodPost, "/sessions", nil, &s)
	return s, err
}

func (c *httpClient) deleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

func (c *httpClient) setSpeed(ctx context.Context, id string, step time.Duration) error {
	body := map[string]int{"step_duration_ms": int(step.Milliseconds())}
	return c.do(ctx, http.MethodPut, "/sessions/"+url.PathEscape(id)+"/speed", body, nil)
}

func (c *httpClient) words(ctx context.Context) (types.Words, error) {
	var w types.Words
	err := c.do(ctx, http.MethodGet, "/signs", nil, &w)
	return w, err
}

func (c *httpClient) token(ctx context.Context, identity, room string) (types.Token, error) {
	var t types.Token
	body := map[string]string{"identity": identity, "room": room}
	err := c.do(ctx, http.MethodPost, "/token", body, &t)
	return t, err
}

// streamURL turns the base URL into the WebSocket URL of a session stream.
func (c *httpClient) streamURL(id string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/sessions/" + url.PathEscape(id) + "/stream"
	return u.String(), nil
}
