// Package client is the HTTP accessor for a footswitch device's web API.
// Every method reads or fully replaces one resource.
package client

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
	"time"

	"golang.org/x/time/rate"

	"github.com/micro-nova/footswitch-go/internal/models"
)

const (
	// DefaultRequestsPerSecond keeps the device's small HTTP server from being
	// flooded when several resources save at once.
	DefaultRequestsPerSecond = 20
	defaultBurst             = 4
	defaultTimeout           = 10 * time.Second
	maxErrorBody             = 512

	apiKeyHeader = "api-key" // same as auth.HeaderName
)

// TransportError is a failed remote read or write.
type TransportError struct {
	Op     string // "GET" or "POST"
	URL    string
	Status int // 0 when no response was received
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		msg := fmt.Sprintf("%s %s: HTTP %d", e.Op, e.URL, e.Status)
		if e.Body != "" {
			msg += ": " + e.Body
		}
		return msg
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	APIKey            string
	RequestsPerSecond float64 // <= 0 uses DefaultRequestsPerSecond
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client talks to one device.
type Client struct {
	base    *url.URL
	http    *http.Client
	apiKey  string
	limiter *rate.Limiter
}

// New returns a client for the device at baseURL ("http://footswitch.local").
// A bare host is accepted and assumed to be http.
func New(baseURL string, opts Options) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid device URL %q: %w", baseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("client: device URL %q has no host", baseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &Client{
		base:    u,
		http:    hc,
		apiKey:  opts.APIKey,
		limiter: rate.NewLimiter(rate.Limit(rps), defaultBurst),
	}, nil
}

// BaseURL returns the device URL this client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = ""
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) post(ctx context.Context, path string, q url.Values, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, q, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out interface{}) error {
	target := c.endpoint(path, q)
	fail := func(status int, body string, err error) error {
		return &TransportError{Op: method, URL: target, Status: status, Body: body, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(0, "", err)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fail(0, "", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(0, "", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-store")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()
	slog.Debug("client: request", "method", method, "url", target, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var appErr models.AppError
		if json.Unmarshal(msg, &appErr) == nil && appErr.Code != "" {
			appErr.Status = resp.StatusCode
			return fail(resp.StatusCode, appErr.Message, &appErr)
		}
		return fail(resp.StatusCode, strings.TrimSpace(string(msg)), fmt.Errorf("unexpected status %s", resp.Status))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
