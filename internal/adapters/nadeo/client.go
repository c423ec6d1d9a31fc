// Package nadeo talks to the Ubisoft identity service and the Trackmania live
// services: authentication, the official campaign catalog, map metadata and
// leaderboard times.
package nadeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/atdiff/pkg/metrics"
)

// Default endpoints and identifiers of the public web API.
const (
	DefaultIdentityURL = "https://public-ubiservices.ubi.com"
	DefaultCoreURL     = "https://prod.trackmania.core.nadeo.online"
	DefaultLiveURL     = "https://live-services.trackmania.nadeo.live"
	DefaultAppID       = "86263886-327a-4328-ac69-527f0d20a237"
	DefaultAudience    = "NadeoLiveServices"

	defaultTokenLifetime = time.Hour
	maxErrorBody         = 512
)

// Client is a synchronous client for the game web API. It holds no credentials;
// every call that needs them receives them explicitly.
type Client struct {
	httpClient    *http.Client
	timeout       time.Duration
	identityURL   string
	coreURL       string
	liveURL       string
	appID         string
	audience      string
	tokenLifetime time.Duration
	now           func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a per-request timeout; zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithIdentityURL overrides the identity service base URL.
func WithIdentityURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.identityURL = u
		}
	}
}

// WithCoreURL overrides the core token service base URL.
func WithCoreURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.coreURL = u
		}
	}
}

// WithLiveURL overrides the live services base URL.
func WithLiveURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.liveURL = u
		}
	}
}

// WithAppID overrides the Ubi-AppId header value.
func WithAppID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.appID = id
		}
	}
}

// WithAudience overrides the requested token audience.
func WithAudience(a string) Option {
	return func(c *Client) {
		if a != "" {
			c.audience = a
		}
	}
}

// WithTokenLifetime sets the lifetime assumed for tokens whose expiry cannot be read.
func WithTokenLifetime(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.tokenLifetime = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Client with the public endpoints as defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{},
		identityURL:   DefaultIdentityURL,
		coreURL:       DefaultCoreURL,
		liveURL:       DefaultLiveURL,
		appID:         DefaultAppID,
		audience:      DefaultAudience,
		tokenLifetime: defaultTokenLifetime,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// call describes one JSON round trip.
type call struct {
	op      string // metric label and error prefix
	method  string
	url     string
	headers map[string]string
	body    any
	kind    error // ErrAuth or ErrFetch
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%w: %s: encode body: %w", cl.kind, cl.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, body)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", cl.kind, cl.op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordUpstreamRequest(cl.op, "error", latency)
		return fmt.Errorf("%w: %s: %w", cl.kind, cl.op, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(cl.op, strconv.Itoa(resp.StatusCode), latency)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:     cl.op,
			URL:    cl.url,
			Code:   resp.StatusCode,
			Status: http.StatusText(resp.StatusCode),
			Body:   string(bytes.TrimSpace(snippet)),
			kind:   cl.kind,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w: %w", cl.kind, cl.op, ErrDecode, err)
	}
	return nil
}
