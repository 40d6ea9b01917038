// Package openlibrary resolves books against the OpenLibrary catalog using the
// search, work and edition endpoints.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/openshelf/internal/cache"
	olerrors "github.com/lepinkainen/openshelf/internal/errors"
	"github.com/lepinkainen/openshelf/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public OpenLibrary host.
	DefaultBaseURL = "https://openlibrary.org"
	// DefaultTimeout bounds every catalog request.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies the client to OpenLibrary.
	DefaultUserAgent = "openshelf/1.0 (+https://github.com/lepinkainen/openshelf)"

	maxBodySize = 8 << 20
)

// Endpoint names used in errors, logs and cache tables.
const (
	EndpointSearch  = "search"
	EndpointWork    = "work"
	EndpointEdition = "edition"
)

// Client talks to the OpenLibrary API. The zero value is not usable; use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	cache      *cache.CacheDB
	cacheTTL   time.Duration
	limiter    *ratelimit.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithCache stores successful responses in db for ttl.
func WithCache(db *cache.CacheDB, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = db
		c.cacheTTL = ttl
	}
}

// WithRateLimiter makes every request wait on limiter first.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient creates a Client with the given options applied over the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		cacheTTL:   cache.DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get returns the body of a successful GET for pathQuery, consulting the
// response cache first when one is configured. A fetched body is cached only
// when validate accepts it, so a malformed answer is fetched again next time.
func (c *Client) get(ctx context.Context, endpoint, table, pathQuery string, validate func([]byte) error) (json.RawMessage, error) {
	body, hit, err := cache.GetOrFetch(c.cache, table, pathQuery, c.cacheTTL, func() (json.RawMessage, error) {
		body, err := c.fetch(ctx, endpoint, pathQuery)
		if err != nil {
			return nil, err
		}
		if err := validate(body); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	if hit {
		slog.Debug("Catalog response served from cache", "endpoint", endpoint, "path", pathQuery)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, pathQuery string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}

	url := c.baseURL + pathQuery
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	slog.Debug("Catalog request", "endpoint", endpoint, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s request: %w", endpoint, ctxErr)
		}
		return nil, olerrors.NewTransientError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, olerrors.NewRateLimitErrorWithRetry(
			fmt.Sprintf("%s request rate limited by OpenLibrary", endpoint),
			parseRetryAfter(resp.Header.Get("Retry-After")),
		)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, olerrors.NewTransientError(endpoint, fmt.Errorf("status %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, olerrors.NewMalformedResponseError(endpoint, "unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, olerrors.NewTransientError(endpoint, fmt.Errorf("reading body: %w", err))
	}
	if !isJSONObject(body) {
		return nil, olerrors.NewMalformedResponseError(endpoint, "body is not a JSON object")
	}
	return json.RawMessage(body), nil
}

func isJSONObject(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{") && json.Valid(body)
}

// parseRetryAfter understands the delay-seconds form of Retry-After.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
