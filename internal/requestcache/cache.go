// Package requestcache provides a bounded, single-flight HTTP request cache.
//
// GET responses are cached by URL with size and age limits, and concurrent
// requests for the same not-yet-cached URL are collapsed into one network
// call. Mutating requests bypass the cache entirely. The cache has no
// revision awareness; see the revcache package for that layer.
package requestcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxEntries bounds the number of cached response bodies.
	DefaultMaxEntries = 256

	// DefaultMaxAge is how long a cached response stays usable.
	DefaultMaxAge = 5 * time.Minute
)

// Options configures a Cache.
type Options struct {
	// MaxEntries bounds cache size; oldest entries are evicted first.
	// Defaults to DefaultMaxEntries.
	MaxEntries int

	// MaxAge is the time-to-live for cached responses.
	// Defaults to DefaultMaxAge.
	MaxAge time.Duration

	// HTTPClient overrides the HTTP client used for fetches.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Cache is a bounded request cache with single-flight de-duplication.
type Cache struct {
	store  *expirable.LRU[string, []byte]
	flight singleflight.Group
	client *http.Client
	logger *slog.Logger
}

// New creates a Cache with the given options.
func New(opts Options) *Cache {
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  expirable.NewLRU[string, []byte](maxEntries, nil, maxAge),
		client: client,
		logger: logger,
	}
}

// RequestOptions configures a single fetch.
type RequestOptions struct {
	// Method defaults to GET. Any other method bypasses the cache.
	Method string

	// Body is the request body for mutating requests.
	Body []byte

	// Header is merged into the request headers.
	Header http.Header

	// NoCache skips the value cache for this call (read and write).
	// Concurrent identical calls are still collapsed into one request.
	NoCache bool
}

// Fetch performs an HTTP request with caching and de-duplication.
// Returns the raw response body.
func (c *Cache) Fetch(ctx context.Context, url string, opts *RequestOptions) ([]byte, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	// Mutating requests never touch the cache or the in-flight map.
	if method != http.MethodGet {
		return c.do(ctx, method, url, opts)
	}

	if !opts.NoCache {
		if body, ok := c.store.Get(url); ok {
			c.logger.Debug("request cache hit", "url", url)
			return body, nil
		}
	}

	body, err, shared := c.flight.Do(url, func() (any, error) {
		// Another caller may have populated the store while we waited
		// for the flight slot.
		if !opts.NoCache {
			if cached, ok := c.store.Get(url); ok {
				return cached, nil
			}
		}
		fetched, err := c.do(ctx, method, url, opts)
		if err != nil {
			return nil, err
		}
		if !opts.NoCache {
			c.store.Add(url, fetched)
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("request collapsed into in-flight fetch", "url", url)
	}
	return body.([]byte), nil
}

// do performs the physical HTTP request without any caching.
func (c *Cache) do(ctx context.Context, method, url string, opts *RequestOptions) ([]byte, error) {
	var reqBody io.Reader
	if len(opts.Body) > 0 {
		reqBody = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	return body, nil
}

// Invalidate drops the cached response for a URL, if present.
func (c *Cache) Invalidate(url string) {
	c.store.Remove(url)
}

// Purge drops every cached response.
func (c *Cache) Purge() {
	c.store.Purge()
}

// Len returns the number of cached responses.
func (c *Cache) Len() int {
	return c.store.Len()
}

// FetchJSON fetches a URL through the cache and decodes the JSON body into T.
func FetchJSON[T any](ctx context.Context, c *Cache, url string, opts *RequestOptions) (T, error) {
	var out T
	body, err := c.Fetch(ctx, url, opts)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return out, nil
}

// Result is the structured alternative to a returned error, for call sites
// that must not abort a batch on a single failure.
type Result[T any] struct {
	OK   bool
	Data T
	Err  error
}

// FetchJSONSafe is FetchJSON with errors folded into the result. On failure
// Data holds fallback instead of the zero value.
func FetchJSONSafe[T any](ctx context.Context, c *Cache, url string, opts *RequestOptions, fallback T) Result[T] {
	data, err := FetchJSON[T](ctx, c, url, opts)
	if err != nil {
		return Result[T]{OK: false, Data: fallback, Err: err}
	}
	return Result[T]{OK: true, Data: data}
}
