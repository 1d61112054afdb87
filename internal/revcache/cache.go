// Package revcache makes cached values safe to use across content revisions.
//
// Every entry records the revision that was active when it was written. A
// read compares that tag against the current revision and treats a mismatch
// as a miss, dropping the entry. Invalidation is lazy: there is no
// background sweep, because the platform has no revision-change notification
// channel to drive one.
package revcache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultMaxEntries bounds the number of cached values.
	DefaultMaxEntries = 64

	// DefaultMaxAge is the time-to-live for cached values.
	DefaultMaxAge = 5 * time.Minute
)

// RevisionSource reports the currently known active revision. An empty
// string means "not resolved yet" and never invalidates existing entries.
type RevisionSource interface {
	ActiveRev() string
}

// NopSource is the default capability when no revision semantics are
// wanted; with it the cache degrades to plain age/size-bounded caching.
type NopSource struct{}

func (NopSource) ActiveRev() string { return "" }

// entry pairs a value with the revision active at write time. Entries never
// escape the package.
type entry[T any] struct {
	value    T
	revision string
}

// Cache is a bounded, revision-tagged value cache.
type Cache[T any] struct {
	store  *expirable.LRU[string, entry[T]]
	source RevisionSource
	logger *slog.Logger
}

// Options configures a Cache.
type Options struct {
	MaxEntries int
	MaxAge     time.Duration

	// Source supplies the active revision for staleness checks.
	// Defaults to NopSource.
	Source RevisionSource

	Logger *slog.Logger
}

// New creates a revision-tagged cache.
func New[T any](opts Options) *Cache[T] {
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	source := opts.Source
	if source == nil {
		source = NopSource{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[T]{
		store:  expirable.NewLRU[string, entry[T]](maxEntries, nil, maxAge),
		source: source,
		logger: logger,
	}
}

// Get returns the cached value for key. An entry whose recorded revision is
// superseded by a defined, different active revision is dropped and reported
// as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	e, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	if stale, active := c.isStale(e.revision); stale {
		c.logger.Debug("dropping stale cache entry",
			"key", key, "entry_revision", e.revision, "active_revision", active)
		c.store.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value tagged with the currently active revision.
func (c *Cache[T]) Set(key string, value T) {
	c.store.Add(key, entry[T]{
		value:    value,
		revision: c.source.ActiveRev(),
	})
}

// GetOrFetch returns the cached value for key or fetches, stores, and
// returns a fresh one. Fetch failures are not cached.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// InvalidateIfStale drops every entry whose revision is superseded.
func (c *Cache[T]) InvalidateIfStale() {
	for _, key := range c.store.Keys() {
		if e, ok := c.store.Peek(key); ok {
			if stale, _ := c.isStale(e.revision); stale {
				c.store.Remove(key)
			}
		}
	}
}

// Invalidate drops a single entry.
func (c *Cache[T]) Invalidate(key string) {
	c.store.Remove(key)
}

// Purge drops every entry.
func (c *Cache[T]) Purge() {
	c.store.Purge()
}

// Len returns the number of cached entries, stale ones included.
func (c *Cache[T]) Len() int {
	return c.store.Len()
}

// isStale reports whether an entry revision is superseded by the active one.
// While no revision is known ("") nothing is treated as stale; once the
// source reports a defined revision, any entry tagged differently is stale,
// including entries written before the first resolution.
func (c *Cache[T]) isStale(entryRev string) (bool, string) {
	active := c.source.ActiveRev()
	if active == "" {
		return false, active
	}
	return entryRev != active, active
}
