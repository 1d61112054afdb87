package revcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a mutable RevisionSource for tests.
type fakeSource struct {
	rev string
}

func (s *fakeSource) ActiveRev() string { return s.rev }

func TestCache_SetGet(t *testing.T) {
	source := &fakeSource{rev: "rev-1"}
	cache := New[string](Options{Source: source})

	cache.Set("posts", "payload")

	got, ok := cache.Get("posts")
	require.True(t, ok)
	assert.Equal(t, "payload", got)

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

// TestCache_RevisionMismatchIsMiss verifies the core staleness contract:
// an entry written under one revision is never returned once a different
// revision is active, and the stale entry is dropped.
func TestCache_RevisionMismatchIsMiss(t *testing.T) {
	source := &fakeSource{rev: "rev-1"}
	cache := New[string](Options{Source: source})

	cache.Set("posts", "old payload")
	require.Equal(t, 1, cache.Len())

	source.rev = "rev-2"

	_, ok := cache.Get("posts")
	assert.False(t, ok, "entry from a superseded revision must be a miss")
	assert.Equal(t, 0, cache.Len(), "stale entry must be dropped on read")
}

func TestCache_EntryBeforeResolutionIsStaleAfter(t *testing.T) {
	source := &fakeSource{}
	cache := New[string](Options{Source: source})

	// Written while no revision is known: tagged "".
	cache.Set("posts", "pre-resolution payload")

	got, ok := cache.Get("posts")
	require.True(t, ok, "nothing is stale while no revision is known")
	assert.Equal(t, "pre-resolution payload", got)

	// Once a revision resolves, the ""-tagged entry is superseded.
	source.rev = "rev-1"
	_, ok = cache.Get("posts")
	assert.False(t, ok)
}

func TestCache_NopSourceNeverInvalidates(t *testing.T) {
	cache := New[int](Options{})

	cache.Set("count", 42)

	got, ok := cache.Get("count")
	require.True(t, ok)
	assert.Equal(t, 42, got)

	cache.InvalidateIfStale()
	_, ok = cache.Get("count")
	assert.True(t, ok, "without a revision source the cache is plain TTL/LRU")
}

func TestCache_GetOrFetch(t *testing.T) {
	source := &fakeSource{rev: "rev-1"}
	cache := New[[]string](Options{Source: source})
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	got, err := cache.GetOrFetch(ctx, "posts", fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = cache.GetOrFetch(ctx, "posts", fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, calls, "second call should be served from cache")

	// A revision change forces a refetch.
	source.rev = "rev-2"
	_, err = cache.GetOrFetch(ctx, "posts", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_GetOrFetch_ErrorNotCached(t *testing.T) {
	cache := New[string](Options{Source: &fakeSource{rev: "rev-1"}})
	ctx := context.Background()

	wantErr := errors.New("fetch failed")
	calls := 0

	_, err := cache.GetOrFetch(ctx, "posts", func(ctx context.Context) (string, error) {
		calls++
		return "", wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, cache.Len(), "failures must not be cached")

	got, err := cache.GetOrFetch(ctx, "posts", func(ctx context.Context) (string, error) {
		calls++
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 2, calls)
}

func TestCache_InvalidateIfStale(t *testing.T) {
	source := &fakeSource{rev: "rev-1"}
	cache := New[string](Options{Source: source})

	cache.Set("a", "1")
	cache.Set("b", "2")

	source.rev = "rev-2"
	cache.Set("c", "3")

	cache.InvalidateIfStale()
	assert.Equal(t, 1, cache.Len(), "only the current-revision entry survives")

	got, ok := cache.Get("c")
	require.True(t, ok)
	assert.Equal(t, "3", got)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache := New[string](Options{MaxAge: 50 * time.Millisecond, Source: &fakeSource{rev: "rev-1"}})

	cache.Set("posts", "payload")
	time.Sleep(100 * time.Millisecond)

	_, ok := cache.Get("posts")
	assert.False(t, ok, "entry should expire after MaxAge")
}

func TestCache_EntryBound(t *testing.T) {
	cache := New[int](Options{MaxEntries: 2, Source: &fakeSource{rev: "rev-1"}})

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)

	assert.LessOrEqual(t, cache.Len(), 2)

	_, ok := cache.Get("c")
	assert.True(t, ok, "newest entry must survive eviction")
}

func TestCache_InvalidateAndPurge(t *testing.T) {
	cache := New[string](Options{Source: &fakeSource{rev: "rev-1"}})

	cache.Set("a", "1")
	cache.Set("b", "2")

	cache.Invalidate("a")
	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}
