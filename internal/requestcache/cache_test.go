package requestcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCountingServer returns a test server that counts requests and serves body.
func newCountingServer(t *testing.T, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_CachesGetResponses(t *testing.T) {
	var hits atomic.Int64
	srv := newCountingServer(t, `{"ok":true}`, &hits)

	cache := New(Options{})
	ctx := context.Background()

	first, err := cache.Fetch(ctx, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(first))

	second, err := cache.Fetch(ctx, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	assert.Equal(t, int64(1), hits.Load(), "second fetch should be served from cache")
	assert.Equal(t, 1, cache.Len())
}

func TestFetch_NoCacheBypassesStore(t *testing.T) {
	var hits atomic.Int64
	srv := newCountingServer(t, "payload", &hits)

	cache := New(Options{})
	ctx := context.Background()

	_, err := cache.Fetch(ctx, srv.URL, &RequestOptions{NoCache: true})
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, srv.URL, &RequestOptions{NoCache: true})
	require.NoError(t, err)

	assert.Equal(t, int64(2), hits.Load(), "NoCache fetches should hit the network every time")
	assert.Equal(t, 0, cache.Len(), "NoCache responses should not be stored")
}

func TestFetch_NonGetBypassesCache(t *testing.T) {
	var hits atomic.Int64
	srv := newCountingServer(t, "created", &hits)

	cache := New(Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := cache.Fetch(ctx, srv.URL, &RequestOptions{Method: http.MethodPost, Body: []byte(`{}`)})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), hits.Load())
	assert.Equal(t, 0, cache.Len())
}

// TestFetch_SingleFlight verifies that concurrent fetches for the same URL
// collapse into one network request.
func TestFetch_SingleFlight(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte("shared"))
	}))
	defer srv.Close()

	cache := New(Options{})
	ctx := context.Background()

	const callers = 10
	var wg sync.WaitGroup
	results := make([][]byte, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Fetch(ctx, srv.URL, nil)
		}(i)
	}

	// Let all goroutines pile onto the in-flight request, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", string(results[i]))
	}
	assert.Equal(t, int64(1), hits.Load(), "concurrent fetches should share one request")
}

func TestFetch_StatusErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrAuth},
		{"forbidden", http.StatusForbidden, ErrAuth},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"internal error", http.StatusInternalServerError, ErrServer},
		{"bad gateway", http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cache := New(Options{})
			_, err := cache.Fetch(context.Background(), srv.URL, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, srv.URL, statusErr.URL)
		})
	}
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	cache := New(Options{})
	ctx := context.Background()

	_, err := cache.Fetch(ctx, srv.URL, nil)
	require.ErrorIs(t, err, ErrServer)
	assert.Equal(t, 0, cache.Len(), "failed responses must not be cached")

	body, err := cache.Fetch(ctx, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(body))
}

func TestFetch_NetworkError(t *testing.T) {
	cache := New(Options{HTTPClient: &http.Client{Timeout: 100 * time.Millisecond}})

	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := cache.Fetch(context.Background(), url, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetch_MaxAgeExpiry(t *testing.T) {
	var hits atomic.Int64
	srv := newCountingServer(t, "fresh", &hits)

	cache := New(Options{MaxAge: 50 * time.Millisecond})
	ctx := context.Background()

	_, err := cache.Fetch(ctx, srv.URL, nil)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = cache.Fetch(ctx, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load(), "expired entry should be refetched")
}

func TestFetch_MaxEntriesBound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	cache := New(Options{MaxEntries: 2})
	ctx := context.Background()

	for _, path := range []string{"/a", "/b", "/c", "/d"} {
		_, err := cache.Fetch(ctx, srv.URL+path, nil)
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, cache.Len(), 2, "cache must stay within its entry bound")
}

func TestInvalidateAndPurge(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	cache := New(Options{})
	ctx := context.Background()

	_, err := cache.Fetch(ctx, srv.URL+"/a", nil)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, srv.URL+"/b", nil)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	cache.Invalidate(srv.URL + "/a")
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Fetch(ctx, srv.URL+"/a", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), hits.Load(), "invalidated URL should refetch")

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestFetchJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"posts","count":7}`))
	}))
	defer srv.Close()

	cache := New(Options{})
	got, err := FetchJSON[payload](context.Background(), cache, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "posts", Count: 7}, got)
}

func TestFetchJSON_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	cache := New(Options{})
	_, err := FetchJSON[map[string]any](context.Background(), cache, srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestFetchJSONSafe_FallbackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cache := New(Options{})
	fallback := []string{"default"}
	result := FetchJSONSafe(context.Background(), cache, srv.URL, nil, fallback)

	assert.False(t, result.OK)
	assert.Equal(t, fallback, result.Data)
	assert.ErrorIs(t, result.Err, ErrNotFound)
}

func TestFetchJSONSafe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["a","b"]`))
	}))
	defer srv.Close()

	cache := New(Options{})
	result := FetchJSONSafe[[]string](context.Background(), cache, srv.URL, nil, nil)

	assert.True(t, result.OK)
	assert.NoError(t, result.Err)
	assert.Equal(t, []string{"a", "b"}, result.Data)
}
