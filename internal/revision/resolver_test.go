package revision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagecast/pagecast-go/internal/requestcache"
)

func newRevServer(t *testing.T, rev *atomic.Value, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"revision":"` + rev.Load().(string) + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPResolver_ResolveAndMemoize(t *testing.T) {
	var rev atomic.Value
	rev.Store("rev-1")
	var hits atomic.Int64
	srv := newRevServer(t, &rev, &hits)

	resolver := NewHTTPResolver(srv.URL, requestcache.New(requestcache.Options{}), nil)
	ctx := context.Background()

	assert.Equal(t, "", resolver.ActiveRev(), "no revision before first resolution")

	got, err := resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", got)
	assert.Equal(t, "rev-1", resolver.ActiveRev())

	// Memoized: further resolves must not hit the endpoint.
	for i := 0; i < 3; i++ {
		got, err = resolver.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "rev-1", got)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestHTTPResolver_RefreshObservesNewRevision(t *testing.T) {
	var rev atomic.Value
	rev.Store("rev-1")
	var hits atomic.Int64
	srv := newRevServer(t, &rev, &hits)

	resolver := NewHTTPResolver(srv.URL, requestcache.New(requestcache.Options{}), nil)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx)
	require.NoError(t, err)

	// Simulate a deploy: the endpoint now reports a new revision. Without a
	// refresh the resolver keeps serving the memoized one.
	rev.Store("rev-2")
	got, err := resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", got)

	resolver.Refresh()
	assert.Equal(t, "", resolver.ActiveRev(), "refresh drops the memoized value")

	got, err = resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-2", got)
	assert.Equal(t, int64(2), hits.Load(), "only the two uncached resolves hit the endpoint")
}

func TestHTTPResolver_FailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(srv.URL, requestcache.New(requestcache.Options{}), nil)

	_, err := resolver.Resolve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, requestcache.ErrServer)
	assert.Equal(t, "", resolver.ActiveRev(), "a failed resolution must not memoize anything")
}

func TestHTTPResolver_EmptyRevisionIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"revision":""}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(srv.URL, requestcache.New(requestcache.Options{}), nil)

	_, err := resolver.Resolve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, requestcache.ErrInvalidResponse)
}

func TestPinnedResolver(t *testing.T) {
	resolver := NewPinnedResolver("pinned-rev")

	assert.Equal(t, "pinned-rev", resolver.ActiveRev())

	got, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pinned-rev", got)

	// Refresh is a no-op for a pin.
	resolver.Refresh()
	assert.Equal(t, "pinned-rev", resolver.ActiveRev())
}

func TestURLBuilder_RevisionURL(t *testing.T) {
	b := NewURLBuilder("https://cdn.example.com/", "", "blog", NewPinnedResolver("abc123"))

	url, err := b.RevisionURL(context.Background(), "/posts.json")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/blog/_data/abc123/posts.json", url)

	// Leading slash on the path must not double up.
	url, err = b.RevisionURL(context.Background(), "embeddings/posts.json")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/blog/_data/abc123/embeddings/posts.json", url)
}

func TestURLBuilder_ProjectAndMediaURLs(t *testing.T) {
	b := NewURLBuilder("https://cdn.example.com", "https://media.example.com/", "blog", NewPinnedResolver("abc123"))

	assert.Equal(t, "https://cdn.example.com/blog/rev.json", b.ProjectURL("rev.json"))
	assert.Equal(t, "https://media.example.com/blog/images/cat.jpg", b.MediaURL("/images/cat.jpg"))
}

func TestURLBuilder_MediaFallsBackToBase(t *testing.T) {
	b := NewURLBuilder("https://cdn.example.com", "", "blog", NewPinnedResolver(""))
	assert.Equal(t, "https://cdn.example.com/blog/images/cat.jpg", b.MediaURL("images/cat.jpg"))
}

func TestRevisionEndpoint(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/blog/rev.json", RevisionEndpoint("https://cdn.example.com/", "blog"))
}
