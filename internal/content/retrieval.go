// Package content fetches and exposes the bulk content collections of a
// project snapshot: posts, media, and their embedding sets.
//
// Collections are fetched wholesale through the revision-tagged cache and
// held as an in-memory snapshot that is replaced atomically on a successful
// fetch. Individual lookups read that snapshot and never issue per-item
// network requests.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pagecast/pagecast-go/internal/requestcache"
	"github.com/pagecast/pagecast-go/internal/revcache"
	"github.com/pagecast/pagecast-go/internal/revision"
)

const (
	postsPath          = "posts.json"
	mediaPath          = "media.json"
	postEmbeddingsPath = "embeddings/posts.json"
	mediaEmbedsPath    = "embeddings/media.json"
)

// Retrieval fetches and exposes bulk content collections.
type Retrieval struct {
	urls     *revision.URLBuilder
	requests *requestcache.Cache
	logger   *slog.Logger

	posts      *revcache.Cache[[]Post]
	media      *revcache.Cache[[]Media]
	postEmbeds *revcache.Cache[map[string][]float32]
	mediaEmbs  *revcache.Cache[map[string][]float32]

	snapshot      atomic.Pointer[postSnapshot]
	mediaSnapshot atomic.Pointer[mediaSnapshot]
}

// postSnapshot is the last successfully fetched posts collection with its
// lookup maps, swapped in as one unit.
type postSnapshot struct {
	revision string
	posts    []Post
	byHash   map[string]*Post
	bySlug   map[string]*Post
	byPath   map[string]*Post
}

type mediaSnapshot struct {
	revision string
	media    []Media
	byHash   map[string]*Media
	byPath   map[string]*Media
}

// Options configures a Retrieval.
type Options struct {
	URLs       *revision.URLBuilder
	Requests   *requestcache.Cache
	MaxEntries int
	MaxAge     time.Duration
	Logger     *slog.Logger
}

// NewRetrieval creates a content retrieval layer. Cached collections are
// tagged with the resolver's active revision and dropped on mismatch.
func NewRetrieval(opts Options) *Retrieval {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cacheOpts := revcache.Options{
		MaxEntries: opts.MaxEntries,
		MaxAge:     opts.MaxAge,
		Source:     opts.URLs,
		Logger:     logger,
	}
	return &Retrieval{
		urls:       opts.URLs,
		requests:   opts.Requests,
		logger:     logger,
		posts:      revcache.New[[]Post](cacheOpts),
		media:      revcache.New[[]Media](cacheOpts),
		postEmbeds: revcache.New[map[string][]float32](cacheOpts),
		mediaEmbs:  revcache.New[map[string][]float32](cacheOpts),
	}
}

// URLs returns the URL builder this retrieval layer is scoped to.
func (r *Retrieval) URLs() *revision.URLBuilder {
	return r.urls
}

// GetAllPosts returns the project's posts collection. With useCache the
// revision-tagged cache decides staleness; useCache=false or forceRefresh
// bypasses every cache layer and re-fetches from the network.
func (r *Retrieval) GetAllPosts(ctx context.Context, useCache, forceRefresh bool) ([]Post, error) {
	if useCache && !forceRefresh {
		return r.posts.GetOrFetch(ctx, postsPath, func(ctx context.Context) ([]Post, error) {
			return r.fetchPosts(ctx, false)
		})
	}
	posts, err := r.fetchPosts(ctx, true)
	if err != nil {
		return nil, err
	}
	r.posts.Set(postsPath, posts)
	return posts, nil
}

// fetchPosts pulls the posts collection for the active revision and swaps
// the in-memory snapshot. Retrieval errors surface as-is; the previous
// snapshot is left untouched on failure.
func (r *Retrieval) fetchPosts(ctx context.Context, noCache bool) ([]Post, error) {
	url, err := r.urls.RevisionURL(ctx, postsPath)
	if err != nil {
		return nil, err
	}
	payload, err := requestcache.FetchJSON[postsPayload](ctx, r.requests, url, &requestcache.RequestOptions{NoCache: noCache})
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	posts := payload.Posts
	for i := range posts {
		if posts[i].Plain == "" && posts[i].Content != "" {
			posts[i].Plain = PlainText([]byte(posts[i].Content))
		}
	}

	snap := &postSnapshot{
		revision: r.urls.ActiveRev(),
		posts:    posts,
		byHash:   make(map[string]*Post, len(posts)),
		bySlug:   make(map[string]*Post, len(posts)),
		byPath:   make(map[string]*Post, len(posts)),
	}
	for i := range posts {
		p := &posts[i]
		snap.byHash[p.Hash] = p
		snap.bySlug[p.Slug] = p
		snap.byPath[p.Path] = p
	}
	r.snapshot.Store(snap)
	r.logger.Debug("replaced posts snapshot", "revision", snap.revision, "posts", len(posts))
	return posts, nil
}

// GetPostByHash looks a post up by content hash in the current snapshot,
// fetching the collection once if none is held yet.
func (r *Retrieval) GetPostByHash(ctx context.Context, hash string) (*Post, error) {
	snap, err := r.ensureSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := snap.byHash[hash]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: hash %q", ErrPostNotFound, hash)
}

// GetPostBySlug looks a post up by slug in the current snapshot.
func (r *Retrieval) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	snap, err := r.ensureSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := snap.bySlug[slug]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: slug %q", ErrPostNotFound, slug)
}

// GetPostByPath looks a post up by path in the current snapshot.
func (r *Retrieval) GetPostByPath(ctx context.Context, path string) (*Post, error) {
	snap, err := r.ensureSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := snap.byPath[path]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: path %q", ErrPostNotFound, path)
}

func (r *Retrieval) ensureSnapshot(ctx context.Context) (*postSnapshot, error) {
	if snap := r.snapshot.Load(); snap != nil && !r.snapshotStale(snap.revision) {
		return snap, nil
	}
	if _, err := r.GetAllPosts(ctx, true, false); err != nil {
		return nil, err
	}
	return r.snapshot.Load(), nil
}

// snapshotStale reports whether a snapshot revision is superseded by a
// defined active revision. Lookups must never resolve against records from
// a revision known to be replaced.
func (r *Retrieval) snapshotStale(rev string) bool {
	active := r.urls.ActiveRev()
	return active != "" && rev != active
}

// GetAllMedia returns the project's media collection, with the same cache
// semantics as GetAllPosts.
func (r *Retrieval) GetAllMedia(ctx context.Context, useCache, forceRefresh bool) ([]Media, error) {
	if useCache && !forceRefresh {
		return r.media.GetOrFetch(ctx, mediaPath, func(ctx context.Context) ([]Media, error) {
			return r.fetchMedia(ctx, false)
		})
	}
	media, err := r.fetchMedia(ctx, true)
	if err != nil {
		return nil, err
	}
	r.media.Set(mediaPath, media)
	return media, nil
}

func (r *Retrieval) fetchMedia(ctx context.Context, noCache bool) ([]Media, error) {
	url, err := r.urls.RevisionURL(ctx, mediaPath)
	if err != nil {
		return nil, err
	}
	payload, err := requestcache.FetchJSON[mediaPayload](ctx, r.requests, url, &requestcache.RequestOptions{NoCache: noCache})
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}

	media := payload.Media
	snap := &mediaSnapshot{
		revision: r.urls.ActiveRev(),
		media:    media,
		byHash:   make(map[string]*Media, len(media)),
		byPath:   make(map[string]*Media, len(media)),
	}
	for i := range media {
		m := &media[i]
		snap.byHash[m.Hash] = m
		snap.byPath[m.Path] = m
	}
	r.mediaSnapshot.Store(snap)
	r.logger.Debug("replaced media snapshot", "revision", snap.revision, "media", len(media))
	return media, nil
}

// GetMediaByHash looks a media record up by content hash.
func (r *Retrieval) GetMediaByHash(ctx context.Context, hash string) (*Media, error) {
	snap, err := r.ensureMediaSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if m, ok := snap.byHash[hash]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: hash %q", ErrMediaNotFound, hash)
}

// GetMediaByPath looks a media record up by path.
func (r *Retrieval) GetMediaByPath(ctx context.Context, path string) (*Media, error) {
	snap, err := r.ensureMediaSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if m, ok := snap.byPath[path]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: path %q", ErrMediaNotFound, path)
}

func (r *Retrieval) ensureMediaSnapshot(ctx context.Context) (*mediaSnapshot, error) {
	if snap := r.mediaSnapshot.Load(); snap != nil && !r.snapshotStale(snap.revision) {
		return snap, nil
	}
	if _, err := r.GetAllMedia(ctx, true, false); err != nil {
		return nil, err
	}
	return r.mediaSnapshot.Load(), nil
}

// GetPostEmbeddings returns the text-space embedding set for the active
// revision, keyed by post hash.
func (r *Retrieval) GetPostEmbeddings(ctx context.Context) (map[string][]float32, error) {
	return r.postEmbeds.GetOrFetch(ctx, postEmbeddingsPath, func(ctx context.Context) (map[string][]float32, error) {
		return r.fetchEmbeddings(ctx, postEmbeddingsPath)
	})
}

// GetMediaEmbeddings returns the CLIP-space embedding set for the active
// revision, keyed by media hash. Never comparable with the text space.
func (r *Retrieval) GetMediaEmbeddings(ctx context.Context) (map[string][]float32, error) {
	return r.mediaEmbs.GetOrFetch(ctx, mediaEmbedsPath, func(ctx context.Context) (map[string][]float32, error) {
		return r.fetchEmbeddings(ctx, mediaEmbedsPath)
	})
}

func (r *Retrieval) fetchEmbeddings(ctx context.Context, path string) (map[string][]float32, error) {
	url, err := r.urls.RevisionURL(ctx, path)
	if err != nil {
		return nil, err
	}
	payload, err := requestcache.FetchJSON[embeddingsPayload](ctx, r.requests, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings %s: %w", path, err)
	}
	return payload.Embeddings, nil
}
