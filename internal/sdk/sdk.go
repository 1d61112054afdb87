// Package sdk assembles the Pagecast client SDK: revision resolution,
// request caching, content retrieval, and search, wired together per
// instance. Nothing here is shared between instances, so multiple SDKs
// (multi-tenant, test isolation) never leak state into each other.
package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pagecast/pagecast-go/internal/content"
	"github.com/pagecast/pagecast-go/internal/inference"
	"github.com/pagecast/pagecast-go/internal/requestcache"
	"github.com/pagecast/pagecast-go/internal/revision"
	"github.com/pagecast/pagecast-go/internal/search"
)

// DefaultBaseURL is the Pagecast content CDN.
const DefaultBaseURL = "https://cdn.pagecast.io"

// Options configures an SDK instance. Project is required; everything else
// has a default.
type Options struct {
	// Project is the project identifier content is served under.
	Project string

	// BaseURL overrides the content CDN base URL.
	BaseURL string

	// MediaBaseURL overrides the media host. Defaults to BaseURL.
	MediaBaseURL string

	// Revision pins the SDK to a fixed revision instead of resolving the
	// active one from the revision endpoint.
	Revision string

	// CacheMaxEntries / CacheMaxAge bound the request and value caches.
	CacheMaxEntries int
	CacheMaxAge     time.Duration

	// SearchLimit and SearchMinScore are the engine defaults for result
	// count and vector similarity threshold.
	SearchLimit    int
	SearchMinScore float64

	// Inferencer computes query embeddings for the vector search modes.
	// Optional; without it, vector queries fail.
	Inferencer inference.Inferencer

	// HTTPClient overrides the HTTP client for content fetches.
	HTTPClient *http.Client

	// Debug raises the default logger to debug level semantics at call
	// sites that honor it; the logger itself controls filtering.
	Debug  bool
	Logger *slog.Logger
}

// SDK is one logical client instance. Its caches, in-flight map, and search
// index are owned by the instance and only mutated through its methods.
type SDK struct {
	opts      Options
	logger    *slog.Logger
	requests  *requestcache.Cache
	resolver  revision.Resolver
	urls      *revision.URLBuilder
	retrieval *content.Retrieval
	engine    *search.Engine
}

// New creates an SDK instance for a project.
func New(opts Options) (*SDK, error) {
	if opts.Project == "" {
		return nil, fmt.Errorf("sdk: project identifier is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	requests := requestcache.New(requestcache.Options{
		MaxEntries: opts.CacheMaxEntries,
		MaxAge:     opts.CacheMaxAge,
		HTTPClient: opts.HTTPClient,
		Logger:     logger,
	})

	var resolver revision.Resolver
	if opts.Revision != "" {
		resolver = revision.NewPinnedResolver(opts.Revision)
	} else {
		endpoint := revision.RevisionEndpoint(opts.BaseURL, opts.Project)
		resolver = revision.NewHTTPResolver(endpoint, requests, logger)
	}

	urls := revision.NewURLBuilder(opts.BaseURL, opts.MediaBaseURL, opts.Project, resolver)

	retrieval := content.NewRetrieval(content.Options{
		URLs:       urls,
		Requests:   requests,
		MaxEntries: opts.CacheMaxEntries,
		MaxAge:     opts.CacheMaxAge,
		Logger:     logger,
	})

	engine := search.NewEngine(search.Options{
		Retrieval:  retrieval,
		Inferencer: opts.Inferencer,
		Limit:      opts.SearchLimit,
		MinScore:   opts.SearchMinScore,
		Logger:     logger,
	})

	return &SDK{
		opts:      opts,
		logger:    logger,
		requests:  requests,
		resolver:  resolver,
		urls:      urls,
		retrieval: retrieval,
		engine:    engine,
	}, nil
}

// Posts returns the content retrieval layer.
func (s *SDK) Posts() *content.Retrieval { return s.retrieval }

// Search returns the search engine.
func (s *SDK) Search() *search.Engine { return s.engine }

// IndexState reports the search index lifecycle state as a wire string.
func (s *SDK) IndexState() string { return s.engine.State().String() }

// URLs returns the URL builder.
func (s *SDK) URLs() *revision.URLBuilder { return s.urls }

// ActiveRev returns the memoized active revision, "" before resolution.
func (s *SDK) ActiveRev() string { return s.resolver.ActiveRev() }

// ResolveRev resolves the active revision, fetching it if unresolved.
func (s *SDK) ResolveRev(ctx context.Context) (string, error) {
	return s.resolver.Resolve(ctx)
}

// RefreshRevision drops the memoized revision. The next call that needs a
// revision-scoped URL re-resolves; caches and the search index invalidate
// lazily once the newly resolved revision is observed by their staleness
// checks.
func (s *SDK) RefreshRevision() {
	s.resolver.Refresh()
}
