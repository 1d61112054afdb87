// Package revision resolves the active content revision for a project and
// builds revision-scoped resource URLs.
//
// A revision identifies an immutable content snapshot. Once the resolver
// observes a new revision, the old one is never valid again for cache
// purposes; downstream caches compare their stored tags against ActiveRev.
package revision

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pagecast/pagecast-go/internal/requestcache"
)

// Resolver reports the active content revision for a project.
type Resolver interface {
	// ActiveRev returns the memoized revision, or "" before the first
	// successful resolution. It never performs network I/O.
	ActiveRev() string

	// Resolve returns the active revision, resolving it over the network
	// if it is not memoized yet. A resolution failure is returned as-is;
	// there is no fallback to a previously seen value.
	Resolve(ctx context.Context) (string, error)

	// Refresh drops the memoized revision so the next Resolve re-fetches.
	Refresh()
}

// revPayload is the wire shape of the revision endpoint.
type revPayload struct {
	Revision string `json:"revision"`
}

// HTTPResolver resolves the revision from the project's revision endpoint
// and memoizes it until Refresh is called.
type HTTPResolver struct {
	url      string
	requests *requestcache.Cache
	logger   *slog.Logger

	mu  sync.Mutex
	rev string
}

// NewHTTPResolver creates a resolver for the given revision endpoint URL.
func NewHTTPResolver(url string, requests *requestcache.Cache, logger *slog.Logger) *HTTPResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPResolver{url: url, requests: requests, logger: logger}
}

// ActiveRev returns the memoized revision, or "" if none was resolved yet.
func (r *HTTPResolver) ActiveRev() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rev
}

// Resolve returns the memoized revision or fetches it from the endpoint.
// Resolution bypasses the response cache: it must observe the live value,
// otherwise a stale revision could be re-pinned after a deploy.
func (r *HTTPResolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rev != "" {
		return r.rev, nil
	}

	payload, err := requestcache.FetchJSON[revPayload](ctx, r.requests, r.url, &requestcache.RequestOptions{NoCache: true})
	if err != nil {
		return "", fmt.Errorf("resolve revision: %w", err)
	}
	if payload.Revision == "" {
		return "", fmt.Errorf("resolve revision: %w: empty revision tag", requestcache.ErrInvalidResponse)
	}

	r.rev = payload.Revision
	r.logger.Debug("resolved active revision", "revision", r.rev)
	return r.rev, nil
}

// Refresh clears the memoized revision.
func (r *HTTPResolver) Refresh() {
	r.mu.Lock()
	r.rev = ""
	r.mu.Unlock()
}

// PinnedResolver always reports a fixed revision. It serves pinned
// deployments and tests, and doubles as the no-op capability when revision
// semantics are not wanted (pin to "").
type PinnedResolver struct {
	rev string
}

// NewPinnedResolver creates a resolver pinned to rev.
func NewPinnedResolver(rev string) *PinnedResolver {
	return &PinnedResolver{rev: rev}
}

func (r *PinnedResolver) ActiveRev() string { return r.rev }

func (r *PinnedResolver) Resolve(ctx context.Context) (string, error) { return r.rev, nil }

func (r *PinnedResolver) Refresh() {}
