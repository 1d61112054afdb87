package revision

import (
	"context"
	"fmt"
	"strings"
)

// URLBuilder composes fully-qualified resource URLs for a project.
// Revision-scoped URLs resolve the active revision first; project and media
// URLs are revision-independent pass-throughs.
type URLBuilder struct {
	baseURL      string
	mediaBaseURL string
	project      string
	resolver     Resolver
}

// NewURLBuilder creates a URL builder for a project. mediaBaseURL falls back
// to baseURL when empty.
func NewURLBuilder(baseURL, mediaBaseURL, project string, resolver Resolver) *URLBuilder {
	if mediaBaseURL == "" {
		mediaBaseURL = baseURL
	}
	return &URLBuilder{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		mediaBaseURL: strings.TrimSuffix(mediaBaseURL, "/"),
		project:      project,
		resolver:     resolver,
	}
}

// ActiveRev returns the resolver's memoized revision, "" before first
// resolution. Downstream staleness checks key off this value.
func (b *URLBuilder) ActiveRev() string {
	return b.resolver.ActiveRev()
}

// Resolver returns the underlying revision resolver.
func (b *URLBuilder) Resolver() Resolver {
	return b.resolver
}

// RevisionURL resolves the active revision if needed and composes a
// revision-scoped data URL. Resolution failures propagate.
func (b *URLBuilder) RevisionURL(ctx context.Context, path string) (string, error) {
	rev, err := b.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/_data/%s/%s", b.baseURL, b.project, rev, strings.TrimPrefix(path, "/")), nil
}

// ProjectURL composes a revision-independent project URL.
func (b *URLBuilder) ProjectURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.project, strings.TrimPrefix(path, "/"))
}

// MediaURL composes a URL on the media host.
func (b *URLBuilder) MediaURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", b.mediaBaseURL, b.project, strings.TrimPrefix(path, "/"))
}

// RevisionEndpoint returns the revision endpoint URL for a project, used to
// construct the HTTP resolver before a builder exists.
func RevisionEndpoint(baseURL, project string) string {
	return fmt.Sprintf("%s/%s/rev.json", strings.TrimSuffix(baseURL, "/"), project)
}
