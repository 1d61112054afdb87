// Package mcp exposes the Pagecast SDK over the Model Context Protocol.
package mcp

import "time"

// SearchPostsInput defines the input parameters for the search_posts tool.
type SearchPostsInput struct {
	// Query is the search text. Required for every mode except
	// vector-clip-image.
	Query string `json:"query,omitempty" jsonschema:"description=The search text"`
	// Image is an image URL or data URI, required for vector-clip-image.
	Image string `json:"image,omitempty" jsonschema:"description=Image URL or data URI for vector-clip-image mode"`
	// Mode selects the strategy: memory, vector-text, vector-clip-text,
	// or vector-clip-image. Defaults to memory.
	Mode string `json:"mode,omitempty" jsonschema:"description=Search mode: memory | vector-text | vector-clip-text | vector-clip-image,default=memory"`
	// MaxResults caps the result count.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=50,default=10,description=Maximum number of results"`
	// MinScore is the similarity threshold for vector modes.
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,description=Minimum similarity score for vector modes"`
}

// SearchPostsOutput contains the search results.
type SearchPostsOutput struct {
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g. no matches).
	Message string `json:"message,omitempty"`
}

// SearchResult is a single hit. Post fields are set for lexical and
// vector-text results; media fields for CLIP-space results.
type SearchResult struct {
	Hash    string   `json:"hash"`
	Score   float64  `json:"score"`
	Slug    string   `json:"slug,omitempty"`
	Path    string   `json:"path,omitempty"`
	Title   string   `json:"title,omitempty"`
	Excerpt string   `json:"excerpt,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	// MediaPath is set for CLIP-space media hits.
	MediaPath string `json:"media_path,omitempty"`
	// MediaURL is the fully-qualified media URL for media hits.
	MediaURL string `json:"media_url,omitempty"`
}

// AutocompleteInput defines the input parameters for the autocomplete tool.
type AutocompleteInput struct {
	Term  string `json:"term" jsonschema:"required,description=The partial term to complete"`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=25,default=10,description=Maximum number of suggestions"`
}

// AutocompleteOutput contains the suggestions.
type AutocompleteOutput struct {
	Suggestions []string `json:"suggestions"`
}

// GetPostInput identifies a post by exactly one of hash, slug, or path.
type GetPostInput struct {
	Hash string `json:"hash,omitempty" jsonschema:"description=Content hash of the post"`
	Slug string `json:"slug,omitempty" jsonschema:"description=Slug of the post"`
	Path string `json:"path,omitempty" jsonschema:"description=Path of the post"`
}

// GetPostOutput contains the retrieved post.
type GetPostOutput struct {
	Found   bool      `json:"found"`
	Hash    string    `json:"hash,omitempty"`
	Slug    string    `json:"slug,omitempty"`
	Path    string    `json:"path,omitempty"`
	Title   string    `json:"title,omitempty"`
	Excerpt string    `json:"excerpt,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	Date    time.Time `json:"date,omitempty"`
	Content string    `json:"content,omitempty"`
}

// ListPostsInput takes no parameters.
type ListPostsInput struct{}

// ListPostsOutput lists the current snapshot's posts.
type ListPostsOutput struct {
	Posts []PostSummary `json:"posts"`
	Count int           `json:"count"`
}

// PostSummary is the listing projection of a post.
type PostSummary struct {
	Hash  string `json:"hash"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// StatusInput takes no parameters.
type StatusInput struct{}

// StatusOutput reports revision and index state.
type StatusOutput struct {
	ActiveRevision string `json:"active_revision"`
	IndexRevision  string `json:"index_revision,omitempty"`
	IndexState     string `json:"index_state"`
	// IndexStale is true when the index was built for a revision that is
	// no longer active.
	IndexStale bool `json:"index_stale"`
	PostCount  int  `json:"post_count"`
}
