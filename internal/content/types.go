package content

import "time"

// Post is a published content record. The content hash is its canonical
// identity: stable across edits that do not change content, and the join
// key between collections, embeddings, and search results.
type Post struct {
	Hash    string    `json:"hash"`
	Slug    string    `json:"slug"`
	Path    string    `json:"path"`
	Title   string    `json:"title"`
	Excerpt string    `json:"excerpt"`
	Tags    []string  `json:"tags"`
	Date    time.Time `json:"date"`

	// Content is the full markdown body.
	Content string `json:"content"`

	// Plain is the plain-text body. Derived from Content when the
	// snapshot does not ship it precomputed.
	Plain string `json:"plain"`
}

// Media is a media asset record, keyed by content hash like posts.
type Media struct {
	Hash   string    `json:"hash"`
	Path   string    `json:"path"`
	Alt    string    `json:"alt"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Date   time.Time `json:"date"`
}

// postsPayload is the wire shape of _data/{rev}/posts.json.
type postsPayload struct {
	Posts []Post `json:"posts"`
}

// mediaPayload is the wire shape of _data/{rev}/media.json.
type mediaPayload struct {
	Media []Media `json:"media"`
}

// embeddingsPayload is the wire shape of _data/{rev}/embeddings/*.json.
// Post embeddings live in the text space, media embeddings in the CLIP
// space; vectors from different spaces are never comparable.
type embeddingsPayload struct {
	Embeddings map[string][]float32 `json:"embeddings"`
}
