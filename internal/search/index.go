package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/pagecast/pagecast-go/internal/content"
)

// Document is the indexable projection of a Post: the content hash as
// identity, searchable text fields, and nothing else. Rebuilt wholesale per
// revision, never patched.
type Document struct {
	Hash     string
	Title    string
	Slug     string
	Tags     []string
	Headings []string
	Excerpt  string
	Body     string
}

// Field boosts: identifier-like fields rank above body text.
const (
	titleBoost    = 5.0
	slugBoost     = 4.0
	tagsBoost     = 3.0
	headingsBoost = 2.0
	bodyBoost     = 1.0
)

// memIndex is a built lexical index together with the revision it was built
// for and the exact posts snapshot it indexes.
type memIndex struct {
	index    bleve.Index
	revision string
	posts    []content.Post
	byHash   map[string]*content.Post
}

// buildIndexMapping creates the index mapping: English analyzer on the
// prose fields, keyword-ish defaults elsewhere.
func buildIndexMapping() mapping.IndexMapping {
	proseField := bleve.NewTextFieldMapping()
	proseField.Analyzer = "en"

	textField := bleve.NewTextFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Hash", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Title", proseField)
	docMapping.AddFieldMappingsAt("Slug", textField)
	docMapping.AddFieldMappingsAt("Tags", textField)
	docMapping.AddFieldMappingsAt("Headings", proseField)
	docMapping.AddFieldMappingsAt("Excerpt", proseField)
	docMapping.AddFieldMappingsAt("Body", proseField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// buildIndex indexes every post of a snapshot into a fresh in-memory index.
func buildIndex(posts []content.Post, rev string) (*memIndex, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	byHash := make(map[string]*content.Post, len(posts))
	batch := idx.NewBatch()
	for i := range posts {
		p := &posts[i]
		byHash[p.Hash] = p

		doc := Document{
			Hash:     p.Hash,
			Title:    p.Title,
			Slug:     p.Slug,
			Tags:     p.Tags,
			Headings: content.Headings([]byte(p.Content)),
			Excerpt:  p.Excerpt,
			Body:     p.Plain,
		}
		if err := batch.Index(p.Hash, doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("batch index %s: %w", p.Hash, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	return &memIndex{
		index:    idx,
		revision: rev,
		posts:    posts,
		byHash:   byHash,
	}, nil
}

// indexHit is a lexical match: a post from the indexed snapshot plus its
// bleve relevance score.
type indexHit struct {
	post  *content.Post
	score float64
}

// search runs a fuzzy + prefix disjunction over the weighted fields.
// fuzziness 1 is the "less fuzzy" autocomplete setting; 2 the default.
func (m *memIndex) search(term string, limit, fuzziness int) ([]indexHit, error) {
	term = strings.ToLower(strings.TrimSpace(term))

	fielded := func(field string, boost float64) query.Query {
		q := bleve.NewMatchQuery(term)
		q.SetField(field)
		q.SetBoost(boost)
		q.Fuzziness = fuzziness
		return q
	}
	prefixed := func(field string, boost float64) query.Query {
		q := bleve.NewPrefixQuery(term)
		q.SetField(field)
		q.SetBoost(boost)
		return q
	}

	disjunction := bleve.NewDisjunctionQuery(
		fielded("Title", titleBoost),
		prefixed("Title", titleBoost),
		fielded("Slug", slugBoost),
		prefixed("Slug", slugBoost),
		fielded("Tags", tagsBoost),
		fielded("Headings", headingsBoost),
		fielded("Excerpt", headingsBoost),
		fielded("Body", bodyBoost),
		prefixed("Body", bodyBoost),
	)

	req := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)
	result, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]indexHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		post, ok := m.byHash[hit.ID]
		if !ok {
			continue
		}
		hits = append(hits, indexHit{post: post, score: hit.Score})
	}
	return hits, nil
}

// Close releases the underlying bleve index.
func (m *memIndex) Close() error {
	return m.index.Close()
}
