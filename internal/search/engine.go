// Package search provides hybrid search over a project's content snapshot:
// an in-memory lexical index with fuzzy and prefix matching, and vector
// similarity over the snapshot's embedding sets.
//
// The engine tracks the revision its index was built for independently of
// the retrieval caches, because the index is a derived structure rather
// than a cached fetch. Staleness is decided synchronously against the last
// resolved revision before any decision to reuse or rebuild; a detected
// mismatch destroys and rebuilds the index wholesale.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pagecast/pagecast-go/internal/content"
	"github.com/pagecast/pagecast-go/internal/inference"
)

const (
	// DefaultLimit is the result count cap when a query does not set one.
	DefaultLimit = 10

	// DefaultMinScore is the similarity threshold for vector modes.
	DefaultMinScore = 0.3

	// defaultFuzziness is the lexical edit distance for full search;
	// autocomplete uses autocompleteFuzziness.
	defaultFuzziness      = 2
	autocompleteFuzziness = 1
)

// State describes the index lifecycle.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateReady
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "empty"
	}
}

// Query is a search request. Exactly one of Text and Image must be set, and
// it must match the mode's modality: every mode but vector-clip-image takes
// Text; vector-clip-image takes Image.
type Query struct {
	Text     string
	Image    string
	Mode     Mode
	Limit    int
	MinScore float64
}

// Hit is a single search result. Lexical and vector-text hits carry a Post;
// CLIP-space hits carry a Media record.
type Hit struct {
	Post  *content.Post
	Media *content.Media
	Score float64
}

// Engine performs lexical and vector search over the current snapshot.
type Engine struct {
	retrieval  *content.Retrieval
	inferencer inference.Inferencer
	logger     *slog.Logger
	limit      int
	minScore   float64

	mu    sync.Mutex
	state State
	index *memIndex
}

// Options configures an Engine.
type Options struct {
	Retrieval  *content.Retrieval
	Inferencer inference.Inferencer
	Limit      int
	MinScore   float64
	Logger     *slog.Logger
}

// NewEngine creates a search engine over the given retrieval layer.
func NewEngine(opts Options) *Engine {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		retrieval:  opts.Retrieval,
		inferencer: opts.Inferencer,
		logger:     logger,
		limit:      limit,
		minScore:   minScore,
		state:      StateEmpty,
	}
}

// State returns the current index lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IndexRevision returns the revision the current index was built for, or ""
// when no index is built.
func (e *Engine) IndexRevision() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return ""
	}
	return e.index.revision
}

// SearchPosts runs a search according to the query's mode.
func (e *Engine) SearchPosts(ctx context.Context, q Query) ([]Hit, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	if q.Mode != ModeMemory && e.inferencer == nil {
		return nil, ErrInferenceUnavailable
	}
	limit := q.Limit
	if limit <= 0 {
		limit = e.limit
	}
	minScore := q.MinScore
	if minScore <= 0 {
		minScore = e.minScore
	}

	switch q.Mode {
	case ModeMemory:
		return e.searchLexical(ctx, q.Text, limit)

	case ModeVectorText:
		embedding, err := e.inferencer.TextEmbedding(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("compute query embedding: %w", err)
		}
		return e.searchPostVectors(ctx, embedding, minScore, limit)

	case ModeVectorClipText:
		embedding, err := e.inferencer.ClipTextEmbedding(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("compute query embedding: %w", err)
		}
		return e.searchMediaVectors(ctx, embedding, minScore, limit)

	case ModeVectorClipImage:
		embedding, err := e.inferencer.ClipImageEmbedding(ctx, q.Image)
		if err != nil {
			return nil, fmt.Errorf("compute query embedding: %w", err)
		}
		return e.searchMediaVectors(ctx, embedding, minScore, limit)

	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown search mode %d", int(q.Mode))}
	}
}

// validate enforces the modality rule before any work happens.
func validate(q Query) error {
	if q.Mode.wantsImage() {
		if q.Image == "" {
			return &ValidationError{Reason: fmt.Sprintf("mode %s requires an image query", q.Mode)}
		}
		if q.Text != "" {
			return &ValidationError{Reason: fmt.Sprintf("mode %s does not take a text query", q.Mode)}
		}
		return nil
	}
	if q.Text == "" {
		return &ValidationError{Reason: fmt.Sprintf("mode %s requires a text query", q.Mode)}
	}
	if q.Image != "" {
		return &ValidationError{Reason: fmt.Sprintf("mode %s does not take an image query", q.Mode)}
	}
	return nil
}

// searchLexical queries the in-memory index, rebuilding it first if it is
// missing or built for a superseded revision.
func (e *Engine) searchLexical(ctx context.Context, text string, limit int) ([]Hit, error) {
	idx, err := e.ensureIndex(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(idx.posts) == 0 {
		return nil, ErrIndexUnavailable
	}

	hits, err := idx.search(text, limit, defaultFuzziness)
	if err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, Hit{Post: h.post, Score: h.score})
	}
	return out, nil
}

// searchPostVectors ranks the text-space embedding set. Text embeddings are
// compared only against post embeddings.
func (e *Engine) searchPostVectors(ctx context.Context, embedding []float32, minScore float64, limit int) ([]Hit, error) {
	set, err := e.retrieval.GetPostEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, ErrIndexUnavailable
	}

	// Rank without truncation: hashes missing from the snapshot are
	// skipped, so cutting at limit first could come up short.
	out := make([]Hit, 0, limit)
	for _, s := range rankBySimilarity(embedding, set, minScore, 0) {
		post, err := e.retrieval.GetPostByHash(ctx, s.hash)
		if err != nil {
			continue // embedding without a record in the snapshot
		}
		out = append(out, Hit{Post: post, Score: s.score})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// searchMediaVectors ranks the CLIP-space embedding set. CLIP embeddings
// are compared only against media embeddings, never against posts.
func (e *Engine) searchMediaVectors(ctx context.Context, embedding []float32, minScore float64, limit int) ([]Hit, error) {
	set, err := e.retrieval.GetMediaEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, ErrIndexUnavailable
	}

	out := make([]Hit, 0, limit)
	for _, s := range rankBySimilarity(embedding, set, minScore, 0) {
		media, err := e.retrieval.GetMediaByHash(ctx, s.hash)
		if err != nil {
			continue
		}
		out = append(out, Hit{Media: media, Score: s.score})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Refresh force-rebuilds the index, ignoring the staleness check.
func (e *Engine) Refresh(ctx context.Context) error {
	_, err := e.ensureIndex(ctx, true)
	return err
}

// Clear drops the index without touching the retrieval caches. The next
// search rebuilds from the current collection.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil {
		_ = e.index.Close()
		e.index = nil
	}
	e.state = StateEmpty
}

// ensureIndex returns a usable index, rebuilding when forced, missing, or
// stale. The staleness decision happens under the lock against the
// last-known resolved revision, so a stale index is never returned because
// of interleaving with a rebuild.
func (e *Engine) ensureIndex(ctx context.Context, force bool) (*memIndex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	active := e.retrieval.URLs().ActiveRev()
	if !force && e.index != nil && (active == "" || e.index.revision == active) {
		return e.index, nil
	}

	buildID := uuid.New().String()
	if e.index != nil {
		e.logger.Info("search index stale, rebuilding",
			"build_id", buildID, "index_revision", e.index.revision, "active_revision", active, "forced", force)
	} else {
		e.logger.Info("building search index", "build_id", buildID)
	}
	e.state = StateBuilding

	// A rebuild always re-pulls the full collection from the network:
	// the index is rebuilt wholesale, never patched from cached bytes.
	posts, err := e.retrieval.GetAllPosts(ctx, false, force)
	if err != nil {
		// A failed rebuild across a known revision change must not leave
		// the superseded index in service.
		if e.index != nil && active != "" && e.index.revision != active {
			_ = e.index.Close()
			e.index = nil
			e.state = StateEmpty
		} else if e.index != nil {
			e.state = StateReady
		} else {
			e.state = StateEmpty
		}
		return nil, fmt.Errorf("rebuild search index: %w", err)
	}

	idx, err := buildIndex(posts, e.retrieval.URLs().ActiveRev())
	if err != nil {
		e.state = StateEmpty
		return nil, fmt.Errorf("rebuild search index: %w", err)
	}

	if e.index != nil {
		_ = e.index.Close()
	}
	e.index = idx
	e.state = StateReady
	e.logger.Info("search index ready",
		"build_id", buildID, "revision", idx.revision, "documents", len(idx.posts))
	return idx, nil
}
