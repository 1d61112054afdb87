package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pagecast/pagecast-go/internal/content"
	"github.com/pagecast/pagecast-go/internal/sdk"
	"github.com/pagecast/pagecast-go/internal/search"
)

// makeSearchHandler creates the search_posts tool handler. Validation
// errors come back as tool output messages rather than protocol errors so
// the client can correct the query.
func makeSearchHandler(s *sdk.SDK) func(
	context.Context, *mcp.CallToolRequest, SearchPostsInput,
) (*mcp.CallToolResult, SearchPostsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchPostsInput) (
		*mcp.CallToolResult, SearchPostsOutput, error,
	) {
		mode, err := search.ParseMode(input.Mode)
		if err != nil {
			return nil, SearchPostsOutput{Message: err.Error()}, nil
		}

		hits, err := s.Search().SearchPosts(ctx, search.Query{
			Text:     input.Query,
			Image:    input.Image,
			Mode:     mode,
			Limit:    input.MaxResults,
			MinScore: input.MinScore,
		})
		if err != nil {
			var verr *search.ValidationError
			if errors.As(err, &verr) {
				return nil, SearchPostsOutput{Message: verr.Error()}, nil
			}
			if errors.Is(err, search.ErrIndexUnavailable) {
				return nil, SearchPostsOutput{
					Results: []SearchResult{},
					Message: "The project has no indexable content.",
				}, nil
			}
			return nil, SearchPostsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]SearchResult, 0, len(hits))
		for _, hit := range hits {
			r := SearchResult{Score: hit.Score}
			switch {
			case hit.Post != nil:
				r.Hash = hit.Post.Hash
				r.Slug = hit.Post.Slug
				r.Path = hit.Post.Path
				r.Title = hit.Post.Title
				r.Excerpt = hit.Post.Excerpt
				r.Tags = hit.Post.Tags
			case hit.Media != nil:
				r.Hash = hit.Media.Hash
				r.MediaPath = hit.Media.Path
				r.MediaURL = s.URLs().MediaURL(hit.Media.Path)
			}
			results = append(results, r)
		}

		if len(results) == 0 {
			return nil, SearchPostsOutput{
				Results: []SearchResult{},
				Message: "No matching posts found. Try broader search terms.",
			}, nil
		}
		return nil, SearchPostsOutput{Results: results}, nil
	}
}

// makeAutocompleteHandler creates the autocomplete tool handler.
func makeAutocompleteHandler(s *sdk.SDK) func(
	context.Context, *mcp.CallToolRequest, AutocompleteInput,
) (*mcp.CallToolResult, AutocompleteOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AutocompleteInput) (
		*mcp.CallToolResult, AutocompleteOutput, error,
	) {
		suggestions, err := s.Search().Autocomplete(ctx, input.Term, input.Limit)
		if err != nil {
			var verr *search.ValidationError
			if errors.As(err, &verr) {
				return nil, AutocompleteOutput{}, verr
			}
			if errors.Is(err, search.ErrIndexUnavailable) {
				return nil, AutocompleteOutput{Suggestions: []string{}}, nil
			}
			return nil, AutocompleteOutput{}, fmt.Errorf("autocomplete failed: %w", err)
		}
		if suggestions == nil {
			suggestions = []string{}
		}
		return nil, AutocompleteOutput{Suggestions: suggestions}, nil
	}
}

// makeGetPostHandler creates the get_post tool handler. Not-found is a
// Found=false response rather than an error.
func makeGetPostHandler(s *sdk.SDK) func(
	context.Context, *mcp.CallToolRequest, GetPostInput,
) (*mcp.CallToolResult, GetPostOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetPostInput) (
		*mcp.CallToolResult, GetPostOutput, error,
	) {
		var (
			post *content.Post
			err  error
		)
		switch {
		case input.Hash != "":
			post, err = s.Posts().GetPostByHash(ctx, input.Hash)
		case input.Slug != "":
			post, err = s.Posts().GetPostBySlug(ctx, input.Slug)
		case input.Path != "":
			post, err = s.Posts().GetPostByPath(ctx, input.Path)
		default:
			return nil, GetPostOutput{}, fmt.Errorf("one of hash, slug, or path is required")
		}
		if err != nil {
			if errors.Is(err, content.ErrPostNotFound) {
				return nil, GetPostOutput{Found: false}, nil
			}
			return nil, GetPostOutput{}, fmt.Errorf("failed to fetch post: %w", err)
		}

		return nil, GetPostOutput{
			Found:   true,
			Hash:    post.Hash,
			Slug:    post.Slug,
			Path:    post.Path,
			Title:   post.Title,
			Excerpt: post.Excerpt,
			Tags:    post.Tags,
			Date:    post.Date,
			Content: post.Content,
		}, nil
	}
}

// makeListHandler creates the list_posts tool handler.
func makeListHandler(s *sdk.SDK) func(
	context.Context, *mcp.CallToolRequest, ListPostsInput,
) (*mcp.CallToolResult, ListPostsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListPostsInput) (
		*mcp.CallToolResult, ListPostsOutput, error,
	) {
		posts, err := s.Posts().GetAllPosts(ctx, true, false)
		if err != nil {
			return nil, ListPostsOutput{}, fmt.Errorf("failed to list posts: %w", err)
		}

		summaries := make([]PostSummary, 0, len(posts))
		for _, p := range posts {
			summaries = append(summaries, PostSummary{Hash: p.Hash, Slug: p.Slug, Title: p.Title})
		}
		return nil, ListPostsOutput{Posts: summaries, Count: len(summaries)}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(s *sdk.SDK) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		active, err := s.ResolveRev(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to resolve revision: %w", err)
		}

		posts, err := s.Posts().GetAllPosts(ctx, true, false)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to fetch posts: %w", err)
		}

		indexRev := s.Search().IndexRevision()
		return nil, StatusOutput{
			ActiveRevision: active,
			IndexRevision:  indexRev,
			IndexState:     s.Search().State().String(),
			IndexStale:     indexRev != "" && indexRev != active,
			PostCount:      len(posts),
		}, nil
	}
}
