package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pagecast/pagecast-go/internal/sdk"
)

// Server wraps the MCP server with the SDK instance it serves.
type Server struct {
	server *mcp.Server
	sdk    *sdk.SDK
}

// Config holds server dependencies.
type Config struct {
	SDK *sdk.SDK
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "pagecast-content-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_posts",
		Description: "Search the project's posts. Lexical (memory) mode matches titles, tags, headings, and body with fuzzy and prefix matching; vector modes rank by embedding similarity.",
	}, makeSearchHandler(cfg.SDK))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "autocomplete",
		Description: "Suggest completions for a partial search term, drawn from matching posts' titles, tags, and headings.",
	}, makeAutocompleteHandler(cfg.SDK))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_post",
		Description: "Retrieve a post by content hash, slug, or path. Returns the full markdown content.",
	}, makeGetPostHandler(cfg.SDK))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_posts",
		Description: "List the posts in the current content snapshot.",
	}, makeListHandler(cfg.SDK))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Report the active content revision, the revision the search index was built for, and whether the index is stale.",
	}, makeStatusHandler(cfg.SDK))

	return &Server{server: server, sdk: cfg.SDK}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
