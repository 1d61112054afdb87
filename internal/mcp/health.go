package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Content   string `json:"content"`
	Revision  string `json:"revision,omitempty"`
	Index     string `json:"index,omitempty"`
	Timestamp string `json:"timestamp"`
}

// RevisionResolver is the health check dependency: resolving the active
// revision proves the content endpoint is reachable.
type RevisionResolver interface {
	ResolveRev(ctx context.Context) (string, error)
}

// indexStateReporter is the optional second capability: when the resolver
// also reports the search index state, it is included in the response.
type indexStateReporter interface {
	IndexState() string
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
func NewHealthHandler(resolver RevisionResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		rev, err := resolver.ResolveRev(ctx)

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if reporter, ok := resolver.(indexStateReporter); ok {
			response.Index = reporter.IndexState()
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response.Status = "unhealthy"
			response.Content = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Content = "connected"
		response.Revision = rev
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
