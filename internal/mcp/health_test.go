package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	rev string
	err error
}

func (s *stubResolver) ResolveRev(ctx context.Context) (string, error) {
	return s.rev, s.err
}

func TestHealthHandler_Healthy(t *testing.T) {
	handler := NewHealthHandler(&stubResolver{rev: "r1"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Content)
	assert.Equal(t, "r1", resp.Revision)
	assert.NotEmpty(t, resp.Timestamp)
}

type stubStatusResolver struct {
	stubResolver
	state string
}

func (s *stubStatusResolver) IndexState() string { return s.state }

func TestHealthHandler_ReportsIndexState(t *testing.T) {
	handler := NewHealthHandler(&stubStatusResolver{
		stubResolver: stubResolver{rev: "r1"},
		state:        "ready",
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Index)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHealthHandler(&stubResolver{err: errors.New("endpoint unreachable")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "disconnected", resp.Content)
	assert.Empty(t, resp.Revision)
}
