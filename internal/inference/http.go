package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPInferencer calls the Pagecast inference service over HTTP. It serves
// both the text and CLIP spaces; response vectors are returned as-is.
type HTTPInferencer struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPInferencer creates a client for the inference service at baseURL.
func NewHTTPInferencer(baseURL, token string) *HTTPInferencer {
	return &HTTPInferencer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// embedRequest is the request shape of the /v1/embeddings endpoints.
type embedRequest struct {
	Input string `json:"input"`
}

// embedResponse is the response shape of the /v1/embeddings endpoints.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model,omitempty"`
}

func (h *HTTPInferencer) TextEmbedding(ctx context.Context, text string) ([]float32, error) {
	return h.embed(ctx, "/v1/embeddings/text", text)
}

func (h *HTTPInferencer) ClipTextEmbedding(ctx context.Context, text string) ([]float32, error) {
	return h.embed(ctx, "/v1/embeddings/clip-text", text)
}

func (h *HTTPInferencer) ClipImageEmbedding(ctx context.Context, image string) ([]float32, error) {
	return h.embed(ctx, "/v1/embeddings/clip-image", image)
}

// embed posts the input to an embeddings endpoint. 429 responses are
// retried with exponential backoff; every other failure is permanent.
func (h *HTTPInferencer) embed(ctx context.Context, path, input string) ([]float32, error) {
	if input == "" {
		return nil, fmt.Errorf("input cannot be empty")
	}

	body, err := json.Marshal(embedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var embedding []float32
	operation := func() error {
		vec, status, err := h.post(ctx, h.baseURL+path, body)
		if err != nil {
			if status == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}
		embedding = vec
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("compute embedding: %w", err)
	}
	return embedding, nil
}

func (h *HTTPInferencer) post(ctx context.Context, url string, body []byte) ([]float32, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("inference error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var payload embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Embedding) == 0 {
		return nil, resp.StatusCode, fmt.Errorf("inference returned empty embedding")
	}

	return payload.Embedding, resp.StatusCode, nil
}
