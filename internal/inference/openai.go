package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// TextEmbeddingModel is the OpenAI model used for text-space embeddings.
// It must match the model that produced the snapshot's post embeddings.
const TextEmbeddingModel = "text-embedding-3-small"

// OpenAIInferencer computes text-space embeddings with the OpenAI API and
// delegates CLIP-space embeddings to a separate Inferencer, since OpenAI
// does not serve the CLIP space.
type OpenAIInferencer struct {
	client *openai.Client
	clip   Inferencer
}

// NewOpenAIInferencer creates an inferencer backed by the OpenAI API.
// apiKey may be empty if OPENAI_API_KEY is set in the environment.
// clip handles the CLIP-space calls and may be nil if those modes are
// never used.
func NewOpenAIInferencer(apiKey string, clip Inferencer) *OpenAIInferencer {
	var client openai.Client
	if apiKey != "" {
		client = openai.NewClient(option.WithAPIKey(apiKey))
	} else {
		client = openai.NewClient()
	}
	return &OpenAIInferencer{client: &client, clip: clip}
}

// TextEmbedding embeds text with TextEmbeddingModel. Rate limit responses
// (429) are retried with exponential backoff; other failures are permanent.
func (o *OpenAIInferencer) TextEmbedding(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	operation := func() error {
		resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: []string{text},
			},
			Model: TextEmbeddingModel,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) == 0 {
			return backoff.Permanent(fmt.Errorf("embedding response contained no data"))
		}
		embedding = toFloat32(resp.Data[0].Embedding)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("text embedding: %w", err)
	}
	return embedding, nil
}

// ClipTextEmbedding delegates to the configured CLIP inferencer.
func (o *OpenAIInferencer) ClipTextEmbedding(ctx context.Context, text string) ([]float32, error) {
	if o.clip == nil {
		return nil, fmt.Errorf("no CLIP inferencer configured")
	}
	return o.clip.ClipTextEmbedding(ctx, text)
}

// ClipImageEmbedding delegates to the configured CLIP inferencer.
func (o *OpenAIInferencer) ClipImageEmbedding(ctx context.Context, image string) ([]float32, error) {
	if o.clip == nil {
		return nil, fmt.Errorf("no CLIP inferencer configured")
	}
	return o.clip.ClipImageEmbedding(ctx, image)
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
