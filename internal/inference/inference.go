// Package inference defines the embedding collaborator contract and its
// implementations. The search engine treats these as opaque async calls
// returning a fixed-length vector.
package inference

import "context"

// Inferencer computes query embeddings. Text embeddings live in the text
// model's vector space; CLIP embeddings live in the CLIP space. The two
// spaces are disjoint and must never be compared.
type Inferencer interface {
	// TextEmbedding embeds text in the text space.
	TextEmbedding(ctx context.Context, text string) ([]float32, error)

	// ClipTextEmbedding embeds text in the CLIP space, for matching
	// against media embeddings.
	ClipTextEmbedding(ctx context.Context, text string) ([]float32, error)

	// ClipImageEmbedding embeds an image (URL or data URI) in the CLIP
	// space.
	ClipImageEmbedding(ctx context.Context, image string) ([]float32, error)
}

// toFloat32 converts an API float64 vector to the float32 form used
// throughout the SDK.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
