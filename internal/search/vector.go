package search

import (
	"math"
	"sort"
)

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or a zero-magnitude input yield 0 rather than an
// error: a degenerate embedding should rank last, not abort a batch query.
// The result is always within [-1, 1].
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard against float drift past the unit interval.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim
}

// scoredHash pairs a content hash with a similarity score.
type scoredHash struct {
	hash  string
	score float64
}

// rankBySimilarity scores every embedding in set against the query vector,
// filters by threshold, sorts descending, and truncates to limit. Ties
// break on hash for deterministic output.
func rankBySimilarity(query []float32, set map[string][]float32, threshold float64, limit int) []scoredHash {
	scored := make([]scoredHash, 0, len(set))
	for hash, embedding := range set {
		score := cosineSimilarity(query, embedding)
		if score < threshold {
			continue
		}
		scored = append(scored, scoredHash{hash: hash, score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].hash < scored[j].hash
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
