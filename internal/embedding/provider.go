package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrProviderUnavailable indicates the embedding provider failed or timed
// out. The caller may retry with the same window on the next utterance
// arrival; no chunker state is mutated when this error is returned.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// Provider maps texts to fixed-length numeric vectors. Implementations must
// return one vector per input text, in input order, and be deterministic for
// a fixed model version.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Cosine returns the cosine similarity between two vectors.
// Zero-length or zero-magnitude vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// AdjacentSimilarities computes cosine similarity between each adjacent
// vector pair (i-1, i). The result has len(vectors)-1 entries; grouping is
// sequential so the full pairwise matrix is never needed.
func AdjacentSimilarities(vectors [][]float32) []float64 {
	if len(vectors) < 2 {
		return nil
	}

	sims := make([]float64, len(vectors)-1)
	for i := 1; i < len(vectors); i++ {
		sims[i-1] = Cosine(vectors[i-1], vectors[i])
	}

	return sims
}
