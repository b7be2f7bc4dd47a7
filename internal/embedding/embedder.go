// Package embedding holds helpers shared by the embedder implementations
// in its subpackages.
package embedding

import (
	"context"
	"fmt"

	"complaintrag/internal/domain"
)

// DefaultBatchSize is used when a non-positive batch size is given.
const DefaultBatchSize = 50

// EmbedBatched embeds texts in fixed-size batches and returns the vectors
// in input order. progress, when non-nil, is called after every batch.
func EmbedBatched(ctx context.Context, e domain.Embedder, texts []string, batchSize int, progress func(done, total int)) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vecs, err := e.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors", start, end, len(vecs))
		}
		out = append(out, vecs...)
		if progress != nil {
			progress(end, len(texts))
		}
	}
	return out, nil
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
