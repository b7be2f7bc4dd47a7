// Package vectorstore defines the vector index contract and the similarity
// helpers shared by its in-process implementations.
package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"

	"complaintrag/internal/domain"
)

// Metric is the similarity function of a collection.
type Metric string

// Cosine is the only metric used for complaint chunks.
const Cosine Metric = "cosine"

var (
	// ErrCollectionNotFound is returned for operations on a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDimensionMismatch is returned when a vector does not match the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Storage persists vectors in named collections and supports similarity search.
type Storage interface {
	// Create makes an empty collection, replacing any existing one of the same name.
	Create(ctx context.Context, name string, dimension int, metric Metric) error
	Upsert(ctx context.Context, name string, entries []domain.Entry) error
	// Search returns at most k results ordered by descending score.
	Search(ctx context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error)
	Entries(ctx context.Context, name string) ([]domain.Entry, error)
	Count(ctx context.Context, name string) (int, error)
	Drop(ctx context.Context, name string) error
	Close() error
}

// Similarity computes the cosine similarity of a and b. Zero vectors score 0.
func Similarity(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK scores every entry against vector and returns the best k, ties
// broken by insertion order.
func TopK(entries []domain.Entry, vector []float32, k int) []domain.SearchResult {
	if k <= 0 || len(entries) == 0 {
		return []domain.SearchResult{}
	}
	results := make([]domain.SearchResult, len(entries))
	for i, e := range entries {
		results[i] = domain.SearchResult{Chunk: e.Chunk, Score: Similarity(e.Vector, vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results
}
