package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"complaintrag/internal/domain"
)

// CachingEmbedder memoizes vectors per input text. It is used on the query
// path where the same question is often asked repeatedly.
type CachingEmbedder struct {
	domain.Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachingEmbedder wraps e with an LRU cache holding up to size vectors.
func NewCachingEmbedder(e domain.Embedder, size int) (*CachingEmbedder, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachingEmbedder{Embedder: e, cache: c}, nil
}

// Embed returns cached vectors where present and embeds the rest in a
// single call to the wrapped embedder.
func (c *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := c.Embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range vecs {
		out[missingIdx[j]] = v
		c.cache.Add(missing[j], v)
	}
	return out, nil
}

// Purge drops every cached vector.
func (c *CachingEmbedder) Purge() { c.cache.Purge() }

// Len returns the number of cached vectors.
func (c *CachingEmbedder) Len() int { return c.cache.Len() }
