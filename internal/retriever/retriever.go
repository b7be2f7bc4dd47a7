// Package retriever finds the chunks most similar to a question in the
// current index generation.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"complaintrag/internal/domain"
	"complaintrag/internal/embedding"
	"complaintrag/internal/indexer"
	"complaintrag/internal/logger"
	"complaintrag/internal/vectorstore"
)

// DefaultK is used when a non-positive k is requested.
const DefaultK = 3

// Retriever searches one index generation.
type Retriever struct {
	store      vectorstore.Storage
	embedder   domain.Embedder
	collection string
	dimension  int
	k          int

	mu      sync.Mutex
	lexical bleve.Index
	chunks  map[string]domain.Chunk
	order   []string
}

// New creates a Retriever over the collection named by manifest. embedder
// must already carry any state restored from the manifest.
func New(store vectorstore.Storage, embedder domain.Embedder, manifest *indexer.Manifest, k int) *Retriever {
	if k <= 0 {
		k = DefaultK
	}
	if manifest.EmbeddingModel != "" && embedder.Name() != manifest.EmbeddingModel {
		logger.Warn("query embedder differs from index model", "embedder", embedder.Name(), "index_model", manifest.EmbeddingModel)
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		collection: manifest.PhysicalCollection,
		dimension:  manifest.EmbeddingDimension,
		k:          k,
	}
}

// Retrieve returns at most k chunks ordered by descending similarity.
// A missing or empty collection yields no results and no error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = r.k
	}
	n, err := r.store.Count(ctx, r.collection)
	if errors.Is(err, vectorstore.ErrCollectionNotFound) || (err == nil && n == 0) {
		return []domain.SearchResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", r.collection, err)
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors", len(vecs))
	}
	vec := vecs[0]
	if r.dimension > 0 && len(vec) != r.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", vectorstore.ErrDimensionMismatch, len(vec), r.dimension)
	}
	if embedding.IsZero(vec) {
		logger.Debug("query vector is empty, using lexical search", "query", query)
		return r.lexicalSearch(ctx, query, k)
	}

	results, err := r.store.Search(ctx, r.collection, vec, k)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return []domain.SearchResult{}, nil
		}
		return nil, fmt.Errorf("searching %s: %w", r.collection, err)
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Close releases the lexical index, if one was built.
func (r *Retriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lexical == nil {
		return nil
	}
	err := r.lexical.Close()
	r.lexical = nil
	return err
}

func (r *Retriever) lexicalSearch(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	idx, chunks, order, err := r.lexicalIndex(ctx)
	if err != nil {
		return nil, err
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = k
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}
	results := make([]domain.SearchResult, 0, k)
	seen := make(map[string]bool, k)
	for _, hit := range res.Hits {
		if c, ok := chunks[hit.ID]; ok {
			results = append(results, domain.SearchResult{Chunk: c, Score: hit.Score})
			seen[hit.ID] = true
		}
	}
	// Like a vector search, a lexical ranking always covers k chunks; chunks
	// without a matching term follow in stored order with a zero score.
	for _, id := range order {
		if len(results) >= k {
			break
		}
		if !seen[id] {
			results = append(results, domain.SearchResult{Chunk: chunks[id]})
		}
	}
	return results, nil
}

// lexicalIndex builds an in-memory full-text index of the stored chunks
// on first use.
func (r *Retriever) lexicalIndex(ctx context.Context) (bleve.Index, map[string]domain.Chunk, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lexical != nil {
		return r.lexical, r.chunks, r.order, nil
	}
	entries, err := r.store.Entries(ctx, r.collection)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading entries: %w", err)
	}
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating lexical index: %w", err)
	}
	chunks := make(map[string]domain.Chunk, len(entries))
	order := make([]string, 0, len(entries))
	batch := idx.NewBatch()
	for _, e := range entries {
		chunks[e.Chunk.ID] = e.Chunk
		order = append(order, e.Chunk.ID)
		if err := batch.Index(e.Chunk.ID, map[string]any{"text": e.Chunk.Text}); err != nil {
			idx.Close()
			return nil, nil, nil, fmt.Errorf("indexing %s: %w", e.Chunk.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, nil, nil, fmt.Errorf("building lexical index: %w", err)
	}
	r.lexical, r.chunks, r.order = idx, chunks, order
	return idx, chunks, order, nil
}
