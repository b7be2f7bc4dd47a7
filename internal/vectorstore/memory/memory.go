package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"complaintrag/internal/domain"
	"complaintrag/internal/vectorstore"
)

type collection struct {
	dimension int
	entries   []domain.Entry
	byID      map[string]int
}

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewStorage() *Storage {
	return &Storage{collections: make(map[string]*collection)}
}

func (s *Storage) Create(_ context.Context, name string, dimension int, metric vectorstore.Metric) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	if metric != vectorstore.Cosine {
		return fmt.Errorf("unsupported metric %q", metric)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = &collection{dimension: dimension, byID: make(map[string]int)}
	return nil
}

func (s *Storage) Upsert(_ context.Context, name string, entries []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	for _, e := range entries {
		if len(e.Vector) != c.dimension {
			return fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(e.Vector), c.dimension)
		}
	}
	for _, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		if i, ok := c.byID[e.Chunk.ID]; ok {
			c.entries[i] = e
			continue
		}
		c.byID[e.Chunk.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return nil
}

func (s *Storage) Search(_ context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if len(c.entries) > 0 && len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(vector), c.dimension)
	}
	return vectorstore.TopK(c.entries, vector, k), nil
}

func (s *Storage) Entries(_ context.Context, name string) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	return append([]domain.Entry(nil), c.entries...), nil
}

func (s *Storage) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	return len(c.entries), nil
}

// Drop removes the collection. Dropping a missing collection is not an error.
func (s *Storage) Drop(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Storage) Close() error { return nil }
