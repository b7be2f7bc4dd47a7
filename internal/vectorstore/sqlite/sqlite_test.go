package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/domain"
	"complaintrag/internal/vectorstore"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store", "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(id string, v ...float32) domain.Entry {
	return domain.Entry{
		Chunk: domain.Chunk{
			ID:         id,
			DocumentID: "doc-" + id,
			Text:       "text " + id,
			Index:      0,
			Total:      1,
			Metadata:   domain.Metadata{domain.KeyProduct: "Credit card"},
		},
		Vector: v,
	}
}

func TestVectorCodec(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.0e-7}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestStorage_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Count(ctx, "c")
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)

	require.NoError(t, s.Create(ctx, "c", 2, vectorstore.Cosine))
	require.NoError(t, s.Upsert(ctx, "c", []domain.Entry{entry("a", 1, 0), entry("b", 0, 1)}))
	require.NoError(t, s.Upsert(ctx, "c", []domain.Entry{entry("a", 0.5, 0.5)}))

	n, err := s.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := s.Search(ctx, "c", []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].Chunk.ID)
	assert.Equal(t, "Credit card", res[0].Chunk.Metadata.Get(domain.KeyProduct))
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)

	all, err := s.Entries(ctx, "c")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Chunk.ID)
	assert.Equal(t, []float32{0.5, 0.5}, all[0].Vector)

	require.NoError(t, s.Drop(ctx, "c"))
	_, err = s.Entries(ctx, "c")
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestStorage_CreateReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	require.NoError(t, s.Create(ctx, "c", 2, vectorstore.Cosine))
	require.NoError(t, s.Upsert(ctx, "c", []domain.Entry{entry("a", 1, 0)}))
	require.NoError(t, s.Create(ctx, "c", 3, vectorstore.Cosine))

	n, err := s.Count(ctx, "c")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, s.Upsert(ctx, "c", []domain.Entry{entry("a", 1, 0)}), vectorstore.ErrDimensionMismatch)
}

func TestStorage_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	require.NoError(t, s.Create(ctx, "one", 2, vectorstore.Cosine))
	require.NoError(t, s.Create(ctx, "two", 2, vectorstore.Cosine))
	require.NoError(t, s.Upsert(ctx, "one", []domain.Entry{entry("a", 1, 0)}))

	n, err := s.Count(ctx, "two")
	require.NoError(t, err)
	assert.Zero(t, n)

	res, err := s.Search(ctx, "two", []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStorage_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "c", 2, vectorstore.Cosine))
	require.NoError(t, s.Upsert(ctx, "c", []domain.Entry{entry("a", 1, 0)}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, path, s.Path())
}
