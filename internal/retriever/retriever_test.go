package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/domain"
	"complaintrag/internal/embedding/tfidf"
	"complaintrag/internal/indexer"
	"complaintrag/internal/vectorstore"
	"complaintrag/internal/vectorstore/memory"
)

var corpus = []string{
	"Customer was charged twice for the same purchase.",
	"Late fee applied despite payment being made on time.",
	"Unauthorized transaction reported as fraud on my account.",
	"Mortgage escrow account was miscalculated.",
}

// seed writes corpus into a fresh collection and returns a matching manifest
// and an embedder prepared on the same corpus.
func seed(t *testing.T, store vectorstore.Storage, texts []string) (*indexer.Manifest, *tfidf.Embedder) {
	t.Helper()
	ctx := context.Background()
	e := tfidf.NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	vecs, err := e.Embed(ctx, texts)
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, "c_1", e.Dimension(), vectorstore.Cosine))
	entries := make([]domain.Entry, len(texts))
	for i, text := range texts {
		entries[i] = domain.Entry{
			Chunk:  domain.Chunk{ID: "chunk_" + string(rune('0'+i)), Text: text},
			Vector: vecs[i],
		}
	}
	require.NoError(t, store.Upsert(ctx, "c_1", entries))
	return &indexer.Manifest{PhysicalCollection: "c_1", EmbeddingModel: e.Name(), EmbeddingDimension: e.Dimension()}, e
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	store := memory.NewStorage()
	m, e := seed(t, store, corpus)
	r := New(store, e, m, 0)
	defer r.Close()

	res, err := r.Retrieve(context.Background(), "charged twice purchase", 0)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.LessOrEqual(t, len(res), DefaultK)
	assert.Equal(t, corpus[0], res[0].Chunk.Text)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
}

func TestRetrieve_BoundedByK(t *testing.T) {
	store := memory.NewStorage()
	m, e := seed(t, store, corpus)
	r := New(store, e, m, 3)

	for _, k := range []int{1, 2, 4, 10} {
		res, err := r.Retrieve(context.Background(), "account fee", k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res), k)
	}
}

func TestRetrieve_MissingCollectionIsEmpty(t *testing.T) {
	store := memory.NewStorage()
	e := tfidf.NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	r := New(store, e, &indexer.Manifest{PhysicalCollection: "gone"}, 3)

	res, err := r.Retrieve(context.Background(), "fraud", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestRetrieve_EmptyCollectionIsEmpty(t *testing.T) {
	store := memory.NewStorage()
	m, e := seed(t, store, nil)
	r := New(store, e, m, 3)

	res, err := r.Retrieve(context.Background(), "fraud", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestRetrieve_LexicalFallbackForUnknownTerms(t *testing.T) {
	store := memory.NewStorage()
	m, e := seed(t, store, corpus)

	// The stored texts carry a term the embedder vocabulary lacks.
	ctx := context.Background()
	extra := domain.Entry{
		Chunk:  domain.Chunk{ID: "chunk_x", Text: "Zelle transfer never arrived"},
		Vector: make([]float32, e.Dimension()),
	}
	extra.Vector[0] = 1
	require.NoError(t, store.Upsert(ctx, "c_1", []domain.Entry{extra}))

	r := New(store, e, m, 3)
	defer r.Close()
	res, err := r.Retrieve(ctx, "zelle", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "chunk_x", res[0].Chunk.ID)
	assert.Greater(t, res[0].Score, 0.0)
	assert.Zero(t, res[1].Score)
	assert.Equal(t, "chunk_0", res[1].Chunk.ID)
}

func TestRetrieve_NoOverlapStillReturnsChunks(t *testing.T) {
	store := memory.NewStorage()
	m, e := seed(t, store, corpus[:1])
	r := New(store, e, m, 3)
	defer r.Close()

	res, err := r.Retrieve(context.Background(), "billing issue", 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Chunk.Text, "charged twice")
}

func TestRetrieve_DimensionMismatch(t *testing.T) {
	store := memory.NewStorage()
	m, e := seed(t, store, corpus)
	m.EmbeddingDimension = e.Dimension() + 1
	r := New(store, e, m, 3)

	_, err := r.Retrieve(context.Background(), "fraud", 3)
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

type brokenEmbedder struct{ *tfidf.Embedder }

func (brokenEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

func TestRetrieve_EmbedderError(t *testing.T) {
	store := memory.NewStorage()
	m, e := seed(t, store, corpus)
	r := New(store, brokenEmbedder{e}, m, 3)

	_, err := r.Retrieve(context.Background(), "fraud", 3)
	assert.ErrorContains(t, err, "provider down")
}
