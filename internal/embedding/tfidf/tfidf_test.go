package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	s := 0.0
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestEmbedder_RequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed(context.Background(), []string{"hello"})
	assert.Error(t, err)
	_, err = e.State()
	assert.Error(t, err)
	assert.Error(t, e.Prepare(nil))
}

func TestEmbedder_PrepareAndEmbed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"Customer was charged twice for the same purchase.",
		"Late fee applied to the mortgage payment.",
	}))
	assert.Equal(t, "tfidf", e.Name())
	assert.Greater(t, e.Dimension(), 0)

	vecs, err := e.Embed(context.Background(), []string{"charged twice", "unrelated words only"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], e.Dimension())
	assert.InDelta(t, 1.0, norm(vecs[0]), 1e-5)
	assert.Zero(t, norm(vecs[1]))
}

func TestEmbedder_StateRoundTrip(t *testing.T) {
	src := NewEmbedder()
	require.NoError(t, src.Prepare([]string{"billing error on statement", "fraud on account"}))
	data, err := src.State()
	require.NoError(t, err)

	dst := NewEmbedder()
	require.NoError(t, dst.Restore(data))
	assert.Equal(t, src.Dimension(), dst.Dimension())

	a, err := src.Embed(context.Background(), []string{"billing fraud"})
	require.NoError(t, err)
	b, err := dst.Embed(context.Background(), []string{"billing fraud"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbedder_RestoreRejectsBadState(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Restore([]byte("not json")))
	assert.Error(t, e.Restore([]byte(`{"terms":["a"],"idf":[]}`)))
}

func TestEmbedder_EmbedHonoursContext(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"billing"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Embed(ctx, []string{"billing"})
	assert.ErrorIs(t, err, context.Canceled)
}
