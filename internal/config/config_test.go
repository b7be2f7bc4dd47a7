package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "char", cfg.Chunker.Type)
	assert.Equal(t, 500, cfg.Chunker.MaxSize)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	require.NotNil(t, cfg.VectorStore.SQLite)
	assert.Equal(t, "complaint_chunks", cfg.Index.Collection)
	assert.Equal(t, 3, cfg.Retriever.K)
	assert.Len(t, cfg.Answerer.Themes, 6)
	assert.Len(t, cfg.Fallback.Topics, 4)
	assert.Equal(t, []string{"cleaned_narrative", "Consumer complaint narrative", "narrative"}, cfg.Feed.NarrativeFields)
}

func TestLoad_OverridesAndOpenAIDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
embedder:
  type: openai
chunker:
  max_size: 200
vector_store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
answerer:
  themes:
    - name: refunds
      keywords: [refund]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, 200, cfg.Chunker.MaxSize)
	assert.Equal(t, 15, cfg.VectorStore.Qdrant.TimeoutSecs)
	require.Len(t, cfg.Answerer.Themes, 1)
	assert.Equal(t, "refunds", cfg.Answerer.Themes[0].Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retriever.K = 7

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retriever.K)
	assert.Equal(t, cfg.Fallback.Topics[0].Match, loaded.Fallback.Topics[0].Match)
}
