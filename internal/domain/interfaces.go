package domain

import "context"

// Document is a single complaint record from the source feed.
// Fields holds the raw record columns keyed by column name.
type Document struct {
	ID     string
	Row    int
	Fields map[string]string
}

// Chunk is a bounded-length piece of one complaint narrative.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	Index      int
	Total      int
	Metadata   Metadata
}

// Entry is a chunk together with its embedding, the unit written to a vector index.
type Entry struct {
	Chunk  Chunk
	Vector []float32
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts free text into numeric vector representations.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Stateful is implemented by embedders whose model is derived from the
// indexed corpus and must be restored before embedding queries.
type Stateful interface {
	State() ([]byte, error)
	Restore(state []byte) error
}

// Chunker splits narrative text into overlapping segments.
type Chunker interface {
	Split(text string) []string
}

// Summarizer produces a brief extractive summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Answerer renders a textual answer from retrieved chunks and their metadata.
type Answerer interface {
	Summarize(query string, chunks []string, metadata []Metadata) string
}
