package cli

import (
	"context"
	"fmt"
	"time"

	"complaintrag/internal/chunker"
	"complaintrag/internal/config"
	"complaintrag/internal/domain"
	"complaintrag/internal/embedding/openai"
	"complaintrag/internal/embedding/tfidf"
	"complaintrag/internal/indexer"
	"complaintrag/internal/logger"
	"complaintrag/internal/service"
	"complaintrag/internal/summarizer"
	"complaintrag/internal/vectorstore"
	"complaintrag/internal/vectorstore/memory"
	"complaintrag/internal/vectorstore/qdrant"
	"complaintrag/internal/vectorstore/sqlite"
)

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		o := cfg.Embedder.OpenAI
		if o == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:           o.BaseURL,
			APIKeyEnv:         o.APIKeyEnv,
			Model:             o.Model,
			Timeout:           time.Duration(o.TimeoutSecs) * time.Second,
			RequestsPerSecond: o.RequestsPerSecond,
			Burst:             o.Burst,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newChunker(cfg *config.AppConfig) (domain.Chunker, indexer.ChunkSettings, error) {
	c := cfg.Chunker
	switch c.Type {
	case "char", "":
		return chunker.NewCharChunker(c.MaxSize, c.Overlap, c.Lookahead),
			indexer.ChunkSettings{Type: "char", MaxSize: c.MaxSize, Overlap: c.Overlap, Lookahead: c.Lookahead}, nil
	case "sentence":
		return chunker.NewSentenceChunker(c.SentencesPerChunk, c.OverlapSentences),
			indexer.ChunkSettings{Type: "sentence", MaxSize: c.SentencesPerChunk, Overlap: c.OverlapSentences}, nil
	default:
		return nil, indexer.ChunkSettings{}, fmt.Errorf("unknown chunker: %s", c.Type)
	}
}

// openStore returns the configured vector store and the location recorded
// in the manifest.
func openStore(cfg *config.AppConfig) (vectorstore.Storage, string, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStorage(), "", nil
	case "sqlite", "":
		if cfg.VectorStore.SQLite == nil {
			return nil, "", fmt.Errorf("sqlite config missing")
		}
		st, err := sqlite.Open(cfg.VectorStore.SQLite.Path)
		if err != nil {
			return nil, "", err
		}
		return st, st.Path(), nil
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, "", fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:     q.URL,
			APIKey:  q.APIKey,
			Timeout: time.Duration(q.TimeoutSecs) * time.Second,
		}), q.URL, nil
	default:
		return nil, "", fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

// openService opens the store and binds a service to it. An unavailable
// store or embedder yields a canned-only service. The returned cleanup
// releases everything opened.
func openService(ctx context.Context, cfg *config.AppConfig) (*service.RAGServiceImpl, func(), error) {
	store, _, err := openStore(cfg)
	if err != nil {
		logger.Warn("vector store unavailable, serving canned answers", "error", err)
		return cannedService(cfg), func() {}, nil
	}
	emb, err := newEmbedder(cfg)
	if err != nil {
		logger.Warn("embedder unavailable, serving canned answers", "error", err)
		return cannedService(cfg), func() { _ = store.Close() }, nil
	}
	svc, err := service.Open(ctx, store, emb, service.Options{
		ManifestPath:   cfg.Index.ManifestPath,
		K:              cfg.Retriever.K,
		QueryCacheSize: cfg.Embedder.QueryCacheSize,
		Answerer:       summarizer.NewHeuristicSummarizer(cfg.Answerer),
		Topics:         cfg.Fallback.Topics,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = svc.Close()
		_ = store.Close()
	}
	return svc, cleanup, nil
}

func cannedService(cfg *config.AppConfig) *service.RAGServiceImpl {
	canned := service.NewCannedSource(cfg.Fallback.Topics)
	return service.NewRAGService(canned, canned, nil)
}
