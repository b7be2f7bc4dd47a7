// Package service answers complaint questions. The answer source is chosen
// once when the service is opened: the live index when one is usable,
// otherwise a canned topic table.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"complaintrag/internal/config"
	"complaintrag/internal/domain"
	"complaintrag/internal/embedding"
	"complaintrag/internal/indexer"
	"complaintrag/internal/logger"
	"complaintrag/internal/retriever"
	"complaintrag/internal/vectorstore"
)

// EmptyQueryMessage is returned for blank questions.
const EmptyQueryMessage = "Please enter a question."

// Response is the answer triple returned for every query.
type Response struct {
	Answer   string            `json:"answer"`
	Chunks   []string          `json:"chunks"`
	Metadata []domain.Metadata `json:"metadata"`
}

type RAGServiceImpl struct {
	source   Source
	fallback *CannedSource
	manifest *indexer.Manifest
	closers  []func() error
}

// NewRAGService creates a service over source. Errors from source are
// answered by fallback.
func NewRAGService(source Source, fallback *CannedSource, manifest *indexer.Manifest) *RAGServiceImpl {
	if fallback == nil {
		fallback = NewCannedSource(nil)
	}
	return &RAGServiceImpl{source: source, fallback: fallback, manifest: manifest}
}

// ProcessQuery answers query. It never returns an error: blank queries get
// an instruction and source failures get the canned answer.
func (s *RAGServiceImpl) ProcessQuery(ctx context.Context, query string) Response {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{Answer: EmptyQueryMessage, Chunks: []string{}, Metadata: []domain.Metadata{}}
	}
	resp, err := s.source.Answer(ctx, query)
	if err != nil {
		logger.Warn("query failed, serving canned answer", "source", s.source.Name(), "query", query, "error", err)
		resp = s.fallback.lookup(query)
	}
	return resp
}

// Mode names the active source.
func (s *RAGServiceImpl) Mode() string { return s.source.Name() }

// Manifest returns the manifest of the live index, or nil in canned mode.
func (s *RAGServiceImpl) Manifest() *indexer.Manifest { return s.manifest }

// Close releases resources held by the live source.
func (s *RAGServiceImpl) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Options configure Open.
type Options struct {
	ManifestPath   string
	K              int
	QueryCacheSize int
	Answerer       domain.Answerer
	Topics         []config.CannedTopic
}

// Open inspects the manifest and storage and returns a service bound to the
// live index, or to the canned table when no usable index exists.
func Open(ctx context.Context, store vectorstore.Storage, embedder domain.Embedder, opts Options) (*RAGServiceImpl, error) {
	canned := NewCannedSource(opts.Topics)
	degraded := func(reason string, args ...any) *RAGServiceImpl {
		logger.Warn("serving canned answers: "+reason, args...)
		return NewRAGService(canned, canned, nil)
	}

	m, err := indexer.LoadManifest(opts.ManifestPath)
	if errors.Is(err, indexer.ErrNoManifest) {
		return degraded("no index has been built", "manifest", opts.ManifestPath), nil
	}
	if err != nil {
		return degraded("manifest unreadable", "manifest", opts.ManifestPath, "error", err), nil
	}
	if m.Placeholder {
		return degraded("index is a placeholder", "note", m.Note), nil
	}
	if _, err := store.Count(ctx, m.PhysicalCollection); err != nil {
		return degraded("index storage unreachable", "collection", m.PhysicalCollection, "error", err), nil
	}
	if len(m.EmbedderState) > 0 {
		st, ok := embedder.(domain.Stateful)
		if !ok {
			return degraded("embedder cannot restore index state", "embedder", embedder.Name()), nil
		}
		if err := st.Restore(m.EmbedderState); err != nil {
			return degraded("embedder state invalid", "error", err), nil
		}
	}

	cached, err := embedding.NewCachingEmbedder(embedder, opts.QueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	answerer := opts.Answerer
	if answerer == nil {
		return nil, errors.New("service: answerer is required")
	}
	r := retriever.New(store, cached, m, opts.K)
	logger.Info("serving live index", "collection", m.PhysicalCollection, "chunks", m.TotalChunks, "model", m.EmbeddingModel)

	svc := NewRAGService(NewLiveSource(r, answerer, opts.K), canned, m)
	svc.closers = append(svc.closers, r.Close)
	return svc, nil
}
