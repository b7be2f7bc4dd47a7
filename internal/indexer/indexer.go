// Package indexer turns complaint documents into a searchable vector index.
//
// Every build writes a new physical collection named after the logical
// collection plus a generation suffix. The manifest file is the pointer to
// the current generation and is replaced atomically once the new collection
// is complete. The previous generation is dropped afterwards.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"complaintrag/internal/domain"
	"complaintrag/internal/embedding"
	"complaintrag/internal/logger"
	"complaintrag/internal/summarizer"
	"complaintrag/internal/vectorstore"
)

// ErrPlaceholderIndex is returned together with a manifest when the
// embedder was unavailable and a demonstration index was written instead.
var ErrPlaceholderIndex = errors.New("placeholder index built")

const (
	placeholderDimension = 384
	placeholderSeed      = 384
	placeholderModel     = "placeholder-random"
)

var placeholderTexts = []string{
	"Customer complained about credit card billing error",
	"Issue with personal loan interest calculation",
	"Savings account withdrawal problem",
	"Money transfer delayed for several days",
}

// Source record columns mapped onto chunk metadata.
var sourceColumns = map[string]string{
	domain.KeyProductCategory: "Product",
	domain.KeyProduct:         "Product",
	domain.KeyIssue:           "Issue",
	domain.KeyCompany:         "Company",
	domain.KeyState:           "State",
	domain.KeyDateReceived:    "Date received",
}

// ChunkSettings is recorded in the manifest.
type ChunkSettings struct {
	Type      string
	MaxSize   int
	Overlap   int
	Lookahead int
}

// Options configure a build.
type Options struct {
	Collection         string
	ManifestPath       string
	NarrativeFields    []string
	MinNarrativeLength int
	EmbedBatchSize     int
	WriteBatchSize     int
	DigestSentences    int
	VectorDatabase     string
	StoragePath        string
	Chunking           ChunkSettings
}

// Indexer builds index generations.
type Indexer struct {
	store    vectorstore.Storage
	embedder domain.Embedder
	chunker  domain.Chunker
	digest   *summarizer.FrequencySummarizer
	opts     Options
	now      func() time.Time
}

// New creates an Indexer writing to store.
func New(store vectorstore.Storage, embedder domain.Embedder, chunker domain.Chunker, opts Options) *Indexer {
	if opts.MinNarrativeLength <= 0 {
		opts.MinNarrativeLength = 20
	}
	if opts.WriteBatchSize <= 0 {
		opts.WriteBatchSize = 500
	}
	if opts.DigestSentences <= 0 {
		opts.DigestSentences = 3
	}
	return &Indexer{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		digest:   summarizer.NewFrequencySummarizer(),
		opts:     opts,
		now:      time.Now,
	}
}

type prepared struct {
	chunks     []domain.Chunk
	narratives []string
	indexed    int
	skipped    int
}

// Build indexes docs into a new generation and makes it current. When the
// embedder fails, a placeholder index is made current instead and the
// returned error wraps ErrPlaceholderIndex.
func (ix *Indexer) Build(ctx context.Context, docs []domain.Document) (*Manifest, error) {
	logger.Section("Index build")
	p := ix.prepare(docs)
	logger.Info("chunked documents", "documents", len(docs), "indexed", p.indexed, "skipped", p.skipped, "chunks", len(p.chunks))

	m := ix.baseManifest()
	m.DocumentsSeen = len(docs)
	m.DocumentsIndexed = p.indexed
	m.SkippedDocuments = p.skipped

	if len(p.chunks) == 0 {
		m.EmbeddingModel = ix.embedder.Name()
		m.EmbeddingDimension = max(ix.embedder.Dimension(), 1)
		m.Note = "no narratives met the minimum length"
		if err := ix.commit(ctx, m, nil); err != nil {
			return nil, err
		}
		return m, nil
	}

	entries, err := ix.embed(ctx, p.chunks)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("embedder unavailable, building placeholder index", "embedder", ix.embedder.Name(), "error", err)
		return ix.buildPlaceholder(ctx, m, err)
	}

	m.TotalChunks = len(entries)
	m.EmbeddingModel = ix.embedder.Name()
	m.EmbeddingDimension = len(entries[0].Vector)
	if st, ok := ix.embedder.(domain.Stateful); ok {
		state, err := st.State()
		if err != nil {
			return nil, fmt.Errorf("saving embedder state: %w", err)
		}
		m.EmbedderState = state
	}
	if summary, err := ix.digest.Digest(p.narratives, ix.opts.DigestSentences); err != nil {
		logger.Warn("corpus digest failed", "error", err)
	} else {
		m.Summary = summary
	}

	if err := ix.commit(ctx, m, entries); err != nil {
		return nil, err
	}
	logger.Info("index built", "collection", m.PhysicalCollection, "chunks", m.TotalChunks, "dimension", m.EmbeddingDimension, "model", m.EmbeddingModel)
	return m, nil
}

func (ix *Indexer) prepare(docs []domain.Document) prepared {
	var p prepared
	for _, doc := range docs {
		narrative := ix.narrative(doc)
		if utf8.RuneCountInString(narrative) < ix.opts.MinNarrativeLength {
			p.skipped++
			continue
		}
		pieces := ix.chunker.Split(narrative)
		if len(pieces) == 0 {
			p.skipped++
			continue
		}
		p.indexed++
		p.narratives = append(p.narratives, narrative)
		meta := documentMetadata(doc)
		for i, text := range pieces {
			p.chunks = append(p.chunks, domain.Chunk{
				ID:         "chunk_" + strconv.Itoa(len(p.chunks)),
				DocumentID: doc.ID,
				Text:       text,
				Index:      i,
				Total:      len(pieces),
				Metadata:   meta.WithPosition(i, len(pieces)),
			})
		}
	}
	return p
}

func (ix *Indexer) narrative(doc domain.Document) string {
	for _, field := range ix.opts.NarrativeFields {
		if v := strings.TrimSpace(doc.Fields[field]); v != "" {
			return v
		}
	}
	return ""
}

func documentMetadata(doc domain.Document) domain.Metadata {
	meta := domain.Metadata{
		domain.KeyComplaintID: doc.ID,
		domain.KeyOriginalRow: strconv.Itoa(doc.Row),
	}
	for key, column := range sourceColumns {
		meta[key] = strings.TrimSpace(doc.Fields[column])
	}
	return meta.Normalized()
}

func (ix *Indexer) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.Entry, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := ix.embedder.Prepare(texts); err != nil {
		return nil, fmt.Errorf("preparing embedder: %w", err)
	}
	vecs, err := embedding.EmbedBatched(ctx, ix.embedder, texts, ix.opts.EmbedBatchSize, func(done, total int) {
		logger.Debug("embedded chunks", "done", done, "total", total)
	})
	if err != nil {
		return nil, err
	}
	entries := make([]domain.Entry, len(chunks))
	for i := range chunks {
		entries[i] = domain.Entry{Chunk: chunks[i], Vector: vecs[i]}
	}
	return entries, nil
}

func (ix *Indexer) buildPlaceholder(ctx context.Context, m *Manifest, cause error) (*Manifest, error) {
	rng := rand.New(rand.NewPCG(placeholderSeed, placeholderSeed))
	entries := make([]domain.Entry, len(placeholderTexts))
	for i, text := range placeholderTexts {
		vec := make([]float32, placeholderDimension)
		for j := range vec {
			vec[j] = rng.Float32()
		}
		meta := domain.Metadata{domain.KeyComplaintID: "PLACEHOLDER_" + strconv.Itoa(i)}
		entries[i] = domain.Entry{
			Chunk: domain.Chunk{
				ID:         "chunk_" + strconv.Itoa(i),
				DocumentID: meta[domain.KeyComplaintID],
				Text:       text,
				Total:      1,
				Metadata:   meta.WithPosition(0, 1).Normalized(),
			},
			Vector: vec,
		}
	}
	m.DocumentsIndexed = 0
	m.TotalChunks = len(entries)
	m.EmbeddingModel = placeholderModel
	m.EmbeddingDimension = placeholderDimension
	m.Placeholder = true
	m.Note = "Placeholder index for demonstration; embedder unavailable: " + cause.Error()
	if err := ix.commit(ctx, m, entries); err != nil {
		return nil, err
	}
	return m, fmt.Errorf("%w: %v", ErrPlaceholderIndex, cause)
}

func (ix *Indexer) baseManifest() *Manifest {
	gen := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return &Manifest{
		ChunkType:          ix.opts.Chunking.Type,
		ChunkSize:          ix.opts.Chunking.MaxSize,
		ChunkOverlap:       ix.opts.Chunking.Overlap,
		Lookahead:          ix.opts.Chunking.Lookahead,
		VectorDatabase:     ix.opts.VectorDatabase,
		CollectionName:     ix.opts.Collection,
		PhysicalCollection: ix.opts.Collection + "_" + gen,
		StoragePath:        ix.opts.StoragePath,
		BuiltAt:            ix.now().UTC(),
	}
}

// commit writes entries to the manifest's physical collection, swaps the
// manifest and drops the previous generation.
func (ix *Indexer) commit(ctx context.Context, m *Manifest, entries []domain.Entry) error {
	previous, err := LoadManifest(ix.opts.ManifestPath)
	if err != nil && !errors.Is(err, ErrNoManifest) {
		logger.Warn("ignoring unreadable manifest", "path", ix.opts.ManifestPath, "error", err)
	}

	name := m.PhysicalCollection
	if err := ix.store.Create(ctx, name, m.EmbeddingDimension, vectorstore.Cosine); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	for start := 0; start < len(entries); start += ix.opts.WriteBatchSize {
		end := min(start+ix.opts.WriteBatchSize, len(entries))
		if err := ix.store.Upsert(ctx, name, entries[start:end]); err != nil {
			ix.discard(name)
			return fmt.Errorf("writing entries %d-%d: %w", start, end, err)
		}
		logger.Debug("stored entries", "done", end, "total", len(entries))
	}
	if err := WriteManifest(ix.opts.ManifestPath, m); err != nil {
		ix.discard(name)
		return fmt.Errorf("writing manifest: %w", err)
	}

	if previous != nil && previous.PhysicalCollection != "" && previous.PhysicalCollection != name {
		if err := ix.store.Drop(ctx, previous.PhysicalCollection); err != nil {
			logger.Warn("could not drop previous generation", "collection", previous.PhysicalCollection, "error", err)
		}
	}
	return nil
}

func (ix *Indexer) discard(name string) {
	if err := ix.store.Drop(context.Background(), name); err != nil {
		logger.Warn("could not drop incomplete generation", "collection", name, "error", err)
	}
}
