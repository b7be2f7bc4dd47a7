package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoManifest is returned when no index has been built yet.
var ErrNoManifest = errors.New("no index manifest")

// Manifest describes the current index generation. Writing it is the
// commit point of a build.
type Manifest struct {
	ChunkType          string          `json:"chunk_type"`
	ChunkSize          int             `json:"chunk_size"`
	ChunkOverlap       int             `json:"chunk_overlap"`
	Lookahead          int             `json:"lookahead"`
	DocumentsSeen      int             `json:"documents_seen"`
	DocumentsIndexed   int             `json:"documents_indexed"`
	SkippedDocuments   int             `json:"skipped_documents"`
	TotalChunks        int             `json:"total_chunks"`
	EmbeddingModel     string          `json:"embedding_model"`
	EmbeddingDimension int             `json:"embedding_dimension"`
	VectorDatabase     string          `json:"vector_database"`
	CollectionName     string          `json:"collection_name"`
	PhysicalCollection string          `json:"physical_collection"`
	StoragePath        string          `json:"storage_path,omitempty"`
	BuiltAt            time.Time       `json:"built_at"`
	Placeholder        bool            `json:"placeholder"`
	Note               string          `json:"note,omitempty"`
	Summary            string          `json:"summary,omitempty"`
	EmbedderState      json.RawMessage `json:"embedder_state,omitempty"`
}

// LoadManifest reads the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, path)
		}
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	return &m, nil
}

// WriteManifest replaces the manifest at path atomically: readers see
// either the previous file or the new one.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swapping manifest: %w", err)
	}
	return nil
}
