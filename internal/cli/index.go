package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"complaintrag/internal/feed"
	"complaintrag/internal/indexer"
	"complaintrag/internal/logger"
)

var indexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Build the vector index from complaint files",
	Long: `Reads complaint records from CSV, XLSX or JSON files, splits each
narrative into chunks, embeds them and writes a new index generation.
The previous generation stays current until the new one is complete.

Glob patterns are accepted, e.g. complaintrag index "data/*.csv".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	docs, err := feed.LoadAll(args)
	if err != nil {
		return fmt.Errorf("reading complaints: %w", err)
	}
	logger.Info("complaints loaded", "files", len(args), "records", len(docs))

	store, location, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer store.Close()
	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	ch, chunking, err := newChunker(cfg)
	if err != nil {
		return err
	}

	ix := indexer.New(store, emb, ch, indexer.Options{
		Collection:         cfg.Index.Collection,
		ManifestPath:       cfg.Index.ManifestPath,
		NarrativeFields:    cfg.Feed.NarrativeFields,
		MinNarrativeLength: cfg.Feed.MinNarrativeLength,
		EmbedBatchSize:     cfg.Embedder.BatchSize,
		WriteBatchSize:     cfg.Index.WriteBatchSize,
		DigestSentences:    cfg.Answerer.DigestSentences,
		VectorDatabase:     cfg.VectorStore.Type,
		StoragePath:        location,
		Chunking:           chunking,
	})
	m, err := ix.Build(commandContext(cmd), docs)
	if errors.Is(err, indexer.ErrPlaceholderIndex) {
		logger.Warn("embedder unavailable, placeholder index written", "error", err)
		printManifest(cmd, m, cfg.Index.ManifestPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	printManifest(cmd, m, cfg.Index.ManifestPath)
	return nil
}
