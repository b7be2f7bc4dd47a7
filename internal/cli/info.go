package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"complaintrag/internal/indexer"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the current index manifest",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print the raw manifest")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	path := appCfg.Index.ManifestPath
	m, err := indexer.LoadManifest(path)
	if errors.Is(err, indexer.ErrNoManifest) {
		fmt.Fprintf(cmd.OutOrStdout(), "No index at %s. Run 'complaintrag index <files>' first.\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	if infoJSON {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	printManifest(cmd, m, path)
	return nil
}

func printManifest(cmd *cobra.Command, m *indexer.Manifest, path string) {
	out := cmd.OutOrStdout()
	if m == nil {
		return
	}
	fmt.Fprintf(out, "Manifest:    %s\n", path)
	fmt.Fprintf(out, "Collection:  %s (%s)\n", m.CollectionName, m.PhysicalCollection)
	fmt.Fprintf(out, "Store:       %s %s\n", m.VectorDatabase, m.StoragePath)
	fmt.Fprintf(out, "Embedding:   %s, dimension %d\n", m.EmbeddingModel, m.EmbeddingDimension)
	fmt.Fprintf(out, "Chunking:    %s size=%d overlap=%d\n", m.ChunkType, m.ChunkSize, m.ChunkOverlap)
	fmt.Fprintf(out, "Documents:   %d indexed of %d (%d skipped)\n", m.DocumentsIndexed, m.DocumentsSeen, m.SkippedDocuments)
	fmt.Fprintf(out, "Chunks:      %d\n", m.TotalChunks)
	fmt.Fprintf(out, "Built:       %s\n", m.BuiltAt.Format("2006-01-02 15:04:05"))
	if m.Placeholder {
		fmt.Fprintf(out, "Placeholder: %s\n", m.Note)
	}
	if m.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", m.Summary)
	}
}
