package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"complaintrag/internal/domain"
	"complaintrag/internal/service"
)

var (
	queryK    int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryK, "k", 0, "excerpts to retrieve (0 = retriever.k from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer, chunks and metadata as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := *appCfg
	if queryK > 0 {
		cfg.Retriever.K = queryK
	}
	ctx := commandContext(cmd)
	svc, cleanup, err := openService(ctx, &cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resp := svc.ProcessQuery(ctx, strings.Join(args, " "))
	if queryJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	printResponse(cmd, svc.Mode(), resp)
	return nil
}

func printResponse(cmd *cobra.Command, mode string, resp service.Response) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Answer)
	if len(resp.Chunks) == 0 {
		return
	}
	fmt.Fprintf(out, "\nExcerpts (%s):\n", mode)
	for i, c := range resp.Chunks {
		var meta domain.Metadata
		if i < len(resp.Metadata) {
			meta = resp.Metadata[i]
		}
		fmt.Fprintf(out, "[%d] %s · %s\n    %s\n", i+1,
			meta.Get(domain.KeyProductCategory), meta.Get(domain.KeyIssue), c)
	}
}
