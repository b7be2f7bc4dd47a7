package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"complaintrag/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing the query_complaints
and index_info tools.

The server speaks JSON-RPC over stdio by default. Use --port to serve the
streamable HTTP transport instead.

Examples:
  complaintrag mcp serve
  complaintrag mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	ctx := commandContext(cmd)
	svc, cleanup, err := openService(ctx, appCfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := mcp.NewServer(svc)
	if err != nil {
		return err
	}
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
