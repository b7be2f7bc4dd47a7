// Package cli implements the complaintrag command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"complaintrag/internal/config"
	"complaintrag/internal/logger"
)

var (
	cfgPath string
	verbose bool
	appCfg  *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "complaintrag",
	Short: "Ask questions about consumer complaint narratives",
	Long: `complaintrag indexes consumer complaint narratives into a vector index
and answers questions about them with a summary and supporting excerpts.

When no usable index exists, answers come from a canned topic table.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to YAML config (default ./config.yaml, then ~/.config/complaintrag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. The context is cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	if cfgPath != "" {
		appCfg, err = config.Load(cfgPath)
	} else {
		var path string
		appCfg, path, err = config.LoadDefault()
		if err == nil {
			logger.Debug("config loaded", "path", path)
		}
	}
	if err != nil {
		return err
	}
	logger.SetLevel(appCfg.Log.Level)
	logger.SetFormat(appCfg.Log.Format)
	if verbose {
		logger.SetVerbose(true)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
