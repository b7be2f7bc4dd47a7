package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"complaintrag/internal/tui"
)

const cannedSummary = "No usable index; answers come from canned topics. Run 'complaintrag index <files>' to build one."

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive complaint chat",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	svc, cleanup, err := openService(ctx, appCfg)
	if err != nil {
		return err
	}
	defer cleanup()

	title := "Complaint Analyst (" + svc.Mode() + ")"
	summary := cannedSummary
	if m := svc.Manifest(); m != nil {
		summary = m.Summary
		if summary == "" {
			summary = m.CollectionName
		}
	}
	p := tea.NewProgram(tui.New(svc, title, summary), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
