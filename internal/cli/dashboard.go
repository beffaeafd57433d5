package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iskisraell/obsidian-ai-agent/internal/ui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Long: `Open the interactive dashboard: the ingestion queue, recent activity,
settings, and a preview of the selected job's note. This is also what
running obsidian-agent without a subcommand does.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return ui.RunDashboard(context.Background(), gwClient, collector, logger)
}
