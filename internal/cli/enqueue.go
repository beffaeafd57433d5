package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
)

var enqueueTitle string

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <file>...",
	Short: "Queue a batch of media files for ingestion",
	Long: `Queue one or more media files as a single ingestion job. The daemon
processes the batch in the background; use 'obsidian-agent jobs' to follow it.

Examples:
  obsidian-agent enqueue standup.mp3
  obsidian-agent enqueue --title "Sprint review" review.mp4 board.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueTitle, "title", "t", "", "note title for the batch")
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", arg, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("file not accessible: %s", arg)
		}
		paths = append(paths, abs)
	}

	resp, err := gwClient.EnqueueIngestion(ctx, gateway.EnqueueIngestionRequest{
		FilePaths: paths,
		NoteTitle: enqueueTitle,
	})
	if err != nil {
		return fmt.Errorf("enqueue ingestion: %w", err)
	}

	fmt.Printf("Queued job %s (%d files)\n", resp.JobID, len(paths))
	fmt.Printf("Use 'obsidian-agent jobs %s' to check status.\n", resp.JobID)
	return nil
}
