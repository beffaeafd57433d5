package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <job-id>",
	Short: "Print the generated note markdown for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var publishCmd = &cobra.Command{
	Use:   "publish <job-id>",
	Short: "Write the generated note into the Obsidian vault",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(publishCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	resp, err := gwClient.PreviewNote(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("preview note: %w", err)
	}
	fmt.Print(resp.Markdown)
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	resp, err := gwClient.PublishNote(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("publish note: %w", err)
	}
	fmt.Printf("Note written to %s (%s)\n", resp.NotePath, resp.Method)
	return nil
}
