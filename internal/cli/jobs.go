package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iskisraell/obsidian-ai-agent/internal/view"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect ingestion jobs",
	Long: `List all ingestion jobs or inspect a specific job by ID.

Examples:
  obsidian-agent jobs            # List all jobs
  obsidian-agent jobs job-a1b2   # Show details for one job`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

var retryCmd = &cobra.Command{
	Use:   "retry <job-id>",
	Short: "Re-queue a failed job",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetry,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a queued or processing job",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(cancelCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// If job ID provided, show that specific job
	if len(args) == 1 {
		return showJob(ctx, args[0])
	}

	return listJobs(ctx)
}

func listJobs(ctx context.Context) error {
	jobs, err := gwClient.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-12s %-3s %-12s %-8s %-9s %s\n", "ID", "", "STATUS", "ASSETS", "UPDATED", "TITLE")
	fmt.Println("------------------------------------------------------------------------")

	for _, job := range jobs {
		updated := time.UnixMilli(job.UpdatedAt).Format("15:04:05")
		fmt.Printf("%-12s %-3s %-12s %-8d %-9s %s\n",
			job.ID, view.StatusGlyph(job.Status), job.Status, job.AssetCount, updated, job.Title)
	}

	return nil
}

func showJob(ctx context.Context, id string) error {
	details, err := gwClient.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if details == nil {
		return fmt.Errorf("job not found: %s", id)
	}

	job := details.Job
	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("  Title: %s\n", job.Title)
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Created: %s\n", time.UnixMilli(job.CreatedAt).Format(time.RFC3339))
	fmt.Printf("  Updated: %s\n", time.UnixMilli(job.UpdatedAt).Format(time.RFC3339))

	if len(details.Assets) > 0 {
		fmt.Printf("\nAssets (%d):\n", len(details.Assets))
		for _, asset := range details.Assets {
			fmt.Printf("  - %s [%s]\n", asset.OriginalPath, asset.MediaType)
			if verbose {
				if asset.MimeType != "" {
					fmt.Printf("    MIME: %s\n", asset.MimeType)
				}
				if asset.SizeBytes > 0 {
					fmt.Printf("    Size: %d bytes\n", asset.SizeBytes)
				}
				if asset.ContentHash != "" {
					fmt.Printf("    SHA-256: %s\n", asset.ContentHash)
				}
			}
		}
	}

	return nil
}

func runRetry(cmd *cobra.Command, args []string) error {
	resp, err := gwClient.RetryJob(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	if !resp.OK {
		fmt.Printf("Job %s cannot be retried in its current state\n", args[0])
		return nil
	}
	fmt.Printf("Job %s re-queued\n", args[0])
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	resp, err := gwClient.CancelJob(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	if !resp.OK {
		fmt.Printf("Job %s cannot be cancelled in its current state\n", args[0])
		return nil
	}
	fmt.Printf("Job %s cancelled\n", args[0])
	return nil
}
