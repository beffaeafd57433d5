// Package cli provides the command-line interface for the Obsidian agent.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iskisraell/obsidian-ai-agent/internal/config"
	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
	"github.com/iskisraell/obsidian-ai-agent/internal/metrics"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and gateway client
	cfg       config.Config
	gwClient  *gateway.Client
	collector *metrics.Collector
	logger    *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "obsidian-agent",
	Short: "Local-first media ingestion into Obsidian",
	Long: `Obsidian-agent captures batches of media files, summarizes them with
Gemini, and publishes AI-generated notes into an Obsidian vault.

Running without a subcommand opens the interactive dashboard. The agent
daemon (obsidian-agentd) must be running; commands talk to it over its
local command API.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version and help never need the daemon.
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		// Interactive surfaces own the terminal, so client logs go to the
		// log file only.
		logger = config.SetupLoggerWithWriters(io.Discard, openLogFile(), level)

		collector = metrics.NewCollector()
		gwClient = gateway.New(cfg.ServerURL).WithStats(collector)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd, args)
	},
}

// openLogFile opens the configured log file, falling back to discard when
// the path is unusable.
func openLogFile() io.Writer {
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
