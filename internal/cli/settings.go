package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
	"github.com/iskisraell/obsidian-ai-agent/internal/view"
)

var (
	setVaultPath   string
	setCLIPath     string
	setGeminiModel string
	setWriteMode   string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change agent settings",
	Long: `Show the settings the daemon currently uses, or change them with
'settings set'.

Examples:
  obsidian-agent settings
  obsidian-agent settings set --vault ~/Notes
  obsidian-agent settings set --write-mode cli_only`,
	RunE: runShowSettings,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more settings",
	RunE:  runSetSettings,
}

func init() {
	settingsSetCmd.Flags().StringVar(&setVaultPath, "vault", "", "Obsidian vault path")
	settingsSetCmd.Flags().StringVar(&setCLIPath, "cli-path", "", "obsidian CLI binary path")
	settingsSetCmd.Flags().StringVar(&setGeminiModel, "model", "", "Gemini model name")
	settingsSetCmd.Flags().StringVar(&setWriteMode, "write-mode", "",
		"note write mode: cli_only, filesystem_only, or cli_fallback")

	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runShowSettings(cmd *cobra.Command, args []string) error {
	settings, err := gwClient.GetSettings(context.Background())
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}

	for _, line := range view.SettingsLines(settings) {
		fmt.Println(line)
	}
	return nil
}

func runSetSettings(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Start from the daemon's snapshot so unset flags keep their values.
	settings, err := gwClient.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}

	changed := false
	if cmd.Flags().Changed("vault") {
		settings.VaultPath = setVaultPath
		changed = true
	}
	if cmd.Flags().Changed("cli-path") {
		settings.ObsidianCLIPath = setCLIPath
		changed = true
	}
	if cmd.Flags().Changed("model") {
		settings.GeminiModel = setGeminiModel
		changed = true
	}
	if cmd.Flags().Changed("write-mode") {
		settings.WriteMode = model.WriteMode(setWriteMode)
		changed = true
	}
	if !changed {
		return fmt.Errorf("no settings flags given, see 'obsidian-agent settings set --help'")
	}

	saved, err := gwClient.SaveSettings(ctx, settings)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	fmt.Println("Settings saved:")
	for _, line := range view.SettingsLines(saved) {
		fmt.Println("  " + line)
	}
	return nil
}
