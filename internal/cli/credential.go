package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the Gemini API key",
	Long: `Manage the Gemini API key used for note summarization.

The key is stored by the daemon; the GEMINI_API_KEY environment variable of
the daemon process acts as a fallback when no key is stored.

Examples:
  obsidian-agent credential status
  obsidian-agent credential set
  obsidian-agent credential clear`,
	RunE: runCredentialStatus,
}

var credentialStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the Gemini API key comes from",
	RunE:  runCredentialStatus,
}

var credentialSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the Gemini API key",
	RunE:  runCredentialSet,
}

var credentialClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored Gemini API key",
	RunE:  runCredentialClear,
}

func init() {
	credentialCmd.AddCommand(credentialStatusCmd)
	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialClearCmd)
	rootCmd.AddCommand(credentialCmd)
}

func runCredentialStatus(cmd *cobra.Command, args []string) error {
	status, err := gwClient.GetCredentialStatus(context.Background())
	if err != nil {
		return fmt.Errorf("get credential status: %w", err)
	}

	switch status.Source {
	case model.CredentialSourceKeychain:
		fmt.Println("Gemini API key: configured (stored by the daemon)")
	case model.CredentialSourceEnvironment:
		fmt.Println("Gemini API key: configured (GEMINI_API_KEY environment)")
	default:
		fmt.Println("Gemini API key: not configured")
		fmt.Println("Use 'obsidian-agent credential set' to store one.")
	}
	return nil
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	value, err := promptSecret("Gemini API key: ")
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if strings.TrimSpace(value) == "" {
		exitWithError("no key entered")
	}

	if err := gwClient.SaveCredential(context.Background(), value); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	fmt.Println("Gemini API key stored")
	return nil
}

func runCredentialClear(cmd *cobra.Command, args []string) error {
	if err := gwClient.ClearCredential(context.Background()); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	fmt.Println("Gemini API key cleared")
	return nil
}

// promptSecret reads a line without echo when stdin is a terminal, and falls
// back to a plain read for piped input.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	var value string
	if _, err := fmt.Fscanln(os.Stdin, &value); err != nil {
		return "", err
	}
	return value, nil
}
