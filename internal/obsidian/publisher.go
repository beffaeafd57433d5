// Package obsidian writes generated notes into an Obsidian vault, CLI-first
// with an atomic filesystem fallback.
package obsidian

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

const capturesDirName = "AI Captures"

// Write methods reported to the client.
const (
	MethodCLI        = "cli"
	MethodFilesystem = "filesystem_fallback"
)

// ErrVaultNotFound is returned when no vault path is configured and none
// could be auto-detected.
var ErrVaultNotFound = errors.New("could not detect obsidian vault path")

// Result describes where and how a note was written.
type Result struct {
	NotePath string
	Method   string
}

// cliRunner executes the Obsidian CLI; injectable for tests.
type cliRunner func(cliPath string, args ...string) error

// Publisher writes notes according to the configured write mode.
type Publisher struct {
	logger *slog.Logger
	runCLI cliRunner
}

// NewPublisher creates a publisher.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		logger: logger,
		runCLI: runObsidianCLI,
	}
}

func runObsidianCLI(cliPath string, args ...string) error {
	out, err := exec.Command(cliPath, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("obsidian cli: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Publish writes the note for title into the vault resolved from settings.
func (p *Publisher) Publish(settings model.Settings, title, markdown string) (Result, error) {
	vault, err := resolveVaultPath(settings)
	if err != nil {
		return Result{}, err
	}

	mode := settings.WriteMode
	if !mode.Valid() {
		mode = model.WriteModeCLIFallback
	}

	if mode == model.WriteModeCLIOnly || mode == model.WriteModeCLIFallback {
		if err := p.cliWrite(settings, vault, title, markdown); err == nil {
			notePath := filepath.Join(vault, capturesDirName, sanitizeFileName(title)+".md")
			return Result{NotePath: notePath, Method: MethodCLI}, nil
		} else if mode == model.WriteModeCLIOnly {
			return Result{}, err
		} else {
			p.logger.Warn("obsidian cli write failed, falling back to filesystem", "error", err)
		}
	}

	notePath, err := directWrite(vault, title, markdown)
	if err != nil {
		return Result{}, err
	}
	return Result{NotePath: notePath, Method: MethodFilesystem}, nil
}

func (p *Publisher) cliWrite(settings model.Settings, vault, title, markdown string) error {
	cliPath := strings.TrimSpace(settings.ObsidianCLIPath)
	if cliPath == "" {
		cliPath = "obsidian"
	}
	return p.runCLI(cliPath,
		"note", "create",
		"--vault", vault,
		"--name", title,
		"--content", markdown,
	)
}

// sanitizeFileName keeps letters, digits, '-', '_', '.', and spaces, then
// collapses spaces into dashes.
func sanitizeFileName(input string) string {
	var b strings.Builder
	for _, ch := range input {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '-', ch == '_', ch == ' ', ch == '.':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "-")
}

func resolveVaultPath(settings model.Settings) (string, error) {
	if trimmed := strings.TrimSpace(settings.VaultPath); trimmed != "" {
		return trimmed, nil
	}
	if vault, ok := detectVaultFromObsidianJSON(); ok {
		return vault, nil
	}
	return "", ErrVaultNotFound
}

// detectVaultFromObsidianJSON reads the Obsidian desktop app's vault
// registry and returns the first registered vault path.
func detectVaultFromObsidianJSON() (string, bool) {
	configDir := os.Getenv("APPDATA")
	if configDir == "" {
		var err error
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", false
		}
	}

	data, err := os.ReadFile(filepath.Join(configDir, "obsidian", "obsidian.json"))
	if err != nil {
		return "", false
	}

	var registry struct {
		Vaults map[string]struct {
			Path string `json:"path"`
		} `json:"vaults"`
	}
	if err := json.Unmarshal(data, &registry); err != nil {
		return "", false
	}

	for _, vault := range registry.Vaults {
		if vault.Path != "" {
			return vault.Path, true
		}
	}
	return "", false
}

// directWrite places the note under <vault>/AI Captures atomically and
// verifies the final path did not escape the vault.
func directWrite(vault, title, markdown string) (string, error) {
	canonicalVault, err := filepath.EvalSymlinks(vault)
	if err != nil {
		return "", fmt.Errorf("resolve vault path: %w", err)
	}

	capturesDir := filepath.Join(canonicalVault, capturesDirName)
	if err := os.MkdirAll(capturesDir, 0o755); err != nil {
		return "", fmt.Errorf("create captures dir: %w", err)
	}

	safeName := sanitizeFileName(title)
	finalPath := filepath.Join(capturesDir, safeName+".md")
	tempPath := filepath.Join(capturesDir, safeName+".tmp")

	if err := os.WriteFile(tempPath, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write note temp file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}

	canonicalNote, err := filepath.EvalSymlinks(finalPath)
	if err != nil {
		return "", fmt.Errorf("resolve note path: %w", err)
	}
	rel, err := filepath.Rel(canonicalVault, canonicalNote)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("generated note path escaped vault boundary")
	}

	return canonicalNote, nil
}
