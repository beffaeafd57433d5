// Package secrets stores the Gemini API key in a file-backed keystore under
// the agent home, with the GEMINI_API_KEY environment variable as a
// lower-priority fallback.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

const keyFileName = "gemini_api_key"

// ErrEmptyKey is returned by Save for blank input.
var ErrEmptyKey = errors.New("Gemini API key cannot be empty")

// Keystore resolves, saves, and clears the Gemini API key. Stored keys take
// precedence over the environment.
type Keystore struct {
	path   string
	getenv func(string) string
}

// NewKeystore creates a keystore rooted at dir.
func NewKeystore(dir string) *Keystore {
	return &Keystore{
		path:   filepath.Join(dir, keyFileName),
		getenv: os.Getenv,
	}
}

func (k *Keystore) readStored() (string, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read stored API key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (k *Keystore) fromEnvironment() string {
	return strings.TrimSpace(k.getenv("GEMINI_API_KEY"))
}

// Resolve returns the active API key, or "" when none is configured.
func (k *Keystore) Resolve() (string, error) {
	stored, err := k.readStored()
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}
	return k.fromEnvironment(), nil
}

// Status reports where the active key comes from without exposing it.
func (k *Keystore) Status() (model.CredentialStatus, error) {
	stored, err := k.readStored()
	if err != nil {
		return model.CredentialStatus{}, err
	}
	if stored != "" {
		return model.CredentialStatus{Configured: true, Source: model.CredentialSourceKeychain}, nil
	}
	if k.fromEnvironment() != "" {
		return model.CredentialStatus{Configured: true, Source: model.CredentialSourceEnvironment}, nil
	}
	return model.CredentialStatus{Configured: false, Source: model.CredentialSourceMissing}, nil
}

// Save stores a trimmed, non-empty API key with owner-only permissions.
func (k *Keystore) Save(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ErrEmptyKey
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("create keystore dir: %w", err)
	}
	if err := os.WriteFile(k.path, []byte(trimmed), 0o600); err != nil {
		return fmt.Errorf("write API key: %w", err)
	}
	return nil
}

// Clear removes the stored key. Clearing an absent key is not an error.
func (k *Keystore) Clear() error {
	if err := os.Remove(k.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear API key: %w", err)
	}
	return nil
}
