package model

// WriteMode selects how published notes reach the vault.
type WriteMode string

const (
	WriteModeCLIOnly        WriteMode = "cli_only"
	WriteModeFilesystemOnly WriteMode = "filesystem_only"
	WriteModeCLIFallback    WriteMode = "cli_fallback"
)

// Valid reports whether m is one of the supported write modes.
func (m WriteMode) Valid() bool {
	switch m {
	case WriteModeCLIOnly, WriteModeFilesystemOnly, WriteModeCLIFallback:
		return true
	default:
		return false
	}
}

// Settings is the backend-owned runtime configuration.
type Settings struct {
	VaultPath       string    `json:"vault_path"`
	ObsidianCLIPath string    `json:"obsidian_cli_path"`
	GeminiModel     string    `json:"gemini_model"`
	WriteMode       WriteMode `json:"write_mode"`
}

// CredentialSource identifies where the active Gemini API key was resolved from.
type CredentialSource string

const (
	CredentialSourceKeychain    CredentialSource = "os_keychain"
	CredentialSourceEnvironment CredentialSource = "environment"
	CredentialSourceMissing     CredentialSource = "missing"
)

// CredentialStatus is the derived view of credential availability. The client
// never sees the credential value itself.
type CredentialStatus struct {
	Configured bool             `json:"configured"`
	Source     CredentialSource `json:"source"`
}
