package control

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

func TestDraftObserveSnapshotWhileClean(t *testing.T) {
	d := NewDraftManager()
	d.ObserveSnapshot(model.Settings{VaultPath: "/first"})
	assert.Equal(t, "/first", d.Draft().VaultPath)

	// A later fetch keeps replacing the draft as long as nothing was edited.
	d.ObserveSnapshot(model.Settings{VaultPath: "/second"})
	assert.Equal(t, "/second", d.Draft().VaultPath)
	assert.False(t, d.Dirty())
}

func TestDraftEditsSurviveBackgroundRefresh(t *testing.T) {
	d := NewDraftManager()
	d.Seed(model.Settings{VaultPath: "/vault", GeminiModel: "gemini-2.5-flash"})

	d.SetGeminiModel("gemini-2.5-pro")
	assert.True(t, d.Dirty())

	d.ObserveSnapshot(model.Settings{VaultPath: "/vault", GeminiModel: "gemini-2.5-flash"})
	assert.Equal(t, "gemini-2.5-pro", d.Draft().GeminiModel,
		"in-progress edit must not be clobbered by a refresh")
}

func TestDraftSeedClearsDirty(t *testing.T) {
	d := NewDraftManager()
	d.SetVaultPath("/edited")
	assert.True(t, d.Dirty())

	d.Seed(model.Settings{VaultPath: "/saved"})
	assert.False(t, d.Dirty())
	assert.Equal(t, "/saved", d.Draft().VaultPath)
}

func TestDraftPrepareForSaveTrims(t *testing.T) {
	d := NewDraftManager()
	d.SetVaultPath("  /vault  ")
	d.SetObsidianCLIPath("\tobsidian ")
	d.SetGeminiModel(" gemini-2.5-flash\n")
	d.SetWriteMode(model.WriteModeCLIFallback)

	payload := d.PrepareForSave()
	assert.Equal(t, "/vault", payload.VaultPath)
	assert.Equal(t, "obsidian", payload.ObsidianCLIPath)
	assert.Equal(t, "gemini-2.5-flash", payload.GeminiModel)
	assert.Equal(t, model.WriteModeCLIFallback, payload.WriteMode)

	// PrepareForSave is a read, not an edit.
	assert.Equal(t, "  /vault  ", d.Draft().VaultPath)
}

func TestDraftCredentialClearedOnKeychainConfirmation(t *testing.T) {
	d := NewDraftManager()
	d.SetCredentialInput("sk-secret")

	// Env-sourced or unconfigured statuses leave the input alone.
	d.ObserveCredentialStatus(model.CredentialStatus{Configured: true, Source: model.CredentialSourceEnvironment})
	assert.Equal(t, "sk-secret", d.CredentialInput())
	d.ObserveCredentialStatus(model.CredentialStatus{Configured: false, Source: model.CredentialSourceMissing})
	assert.Equal(t, "sk-secret", d.CredentialInput())

	d.ObserveCredentialStatus(model.CredentialStatus{Configured: true, Source: model.CredentialSourceKeychain})
	assert.Empty(t, d.CredentialInput())
}
