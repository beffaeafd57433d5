package control

import (
	"strings"
	"sync"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// DraftManager holds the editable, possibly-divergent-from-daemon copy of
// settings plus the write-only credential input field.
//
// The draft is re-seeded from the authoritative snapshot on successful
// fetches only while it is clean; in-progress edits are never clobbered by a
// background refresh. A successful save always re-seeds.
type DraftManager struct {
	mu         sync.Mutex
	draft      model.Settings
	dirty      bool
	credential string
}

// NewDraftManager creates an empty draft manager.
func NewDraftManager() *DraftManager {
	return &DraftManager{}
}

// Seed replaces the draft with the authoritative snapshot and marks it
// clean. Called after a successful save and on first load.
func (d *DraftManager) Seed(s model.Settings) {
	d.mu.Lock()
	d.draft = s
	d.dirty = false
	d.mu.Unlock()
}

// ObserveSnapshot re-seeds the draft from a freshly fetched snapshot unless
// the user has unsaved edits.
func (d *DraftManager) ObserveSnapshot(s model.Settings) {
	d.mu.Lock()
	if !d.dirty {
		d.draft = s
	}
	d.mu.Unlock()
}

// Draft returns the current editable copy.
func (d *DraftManager) Draft() model.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Dirty reports whether the draft diverges from its seed through user edits.
func (d *DraftManager) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// SetVaultPath edits the draft vault path.
func (d *DraftManager) SetVaultPath(v string) { d.edit(func(s *model.Settings) { s.VaultPath = v }) }

// SetObsidianCLIPath edits the draft CLI path.
func (d *DraftManager) SetObsidianCLIPath(v string) {
	d.edit(func(s *model.Settings) { s.ObsidianCLIPath = v })
}

// SetGeminiModel edits the draft model identifier.
func (d *DraftManager) SetGeminiModel(v string) {
	d.edit(func(s *model.Settings) { s.GeminiModel = v })
}

// SetWriteMode edits the draft write mode. The value is passed through to the
// daemon unmodified.
func (d *DraftManager) SetWriteMode(m model.WriteMode) {
	d.edit(func(s *model.Settings) { s.WriteMode = m })
}

func (d *DraftManager) edit(apply func(*model.Settings)) {
	d.mu.Lock()
	apply(&d.draft)
	d.dirty = true
	d.mu.Unlock()
}

// PrepareForSave returns the draft with leading/trailing whitespace trimmed
// from path and model-identifier fields. The write mode is not touched.
func (d *DraftManager) PrepareForSave() model.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload := d.draft
	payload.VaultPath = strings.TrimSpace(payload.VaultPath)
	payload.ObsidianCLIPath = strings.TrimSpace(payload.ObsidianCLIPath)
	payload.GeminiModel = strings.TrimSpace(payload.GeminiModel)
	return payload
}

// SetCredentialInput stores the write-only credential draft field.
func (d *DraftManager) SetCredentialInput(v string) {
	d.mu.Lock()
	d.credential = v
	d.mu.Unlock()
}

// CredentialInput returns the pending credential input.
func (d *DraftManager) CredentialInput() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.credential
}

// ObserveCredentialStatus clears the credential input once the daemon
// confirms the key landed in the keychain, so the plaintext does not linger.
func (d *DraftManager) ObserveCredentialStatus(st model.CredentialStatus) {
	if !st.Configured || st.Source != model.CredentialSourceKeychain {
		return
	}
	d.mu.Lock()
	d.credential = ""
	d.mu.Unlock()
}
