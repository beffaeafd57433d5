package ui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// Form rows, top to bottom.
const (
	fieldVaultPath = iota
	fieldCLIPath
	fieldGeminiModel
	fieldWriteMode
	fieldCredential
	fieldCount
)

var writeModes = []model.WriteMode{
	model.WriteModeCLIFallback,
	model.WriteModeCLIOnly,
	model.WriteModeFilesystemOnly,
}

// settingsForm edits the settings draft in place. Text edits flow into the
// draft manager on every keystroke so dirty tracking matches what is shown.
type settingsForm struct {
	inputs    [fieldCount - 1]textinput.Model
	writeMode model.WriteMode
	focus     int
}

func newSettingsForm() settingsForm {
	var f settingsForm
	labels := [...]string{"vault path", "obsidian CLI path", "Gemini model"}
	for i := range f.inputs {
		input := textinput.New()
		if i < len(labels) {
			input.Placeholder = labels[i]
		}
		f.inputs[i] = input
	}
	f.inputs[fieldCredential-1].Placeholder = "paste new Gemini API key"
	f.inputs[fieldCredential-1].EchoMode = textinput.EchoPassword
	return f
}

// seed fills the form from the current draft.
func (f *settingsForm) seed(draft model.Settings, credential string) {
	f.inputs[fieldVaultPath].SetValue(draft.VaultPath)
	f.inputs[fieldCLIPath].SetValue(draft.ObsidianCLIPath)
	f.inputs[fieldGeminiModel].SetValue(draft.GeminiModel)
	f.inputs[fieldCredential-1].SetValue(credential)
	f.writeMode = draft.WriteMode
	f.setFocus(fieldVaultPath)
}

func (f *settingsForm) setFocus(idx int) {
	f.focus = idx
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if idx != fieldWriteMode {
		f.inputs[f.inputIndex(idx)].Focus()
	}
}

// inputIndex maps a field row to its slot in inputs; the write-mode row has
// no text input.
func (f *settingsForm) inputIndex(field int) int {
	if field > fieldWriteMode {
		return field - 1
	}
	return field
}

func (f *settingsForm) cycleWriteMode(delta int) {
	for i, mode := range writeModes {
		if mode == f.writeMode {
			f.writeMode = writeModes[(i+delta+len(writeModes))%len(writeModes)]
			return
		}
	}
	f.writeMode = writeModes[0]
}

// handleSettingsKey drives the settings form. Returns to the queue on esc.
func (m Model) handleSettingsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "down":
		m.form.setFocus((m.form.focus + 1) % fieldCount)
		return m, nil

	case "shift+tab", "up":
		m.form.setFocus((m.form.focus + fieldCount - 1) % fieldCount)
		return m, nil

	case "left", "right":
		if m.form.focus == fieldWriteMode {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.form.cycleWriteMode(delta)
			m.ctrl.Drafts.SetWriteMode(m.form.writeMode)
			return m, nil
		}

	case "ctrl+s":
		m.editing = false
		return m, mutationCmd(func(ctx context.Context) {
			m.ctrl.Mutations.SaveSettings(ctx)
		})

	case "enter":
		if m.form.focus == fieldCredential {
			value := m.form.inputs[fieldCredential-1].Value()
			m.form.inputs[fieldCredential-1].SetValue("")
			return m, mutationCmd(func(ctx context.Context) {
				m.ctrl.Mutations.SaveCredential(ctx, value)
			})
		}
		m.form.setFocus((m.form.focus + 1) % fieldCount)
		return m, nil
	}

	if m.form.focus == fieldWriteMode {
		return m, nil
	}

	idx := m.form.inputIndex(m.form.focus)
	var cmd tea.Cmd
	m.form.inputs[idx], cmd = m.form.inputs[idx].Update(msg)
	m.pushDraftEdit(m.form.focus, m.form.inputs[idx].Value())
	return m, cmd
}

// pushDraftEdit mirrors one form field into the draft manager.
func (m *Model) pushDraftEdit(field int, value string) {
	switch field {
	case fieldVaultPath:
		m.ctrl.Drafts.SetVaultPath(value)
	case fieldCLIPath:
		m.ctrl.Drafts.SetObsidianCLIPath(value)
	case fieldGeminiModel:
		m.ctrl.Drafts.SetGeminiModel(value)
	case fieldCredential:
		m.ctrl.Drafts.SetCredentialInput(value)
	}
}

func (m Model) renderSettingsForm() string {
	var b strings.Builder
	b.WriteString(m.theme.headerStyle().Render("Edit settings") + "\n\n")

	rows := [...]struct {
		label string
		view  string
	}{
		{"Vault path", m.form.inputs[fieldVaultPath].View()},
		{"Obsidian CLI", m.form.inputs[fieldCLIPath].View()},
		{"Gemini model", m.form.inputs[fieldGeminiModel].View()},
		{"Write mode", m.renderWriteModeRow()},
		{"API key", m.form.inputs[fieldCredential-1].View()},
	}
	for i, row := range rows {
		marker := "  "
		if i == m.form.focus {
			marker = m.theme.selectedStyle().Render("› ")
		}
		b.WriteString(fmt.Sprintf("%s%-14s %s\n", marker, row.label, row.view))
	}

	b.WriteString("\n")
	if m.ctrl.Drafts.Dirty() {
		b.WriteString(m.theme.hintStyle().Render("unsaved changes") + "\n")
	}
	b.WriteString(m.theme.hintStyle().Render(
		"tab next field · ←/→ write mode · enter on API key saves it · ctrl+s save · esc back") + "\n")
	return b.String()
}

func (m Model) renderWriteModeRow() string {
	parts := make([]string, 0, len(writeModes))
	for _, mode := range writeModes {
		label := string(mode)
		if mode == m.form.writeMode {
			label = m.theme.selectedStyle().Render("[" + label + "]")
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}
