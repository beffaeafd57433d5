// Package ui implements the interactive dashboard over the sync layer.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/iskisraell/obsidian-ai-agent/internal/control"
	"github.com/iskisraell/obsidian-ai-agent/internal/metrics"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
	"github.com/iskisraell/obsidian-ai-agent/internal/view"
)

const renderInterval = 500 * time.Millisecond

// tickMsg triggers re-reading the controller state
type tickMsg time.Time

// notificationMsg carries one mutation outcome into the update loop
type notificationMsg control.Notification

// actionDoneMsg signals that a fire-and-forget mutation returned
type actionDoneMsg struct{}

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctrl    *control.Controller
	notifCh <-chan control.Notification
	stats   *metrics.Collector

	projection view.Projection
	hasJobs    bool
	cursor     int

	gauge progress.Model
	theme Theme

	editing bool
	form    settingsForm

	notification *control.Notification
	notifiedAt   time.Time

	width    int
	quitting bool
}

// NewModel creates a dashboard model over a started controller. The
// notification channel is the sink given to the controller's notifier.
func NewModel(ctrl *control.Controller, notifCh <-chan control.Notification, stats *metrics.Collector) Model {
	gauge := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(30),
	)

	return Model{
		ctrl:    ctrl,
		notifCh: notifCh,
		stats:   stats,
		gauge:   gauge,
		form:    newSettingsForm(),
		theme:   defaultTheme,
		width:   80,
	}
}

// Init returns the initial command (start the render ticker).
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.waitForNotification(),
		m.gauge.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		if m.editing {
			return m.handleSettingsKey(msg)
		}
		return m.handleKey(msg)

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case notificationMsg:
		n := control.Notification(msg)
		m.notification = &n
		m.notifiedAt = time.Now()
		return m, m.waitForNotification()

	case actionDoneMsg:
		// Outcome arrives through the notifier; nothing to do here.
		return m, nil

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.gauge, cmd = m.gauge.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.selectCursorRow()
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.projection.Rows)-1 {
			m.cursor++
			m.selectCursorRow()
		}
		return m, nil

	case "r":
		if jobID, ok := m.ctrl.Selection.Active(); ok {
			return m, mutationCmd(func(ctx context.Context) {
				m.ctrl.Mutations.Retry(ctx, jobID)
			})
		}
		return m, nil

	case "c":
		if jobID, ok := m.ctrl.Selection.Active(); ok {
			return m, mutationCmd(func(ctx context.Context) {
				m.ctrl.Mutations.Cancel(ctx, jobID)
			})
		}
		return m, nil

	case "p":
		if m.ctrl.PublishEnabled() {
			return m, mutationCmd(func(ctx context.Context) {
				m.ctrl.Mutations.Publish(ctx)
			})
		}
		return m, nil

	case "e":
		m.editing = true
		m.form.seed(m.ctrl.Drafts.Draft(), m.ctrl.Drafts.CredentialInput())
		return m, nil
	}

	return m, nil
}

// refresh recomputes the projection from the cached snapshots and clamps the
// cursor to it.
func (m *Model) refresh() {
	jobs, ok := m.ctrl.Cache.Jobs()
	m.hasJobs = ok
	settings, _ := m.ctrl.Cache.Settings()
	m.projection = view.Project(jobs, settings)

	if m.cursor >= len(m.projection.Rows) {
		m.cursor = max(0, len(m.projection.Rows)-1)
	}
	m.syncCursorToSelection()
}

// syncCursorToSelection moves the cursor to the active job after reorders.
func (m *Model) syncCursorToSelection() {
	jobID, ok := m.ctrl.Selection.Active()
	if !ok {
		return
	}
	for i, row := range m.projection.Rows {
		if row.JobID == jobID {
			m.cursor = i
			return
		}
	}
}

func (m *Model) selectCursorRow() {
	if m.cursor >= 0 && m.cursor < len(m.projection.Rows) {
		m.ctrl.Selection.Select(m.projection.Rows[m.cursor].JobID)
	}
}

// View renders the dashboard.
func (m Model) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m Model) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render("Obsidian Agent") + "\n\n")

	if m.ctrl.Poller.Stale() {
		b.WriteString(m.theme.errorStyle().Render("⚠ daemon unreachable, showing last known state") + "\n\n")
	}

	if m.editing {
		b.WriteString(m.renderSettingsForm())
		return b.String()
	}

	b.WriteString(m.renderQueue())
	b.WriteString(m.renderTallies())
	b.WriteString(m.renderTimeline())
	b.WriteString(m.renderGauge())
	b.WriteString(m.renderSettings())
	b.WriteString(m.renderPreview())
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderQueue() string {
	if !m.hasJobs {
		return m.theme.hintStyle().Render("Loading jobs...") + "\n\n"
	}
	if len(m.projection.Rows) == 0 {
		return m.theme.hintStyle().Render("No jobs yet. Run 'obsidian-agent enqueue <file>' to start.") + "\n\n"
	}

	var b strings.Builder
	b.WriteString(m.theme.headerStyle().Render("Ingestion queue") + "\n")
	for i, row := range m.projection.Rows {
		line := fmt.Sprintf("%s %s  %s", view.StatusGlyph(row.Status), row.Label, m.theme.hintStyle().Render(row.Detail))
		if i == m.cursor {
			line = m.theme.selectedStyle().Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTallies() string {
	if m.projection.Total == 0 {
		return ""
	}

	order := []model.JobStatus{
		model.JobStatusQueued,
		model.JobStatusProcessing,
		model.JobStatusCompleted,
		model.JobStatusFailed,
		model.JobStatusCancelled,
	}
	parts := make([]string, 0, len(order))
	for _, status := range order {
		if n := m.projection.Tallies[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	return m.theme.hintStyle().Render(strings.Join(parts, " · ")) + "\n\n"
}

func (m Model) renderTimeline() string {
	if len(m.projection.Timeline) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.headerStyle().Render("Recent activity") + "\n")
	for _, entry := range m.projection.Timeline {
		b.WriteString(fmt.Sprintf("  %s  %s (%s)\n",
			entry.At.Local().Format("15:04:05"), entry.Title, entry.Description))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderGauge() string {
	pct := float64(m.projection.Confidence) / 100
	return fmt.Sprintf("%s %s %d%%\n\n",
		m.theme.headerStyle().Render("Confidence"), m.gauge.ViewAs(pct), m.projection.Confidence)
}

func (m Model) renderSettings() string {
	var b strings.Builder
	b.WriteString(m.theme.headerStyle().Render("Settings") + "\n")
	for _, line := range m.projection.SettingsLines {
		b.WriteString("  " + line + "\n")
	}
	if m.ctrl.Drafts.Dirty() {
		b.WriteString(m.theme.hintStyle().Render("  (unsaved draft edits)") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderPreview() string {
	preview := m.ctrl.Preview()
	if preview == "" {
		return ""
	}

	lines := strings.Split(preview, "\n")
	const previewLines = 8
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], m.theme.hintStyle().Render("…"))
	}
	return m.theme.headerStyle().Render("Note preview") + "\n" +
		strings.Join(lines, "\n") + "\n\n"
}

func (m Model) renderFooter() string {
	var b strings.Builder
	if m.notification != nil && time.Since(m.notifiedAt) < 5*time.Second {
		style := m.theme.successStyle()
		switch m.notification.Level {
		case control.LevelFailure:
			style = m.theme.errorStyle()
		case control.LevelSoft:
			style = m.theme.hintStyle()
		}
		b.WriteString(style.Render(m.notification.Message) + "\n")
	}
	if line := m.renderStats(); line != "" {
		b.WriteString(m.theme.hintStyle().Render(line) + "\n")
	}
	b.WriteString(m.theme.hintStyle().Render("↑/↓ select · r retry · c cancel · p publish · e settings · q quit") + "\n")
	return b.String()
}

// renderStats summarizes gateway round trips since startup.
func (m Model) renderStats() string {
	if m.stats == nil {
		return ""
	}
	snapshot := m.stats.Snapshot()

	var calls, failures int64
	for _, op := range snapshot.Operations {
		calls += op.Count
		failures += op.Failures
	}
	if calls == 0 {
		return ""
	}
	return fmt.Sprintf("gateway: %d calls · %d failed · up %ds",
		calls, failures, int64(snapshot.UptimeSeconds))
}

// waitForNotification blocks on the notifier channel.
func (m Model) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		n, ok := <-m.notifCh
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

// mutationCmd runs one coordinator call off the update loop. Outcomes are
// reported through the notifier, not the returned message.
func mutationCmd(fn func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		fn(ctx)
		return actionDoneMsg{}
	}
}

// tickCmd returns a command that re-renders after the render interval.
func tickCmd() tea.Cmd {
	return tea.Tick(renderInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
