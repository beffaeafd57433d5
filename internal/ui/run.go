package ui

import (
	"context"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"

	"github.com/iskisraell/obsidian-ai-agent/internal/control"
	"github.com/iskisraell/obsidian-ai-agent/internal/metrics"
)

// RunDashboard wires a controller over the gateway and runs the interactive
// dashboard until the user quits.
func RunDashboard(ctx context.Context, gw control.Gateway, stats *metrics.Collector, logger *slog.Logger) error {
	notifCh := make(chan control.Notification, 16)
	notifier := control.NotifierFunc(func(n control.Notification) {
		select {
		case notifCh <- n:
		default:
			// A full channel means the UI is not draining; drop rather
			// than block the sync layer.
		}
	})

	ctrl := control.NewController(gw, logger, notifier)
	stop := ctrl.Start(ctx)
	defer stop()

	p := tea.NewProgram(NewModel(ctrl, notifCh, stats))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard UI error: %w", err)
	}
	return nil
}
