package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/iskisraell/obsidian-ai-agent/internal/service"
	"github.com/iskisraell/obsidian-ai-agent/internal/view"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream job events from the daemon",
	Long: `Follow the daemon's event feed and print one line per job event.
Press Ctrl+C to stop.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	conn, _, err := websocket.DefaultDialer.Dial(eventFeedURL(cfg.ServerURL), nil)
	if err != nil {
		return fmt.Errorf("connect to event feed: %w", err)
	}
	defer conn.Close()

	// Ctrl+C closes the connection, which unblocks the read loop.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		conn.Close()
	}()

	fmt.Println("Watching job events (Ctrl+C to stop)")
	for {
		var event service.Event
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err) {
				return fmt.Errorf("event feed closed: %w", err)
			}
			return nil
		}

		line := fmt.Sprintf("%s %s %-12s %s",
			event.Timestamp.Local().Format(time.TimeOnly),
			view.StatusGlyph(event.Status), event.JobID, event.Message)
		if event.Type == service.EventTypeError {
			line += " [error]"
		}
		fmt.Println(line)
	}
}

// eventFeedURL derives the websocket endpoint from the command API base URL.
func eventFeedURL(serverURL string) string {
	ws := serverURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimSuffix(ws, "/") + "/api/events"
}
