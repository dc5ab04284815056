package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var joinMode string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream realtime events over websocket",
		Long: `Connect to the websocket endpoint and stream events in real-time.

Events include:
  - connection_success: Connection established
  - queue_status: Queue position update
  - match_found: A match was created for you
  - match_failed: Match provisioning failed
  - server_ready: Game server is ready to join
  - match_complete: Match finished

With --join, a queue_join message is sent after connecting, so a single
command queues up and waits for the match to resolve.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(joinMode, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&joinMode, "join", "", "Join this game mode after connecting")

	return cmd
}

// wsEvent is a loosely-parsed server event
type wsEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func streamEvents(joinMode string, jsonOutput bool) error {
	url := websocketURL(cfg.ServerURL)

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connect failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Connected to %s\n", url)
	}

	if joinMode != "" {
		msg := map[string]string{"type": "queue_join", "game_mode": joinMode}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("failed to send queue_join: %w", err)
		}
	}

	// Close the connection on Ctrl+C so the read loop unblocks
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			// Treat a locally-closed connection as a clean exit
			if strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		printEvent(data, jsonOutput)
	}
}

func printEvent(data []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}

	var ev wsEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		fmt.Println(string(data))
		return
	}

	ts := time.Now().Format("15:04:05")
	if len(ev.Data) > 0 {
		fmt.Printf("[%s] %s %s\n", ts, ev.Type, string(ev.Data))
	} else {
		fmt.Printf("[%s] %s\n", ts, ev.Type)
	}
}

// websocketURL converts the configured server URL to its ws endpoint
func websocketURL(serverURL string) string {
	url := strings.TrimSuffix(serverURL, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws"
}
