package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <room-id>",
		Short: "Stream realtime events from a room",
		Long: `Join the room over the websocket protocol and stream its events.

Events include:
  - room.state: Full room snapshot
  - room.player_joined / room.player_left: Membership changes
  - game.started: A game began
  - game.dice_rolled: The active player rolled
  - game.token_moved: A token advanced
  - game.turn_changed: The turn passed
  - game.state: Full game snapshot
  - error: A room-visible action failure

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

func watchRoom(roomID string, jsonOutput bool) error {
	s, err := dialSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Send("room.join", map[string]string{"roomId": roomID}); err != nil {
		return err
	}

	// Disconnect on interrupt
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(done)
		s.Close()
	}()

	if !jsonOutput {
		fmt.Printf("Watching room %s\n", roomID)
	}

	for {
		msg, err := s.Next(time.Now().Add(24 * time.Hour))
		if err != nil {
			select {
			case <-done:
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			default:
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		printWireEvent(msg, jsonOutput)
	}
}

// wireEvent is the JSON-lines output record for watched events
type wireEvent struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func printWireEvent(msg wsMessage, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := wireEvent{
			Time:    now,
			Type:    msg.Type,
			Payload: msg.Payload,
		}
		data, _ := json.Marshal(evt)
		fmt.Println(string(data))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	display := string(msg.Payload)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	display = strings.ReplaceAll(display, "\n", " ")
	fmt.Printf("[%s] %s: %s\n", timestamp, msg.Type, display)
}
