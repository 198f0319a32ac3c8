package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

const actionTimeout = 10 * time.Second

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Realtime game commands",
	}

	cmd.AddCommand(newGameStartCmd())
	cmd.AddCommand(newGameRollCmd())
	cmd.AddCommand(newGameMoveCmd())
	cmd.AddCommand(newGameStateCmd())

	return cmd
}

func newGameStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <room-id>",
		Short: "Start the game in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoomSession(args[0], func(s *session) error {
				if err := s.Send("game.start", nil); err != nil {
					return err
				}

				msg, err := s.WaitFor(actionTimeout, "game.started")
				if err != nil {
					return err
				}

				var p struct {
					ActivePlayerID string `json:"activePlayerId"`
				}
				if err := json.Unmarshal(msg.Payload, &p); err != nil {
					return err
				}

				out := NewOutput(cfg.Output)
				out.PrintMessage(fmt.Sprintf("Game started. First turn: %s", p.ActivePlayerID))
				return nil
			})
		},
	}
}

func newGameRollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roll <room-id>",
		Short: "Roll the dice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoomSession(args[0], func(s *session) error {
				if err := s.Send("game.roll_dice", nil); err != nil {
					return err
				}

				msg, err := s.WaitFor(actionTimeout, "game.dice_rolled")
				if err != nil {
					return err
				}

				var p struct {
					PlayerID string `json:"playerId"`
					Value    int    `json:"value"`
				}
				if err := json.Unmarshal(msg.Payload, &p); err != nil {
					return err
				}

				out := NewOutput(cfg.Output)
				out.PrintMessage(fmt.Sprintf("Rolled %d", p.Value))
				return nil
			})
		},
	}
}

func newGameMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <room-id> <steps>",
		Short: "Move your token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid steps: %w", err)
			}

			return withRoomSession(args[0], func(s *session) error {
				if err := s.Send("game.move", map[string]int{"steps": steps}); err != nil {
					return err
				}

				msg, err := s.WaitFor(actionTimeout, "game.token_moved")
				if err != nil {
					return err
				}

				var p struct {
					PlayerID string `json:"playerId"`
					Pos      int    `json:"pos"`
				}
				if err := json.Unmarshal(msg.Payload, &p); err != nil {
					return err
				}

				out := NewOutput(cfg.Output)
				out.PrintMessage(fmt.Sprintf("Moved to position %d", p.Pos))
				return nil
			})
		},
	}
}

func newGameStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <room-id>",
		Short: "Show the room's current game state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoomSession(args[0], func(s *session) error {
				// Joining a room with a running game pushes a game.state
				// snapshot; a quiet stream means nothing has started
				out := NewOutput(cfg.Output)

				msg, err := s.WaitFor(2*time.Second, "game.state")
				if err != nil {
					if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
						out.Print(GameState{})
						return nil
					}
					return err
				}

				var state GameState
				if err := json.Unmarshal(msg.Payload, &state); err != nil {
					return err
				}

				out.Print(state)
				return nil
			})
		},
	}
}

// withRoomSession dials the websocket, joins the room, runs fn, and
// closes the connection
func withRoomSession(roomID string, fn func(s *session) error) error {
	s, err := dialSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Join(roomID, actionTimeout); err != nil {
		return err
	}

	return fn(s)
}
