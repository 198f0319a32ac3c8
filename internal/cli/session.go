package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// wsMessage is the tagged websocket wire format
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// errorPayload mirrors the server's error event payload
type errorPayload struct {
	Message string `json:"message"`
}

// session is a websocket connection to the server's realtime endpoint
type session struct {
	conn *websocket.Conn
}

// dialSession connects to the server's websocket endpoint using the
// configured auth token
func dialSession(cfg *Config) (*session, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("not logged in: run 'tokenrace auth login' first")
	}

	u, err := url.Parse(strings.TrimSuffix(cfg.ServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {cfg.Token}}.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	return &session{conn: conn}, nil
}

// Close closes the websocket connection
func (s *session) Close() {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = s.conn.Close()
}

// Send writes a message with the given type and payload
func (s *session) Send(msgType string, payload any) error {
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	return s.conn.WriteJSON(msg)
}

// Next reads the next message, honoring the given deadline
func (s *session) Next(deadline time.Time) (wsMessage, error) {
	_ = s.conn.SetReadDeadline(deadline)

	var msg wsMessage
	if err := s.conn.ReadJSON(&msg); err != nil {
		return wsMessage{}, err
	}
	return msg, nil
}

// Join sends room.join and waits for the resulting room snapshot. Any
// error event received while waiting aborts the join.
func (s *session) Join(roomID string, timeout time.Duration) error {
	if err := s.Send("room.join", map[string]string{"roomId": roomID}); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for {
		msg, err := s.Next(deadline)
		if err != nil {
			return fmt.Errorf("no join confirmation: %w", err)
		}

		switch msg.Type {
		case "room.state":
			return nil
		case "error":
			return fmt.Errorf("join rejected: %s", decodeError(msg.Payload))
		}
	}
}

// WaitFor reads events until one of the wanted types (or an error event)
// arrives, returning that message
func (s *session) WaitFor(timeout time.Duration, wanted ...string) (wsMessage, error) {
	deadline := time.Now().Add(timeout)
	for {
		msg, err := s.Next(deadline)
		if err != nil {
			return wsMessage{}, err
		}

		if msg.Type == "error" {
			return msg, fmt.Errorf("%s", decodeError(msg.Payload))
		}
		for _, w := range wanted {
			if msg.Type == w {
				return msg, nil
			}
		}
	}
}

func decodeError(payload json.RawMessage) string {
	var p errorPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Message == "" {
		return string(payload)
	}
	return p.Message
}
