package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tokenrace/tokenrace/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size in bytes
	maxMessageSize = 4096

	// Buffer size for outgoing messages. A peer that falls further behind
	// than this has messages dropped rather than stalling the room.
	sendBufferSize = 64
)

// Conn wraps one live websocket connection with its authenticated identity
// and a bounded send queue. Writes go through the queue so a slow peer can
// never block the broadcasting goroutine.
type Conn struct {
	ws       *websocket.Conn
	identity model.Identity
	send     chan []byte
	logger   *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(wsConn *websocket.Conn, identity model.Identity, logger *slog.Logger) *Conn {
	return &Conn{
		ws:       wsConn,
		identity: identity,
		send:     make(chan []byte, sendBufferSize),
		logger:   logger.With(slog.String("user_id", string(identity.UserID))),
		closed:   make(chan struct{}),
	}
}

// UserID returns the authenticated user behind this connection
func (c *Conn) UserID() model.UserID {
	return c.identity.UserID
}

// Send marshals and enqueues a message. Delivery is best-effort: if the
// send queue is full or the connection is closing, the message is dropped.
// Messages that are enqueued are written in enqueue order.
func (c *Conn) Send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal outbound message",
			slog.String("type", string(msg.Type)),
			slog.Any("error", err))
		return
	}
	c.trySend(data)
}

func (c *Conn) trySend(data []byte) {
	select {
	case <-c.closed:
		return
	default:
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("outbound message dropped - send buffer full")
	}
}

// writePump drains the send queue to the peer and keeps the connection
// alive with periodic pings. One writePump goroutine per connection; the
// gorilla connection allows at most one concurrent writer.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}

// close signals the writePump to exit exactly once. The send channel is
// left open; messages enqueued after close are silently dropped.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
