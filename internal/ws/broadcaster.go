package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/tokenrace/tokenrace/internal/model"
)

// Broadcaster fans a message out to every connection attached to a room.
// Delivery is best-effort at-most-once per connection: a peer whose send
// queue is full is skipped without error or retry. Within one connection,
// messages arrive in the order Broadcast calls were issued.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

// NewBroadcaster creates a broadcaster over the given registry
func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger.With(slog.String("component", "broadcaster")),
	}
}

// Broadcast sends a message to every connection currently in the room
func (b *Broadcaster) Broadcast(roomID model.RoomID, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal broadcast message",
			slog.String("room_id", string(roomID)),
			slog.String("type", string(msg.Type)),
			slog.Any("error", err))
		return
	}

	for _, c := range b.registry.MembersOf(roomID) {
		c.trySend(data)
	}
}
