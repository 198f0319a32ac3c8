package ws

import (
	"errors"
	"sync"

	"github.com/tokenrace/tokenrace/internal/model"
)

// ErrUnknownConn is returned when attaching a connection that was never
// registered (or already unregistered).
var ErrUnknownConn = errors.New("unknown connection")

// Registry tracks every live connection and its room attachment. A
// connection belongs to at most one room's broadcast set at a time; a user
// may hold several concurrent connections (multiple devices or tabs).
type Registry struct {
	mu    sync.RWMutex
	conns map[*Conn]model.RoomID
	rooms map[model.RoomID]map[*Conn]struct{}
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[*Conn]model.RoomID),
		rooms: make(map[model.RoomID]map[*Conn]struct{}),
	}
}

// Register adds an authenticated connection with no room attachment
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = ""
}

// AttachToRoom moves a connection into a room's broadcast set, detaching
// it from any previous room first.
func (r *Registry) AttachToRoom(c *Conn, roomID model.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.conns[c]
	if !ok {
		return ErrUnknownConn
	}
	if prev == roomID {
		return nil
	}
	if prev != "" {
		r.removeFromRoom(c, prev)
	}

	set, ok := r.rooms[roomID]
	if !ok {
		set = make(map[*Conn]struct{})
		r.rooms[roomID] = set
	}
	set[c] = struct{}{}
	r.conns[c] = roomID
	return nil
}

// DetachFromRoom removes a connection from its current room's broadcast
// set. No-op if the connection is not in a room.
func (r *Registry) DetachFromRoom(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.conns[c]
	if !ok || roomID == "" {
		return
	}
	r.removeFromRoom(c, roomID)
	r.conns[c] = ""
}

// Unregister detaches a connection from any room and removes its record
func (r *Registry) Unregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.conns[c]
	if !ok {
		return
	}
	if roomID != "" {
		r.removeFromRoom(c, roomID)
	}
	delete(r.conns, c)
}

// RoomOf returns the room a connection is currently attached to, or ""
func (r *Registry) RoomOf(c *Conn) model.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[c]
}

// MembersOf returns the connections currently attached to a room
func (r *Registry) MembersOf(roomID model.RoomID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.rooms[roomID]
	members := make([]*Conn, 0, len(set))
	for c := range set {
		members = append(members, c)
	}
	return members
}

// UserConnCount reports how many connections a user currently has attached
// to the given room. Used to decide whether a disconnect should also free
// the user's seat in the room store.
func (r *Registry) UserConnCount(roomID model.RoomID, userID model.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for c := range r.rooms[roomID] {
		if c.UserID() == userID {
			count++
		}
	}
	return count
}

// removeFromRoom drops a connection from a room set, releasing the set
// when it empties. Callers must hold the write lock.
func (r *Registry) removeFromRoom(c *Conn, roomID model.RoomID) {
	set, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.rooms, roomID)
	}
}
