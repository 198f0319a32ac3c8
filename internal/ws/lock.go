package ws

import (
	"sync"

	"github.com/tokenrace/tokenrace/internal/model"
)

// roomLocks serializes a room's transition-plus-broadcast sections. Holding
// the room's lock from the state change through the resulting fan-out keeps
// every connection's event stream in transition order even when members act
// from concurrent connections.
//
// Entries are reference-counted and removed once the last holder releases,
// so the map only holds rooms with an event in flight.
type roomLocks struct {
	mu      sync.Mutex
	entries map[model.RoomID]*roomLockEntry
}

type roomLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{entries: make(map[model.RoomID]*roomLockEntry)}
}

func (l *roomLocks) lock(roomID model.RoomID) *roomLockEntry {
	l.mu.Lock()
	e := l.entries[roomID]
	if e == nil {
		e = &roomLockEntry{}
		l.entries[roomID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return e
}

func (l *roomLocks) unlock(roomID model.RoomID, e *roomLockEntry) {
	e.mu.Unlock()

	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, roomID)
	}
	l.mu.Unlock()
}
