// Package hub models broadcast audiences: a room per session plus the
// distinguished admin room that receives cross-session monitoring events.
package hub

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// AdminRoom is the audience for cross-session monitoring: waiting
// customers, disconnects, raw user messages.
const AdminRoom = "admin"

// Sender is one connected client. The websocket transport implements it;
// tests plug in fakes.
type Sender interface {
	Send(event string, data any) error
}

// Hub tracks room membership and fans events out to members.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Sender]struct{}
}

func New() *Hub {
	return &Hub{rooms: make(map[string]map[Sender]struct{})}
}

// Join adds a sender to a room, creating the room on first join.
func (h *Hub) Join(room string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[Sender]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
}

// Leave removes a sender from one room. Empty rooms are dropped.
func (h *Hub) Leave(room string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// LeaveAll removes a sender from every room it joined.
func (h *Hub) LeaveAll(s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends an event to every member of a room. Send failures are
// logged and skipped; a dead connection must not block the others.
func (h *Hub) Broadcast(room, event string, data any) {
	h.mu.RLock()
	members := make([]Sender, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		if err := s.Send(event, data); err != nil {
			log.Debug().Err(err).Str("room", room).Str("event", event).Msg("dropping undeliverable broadcast")
		}
	}
}

// Active reports whether a room has at least one member.
func (h *Hub) Active(room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room]) > 0
}
