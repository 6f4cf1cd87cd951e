// Package chat owns live conversation state: the session registry and the
// handover state machine that decides whether the assistant or a human
// representative answers the customer.
package chat

import (
	"sync"

	"github.com/brightdesk/chatrelay/internal/model/chat"
)

// Session is one live conversation. All mutation happens under mu: the
// router locks a session for the whole of each inbound operation,
// including any language-model or persistence call it makes, so
// same-session events apply in submission order while different sessions
// proceed independently.
type Session struct {
	mu sync.Mutex

	// Key is the connection-scoped identifier, stable per connection.
	Key string
	// RoomKey addresses the session's broadcast audience. Initially
	// equal to Key; email binding does not change it.
	RoomKey string
	// Email is set at most once and then immutable; it is the
	// persistence key.
	Email string
	// State says who currently produces visible responses.
	State chat.ControlState
	// History is the append-only message log.
	History *chat.History

	// lastRepMessageID remembers the most recent representative message
	// id applied, to absorb network-level retransmissions.
	lastRepMessageID string
}

func newSession(key string) *Session {
	return &Session{
		Key:     key,
		RoomKey: key,
		State:   chat.StateAIActive,
		History: chat.NewHistory(),
	}
}

// Lock serializes mutating operations on this session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Info snapshots the session for an outbound payload. Callers hold the
// session lock.
func (s *Session) Info(role chat.Role, tags []string) chat.SessionInfo {
	if tags == nil {
		tags = []string{}
	}
	return chat.SessionInfo{
		HasEmail:                 s.Email != "",
		Email:                    s.Email,
		MessageCount:             s.History.Len(),
		Type:                     role,
		WaitingForRepresentative: s.State == chat.StateWaiting,
		IsWithRepresentative:     s.State == chat.StateWithRepresentative,
		Tags:                     tags,
	}
}

// Record converts the session to its durable form. Callers hold the lock.
func (s *Session) Record() (email, roomKey string, history []chat.Message) {
	return s.Email, s.RoomKey, s.History.Snapshot()
}

// SeenRepresentativeMessage reports whether id repeats the last applied
// representative message id, recording it otherwise. Empty ids are never
// treated as repeats here; the router falls back to content comparison.
func (s *Session) SeenRepresentativeMessage(id string) bool {
	if id == "" {
		return false
	}
	if id == s.lastRepMessageID {
		return true
	}
	s.lastRepMessageID = id
	return false
}
