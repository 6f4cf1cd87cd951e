package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brightdesk/chatrelay/internal/store"
)

var (
	// ErrSessionNotFound is returned when no live session matches a key.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmailBound is returned on a second bind attempt for a session.
	ErrEmailBound = errors.New("session already has an email bound")
)

// Registry tracks live sessions by connection key. Lookups across
// sessions run concurrently; mutation of a single session is serialized
// by the session's own lock, not the registry's.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	gateway  store.Gateway
}

// NewRegistry creates an empty registry backed by the given gateway for
// email binds.
func NewRegistry(gateway store.Gateway) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		gateway:  gateway,
	}
}

// GetOrCreate returns the live session for a connection key, creating a
// fresh AI_ACTIVE session with empty history on first contact.
func (r *Registry) GetOrCreate(key string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[key]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s
	}
	s = newSession(key)
	r.sessions[key] = s
	return s
}

// Get returns the live session for a key, if any.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[key]
	return s, ok
}

// FindByRoomKey resolves a session by its broadcast address, for actors
// addressing a room without holding the original connection.
func (r *Registry) FindByRoomKey(roomKey string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.RoomKey == roomKey {
			return s, true
		}
	}
	return nil, false
}

// BindEmail attaches an email to a session, once. When a persisted record
// exists for the email the in-memory history is replaced by the stored
// one, so a returning customer resumes their transcript. Email uniqueness
// is enforced by this merge, never by rejecting. Callers hold the session
// lock.
func (r *Registry) BindEmail(ctx context.Context, s *Session, email string) error {
	if s.Email != "" {
		return ErrEmailBound
	}

	rec, err := r.gateway.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.History.Replace(rec.History)
		log.Info().Str("email", email).Str("room", s.RoomKey).
			Int("messages", len(rec.History)).Msg("restored persisted transcript")
	case errors.Is(err, store.ErrNotFound):
		// first time we see this customer
	default:
		// storage trouble must not block the conversation; bind the
		// email anyway and let the next upsert reconcile
		log.Error().Err(err).Str("email", email).Msg("lookup of persisted session failed")
	}

	s.Email = email
	return nil
}

// Remove evicts a session from the live registry. Persisted data is
// untouched; the session survives reconnection only through its record.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	delete(r.sessions, key)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
