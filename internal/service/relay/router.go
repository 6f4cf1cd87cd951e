// Package relay orchestrates inbound chat events: it consults the
// handover state machine, calls the language model or short-circuits,
// appends to history and decides which audiences see what.
package relay

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/brightdesk/chatrelay/internal/hub"
	modelchat "github.com/brightdesk/chatrelay/internal/model/chat"
	"github.com/brightdesk/chatrelay/internal/protocol"
	"github.com/brightdesk/chatrelay/internal/service/ai"
	chatsvc "github.com/brightdesk/chatrelay/internal/service/chat"
	"github.com/brightdesk/chatrelay/internal/store"
)

// Outbound event names beyond the kinds derived from tags.
const (
	EventAIResume        = "ai-resume"
	EventRepMessage      = "representative-message"
	EventAdminResponse   = "admin-response"
	EventUserMessage     = "user-message"
	EventCustomerWaiting = "customerWaiting"
	EventUserGone        = "user-disconnected"
	EventError           = "error"
)

const genericErrorNotice = "An error occurred while processing your request."

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Generator is the language-model collaborator.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (string, error)
}

// Alerter is the out-of-band realtime escalation notifier.
type Alerter interface {
	RealtimeRequested(ctx context.Context, roomKey string)
}

// Payload is the body of every outbound chat event.
type Payload struct {
	Message     string                `json:"message"`
	Link        string                `json:"link,omitempty"`
	SessionInfo modelchat.SessionInfo `json:"sessionInfo"`
}

// Router routes messages among the assistant, the customer and human
// representatives for each session.
type Router struct {
	registry *chatsvc.Registry
	gen      Generator
	gateway  store.Gateway
	rooms    *hub.Hub
	alerter  Alerter
	profile  ai.BusinessProfile
}

// New wires the router to its collaborators.
func New(registry *chatsvc.Registry, gen Generator, gateway store.Gateway, rooms *hub.Hub, alerter Alerter, profile ai.BusinessProfile) *Router {
	return &Router{
		registry: registry,
		gen:      gen,
		gateway:  gateway,
		rooms:    rooms,
		alerter:  alerter,
		profile:  profile,
	}
}

// HandleConnect sets up the session for a new connection, joins it to its
// room and greets the customer. The join is recorded as a system entry so
// the model knows a conversation started.
func (r *Router) HandleConnect(ctx context.Context, sessionKey string, origin hub.Sender) {
	s := r.registry.GetOrCreate(sessionKey)
	r.rooms.Join(s.RoomKey, origin)

	s.Lock()
	defer s.Unlock()

	s.History.Append(modelchat.Message{
		ID:      uuid.NewString(),
		Role:    modelchat.RoleSystem,
		Content: "User has joined the chat.",
	})

	greeting, err := r.gen.Generate(ctx, ai.Request{
		System: r.profile.SystemPrompt(r.status(s)),
		Query:  ai.GreetingQuery,
	})
	if err != nil {
		log.Error().Err(err).Str("session", sessionKey).Msg("greeting generation failed")
		r.sendError(origin)
		return
	}

	s.History.Append(modelchat.Message{
		ID:      uuid.NewString(),
		Role:    modelchat.RoleAssistant,
		Content: greeting,
	})

	decoded := protocol.Decode(greeting)
	r.rooms.Broadcast(s.RoomKey, string(protocol.EventAIResponse), Payload{
		Message:     decoded.Clean,
		SessionInfo: s.Info(modelchat.RoleAssistant, decoded.Tags),
	})
}

// HandleUserMessage routes one customer message: bind a recognized email,
// log the turn, then either short-circuit (human has the conversation) or
// generate a reply, decode its tags and fan out to the audiences.
func (r *Router) HandleUserMessage(ctx context.Context, sessionKey, text string, origin hub.Sender) {
	s, ok := r.registry.Get(sessionKey)
	if !ok {
		s = r.registry.GetOrCreate(sessionKey)
		r.rooms.Join(s.RoomKey, origin)
	}

	s.Lock()
	defer s.Unlock()

	if email := emailPattern.FindString(text); email != "" && s.Email == "" {
		if err := r.registry.BindEmail(ctx, s, email); err != nil {
			log.Error().Err(err).Str("session", sessionKey).Msg("email bind failed")
		}
	}

	s.History.Append(modelchat.Message{
		ID:      uuid.NewString(),
		Role:    modelchat.RoleUser,
		Content: text,
	})

	// the admin audience always sees the raw inbound text
	r.rooms.Broadcast(hub.AdminRoom, EventUserMessage, map[string]any{
		"roomId":      s.RoomKey,
		"message":     text,
		"sessionInfo": s.Info(modelchat.RoleUser, nil),
	})

	if s.State == modelchat.StateWithRepresentative {
		// logged for the representative, never forwarded to the model
		r.rooms.Broadcast(s.RoomKey, string(protocol.EventAIResponse), Payload{
			Message:     chatsvc.WithRepresentativeNotice,
			SessionInfo: s.Info(modelchat.RoleSystem, nil),
		})
		return
	}

	// the current turn travels as the query, not as part of the replayed
	// history
	transcript := s.History.Snapshot()
	reply, err := r.gen.Generate(ctx, ai.Request{
		System:  r.profile.SystemPrompt(r.status(s)),
		History: transcript[:len(transcript)-1],
		Query:   text,
	})
	if err != nil {
		// state and history stay valid; the user turn replays on the
		// next successful call
		log.Error().Err(err).Str("session", sessionKey).Msg("generation failed")
		r.sendError(origin)
		return
	}

	decoded := protocol.Decode(reply)
	if decoded.Has(protocol.TagRealtime) {
		s.NoteRealtime()
	}

	s.History.Append(modelchat.Message{
		ID:      uuid.NewString(),
		Role:    modelchat.RoleAssistant,
		Content: reply,
	})

	if s.Email != "" {
		r.persist(s)
	}

	kind := decoded.Kind()
	payload := Payload{
		Message:     decoded.Clean,
		SessionInfo: s.Info(modelchat.RoleAssistant, decoded.Tags),
	}
	if kind == protocol.EventAppointment {
		payload.Link = r.profile.AppointmentURL
	}
	r.rooms.Broadcast(s.RoomKey, string(kind), payload)

	if kind == protocol.EventRealtime {
		go r.alerter.RealtimeRequested(context.WithoutCancel(ctx), s.RoomKey)
	}
	if s.State == modelchat.StateWaiting {
		r.rooms.Broadcast(hub.AdminRoom, EventCustomerWaiting, map[string]any{
			"roomId": s.RoomKey,
			"email":  s.Email,
		})
	}
}

// HandleRepresentativeJoin hands the room's conversation to the caller
// and briefs them with the synthesized summary.
func (r *Router) HandleRepresentativeJoin(_ context.Context, roomKey string, origin hub.Sender) {
	s, ok := r.registry.FindByRoomKey(roomKey)
	if !ok {
		log.Warn().Str("room", roomKey).Msg("representative join for unknown room dropped")
		return
	}

	r.rooms.Join(roomKey, origin)
	r.rooms.Join(hub.AdminRoom, origin)

	s.Lock()
	defer s.Unlock()

	msg, ok := s.JoinRepresentative()
	if !ok {
		return
	}

	decoded := protocol.Decode(msg.Content)
	r.rooms.Broadcast(roomKey, string(protocol.EventHandover), Payload{
		Message:     msg.Content,
		SessionInfo: s.Info(modelchat.RoleAssistant, decoded.Tags),
	})
}

// HandleRepresentativeLeave returns the conversation to the assistant.
func (r *Router) HandleRepresentativeLeave(_ context.Context, roomKey string, origin hub.Sender) {
	s, ok := r.registry.FindByRoomKey(roomKey)
	if !ok {
		return
	}

	r.rooms.Leave(roomKey, origin)

	s.Lock()
	defer s.Unlock()

	msg, ok := s.LeaveRepresentative()
	if !ok {
		return
	}

	decoded := protocol.Decode(msg.Content)
	r.rooms.Broadcast(roomKey, EventAIResume, Payload{
		Message:     msg.Content,
		SessionInfo: s.Info(modelchat.RoleAssistant, decoded.Tags),
	})
}

// HandleRepresentativeMessage relays a human reply to the room. Ignored
// unless the representative owns the conversation; repeats of the same
// message id are dropped.
func (r *Router) HandleRepresentativeMessage(_ context.Context, roomKey, messageID, text string) {
	s, ok := r.registry.FindByRoomKey(roomKey)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()

	if s.State != modelchat.StateWithRepresentative {
		return
	}
	if s.SeenRepresentativeMessage(messageID) {
		log.Debug().Str("room", roomKey).Str("messageId", messageID).Msg("duplicate representative message dropped")
		return
	}
	if messageID == "" && r.repeatsLastRepresentativeEntry(s, text) {
		return
	}

	s.History.Append(modelchat.Message{
		ID:      uuid.NewString(),
		Role:    modelchat.RoleRepresentative,
		Content: text,
	})

	if s.Email != "" {
		r.persist(s)
	}

	// room only; re-broadcasting to the admin audience would echo the
	// representative's own message back at them
	r.rooms.Broadcast(roomKey, EventRepMessage, Payload{
		Message:     text,
		SessionInfo: s.Info(modelchat.RoleRepresentative, nil),
	})
}

// HandleAdminMessage injects an operator note into the room.
func (r *Router) HandleAdminMessage(_ context.Context, roomKey, text string) {
	s, ok := r.registry.FindByRoomKey(roomKey)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()

	s.History.Append(modelchat.Message{
		ID:      uuid.NewString(),
		Role:    modelchat.RoleAdmin,
		Content: text,
	})

	r.rooms.Broadcast(roomKey, EventAdminResponse, Payload{
		Message:     text,
		SessionInfo: s.Info(modelchat.RoleAdmin, nil),
	})
}

// HandleDisconnect flushes a bound session to storage, tells the admin
// audience and evicts the session. An unbound session just vanishes.
func (r *Router) HandleDisconnect(ctx context.Context, sessionKey string, origin hub.Sender) {
	defer r.rooms.LeaveAll(origin)

	s, ok := r.registry.Get(sessionKey)
	if !ok {
		return
	}

	s.Lock()
	if s.Email != "" {
		email, roomKey, history := s.Record()
		if err := r.gateway.UpsertByEmail(ctx, store.SessionRecord{
			Email: email, RoomKey: roomKey, History: history,
		}); err != nil {
			log.Error().Err(err).Str("email", email).Msg("final transcript flush failed")
		}
		r.rooms.Broadcast(hub.AdminRoom, EventUserGone, map[string]any{
			"roomId":    roomKey,
			"email":     email,
			"timestamp": time.Now().UTC(),
		})
	}
	s.Unlock()

	r.registry.Remove(sessionKey)
}

// RoomStatus reports whether a room currently has members.
func (r *Router) RoomStatus(roomKey string) bool {
	return r.rooms.Active(roomKey)
}

// JoinRoom subscribes a connection to a room's audience without any
// state transition, for observers.
func (r *Router) JoinRoom(roomKey string, s hub.Sender) {
	r.rooms.Join(roomKey, s)
}

// persist fires a best-effort upsert of the session's current transcript.
// It runs on a snapshot in its own goroutine so a slow store never holds
// the session lock. Callers hold the lock.
func (r *Router) persist(s *chatsvc.Session) {
	email, roomKey, history := s.Record()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.gateway.UpsertByEmail(ctx, store.SessionRecord{
			Email: email, RoomKey: roomKey, History: history,
		}); err != nil {
			log.Error().Err(err).Str("email", email).Msg("transcript upsert failed")
		}
	}()
}

func (r *Router) status(s *chatsvc.Session) ai.SessionStatus {
	return ai.SessionStatus{
		Email:                    s.Email,
		WaitingForRepresentative: s.State == modelchat.StateWaiting,
		WithRepresentative:       s.State == modelchat.StateWithRepresentative,
	}
}

// repeatsLastRepresentativeEntry covers retransmissions that carry no
// message id: an exact repeat of the representative's latest entry.
// Callers hold the lock.
func (r *Router) repeatsLastRepresentativeEntry(s *chatsvc.Session, text string) bool {
	last := s.History.Last(1)
	return len(last) == 1 &&
		last[0].Role == modelchat.RoleRepresentative &&
		last[0].Content == text
}

func (r *Router) sendError(origin hub.Sender) {
	if err := origin.Send(EventError, genericErrorNotice); err != nil {
		log.Debug().Err(err).Msg("error notice undeliverable")
	}
}
