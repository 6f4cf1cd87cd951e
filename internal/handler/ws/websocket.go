// Package ws is the WebSocket transport: it upgrades connections, decodes
// inbound frames into typed events and dispatches them to the relay
// router. Malformed frames are dropped, never fatal.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/brightdesk/chatrelay/internal/service/relay"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Inbound event names.
const (
	eventMessage    = "message"
	eventJoinRoom   = "joinRoom"
	eventRepJoin    = "joinAsRepresentative"
	eventRepLeave   = "leaveAsRepresentative"
	eventRepMessage = "representative-message"
	eventAdmin      = "adminMessage"
	eventRoomStatus = "checkRoomStatus"
)

// Handler owns the upgrader and dispatches decoded events.
type Handler struct {
	relay    *relay.Router
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(relayRouter *relay.Router) *Handler {
	return &Handler{
		relay: relayRouter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// frame is the envelope for both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type roomMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}

// client adapts one websocket connection to the hub's Sender. Writes are
// serialized; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(map[string]any{
		"event": event,
		"data":  data,
	})
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sessionKey := uuid.NewString()
	c := &client{conn: conn}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log.Info().Str("session", sessionKey).Msg("new connection")

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go h.pingLoop(ctx, c)

	// join the room and greet before any user message is read, so the
	// transcript always opens with the welcome
	h.relay.HandleConnect(ctx, sessionKey, c)

	defer func() {
		h.relay.HandleDisconnect(ctx, sessionKey, c)
		log.Info().Str("session", sessionKey).Msg("connection closed")
	}()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", sessionKey).Msg("read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.dispatch(ctx, sessionKey, c, f)
	}
}

// dispatch decodes one frame and hands it to the router. Events for the
// same connection run in arrival order; same-session work from other
// connections is serialized by the session lock.
func (h *Handler) dispatch(ctx context.Context, sessionKey string, c *client, f frame) {
	switch f.Event {
	case eventMessage:
		var p messagePayload
		if !decode(f, &p) || p.Message == "" {
			return
		}
		h.relay.HandleUserMessage(ctx, sessionKey, p.Message, c)

	case eventJoinRoom:
		var p roomPayload
		if !decode(f, &p) || p.RoomID == "" {
			return
		}
		h.relay.JoinRoom(p.RoomID, c)

	case eventRepJoin:
		var p roomPayload
		if !decode(f, &p) || p.RoomID == "" {
			return
		}
		h.relay.HandleRepresentativeJoin(ctx, p.RoomID, c)

	case eventRepLeave:
		var p roomPayload
		if !decode(f, &p) || p.RoomID == "" {
			return
		}
		h.relay.HandleRepresentativeLeave(ctx, p.RoomID, c)

	case eventRepMessage:
		var p roomMessagePayload
		if !decode(f, &p) || p.RoomID == "" || p.Message == "" {
			return
		}
		h.relay.HandleRepresentativeMessage(ctx, p.RoomID, p.MessageID, p.Message)

	case eventAdmin:
		var p roomMessagePayload
		if !decode(f, &p) || p.RoomID == "" || p.Message == "" {
			return
		}
		h.relay.HandleAdminMessage(ctx, p.RoomID, p.Message)

	case eventRoomStatus:
		var p roomPayload
		if !decode(f, &p) || p.RoomID == "" {
			return
		}
		if err := c.Send("roomStatus", map[string]any{
			"roomId":   p.RoomID,
			"isActive": h.relay.RoomStatus(p.RoomID),
		}); err != nil {
			log.Debug().Err(err).Msg("room status reply undeliverable")
		}

	default:
		log.Debug().Str("event", f.Event).Msg("unknown inbound event dropped")
	}
}

func decode(f frame, v any) bool {
	if err := json.Unmarshal(f.Data, v); err != nil {
		log.Debug().Err(err).Str("event", f.Event).Msg("malformed payload dropped")
		return false
	}
	return true
}

func (h *Handler) pingLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
