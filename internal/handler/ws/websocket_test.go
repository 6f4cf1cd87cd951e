package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdesk/chatrelay/internal/handler/ws"
	"github.com/brightdesk/chatrelay/internal/hub"
	"github.com/brightdesk/chatrelay/internal/service/ai"
	chatsvc "github.com/brightdesk/chatrelay/internal/service/chat"
	"github.com/brightdesk/chatrelay/internal/service/relay"
	"github.com/brightdesk/chatrelay/internal/store"
)

type scriptedGen struct {
	reply string
}

func (g scriptedGen) Generate(context.Context, ai.Request) (string, error) {
	return g.reply, nil
}

type noopAlerter struct{}

func (noopAlerter) RealtimeRequested(context.Context, string) {}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialTestServer(t *testing.T, reply string) (*websocket.Conn, *chatsvc.Registry) {
	t.Helper()

	gateway := store.NewMemoryStore()
	registry := chatsvc.NewRegistry(gateway)
	relayRouter := relay.New(registry, scriptedGen{reply: reply}, gateway, hub.New(), noopAlerter{}, ai.DefaultProfile())

	mux := chi.NewRouter()
	ws.New(relayRouter).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, registry
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func TestConnectDeliversGreeting(t *testing.T) {
	conn, _ := dialTestServer(t, "Welcome aboard! ⚡email⚡")

	f := readFrame(t, conn)
	assert.Equal(t, "ai-response", f.Event)

	var p relay.Payload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	assert.Equal(t, "Welcome aboard!", p.Message)
	assert.Equal(t, []string{"⚡email⚡"}, p.SessionInfo.Tags)
}

func TestUserMessageRoundTrip(t *testing.T) {
	conn, registry := dialTestServer(t, "Happy to help!")
	readFrame(t, conn) // greeting

	sendFrame(t, conn, "message", map[string]string{"message": "hi, I'm a@b.com"})

	f := readFrame(t, conn)
	assert.Equal(t, "ai-response", f.Event)
	var p relay.Payload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	assert.Equal(t, "Happy to help!", p.Message)
	assert.True(t, p.SessionInfo.HasEmail)

	assert.Equal(t, 1, registry.Len())
}

func TestMalformedFramesAreDropped(t *testing.T) {
	conn, _ := dialTestServer(t, "Still here!")
	readFrame(t, conn) // greeting

	// wrong payload shape, then an unknown event, then a valid message
	sendFrame(t, conn, "message", map[string]int{"message": 42})
	sendFrame(t, conn, "no-such-event", map[string]string{})
	sendFrame(t, conn, "message", map[string]string{"message": "are you alive?"})

	f := readFrame(t, conn)
	assert.Equal(t, "ai-response", f.Event)
}

func TestCheckRoomStatus(t *testing.T) {
	conn, _ := dialTestServer(t, "Hello!")
	readFrame(t, conn) // greeting

	sendFrame(t, conn, "checkRoomStatus", map[string]string{"roomId": "ghost-room"})
	f := readFrame(t, conn)
	assert.Equal(t, "roomStatus", f.Event)

	var status struct {
		RoomID   string `json:"roomId"`
		IsActive bool   `json:"isActive"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &status))
	assert.Equal(t, "ghost-room", status.RoomID)
	assert.False(t, status.IsActive)
}
