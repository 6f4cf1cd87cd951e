package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdesk/chatrelay/internal/model/chat"
	"github.com/brightdesk/chatrelay/internal/store"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.OpenSQLite("file:" + t.TempDir() + "/sessions.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleHistory() []chat.Message {
	return []chat.Message{
		{Role: chat.RoleSystem, Content: "User has joined the chat.", Timestamp: time.Now().UTC()},
		{Role: chat.RoleUser, Content: "my email is a@b.com", Timestamp: time.Now().UTC()},
	}
}

func TestSQLiteFindMissingEmail(t *testing.T) {
	s := openTestStore(t)
	_, err := s.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteUpsertRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := store.SessionRecord{Email: "a@b.com", RoomKey: "room-1", History: sampleHistory()}

	require.NoError(t, s.UpsertByEmail(ctx, rec))

	got, err := s.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "room-1", got.RoomKey)
	require.Len(t, got.History, 2)
	assert.Equal(t, chat.RoleUser, got.History[1].Role)
}

func TestSQLiteUpsertReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := store.SessionRecord{Email: "a@b.com", RoomKey: "room-1", History: sampleHistory()}
	require.NoError(t, s.UpsertByEmail(ctx, rec))

	rec.RoomKey = "room-2"
	rec.History = append(rec.History, chat.Message{Role: chat.RoleAssistant, Content: "Welcome back!"})
	require.NoError(t, s.UpsertByEmail(ctx, rec))

	got, err := s.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "room-2", got.RoomKey)
	assert.Len(t, got.History, 3)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryStoreMirrorsGatewayContract(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	_, err := s.FindByEmail(ctx, "a@b.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec := store.SessionRecord{Email: "a@b.com", RoomKey: "room-1", History: sampleHistory()}
	require.NoError(t, s.UpsertByEmail(ctx, rec))

	got, err := s.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, rec.RoomKey, got.RoomKey)

	// returned history is a copy, not an alias
	got.History[0].Content = "mutated"
	again, err := s.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "User has joined the chat.", again.History[0].Content)
}
