package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdesk/chatrelay/internal/model/chat"
	"github.com/brightdesk/chatrelay/internal/store"
)

func setupRouter(gateway store.Gateway) *chi.Mux {
	r := chi.NewRouter()
	New(gateway).RegisterRoutes(r)
	return r
}

func TestListCustomersEmpty(t *testing.T) {
	r := setupRouter(store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())
}

func TestListCustomersReturnsRecords(t *testing.T) {
	gateway := store.NewMemoryStore()
	require.NoError(t, gateway.UpsertByEmail(context.Background(), store.SessionRecord{
		Email:   "a@b.com",
		RoomKey: "room-1",
		History: []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	}))
	r := setupRouter(gateway)

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var records []store.SessionRecord
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "a@b.com", records[0].Email)
	assert.Len(t, records[0].History, 1)
}

type failingGateway struct{}

func (failingGateway) FindByEmail(context.Context, string) (store.SessionRecord, error) {
	return store.SessionRecord{}, store.ErrNotFound
}
func (failingGateway) UpsertByEmail(context.Context, store.SessionRecord) error { return nil }
func (failingGateway) List(context.Context) ([]store.SessionRecord, error) {
	return nil, errors.New("storage unreachable")
}

func TestListCustomersStorageFailure(t *testing.T) {
	r := setupRouter(failingGateway{})

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestNotifyAcknowledges(t *testing.T) {
	r := setupRouter(store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/notify", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}
