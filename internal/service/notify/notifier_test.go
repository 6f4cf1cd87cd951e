package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightdesk/chatrelay/internal/service/notify"
)

func TestRealtimeRequestedHitsEndpoint(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := notify.New(srv.URL)
	n.RealtimeRequested(context.Background(), "room-1")

	assert.Equal(t, int32(1), hits.Load())
}

func TestRealtimeRequestedDisabledWithoutURL(t *testing.T) {
	n := notify.New("")
	// must be a silent no-op
	n.RealtimeRequested(context.Background(), "room-1")
}

func TestRealtimeRequestedSurvivesDeadEndpoint(t *testing.T) {
	n := notify.New("http://127.0.0.1:1/unreachable")
	// failure is logged, never returned
	n.RealtimeRequested(context.Background(), "room-1")
}
