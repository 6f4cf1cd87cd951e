// Package notify fires the out-of-band alert when a customer asks for a
// live representative, so operators hear about it even when no admin
// console is open.
package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier pings a configured HTTP endpoint. Delivery is best-effort:
// failures are logged and never reach the customer.
type Notifier struct {
	url    string
	client *http.Client
}

// New builds a notifier for the given URL. An empty URL disables it.
func New(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// RealtimeRequested signals that a session is waiting for a human.
func (n *Notifier) RealtimeRequested(ctx context.Context, roomKey string) {
	if n.url == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url, nil)
	if err != nil {
		log.Error().Err(err).Str("url", n.url).Msg("building realtime alert request failed")
		return
	}

	resp, err := n.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("room", roomKey).Msg("realtime alert delivery failed")
		return
	}
	defer resp.Body.Close()

	log.Info().Str("room", roomKey).Int("status", resp.StatusCode).Msg("realtime alert delivered")
}
