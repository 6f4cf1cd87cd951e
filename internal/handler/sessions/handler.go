// Package sessions exposes the stored-transcript listing used by the
// admin console.
package sessions

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/brightdesk/chatrelay/internal/store"
)

// Handler serves stored session records.
type Handler struct {
	gateway store.Gateway
}

// New creates the handler.
func New(gateway store.Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// RegisterRoutes mounts the admin endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.handleListCustomers)
	r.Get("/notify", h.handleNotify)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	records, err := h.gateway.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch customer sessions")
		return
	}
	if records == nil {
		records = []store.SessionRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

// handleNotify is the default receiver for realtime-escalation alerts;
// external alert hooks replace it via NOTIFY_URL.
func (h *Handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("realtime escalation alert received")
	respondJSON(w, http.StatusOK, map[string]string{"status": "notification received"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
