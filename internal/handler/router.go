package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightdesk/chatrelay/internal/handler/sessions"
	"github.com/brightdesk/chatrelay/internal/handler/ws"
	middlewarePkg "github.com/brightdesk/chatrelay/internal/middleware"
	"github.com/brightdesk/chatrelay/internal/service/relay"
	"github.com/brightdesk/chatrelay/internal/store"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(relayRouter *relay.Router, gateway store.Gateway) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	sessionsHandler := sessions.New(gateway)
	wsHandler := ws.New(relayRouter)

	r.Route("/api", func(api chi.Router) {
		sessionsHandler.RegisterRoutes(api)
	})

	wsHandler.RegisterRoutes(r)

	return r
}
