// Package api exposes the engine over HTTP: session lifecycle, the turn
// endpoint, journal queries and the websocket event stream.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/virtualatc/atc-engine/internal/config"
	"github.com/virtualatc/atc-engine/internal/session"
	"github.com/virtualatc/atc-engine/internal/storage/sqlite"
	"github.com/virtualatc/atc-engine/internal/weather"
	"github.com/virtualatc/atc-engine/internal/websocket"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Router assembles the API handler behind the middleware stack.
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates the API router.
func NewRouter(
	sessions *session.Manager,
	weatherService *weather.Service,
	journal *sqlite.JournalStorage,
	wsServer *websocket.Server,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		handler:    NewHandler(sessions, weatherService, journal, wsServer, cfg, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the assembled HTTP handler.
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/health", r.handler.GetHealth)
		router.Get("/stats", r.handler.GetStats)
		router.Get("/config", r.handler.GetConfig)
		router.Get("/ws", r.handler.HandleWebSocket)
		router.Get("/weather/{icao}", r.handler.GetWeather)
		router.Get("/clearances", r.handler.GetRecentClearances)

		router.Route("/sessions", func(router chi.Router) {
			router.Post("/", r.handler.CreateSession)
			router.Get("/", r.handler.ListSessions)

			router.Route("/{id}", func(router chi.Router) {
				router.Delete("/", r.handler.CloseSession)
				router.Get("/context", r.handler.GetSessionContext)
				router.Post("/transmissions", r.handler.PostTransmission)
				router.Get("/transmissions", r.handler.GetSessionTransmissions)
				router.Get("/clearances", r.handler.GetSessionClearances)
				router.Post("/reset", r.handler.ResetSession)
			})
		})
	})

	return router
}
