package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/virtualatc/atc-engine/internal/config"
	"github.com/virtualatc/atc-engine/internal/session"
	"github.com/virtualatc/atc-engine/internal/storage/sqlite"
	"github.com/virtualatc/atc-engine/internal/weather"
	"github.com/virtualatc/atc-engine/internal/websocket"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

const defaultQueryLimit = 50

// Handler serves the engine's HTTP API. Weather, journal and websocket
// are optional; endpoints backed by a disabled component answer 503.
type Handler struct {
	sessions *session.Manager
	weather  *weather.Service
	journal  *sqlite.JournalStorage
	ws       *websocket.Server
	config   *config.Config
	logger   *logger.Logger
	started  time.Time
}

// NewHandler creates the API handler.
func NewHandler(
	sessions *session.Manager,
	weatherService *weather.Service,
	journal *sqlite.JournalStorage,
	wsServer *websocket.Server,
	cfg *config.Config,
	log *logger.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		weather:  weatherService,
		journal:  journal,
		ws:       wsServer,
		config:   cfg,
		logger:   log.Named("api-handler"),
		started:  time.Now().UTC(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type createSessionResponse struct {
	ID      string          `json:"id"`
	Summary session.Summary `json:"summary"`
}

type transmissionRequest struct {
	Text string `json:"text"`
}

// CreateSession opens a session for a filed flight plan.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var plan session.FlightPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid flight plan payload")
		return
	}

	s, err := h.sessions.Create(r.Context(), plan)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "session limit") {
			status = http.StatusServiceUnavailable
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, createSessionResponse{
		ID:      s.ID,
		Summary: s.Summary(),
	})
}

// ListSessions lists open sessions, oldest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.sessions.Summaries())
}

// PostTransmission runs one pilot transmission through the session.
func (h *Handler) PostTransmission(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req transmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid transmission payload")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.respondError(w, http.StatusBadRequest, "transmission text is required")
		return
	}

	h.respondJSON(w, http.StatusOK, s.HandleTransmission(r.Context(), req.Text))
}

// GetSessionContext returns a point-in-time copy of the flight context.
func (h *Handler) GetSessionContext(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, s.Snapshot())
}

// ResetSession returns the session to its filed plan at the gate.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	h.respondJSON(w, http.StatusOK, s.Summary())
}

// CloseSession removes a session.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Close(id) {
		h.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionTransmissions returns the journaled transcript of a session.
func (h *Handler) GetSessionTransmissions(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.respondError(w, http.StatusServiceUnavailable, "transmission journal is disabled")
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	rows, err := h.journal.TransmissionsBySession(s.ID, queryLimit(r))
	if err != nil {
		h.logger.Error("Failed to query transmissions", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query transmissions")
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

// GetSessionClearances returns the clearances issued within a session.
func (h *Handler) GetSessionClearances(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.respondError(w, http.StatusServiceUnavailable, "transmission journal is disabled")
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	rows, err := h.journal.ClearancesBySession(s.ID, queryLimit(r))
	if err != nil {
		h.logger.Error("Failed to query clearances", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query clearances")
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

// GetRecentClearances returns the latest clearances across all sessions.
func (h *Handler) GetRecentClearances(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.respondError(w, http.StatusServiceUnavailable, "transmission journal is disabled")
		return
	}

	rows, err := h.journal.RecentClearances(queryLimit(r))
	if err != nil {
		h.logger.Error("Failed to query clearances", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query clearances")
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

// GetWeather returns the cached or freshly fetched reports for a station.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	if h.weather == nil {
		h.respondError(w, http.StatusServiceUnavailable, "weather service is disabled")
		return
	}
	icao := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "icao")))
	if icao == "" {
		h.respondError(w, http.StatusBadRequest, "station identifier is required")
		return
	}

	snaps := h.weather.Snapshots(r.Context(), icao)
	snap, ok := snaps[icao]
	if !ok {
		h.respondError(w, http.StatusNotFound, "no report for station")
		return
	}
	h.respondJSON(w, http.StatusOK, snap)
}

// GetHealth reports liveness.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
		"active_sessions": h.sessions.ActiveSessions(),
	})
}

// GetStats reports the engine activity counters.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.sessions.Stats()
	if h.ws != nil {
		stats["websocket_clients"] = int64(h.ws.ClientCount())
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// GetConfig returns the running configuration with secrets masked.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	sanitized := *h.config
	if sanitized.LLM.APIKey != "" {
		sanitized.LLM.APIKey = "********"
	}
	h.respondJSON(w, http.StatusOK, sanitized)
}

// HandleWebSocket upgrades the connection onto the event stream.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.ws == nil {
		h.respondError(w, http.StatusServiceUnavailable, "event stream is disabled")
		return
	}
	h.ws.HandleConnection(w, r)
}

// session resolves the {id} route parameter, answering 404 on a miss.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.sessions.Get(id)
	if !ok {
		h.respondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultQueryLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultQueryLimit
	}
	return limit
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}
