package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/virtualatc/atc-engine/internal/airlines"
	"github.com/virtualatc/atc-engine/internal/airports"
	"github.com/virtualatc/atc-engine/internal/atc"
	"github.com/virtualatc/atc-engine/internal/callsign"
	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/internal/frequencies"
	"github.com/virtualatc/atc-engine/internal/normalize"
	"github.com/virtualatc/atc-engine/internal/procedural"
	"github.com/virtualatc/atc-engine/internal/storage/sqlite"
	"github.com/virtualatc/atc-engine/internal/telemetry"
	"github.com/virtualatc/atc-engine/internal/weather"
	"github.com/virtualatc/atc-engine/internal/websocket"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Config controls session behavior.
type Config struct {
	// PendingRecheckSeconds is the delay before the deferred clearance
	// completion check after a turn left required data outstanding.
	PendingRecheckSeconds int
	// MaxSessions caps concurrently open sessions. Zero means no cap.
	MaxSessions int
}

// Deps are the shared collaborators handed to every session. Weather,
// Journal and Events are optional; a nil value disables that concern.
type Deps struct {
	Airlines    airlines.Directory
	Airports    airports.Gazetteer
	Frequencies frequencies.Directory
	Prompts     atc.PromptBuilder
	Generator   atc.Generator
	Weather     *weather.Service
	Journal     *sqlite.JournalStorage
	Events      Broadcaster
}

// Counters aggregates engine activity across all sessions.
type Counters struct {
	Sessions       atomic.Int64
	Turns          atomic.Int64
	ModelCalls     atomic.Int64
	Fallbacks      atomic.Int64
	ProceduralHits atomic.Int64
}

// Snapshot returns the counter values for the stats endpoint.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"sessions_created": c.Sessions.Load(),
		"turns":            c.Turns.Load(),
		"model_calls":      c.ModelCalls.Load(),
		"fallback_replies": c.Fallbacks.Load(),
		"procedural_hits":  c.ProceduralHits.Load(),
	}
}

// Manager owns the session table. Sessions are independent; the manager
// only hands them shared collaborators and enforces the session cap.
type Manager struct {
	config Config
	deps   Deps

	mu       sync.RWMutex
	sessions map[string]*Session

	counters Counters
	seq      atomic.Int64
	base     *logger.Logger
	logger   *logger.Logger
}

// NewManager creates a session manager.
func NewManager(deps Deps, config Config, log *logger.Logger) *Manager {
	return &Manager{
		config:   config,
		deps:     deps,
		sessions: make(map[string]*Session),
		base:     log,
		logger:   log.Named("session-manager"),
	}
}

// Create opens a new session for the filed plan, fetching the briefing
// weather for the filed airports before the first turn.
func (m *Manager) Create(ctx context.Context, plan FlightPlan) (*Session, error) {
	if strings.TrimSpace(plan.Callsign) == "" {
		return nil, errors.New("flight plan callsign is required")
	}

	s := m.newSession(plan)
	s.fetchWeather(ctx)

	m.mu.Lock()
	if m.config.MaxSessions > 0 && len(m.sessions) >= m.config.MaxSessions {
		m.mu.Unlock()
		return nil, fmt.Errorf("session limit reached: %d active", m.config.MaxSessions)
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.counters.Sessions.Add(1)
	s.publish(websocket.TypeSessionCreated, s.plan)
	m.logger.Info("Session created",
		logger.String("session_id", s.ID),
		logger.String("callsign", s.fc.Callsign),
		logger.String("origin", s.fc.OriginICAO),
		logger.String("destination", s.fc.DestinationICAO))
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close removes a session from the table and shuts it down.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// CloseAll shuts down every open session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	if len(open) > 0 {
		m.logger.Info("Closed all sessions", logger.Int("count", len(open)))
	}
}

// Summaries lists open sessions, oldest first.
func (m *Manager) Summaries() []Summary {
	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(open))
	for _, s := range open {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// ApplyTelemetry fans a simulator state change out to every open session.
// Each session gates the suggestion against its own phase, so one shared
// simulator feed can drive any number of flights.
func (m *Manager) ApplyTelemetry(change telemetry.Change) {
	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	for _, s := range open {
		s.ApplyTelemetry(change)
	}
}

// ActiveSessions returns the number of open sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats returns activity counters plus the live session count.
func (m *Manager) Stats() map[string]int64 {
	stats := m.counters.Snapshot()
	stats["active_sessions"] = int64(m.ActiveSessions())
	return stats
}

// newSession wires one session's conversation stack. Each session gets
// its own RNG; sessions run concurrently with each other and rand.Rand
// is not safe for shared use.
func (m *Manager) newSession(plan FlightPlan) *Session {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + m.seq.Add(1)))
	fc := flight.NewContext()

	s := &Session{
		ID:           uuid.NewString(),
		Created:      time.Now().UTC(),
		fc:           fc,
		plan:         plan,
		pipeline:     normalize.NewPipeline(m.base),
		procedural:   procedural.NewRouter(rng, m.base),
		csResolver:   callsign.NewResolver(m.deps.Airlines, m.base),
		gaz:          m.deps.Airports,
		freqs:        m.deps.Frequencies,
		weather:      m.deps.Weather,
		journal:      m.deps.Journal,
		events:       m.deps.Events,
		counters:     &m.counters,
		recheckDelay: time.Duration(m.config.PendingRecheckSeconds) * time.Second,
		logger:       m.base.Named("session"),
	}
	s.machine = atc.NewMachine(
		fc,
		atc.NewResolver(m.deps.Airports, rng, m.base),
		atc.NewGuardrail(m.deps.Airports, m.base),
		atc.NewScrubber(m.deps.Airports, m.base),
		m.deps.Prompts,
		m.deps.Generator,
		m.base,
	)
	s.applyPlanLocked()
	return s
}
