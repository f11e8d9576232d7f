// Package session binds one pilot conversation together: the flight
// context, the conversation machine, transcript normalization, the
// procedural short-circuit, the journal and the event stream. All turn
// handling for a session is serialized behind its mutex.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

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

// Broadcaster publishes session events to connected clients.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// FlightPlan is the create payload: the filed plan the clearance is
// built from. Only the callsign is mandatory; everything else degrades
// to "ask the pilot" behavior when absent.
type FlightPlan struct {
	Callsign        string   `json:"callsign"`
	OriginICAO      string   `json:"origin_icao,omitempty"`
	OriginName      string   `json:"origin_name,omitempty"`
	DestinationICAO string   `json:"destination_icao,omitempty"`
	DestinationName string   `json:"destination_name,omitempty"`
	Route           []string `json:"route,omitempty"`
	CruiseLevel     int      `json:"cruise_level,omitempty"`
	DepartureRunway string   `json:"departure_runway,omitempty"`
	ArrivalRunway   string   `json:"arrival_runway,omitempty"`
	SID             string   `json:"sid,omitempty"`
	STAR            string   `json:"star,omitempty"`
	Approach        string   `json:"approach,omitempty"`
	InitialAltitude int      `json:"initial_altitude,omitempty"`
}

// TurnResult is what one pilot transmission produced.
type TurnResult struct {
	SessionID  string    `json:"session_id"`
	Turn       int       `json:"turn"`
	Transcript string    `json:"transcript"`
	Reply      atc.Reply `json:"reply"`
	Phase      string    `json:"phase"`
	State      string    `json:"state"`
}

// Summary is the listing view of one session.
type Summary struct {
	ID          string    `json:"id"`
	Callsign    string    `json:"callsign"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Phase       string    `json:"phase"`
	State       string    `json:"state"`
	Turns       int       `json:"turns"`
	Created     time.Time `json:"created"`
}

// Event payloads sent over the websocket stream.
type transmissionEvent struct {
	Turn       int    `json:"turn"`
	Raw        string `json:"raw"`
	Transcript string `json:"transcript"`
}

type replyEvent struct {
	Turn     int       `json:"turn"`
	Reply    atc.Reply `json:"reply"`
	Deferred bool      `json:"deferred,omitempty"`
}

type stateChangeEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type phaseChangeEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Source string `json:"source,omitempty"`
}

type clearanceEvent struct {
	Callsign        string `json:"callsign"`
	Text            string `json:"text"`
	Destination     string `json:"destination,omitempty"`
	Runway          string `json:"runway,omitempty"`
	SID             string `json:"sid,omitempty"`
	InitialAltitude int    `json:"initial_altitude,omitempty"`
	Squawk          string `json:"squawk,omitempty"`
}

// Session is one pilot conversation. All mutation of the flight context
// happens under mu: pilot turns, the deferred re-check and telemetry
// phase changes never interleave.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.Mutex
	fc         *flight.Context
	machine    *atc.Machine
	pipeline   *normalize.Pipeline
	procedural *procedural.Router
	csResolver *callsign.Resolver
	resolved   callsign.Resolved
	plan       FlightPlan

	gaz     airports.Gazetteer
	freqs   frequencies.Directory
	weather *weather.Service
	journal *sqlite.JournalStorage
	events  Broadcaster

	counters     *Counters
	recheckDelay time.Duration
	recheckTimer *time.Timer

	turns              int
	clearanceAnnounced bool
	clearanceRecordID  int64
	closed             bool

	logger *logger.Logger
}

// HandleTransmission runs one pilot turn end to end: normalize, try the
// procedural short-circuit, otherwise hand the turn to the machine. The
// reply and any state or phase transitions are journaled and broadcast.
func (s *Session) HandleTransmission(ctx context.Context, rawText string) TurnResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return TurnResult{
			SessionID: s.ID,
			Reply:     atc.Reply{Source: atc.SourceNone},
			Phase:     s.fc.Phase.String(),
			State:     s.fc.State.String(),
		}
	}

	// A new pilot turn supersedes any scheduled re-check; the turn itself
	// re-evaluates clearance completeness and reschedules if still short.
	s.stopRecheckLocked()

	s.turns++
	turn := s.turns
	s.counters.Turns.Add(1)

	transcript := s.pipeline.Normalize(rawText, s.resolved)
	s.journalTransmission(turn, sqlite.DirectionPilot, rawText, transcript, "")
	s.publish(websocket.TypeTransmission, transmissionEvent{
		Turn: turn, Raw: rawText, Transcript: transcript,
	})

	stateBefore := s.fc.State
	phaseBefore := s.fc.Phase

	var reply atc.Reply
	if match, ok := s.procedural.TryMatch(transcript, s.fc); ok {
		reply = atc.Reply{Text: match.Response, Spoke: true, Source: atc.SourceProcedural}
		s.counters.ProceduralHits.Add(1)
	} else {
		reply = s.machine.HandleTransmission(ctx, transcript)
		s.countModelOutcome(reply)
	}

	if reply.Spoke {
		s.journalTransmission(turn, sqlite.DirectionATC, reply.Text, "", string(reply.Source))
		s.publish(websocket.TypeReply, replyEvent{Turn: turn, Reply: reply})
	}

	s.noteTransitionsLocked(stateBefore, phaseBefore)
	s.noteClearanceLocked(reply)

	if reply.RecheckPending {
		s.scheduleRecheckLocked()
	}

	return TurnResult{
		SessionID:  s.ID,
		Turn:       turn,
		Transcript: transcript,
		Reply:      reply,
		Phase:      s.fc.Phase.String(),
		State:      s.fc.State.String(),
	}
}

// Snapshot returns a deep copy of the flight context, safe to serialize
// while the session keeps mutating the original.
func (s *Session) Snapshot() *flight.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deepcopy.Copy(s.fc).(*flight.Context)
}

// Summary returns the listing view of the session.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:          s.ID,
		Callsign:    s.fc.Callsign,
		Origin:      s.fc.OriginICAO,
		Destination: s.fc.DestinationICAO,
		Phase:       s.fc.Phase.String(),
		State:       s.fc.State.String(),
		Turns:       s.turns,
		Created:     s.Created,
	}
}

// Reset returns the session to a fresh flight context with the same
// filed plan, as if the pilot had just connected.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopRecheckLocked()
	s.fc.Reset()
	s.applyPlanLocked()
	s.turns = 0
	s.clearanceAnnounced = false
	s.clearanceRecordID = 0
	s.publish(websocket.TypeSessionReset, nil)
	s.logger.Info("Session reset",
		logger.String("session_id", s.ID),
		logger.String("callsign", s.fc.Callsign))
}

// Close stops the deferred re-check timer and marks the session dead.
// A closed session answers no further turns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopRecheckLocked()
	s.publish(websocket.TypeSessionClosed, nil)
	s.logger.Info("Session closed", logger.String("session_id", s.ID))
}

// ApplyTelemetry applies a phase suggestion from the telemetry poller.
// The phase ordering rejects implausible suggestions, so a touchdown
// bounce never drags an arrival back to the taxi-out phase.
func (s *Session) ApplyTelemetry(change telemetry.Change) {
	if change.Suggested == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	from := s.fc.Phase
	if !s.fc.AdvancePhase(*change.Suggested) {
		return
	}
	s.logger.Info("Telemetry advanced flight phase",
		logger.String("session_id", s.ID),
		logger.String("from", from.String()),
		logger.String("to", s.fc.Phase.String()))
	s.publish(websocket.TypePhaseChange, phaseChangeEvent{
		From: from.String(), To: s.fc.Phase.String(), Source: "telemetry",
	})
}

// recheck runs on the timer goroutine after a pending-data turn. When the
// machine finds the clearance data complete it issues spontaneously, and
// that transmission is journaled and broadcast like any other reply.
func (s *Session) recheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.recheckTimer = nil

	stateBefore := s.fc.State
	phaseBefore := s.fc.Phase

	reply, ok := s.machine.RecheckPendingClearance(context.Background())
	if !ok {
		return
	}
	s.countModelOutcome(reply)

	s.turns++
	s.journalTransmission(s.turns, sqlite.DirectionATC, reply.Text, "", string(reply.Source))
	s.publish(websocket.TypeReply, replyEvent{Turn: s.turns, Reply: reply, Deferred: true})
	s.noteTransitionsLocked(stateBefore, phaseBefore)
	s.noteClearanceLocked(reply)
}

func (s *Session) scheduleRecheckLocked() {
	if s.recheckDelay <= 0 || s.closed {
		return
	}
	s.stopRecheckLocked()
	s.recheckTimer = time.AfterFunc(s.recheckDelay, s.recheck)
	s.logger.Debug("Scheduled deferred clearance re-check",
		logger.Duration("delay", s.recheckDelay))
}

func (s *Session) stopRecheckLocked() {
	if s.recheckTimer != nil {
		s.recheckTimer.Stop()
		s.recheckTimer = nil
	}
}

func (s *Session) countModelOutcome(reply atc.Reply) {
	switch reply.Source {
	case atc.SourceModel:
		s.counters.ModelCalls.Add(1)
	case atc.SourceFallback:
		s.counters.ModelCalls.Add(1)
		s.counters.Fallbacks.Add(1)
	}
}

// noteTransitionsLocked broadcasts state and phase transitions made during
// the turn. A backwards state move means the machine reset the flight
// mid-turn, which also invalidates the clearance bookkeeping.
func (s *Session) noteTransitionsLocked(stateBefore flight.AtcState, phaseBefore flight.Phase) {
	if s.fc.State < stateBefore || s.fc.Phase < phaseBefore {
		s.clearanceAnnounced = false
		s.clearanceRecordID = 0
	}
	if s.fc.State != stateBefore {
		s.publish(websocket.TypeStateChange, stateChangeEvent{
			From: stateBefore.String(), To: s.fc.State.String(),
		})
	}
	if s.fc.Phase != phaseBefore {
		s.publish(websocket.TypePhaseChange, phaseChangeEvent{
			From: phaseBefore.String(), To: s.fc.Phase.String(),
		})
	}
}

// noteClearanceLocked journals a fresh issuance once and marks the journal
// row accepted when the readback verdict says so.
func (s *Session) noteClearanceLocked(reply atc.Reply) {
	if s.fc.State.Issued() && !s.clearanceAnnounced && s.fc.IssuedClearanceText != "" {
		s.clearanceAnnounced = true
		runway, _ := s.fc.DepartureRunway.Published()
		sid, _ := s.fc.SID.Published()

		evt := clearanceEvent{
			Callsign:        s.fc.Callsign,
			Text:            s.fc.IssuedClearanceText,
			Destination:     s.fc.DestinationICAO,
			Runway:          runway,
			SID:             sid,
			InitialAltitude: s.fc.ClearedAltitude,
			Squawk:          s.fc.Squawk,
		}
		s.publish(websocket.TypeClearance, evt)

		if s.journal != nil {
			id, err := s.journal.RecordClearance(&sqlite.ClearanceRecord{
				SessionID:       s.ID,
				Callsign:        s.fc.Callsign,
				ClearanceType:   "ifr",
				ClearanceText:   s.fc.IssuedClearanceText,
				Destination:     s.fc.DestinationICAO,
				SID:             sid,
				Runway:          runway,
				InitialAltitude: s.fc.ClearedAltitude,
				Squawk:          s.fc.Squawk,
			})
			if err != nil {
				s.logger.Error("Failed to journal clearance", logger.Error(err))
			} else {
				s.clearanceRecordID = id
			}
		}
	}

	if reply.Readback == nil {
		return
	}
	s.publish(websocket.TypeReadback, reply.Readback)
	if reply.Readback.Accepted && s.journal != nil && s.clearanceRecordID > 0 {
		if err := s.journal.MarkClearanceAccepted(s.clearanceRecordID); err != nil {
			s.logger.Error("Failed to mark clearance accepted", logger.Error(err))
		}
	}
}

// applyPlanLocked populates the flight context from the filed plan:
// callsign forms, airport names, route and any pre-selected runway or
// procedure identifiers.
func (s *Session) applyPlanLocked() {
	res := s.csResolver.Resolve(s.plan.Callsign)
	s.resolved = res

	fc := s.fc
	fc.RawCallsign = res.Raw
	fc.Callsign = res.Canonical
	fc.RadioCallsign = res.Radio
	fc.SpokenCallsign = res.Spoken
	fc.AirlineICAO = res.AirlineICAO
	fc.AirlineName = res.AirlineName

	fc.OriginICAO = normalizeICAO(s.plan.OriginICAO)
	fc.OriginName = s.plan.OriginName
	if fc.OriginName == "" && s.gaz != nil {
		if ap, ok := s.gaz.Lookup(fc.OriginICAO); ok {
			fc.OriginName = ap.Name
		}
	}
	fc.DestinationICAO = normalizeICAO(s.plan.DestinationICAO)
	fc.DestinationName = s.plan.DestinationName
	if fc.DestinationName == "" && s.gaz != nil {
		if ap, ok := s.gaz.Lookup(fc.DestinationICAO); ok {
			fc.DestinationName = ap.Name
		}
	}

	fc.RouteWaypoints = append([]string(nil), s.plan.Route...)
	fc.CruiseLevel = s.plan.CruiseLevel
	if s.plan.InitialAltitude > 0 {
		fc.ClearedAltitude = s.plan.InitialAltitude
	}
	fc.DepartureRunway.SetPublished(s.plan.DepartureRunway)
	fc.ArrivalRunway.SetPublished(s.plan.ArrivalRunway)
	fc.SID.SetPublished(s.plan.SID)
	fc.STAR.SetPublished(s.plan.STAR)
	fc.Approach.SetPublished(s.plan.Approach)

	fc.Frequencies = stationFrequencies(s.freqs, fc.OriginICAO, fc.DestinationICAO)
}

// fetchWeather populates the briefing weather for the filed airports.
// Fetch failures live inside the snapshots; a turn never fails on weather.
func (s *Session) fetchWeather(ctx context.Context) {
	if s.weather == nil {
		return
	}
	s.mu.Lock()
	origin, dest := s.fc.OriginICAO, s.fc.DestinationICAO
	s.mu.Unlock()

	snaps := s.weather.Snapshots(ctx, origin, dest)

	s.mu.Lock()
	defer s.mu.Unlock()
	for icao, snap := range snaps {
		s.fc.SetWeather(icao, snap)
	}
}

func (s *Session) journalTransmission(turn int, direction, raw, normalized, source string) {
	if s.journal == nil {
		return
	}
	_, err := s.journal.RecordTransmission(&sqlite.TransmissionRecord{
		SessionID:      s.ID,
		Turn:           turn,
		Direction:      direction,
		RawText:        raw,
		NormalizedText: normalized,
		Source:         source,
	})
	if err != nil {
		s.logger.Error("Failed to journal transmission",
			logger.String("session_id", s.ID), logger.Error(err))
	}
}

func (s *Session) publish(msgType string, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(websocket.Message{
		Type:      msgType,
		SessionID: s.ID,
		Data:      data,
	})
}

func normalizeICAO(icao string) string {
	return strings.ToUpper(strings.TrimSpace(icao))
}

// stationFrequencies flattens the published frequencies of the filed
// airports into the flight context map, keyed "ICAO unit".
func stationFrequencies(dir frequencies.Directory, icaos ...string) map[string]string {
	if dir == nil {
		return nil
	}
	out := make(map[string]string)
	for _, icao := range icaos {
		if icao == "" {
			continue
		}
		station, ok := dir.Lookup(icao)
		if !ok {
			continue
		}
		for unit, freq := range station.Frequencies() {
			out[icao+" "+unit] = freq
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
