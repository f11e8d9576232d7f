package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/virtualatc/atc-engine/internal/airlines"
	"github.com/virtualatc/atc-engine/internal/airports"
	"github.com/virtualatc/atc-engine/internal/atc"
	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/internal/frequencies"
	"github.com/virtualatc/atc-engine/internal/storage/sqlite"
	"github.com/virtualatc/atc-engine/internal/telemetry"
	"github.com/virtualatc/atc-engine/internal/websocket"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)
	return log
}

type staticPrompts struct{}

func (staticPrompts) Build(_ *atc.Context, transmission string) (string, string) {
	return "controller briefing", transmission
}

func staticGenerator(reply string) atc.Generator {
	return func(context.Context, string, string) (string, error) {
		return reply, nil
	}
}

// recordingSink captures broadcast messages for assertions.
type recordingSink struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (r *recordingSink) Broadcast(msg websocket.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSink) ofType(msgType string) []websocket.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []websocket.Message
	for _, m := range r.msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func testDeps(t *testing.T, gen atc.Generator) Deps {
	t.Helper()
	log := testLogger(t)
	return Deps{
		Airlines:    airlines.NewDirectory(log),
		Airports:    airports.NewGazetteer(log),
		Frequencies: frequencies.NewDirectory(log),
		Prompts:     staticPrompts{},
		Generator:   gen,
	}
}

func newTestManager(t *testing.T, deps Deps, config Config) *Manager {
	t.Helper()
	m := NewManager(deps, config, testLogger(t))
	t.Cleanup(m.CloseAll)
	return m
}

// testPlan is EZY113, Edinburgh to Gatwick at FL360, runway and SID
// already assigned.
func testPlan() FlightPlan {
	return FlightPlan{
		Callsign:        "EZY113",
		OriginICAO:      "EGPH",
		DestinationICAO: "EGKK",
		Route:           []string{"GOSAM", "P600", "TILNI"},
		CruiseLevel:     360,
		DepartureRunway: "24",
		SID:             "GOSAM1C",
		InitialAltitude: 5000,
	}
}

const testClearance = "Easy 113, cleared to London Gatwick as filed, GOSAM1C departure, " +
	"runway 24, climb and maintain 5000, squawk 4406."

// seedSquawk pins the assigned squawk so canned generator text stays
// consistent with the flight state.
func seedSquawk(s *Session, code string) {
	s.mu.Lock()
	s.fc.Squawk = code
	s.mu.Unlock()
}

func TestCreateAppliesPlan(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})
	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	snap := s.Snapshot()
	assert.Equal(t, "EZY113", snap.Callsign)
	assert.Equal(t, "Easy 113", snap.RadioCallsign)
	assert.Equal(t, "Easy one one three", snap.SpokenCallsign)
	assert.Equal(t, "EZY", snap.AirlineICAO)

	assert.Equal(t, "EGPH", snap.OriginICAO)
	assert.Equal(t, "Edinburgh Airport", snap.OriginName)
	assert.Equal(t, "EGKK", snap.DestinationICAO)
	assert.Equal(t, "London Gatwick", snap.DestinationName)

	assert.Equal(t, []string{"GOSAM", "P600", "TILNI"}, snap.RouteWaypoints)
	assert.Equal(t, 360, snap.CruiseLevel)
	assert.Equal(t, 5000, snap.ClearedAltitude)

	runway, ok := snap.DepartureRunway.Published()
	require.True(t, ok)
	assert.Equal(t, "24", runway)
	sid, ok := snap.SID.Published()
	require.True(t, ok)
	assert.Equal(t, "GOSAM1C", sid)

	assert.Equal(t, "118.7", snap.Frequencies["EGPH tower"])
	assert.Equal(t, "121.95", snap.Frequencies["EGKK delivery"])

	assert.Equal(t, flight.PhasePreflightClearance, snap.Phase)
	assert.Equal(t, flight.StateIdle, snap.State)
}

func TestCreateFillsAirportNamesFromPlanOverride(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})
	plan := testPlan()
	plan.OriginName = "Edinburgh"

	s, err := m.Create(context.Background(), plan)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "Edinburgh", snap.OriginName)
	assert.Equal(t, "London Gatwick", snap.DestinationName)
}

func TestProceduralShortCircuit(t *testing.T) {
	modelCalled := false
	gen := func(context.Context, string, string) (string, error) {
		modelCalled = true
		return "", errors.New("the model must stay out of procedural turns")
	}
	sink := &recordingSink{}
	deps := testDeps(t, gen)
	deps.Events = sink
	m := newTestManager(t, deps, Config{})

	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	res := s.HandleTransmission(context.Background(), "Easy 113, radio check")

	assert.False(t, modelCalled)
	assert.Equal(t, atc.SourceProcedural, res.Reply.Source)
	assert.True(t, res.Reply.Spoke)
	assert.Contains(t, res.Reply.Text, "Easy one one three")
	assert.Equal(t, 1, res.Turn)

	require.Len(t, sink.ofType(websocket.TypeTransmission), 1)
	require.Len(t, sink.ofType(websocket.TypeReply), 1)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats["turns"])
	assert.Equal(t, int64(1), stats["procedural_hits"])
	assert.Equal(t, int64(0), stats["model_calls"])
}

func TestClearanceTurnJournaledAndBroadcast(t *testing.T) {
	log := testLogger(t)
	db, err := sqlite.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	journal, err := sqlite.NewJournalStorage(db, log)
	require.NoError(t, err)

	sink := &recordingSink{}
	deps := testDeps(t, staticGenerator(testClearance))
	deps.Journal = journal
	deps.Events = sink
	m := newTestManager(t, deps, Config{})

	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	seedSquawk(s, "4406")

	res := s.HandleTransmission(context.Background(), "Easy 113, ready to copy IFR clearance")

	require.True(t, res.Reply.Spoke)
	assert.Equal(t, atc.SourceModel, res.Reply.Source)
	assert.Equal(t, testClearance, res.Reply.Text)
	assert.Equal(t, "clearance_issued", res.State)

	// Pilot transmission and controller reply, in turn order.
	rows, err := journal.TransmissionsBySession(s.ID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sqlite.DirectionPilot, rows[0].Direction)
	assert.Equal(t, 1, rows[0].Turn)
	assert.NotEmpty(t, rows[0].NormalizedText)
	assert.Equal(t, sqlite.DirectionATC, rows[1].Direction)
	assert.Equal(t, testClearance, rows[1].RawText)
	assert.Equal(t, "model", rows[1].Source)

	clearances, err := journal.ClearancesBySession(s.ID, 10)
	require.NoError(t, err)
	require.Len(t, clearances, 1)
	assert.Equal(t, "EZY113", clearances[0].Callsign)
	assert.Equal(t, "ifr", clearances[0].ClearanceType)
	assert.Equal(t, testClearance, clearances[0].ClearanceText)
	assert.Equal(t, "24", clearances[0].Runway)
	assert.Equal(t, 5000, clearances[0].InitialAltitude)
	assert.Equal(t, "4406", clearances[0].Squawk)
	assert.False(t, clearances[0].Accepted)

	require.Len(t, sink.ofType(websocket.TypeClearance), 1)
	stateChanges := sink.ofType(websocket.TypeStateChange)
	require.Len(t, stateChanges, 1)
	change, ok := stateChanges[0].Data.(stateChangeEvent)
	require.True(t, ok)
	assert.Equal(t, "idle", change.From)
	assert.Equal(t, "clearance_issued", change.To)
}

func TestAcceptedReadbackMarksClearance(t *testing.T) {
	log := testLogger(t)
	db, err := sqlite.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	journal, err := sqlite.NewJournalStorage(db, log)
	require.NoError(t, err)

	sink := &recordingSink{}
	deps := testDeps(t, staticGenerator(testClearance))
	deps.Journal = journal
	deps.Events = sink
	m := newTestManager(t, deps, Config{})

	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	seedSquawk(s, "4406")

	s.HandleTransmission(context.Background(), "Easy 113, ready to copy IFR clearance")
	res := s.HandleTransmission(context.Background(),
		"Squawk 4406, runway 24, climbing 5000, Easy 113")

	require.NotNil(t, res.Reply.Readback)
	assert.True(t, res.Reply.Readback.Accepted)

	clearances, err := journal.ClearancesBySession(s.ID, 10)
	require.NoError(t, err)
	require.Len(t, clearances, 1)
	assert.True(t, clearances[0].Accepted)

	require.Len(t, sink.ofType(websocket.TypeReadback), 1)
}

func TestDeferredRecheckIssuesClearance(t *testing.T) {
	sink := &recordingSink{}
	deps := testDeps(t, staticGenerator(testClearance))
	deps.Events = sink
	m := newTestManager(t, deps, Config{PendingRecheckSeconds: 1})

	plan := testPlan()
	plan.DestinationICAO = ""
	plan.DestinationName = ""
	s, err := m.Create(context.Background(), plan)
	require.NoError(t, err)
	seedSquawk(s, "4406")
	s.mu.Lock()
	s.recheckDelay = 30 * time.Millisecond
	s.mu.Unlock()

	res := s.HandleTransmission(context.Background(), "Easy 113, ready to copy IFR clearance")
	require.True(t, res.Reply.RecheckPending)
	assert.Equal(t, "clearance_pending_data", res.State)

	// The destination arrives after the turn; the deferred check should
	// pick it up and issue without another pilot transmission.
	s.mu.Lock()
	s.fc.DestinationICAO = "EGKK"
	s.fc.DestinationName = "London Gatwick"
	s.mu.Unlock()

	require.Eventually(t, func() bool {
		return s.Snapshot().State == flight.StateClearanceIssued
	}, 2*time.Second, 10*time.Millisecond)

	replies := sink.ofType(websocket.TypeReply)
	require.Len(t, replies, 2)
	deferred, ok := replies[1].Data.(replyEvent)
	require.True(t, ok)
	assert.True(t, deferred.Deferred)
	assert.Equal(t, 2, deferred.Turn)
	assert.True(t, deferred.Reply.Spoke)

	require.Len(t, sink.ofType(websocket.TypeClearance), 1)
}

func TestNewTurnSupersedesScheduledRecheck(t *testing.T) {
	deps := testDeps(t, staticGenerator("Easy 113, standby."))
	m := newTestManager(t, deps, Config{PendingRecheckSeconds: 1})

	plan := testPlan()
	plan.DestinationICAO = ""
	plan.DestinationName = ""
	s, err := m.Create(context.Background(), plan)
	require.NoError(t, err)

	res := s.HandleTransmission(context.Background(), "Easy 113, ready to copy IFR clearance")
	require.True(t, res.Reply.RecheckPending)

	s.mu.Lock()
	hadTimer := s.recheckTimer != nil
	s.mu.Unlock()
	require.True(t, hadTimer)

	s.HandleTransmission(context.Background(), "any update on that clearance?")

	// The second pending-data turn rescheduled; closing must stop it.
	s.Close()
	s.mu.Lock()
	assert.Nil(t, s.recheckTimer)
	s.mu.Unlock()
}

func TestResetRestoresFiledPlan(t *testing.T) {
	sink := &recordingSink{}
	deps := testDeps(t, staticGenerator(testClearance))
	deps.Events = sink
	m := newTestManager(t, deps, Config{})

	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	seedSquawk(s, "4406")

	s.HandleTransmission(context.Background(), "Easy 113, ready to copy IFR clearance")
	require.Equal(t, flight.StateClearanceIssued, s.Snapshot().State)

	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, flight.StateIdle, snap.State)
	assert.Equal(t, flight.PhasePreflightClearance, snap.Phase)
	assert.Empty(t, snap.IssuedClearanceText)
	assert.Empty(t, snap.Squawk)
	assert.Equal(t, "EZY113", snap.Callsign)
	assert.Equal(t, "EGKK", snap.DestinationICAO)
	assert.Equal(t, 0, s.Summary().Turns)
	require.Len(t, sink.ofType(websocket.TypeSessionReset), 1)

	// The next clearance cycle starts from scratch.
	seedSquawk(s, "4406")
	res := s.HandleTransmission(context.Background(), "Easy 113, ready to copy IFR clearance")
	assert.Equal(t, "clearance_issued", res.State)
	assert.Equal(t, 1, res.Turn)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})
	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.RouteWaypoints[0] = "XXXXX"
	snap.Frequencies["EGPH tower"] = "000.000"
	snap.DepartureRunway.SetPublished("09")

	fresh := s.Snapshot()
	assert.Equal(t, "GOSAM", fresh.RouteWaypoints[0])
	assert.Equal(t, "118.7", fresh.Frequencies["EGPH tower"])
	runway, _ := fresh.DepartureRunway.Published()
	assert.Equal(t, "24", runway)
}

func TestApplyTelemetryAdvancesPhaseForward(t *testing.T) {
	sink := &recordingSink{}
	deps := testDeps(t, staticGenerator("unused"))
	deps.Events = sink
	m := newTestManager(t, deps, Config{})

	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	climb := flight.PhaseClimb
	s.ApplyTelemetry(telemetry.Change{Suggested: &climb})
	assert.Equal(t, flight.PhaseClimb, s.Snapshot().Phase)

	// A stale suggestion pointing backwards is rejected.
	taxi := flight.PhaseTaxiOut
	s.ApplyTelemetry(telemetry.Change{Suggested: &taxi})
	assert.Equal(t, flight.PhaseClimb, s.Snapshot().Phase)

	// No suggestion, no effect.
	s.ApplyTelemetry(telemetry.Change{})
	assert.Equal(t, flight.PhaseClimb, s.Snapshot().Phase)

	changes := sink.ofType(websocket.TypePhaseChange)
	require.Len(t, changes, 1)
	evt, ok := changes[0].Data.(phaseChangeEvent)
	require.True(t, ok)
	assert.Equal(t, "telemetry", evt.Source)
	assert.Equal(t, "climb", evt.To)
}

func TestClosedSessionAnswersNoTurns(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})
	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	require.True(t, m.Close(s.ID))

	res := s.HandleTransmission(context.Background(), "Easy 113, radio check")
	assert.Equal(t, atc.SourceNone, res.Reply.Source)
	assert.False(t, res.Reply.Spoke)
	assert.Equal(t, 0, res.Turn)

	_, found := m.Get(s.ID)
	assert.False(t, found)
	assert.False(t, m.Close(s.ID))
}

func TestConcurrentTurnsStaySerialized(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("Easy 113, roger.")), Config{})
	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	const turns = 16
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.HandleTransmission(context.Background(), fmt.Sprintf("position report %d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, turns, s.Summary().Turns)
	assert.Equal(t, int64(turns), m.Stats()["turns"])
}
