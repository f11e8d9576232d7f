package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/internal/telemetry"
)

func TestCreateRequiresCallsign(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})

	_, err := m.Create(context.Background(), FlightPlan{OriginICAO: "EGPH"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callsign")
	assert.Equal(t, 0, m.ActiveSessions())
}

func TestCreateEnforcesSessionCap(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{MaxSessions: 1})

	_, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	_, err = m.Create(context.Background(), testPlan())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session limit")
	assert.Equal(t, 1, m.ActiveSessions())
}

func TestCloseFreesCapacity(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{MaxSessions: 1})

	first, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	require.True(t, m.Close(first.ID))

	second, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSummariesOldestFirst(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})

	first, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	plan := testPlan()
	plan.Callsign = "BAW22L"
	second, err := m.Create(context.Background(), plan)
	require.NoError(t, err)

	summaries := m.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, second.ID, summaries[1].ID)
	assert.Equal(t, "EZY113", summaries[0].Callsign)
	assert.Equal(t, "BAW22L", summaries[1].Callsign)
	assert.Equal(t, "preflight_clearance", summaries[0].Phase)
	assert.Equal(t, "idle", summaries[0].State)
}

func TestCloseAllEmptiesTable(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})

	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	_, err = m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	m.CloseAll()
	assert.Equal(t, 0, m.ActiveSessions())

	res := s.HandleTransmission(context.Background(), "radio check")
	assert.False(t, res.Reply.Spoke)
}

func TestApplyTelemetryFansOutToAllSessions(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("unused")), Config{})

	a, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)
	planB := testPlan()
	planB.Callsign = "BAW22L"
	b, err := m.Create(context.Background(), planB)
	require.NoError(t, err)

	climb := flight.PhaseClimb
	m.ApplyTelemetry(telemetry.Change{Suggested: &climb})

	assert.Equal(t, flight.PhaseClimb, a.Snapshot().Phase)
	assert.Equal(t, flight.PhaseClimb, b.Snapshot().Phase)
}

func TestStatsCountAcrossSessions(t *testing.T) {
	m := newTestManager(t, testDeps(t, staticGenerator("Easy 113, roger.")), Config{})

	s, err := m.Create(context.Background(), testPlan())
	require.NoError(t, err)

	s.HandleTransmission(context.Background(), "Easy 113, radio check")
	s.HandleTransmission(context.Background(), "position report abeam GOSAM")

	stats := m.Stats()
	assert.Equal(t, int64(1), stats["sessions_created"])
	assert.Equal(t, int64(1), stats["active_sessions"])
	assert.Equal(t, int64(2), stats["turns"])
	assert.Equal(t, int64(1), stats["procedural_hits"])
	assert.Equal(t, int64(1), stats["model_calls"])
	assert.Equal(t, int64(0), stats["fallback_replies"])
}
