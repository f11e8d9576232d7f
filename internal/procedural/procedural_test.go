package procedural

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)
	return NewRouter(rand.New(rand.NewSource(7)), log)
}

func edinburghFlight() *flight.Context {
	fc := flight.NewContext()
	fc.RawCallsign = "EZY113"
	fc.Callsign = "EZY113"
	fc.RadioCallsign = "Easy 113"
	fc.SpokenCallsign = "Easy one one three"
	fc.OriginICAO = "EGPH"
	fc.DestinationICAO = "EGKK"
	return fc
}

func rendered(pool []string, cs string) []string {
	out := make([]string, 0, len(pool))
	for _, tpl := range pool {
		out = append(out, fmt.Sprintf(tpl, cs))
	}
	return out
}

func TestRadioCheckShortCircuits(t *testing.T) {
	r := newTestRouter(t)

	m, ok := r.TryMatch("Easy 113, radio check", edinburghFlight())

	require.True(t, ok)
	assert.Equal(t, IntentRadioCheck, m.Intent)
	assert.Equal(t, "Easy one one three", m.Callsign)
	assert.Contains(t, rendered(icaoTemplates, "Easy one one three"), m.Response)
	assert.NotContains(t, rendered(naTemplates, "Easy one one three"), m.Response)
}

func TestRadioCheckToleratesNoise(t *testing.T) {
	r := newTestRouter(t)
	fc := edinburghFlight()

	for _, transcript := range []string{
		"uh, radio check please",
		"Easy 113, radio, check?",
		"mic check for Easy 113",
		"Edinburgh Delivery, Easy 113 radio checking",
		"mic checker, how do you read",
	} {
		_, ok := r.TryMatch(transcript, fc)
		assert.True(t, ok, "expected match for %q", transcript)
	}
}

func TestNonRadioCheckPassesThrough(t *testing.T) {
	r := newTestRouter(t)
	fc := edinburghFlight()

	for _, transcript := range []string{
		"",
		"Easy 113, request IFR clearance to Gatwick",
		"check in with you at flight level 360",
		"radio is a bit scratchy today",
	} {
		_, ok := r.TryMatch(transcript, fc)
		assert.False(t, ok, "expected no match for %q", transcript)
	}
}

func TestNorthAmericanPhraseology(t *testing.T) {
	r := newTestRouter(t)
	fc := edinburghFlight()
	fc.OriginICAO = "KBOS"

	m, ok := r.TryMatch("Easy 113, radio check", fc)

	require.True(t, ok)
	assert.Contains(t, rendered(naTemplates, "Easy one one three"), m.Response)
}

func TestCallsignPreferenceOrder(t *testing.T) {
	r := newTestRouter(t)

	fc := edinburghFlight()
	fc.SpokenCallsign = ""
	m, ok := r.TryMatch("Easy 113, radio check", fc)
	require.True(t, ok)
	assert.Equal(t, "Easy 113", m.Callsign)

	fc.RadioCallsign = ""
	m, ok = r.TryMatch("Easy 113, radio check", fc)
	require.True(t, ok)
	assert.Equal(t, "Easy 113", m.Callsign)

	m, ok = r.TryMatch("radio check", fc)
	require.True(t, ok)
	assert.Empty(t, m.Callsign)
	assert.Contains(t, rendered(icaoTemplates, "Station calling"), m.Response)
}

func TestNilFlightContext(t *testing.T) {
	r := newTestRouter(t)

	m, ok := r.TryMatch("Cessna 172, radio check", nil)

	require.True(t, ok)
	assert.Equal(t, "Cessna 172", m.Callsign)
	assert.Contains(t, rendered(icaoTemplates, "Cessna 172"), m.Response)
}
