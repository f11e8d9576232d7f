package atc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/internal/airports"
)

func newTestGuardrail(t *testing.T) *Guardrail {
	t.Helper()
	log := testLogger(t)
	return NewGuardrail(airports.NewGazetteer(log), log)
}

// guardContext is a fully grounded clearance context: anything outside these
// values is a fabrication.
func guardContext() *Context {
	return &Context{
		Callsign:        CallsignInfo{Raw: "EZY113", Radio: "Easy 113", Spoken: "Easy one one three"},
		OriginICAO:      "EGPH",
		DestinationICAO: "EGKK",
		Decision: ClearanceDecision{
			ClearanceType:   ClearanceIFR,
			Destination:     "Gatwick",
			RouteSummary:    "GOSAM P600 TILNI",
			DepartureRunway: "24",
			SID:             "GOSAM1C",
			InitialAltitude: 5000,
			CruiseLevel:     360,
			Squawk:          "4406",
		},
		AllowedRunways:     []string{"24"},
		AllowedAltitudes:   []int{5000, 36000},
		AllowedFrequencies: []string{"121.975", "118.7"},
		AllowedProcedures:  []string{"GOSAM1C", "EZY113"},
	}
}

func TestValidateResponseAcceptsGroundedReply(t *testing.T) {
	g := newTestGuardrail(t)
	candidate := "Easy 113, cleared to Gatwick as filed, GOSAM1C departure, runway 24, " +
		"climb and maintain 5000, expect flight level 360, squawk 4406, contact tower on 118.7."

	verdict := g.ValidateResponse(candidate, guardContext())

	assert.True(t, verdict.IsValid)
	assert.Empty(t, verdict.OffendingTokens)
}

func TestValidateResponseFlagsFabricatedValues(t *testing.T) {
	g := newTestGuardrail(t)
	candidate := "Easy 113, DEVIL2X departure, runway 09, climb and maintain 6000, " +
		"squawk 1234, expect flight level 320, contact departure on 121.9."

	verdict := g.ValidateResponse(candidate, guardContext())

	assert.False(t, verdict.IsValid)
	assert.ElementsMatch(t,
		[]string{"09", "1234", "6000", "FL320", "121.9", "DEVIL2X"},
		verdict.OffendingTokens)
}

func TestValidateResponseRecognizedICAOAlwaysOffends(t *testing.T) {
	g := newTestGuardrail(t)

	// A known airport that is neither origin nor destination.
	verdict := g.ValidateResponse("proceed direct EGLL when able", guardContext())
	assert.False(t, verdict.IsValid)
	assert.Equal(t, []string{"EGLL"}, verdict.OffendingTokens)

	// The flight's own airports are still literals a reply must not speak.
	verdict = g.ValidateResponse("cleared to EGKK, Easy 113", guardContext())
	assert.False(t, verdict.IsValid)
	assert.Equal(t, []string{"EGKK"}, verdict.OffendingTokens)

	// Origin equality holds even when the gazetteer has never heard of it.
	actx := guardContext()
	actx.OriginICAO = "XPLN"
	verdict = g.ValidateResponse("radar contact leaving XPLN", actx)
	assert.False(t, verdict.IsValid)
	assert.Equal(t, []string{"XPLN"}, verdict.OffendingTokens)
}

func TestValidateResponseToleratesUnknownToken(t *testing.T) {
	g := newTestGuardrail(t)

	verdict := g.ValidateResponse("direct QQQQ then as filed", guardContext())

	assert.True(t, verdict.IsValid)
}

func TestValidateResponseSquawkNeedsAssignment(t *testing.T) {
	g := newTestGuardrail(t)
	actx := guardContext()
	actx.Decision.Squawk = ""

	verdict := g.ValidateResponse("squawk 4406", actx)

	assert.False(t, verdict.IsValid)
	assert.Equal(t, []string{"4406"}, verdict.OffendingTokens)
}

func TestValidateResponseNormalizesBeforeMatching(t *testing.T) {
	g := newTestGuardrail(t)

	// Spelled-out ICAO letters are collapsed before extraction runs.
	verdict := g.ValidateResponse("proceed direct E G L L", guardContext())

	assert.False(t, verdict.IsValid)
	assert.Equal(t, []string{"EGLL"}, verdict.OffendingTokens)
}

func TestValidateResponseWithoutContextPassesThrough(t *testing.T) {
	g := newTestGuardrail(t)

	verdict := g.ValidateResponse("runway 99, squawk 0000, direct EGLL", nil)

	assert.True(t, verdict.IsValid)
	assert.Empty(t, verdict.OffendingTokens)
}

func TestEnforceSubstitutesDeterministicFallback(t *testing.T) {
	g := newTestGuardrail(t)
	actx := guardContext()

	out, verdict := g.Enforce("Easy 113, runway 09, squawk 1234.", actx)

	require.False(t, verdict.IsValid)
	assert.Contains(t, out, "cleared to Gatwick as filed")
	assert.Contains(t, out, "runway 24")
	assert.Contains(t, out, "squawk 4406")

	grounded := "Easy 113, cleared to Gatwick as filed, runway 24, squawk 4406."
	out, verdict = g.Enforce(grounded, actx)
	require.True(t, verdict.IsValid)
	assert.Equal(t, grounded, out)
}

func TestFallbackPassesItsOwnGuardrail(t *testing.T) {
	g := newTestGuardrail(t)
	actx := guardContext()

	fallback := FallbackClearance(actx)
	verdict := g.ValidateResponse(fallback, actx)

	assert.True(t, verdict.IsValid, "fallback %q tripped its own guardrail on %v", fallback, verdict.OffendingTokens)
}
