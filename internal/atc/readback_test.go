package atc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// readbackContext carries only the critical slots: runway 33, initial
// altitude 5000, squawk 4406.
func readbackContext() *Context {
	return &Context{
		Callsign: CallsignInfo{Raw: "EZY113", Radio: "Easy 113", Spoken: "Easy one one three"},
		Decision: ClearanceDecision{
			ClearanceType:   ClearanceIFR,
			DepartureRunway: "33",
			InitialAltitude: 5000,
			Squawk:          "4406",
		},
	}
}

const issuedWithRunway = "Easy 113, runway 33, climb and maintain 5000, squawk 4406."

func TestReadbackAcceptedWithAllCriticalItems(t *testing.T) {
	result := EvaluateReadback("Squawk 4406, runway 33, climbing 5000, Easy 113",
		readbackContext(), issuedWithRunway, nil)

	assert.True(t, result.Accepted)
	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Mismatched)
	assert.Equal(t, "Easy 113", result.Callsign)
}

func TestReadbackMissingRunwayRejected(t *testing.T) {
	result := EvaluateReadback("Squawk 4406 and climbing 5000, Easy 113",
		readbackContext(), issuedWithRunway, nil)

	assert.False(t, result.Accepted)
	assert.Equal(t, []string{"runway"}, result.Missing)
	assert.Empty(t, result.Mismatched)
}

func TestReadbackWrongRunwayMismatch(t *testing.T) {
	result := EvaluateReadback("Runway 27, climbing 5000, squawk 4406",
		readbackContext(), issuedWithRunway, nil)

	assert.False(t, result.Accepted)
	assert.Equal(t, []string{"runway"}, result.Mismatched)
	assert.Empty(t, result.Missing)
}

func TestReadbackRunwayIgnoredWhenNotIssued(t *testing.T) {
	issued := "Easy 113, climb and maintain 5000, squawk 4406."

	result := EvaluateReadback("squawk 4406, climbing 5000", readbackContext(), issued, nil)

	assert.True(t, result.Accepted)
	assert.Empty(t, result.Missing)
}

func TestReadbackPendingSubset(t *testing.T) {
	pending := []string{"squawk"}

	got := EvaluateReadback("squawk 4406, Easy 113", readbackContext(), issuedWithRunway, pending)
	assert.True(t, got.Accepted)

	missed := EvaluateReadback("roger that, copied all", readbackContext(), issuedWithRunway, pending)
	assert.False(t, missed.Accepted)
	assert.Equal(t, []string{"squawk"}, missed.Missing)
}

func TestReadbackSurvivesSttSpacing(t *testing.T) {
	result := EvaluateReadback("squawk 4 4 0 6, runway 3 3, climbing 5 0 0 0",
		readbackContext(), issuedWithRunway, nil)

	assert.True(t, result.Accepted)
}

func TestReadbackDestinationAndSidNeverGate(t *testing.T) {
	actx := readbackContext()
	actx.Decision.Destination = "Gatwick"
	actx.Decision.SID = "GOSAM1C"

	result := EvaluateReadback("runway 33, climbing 5000, squawk 4406, Easy 113",
		actx, issuedWithRunway, nil)

	assert.True(t, result.Accepted)
	assert.ElementsMatch(t, []string{"destination", "sid"}, result.Missing)
}

func TestReadbackEmptyTranscript(t *testing.T) {
	result := EvaluateReadback("  ", readbackContext(), issuedWithRunway, nil)

	assert.False(t, result.Accepted)
	assert.Empty(t, result.Missing)
	assert.Equal(t, "Easy 113", result.Callsign)
}

func TestReadbackCallsignPreference(t *testing.T) {
	actx := readbackContext()
	actx.Callsign = CallsignInfo{Raw: "EZY113", Spoken: "Easy one one three"}
	assert.Equal(t, "Easy one one three",
		EvaluateReadback("squawk 4406", actx, issuedWithRunway, nil).Callsign)

	actx.Callsign = CallsignInfo{Raw: "EZY113"}
	assert.Equal(t, "EZY113",
		EvaluateReadback("squawk 4406", actx, issuedWithRunway, nil).Callsign)
}
