package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/virtualatc/atc-engine/internal/flight"
)

func preflightContext() *flight.Context {
	fc := flight.NewContext()
	fc.RawCallsign = "EZY113"
	fc.Callsign = "EZY113"
	fc.RadioCallsign = "Easy 113"
	fc.OriginICAO = "EGPH"
	return fc
}

func TestParseClassification(t *testing.T) {
	fc := preflightContext()

	tests := []struct {
		name string
		text string
		want Type
	}{
		{"ifr request", "Easy 113 requesting IFR clearance to Gatwick", TypeRequestIfrClearance},
		{"ifr request inverted", "Easy 113 IFR to Gatwick ready to copy clearance", TypeRequestIfrClearance},
		{"clearance request plain", "request clearance to Stansted", TypeRequestIfrClearance},
		{"radio check", "Easy 113 radio check", TypeRadioCheck},
		{"acknowledgment roger", "Easy 113 roger", TypeAcknowledgment},
		{"acknowledgment wilco", "wilco, Easy 113", TypeAcknowledgment},
		{"acknowledgment thanks", "thank you good day", TypeAcknowledgment},
		{"callsign only is not ack", "Easy 113", TypeUnknown},
		{"taxi request", "Easy 113 request taxi", TypeRequestTaxi},
		{"ready to taxi", "ready to taxi with information november", TypeRequestTaxi},
		{"ready for departure", "Easy 113 ready for departure", TypeReadyForDeparture},
		{"request climb", "request climb flight level 380", TypeRequestClimb},
		{"request descent", "requesting lower", TypeRequestDescent},
		{"new flight", "starting a new flight plan", TypeNewFlight},
		{"unknown chatter", "nice weather out there", TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, fc)
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestParseDestinationParam(t *testing.T) {
	fc := preflightContext()

	in := Parse("Easy 113 requesting clearance to Stansted", fc)
	assert.Equal(t, "Stansted", in.Param("destination"))

	in = Parse("requesting IFR clearance to Gatwick as filed", fc)
	assert.Equal(t, "Gatwick", in.Param("destination"))

	in = Parse("clearance to EGKK please", fc)
	assert.Equal(t, "EGKK", in.Param("destination_icao"))

	// The origin never counts as a destination.
	in = Parse("with you at EGPH requesting clearance", fc)
	assert.Empty(t, in.Param("destination_icao"))
}

func TestParseSquawkAndAltitudeParams(t *testing.T) {
	fc := preflightContext()

	in := Parse("squawk 4406, climb 5000", fc)
	assert.Equal(t, "4406", in.Param("squawk"))
	assert.Equal(t, "5000", in.Param("altitude"))

	in = Parse("climbing FL350", fc)
	assert.Equal(t, "350", in.Param("flight_level"))
}

func TestParseReadbackInIssuedState(t *testing.T) {
	fc := preflightContext()
	fc.State = flight.StateClearanceIssued

	in := Parse("cleared to Gatwick runway 24 squawk 4406", fc)
	assert.Equal(t, TypeReadback, in.Type)

	// The same text without issued state is not a readback.
	fc2 := preflightContext()
	in = Parse("runway 24 squawk 4406", fc2)
	assert.NotEqual(t, TypeReadback, in.Type)
}

func TestParseFinalOnlyInArrival(t *testing.T) {
	fc := preflightContext()
	fc.Phase = flight.PhaseApproach

	in := Parse("Easy 113 established on final", fc)
	assert.Equal(t, TypeReportFinal, in.Type)

	preflight := preflightContext()
	in = Parse("established on final", preflight)
	assert.NotEqual(t, TypeReportFinal, in.Type)
}

func TestParseTaxiInAfterLanding(t *testing.T) {
	fc := preflightContext()
	fc.Phase = flight.PhaseLanding

	in := Parse("request taxi to stand 12", fc)
	assert.Equal(t, TypeRequestTaxiIn, in.Type)

	ground := preflightContext()
	in = Parse("request taxi to stand 12", ground)
	assert.Equal(t, TypeRequestTaxi, in.Type)
}

func TestSuggestedPhase(t *testing.T) {
	tests := []struct {
		name    string
		it      Type
		current flight.Phase
		want    flight.Phase
		ok      bool
	}{
		{"taxi from preflight", TypeRequestTaxi, flight.PhasePreflightClearance, flight.PhaseTaxiOut, true},
		{"departure from taxi", TypeReadyForDeparture, flight.PhaseTaxiOut, flight.PhaseLineupTakeoff, true},
		{"climb from lineup", TypeRequestClimb, flight.PhaseLineupTakeoff, flight.PhaseClimb, true},
		{"descent from enroute", TypeRequestDescent, flight.PhaseEnroute, flight.PhaseArrival, true},
		{"final from arrival", TypeReportFinal, flight.PhaseArrival, flight.PhaseApproach, true},
		{"taxi in from landing", TypeRequestTaxiIn, flight.PhaseLanding, flight.PhaseTaxiIn, true},
		{"no backwards taxi", TypeRequestTaxi, flight.PhaseEnroute, flight.PhaseEnroute, false},
		{"ack moves nothing", TypeAcknowledgment, flight.PhaseTaxiOut, flight.PhaseTaxiOut, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Intent{Type: tt.it}.SuggestedPhase(tt.current)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
