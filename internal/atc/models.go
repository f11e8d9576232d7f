// Package atc is the conversational control core: the clearance state
// machine, per-turn context resolution and permission gating, the reply
// guardrail with its deterministic fallback, readback evaluation, and the
// final output scrub. Everything here treats the language model as an
// untrusted text function; any fact spoken back to the pilot must trace to
// the flight context.
package atc

import (
	"github.com/virtualatc/atc-engine/internal/flight"
)

// ClearanceType tags which clearance family the current turn concerns.
type ClearanceType string

const (
	ClearanceNone     ClearanceType = ""
	ClearanceIFR      ClearanceType = "ifr"
	ClearanceTaxi     ClearanceType = "taxi"
	ClearanceTakeoff  ClearanceType = "takeoff"
	ClearanceClimb    ClearanceType = "climb"
	ClearanceEnroute  ClearanceType = "enroute"
	ClearanceDescent  ClearanceType = "descent"
	ClearanceApproach ClearanceType = "approach"
	ClearanceLanding  ClearanceType = "landing"
	ClearanceTaxiIn   ClearanceType = "taxi_in"
)

// ClearanceDecision holds every fact the model is allowed to state this
// turn. Each value traces to an authoritative flight context field; the
// model is never handed a fact it may not speak.
type ClearanceDecision struct {
	ClearanceType   ClearanceType `json:"clearance_type,omitempty"`
	Destination     string        `json:"destination,omitempty"`
	RouteSummary    string        `json:"route_summary,omitempty"`
	DepartureRunway string        `json:"departure_runway,omitempty"`
	ArrivalRunway   string        `json:"arrival_runway,omitempty"`
	SID             string        `json:"sid,omitempty"`
	STAR            string        `json:"star,omitempty"`
	Approach        string        `json:"approach,omitempty"`
	InitialAltitude int           `json:"initial_altitude,omitempty"`
	CruiseLevel     int           `json:"cruise_level,omitempty"`
	Squawk          string        `json:"squawk,omitempty"`
}

// Permissions lists which clearance types may be issued this turn. They are
// overwritten unconditionally by ApplyPhaseDefaults, which always runs last.
type Permissions struct {
	AllowIfrClearance bool `json:"allow_ifr_clearance"`
	AllowTaxi         bool `json:"allow_taxi"`
	AllowTakeoff      bool `json:"allow_takeoff"`
	AllowClimb        bool `json:"allow_climb"`
	AllowDescent      bool `json:"allow_descent"`
	AllowApproach     bool `json:"allow_approach"`
	AllowLanding      bool `json:"allow_landing"`
	AllowTaxiIn       bool `json:"allow_taxi_in"`
	AllowHandoff      bool `json:"allow_handoff"`
}

// StateFlags records what already happened in this clearance cycle.
type StateFlags struct {
	State                 flight.AtcState `json:"state"`
	ClearanceIssued       bool            `json:"clearance_issued"`
	ClearanceDataComplete bool            `json:"clearance_data_complete"`
	PendingConfirmation   string          `json:"pending_confirmation,omitempty"`
	AwaitingReadback      bool            `json:"awaiting_readback"`
}

// CallsignInfo is the callsign subset carried into the per-turn context.
type CallsignInfo struct {
	Raw    string `json:"raw"`
	Radio  string `json:"radio"`
	Spoken string `json:"spoken"`
}

// WeatherBrief is the per-station weather subset handed to the model.
type WeatherBrief struct {
	METAR string `json:"metar,omitempty"`
	TAF   string `json:"taf,omitempty"`
}

// Context is the immutable per-turn snapshot built from flight state plus
// parsed intent. It is created by the resolver, consumed by the prompt
// builder, the guardrail and the readback evaluator, and discarded after
// the turn.
type Context struct {
	Role     string `json:"role"`
	PhaseTag string `json:"phase_tag"`

	Callsign CallsignInfo `json:"callsign"`

	OriginICAO      string `json:"origin_icao,omitempty"`
	OriginSpoken    string `json:"origin_spoken,omitempty"`
	DestinationICAO string `json:"destination_icao,omitempty"`

	Decision    ClearanceDecision `json:"decision"`
	Permissions Permissions       `json:"permissions"`
	Flags       StateFlags        `json:"flags"`

	Weather map[string]WeatherBrief `json:"weather,omitempty"`

	// Allow-sets for reply validation, precomputed here so the guardrail
	// stays a pure check over this snapshot.
	AllowedRunways     []string `json:"allowed_runways,omitempty"`
	AllowedAltitudes   []int    `json:"allowed_altitudes,omitempty"`
	AllowedFrequencies []string `json:"allowed_frequencies,omitempty"`
	AllowedProcedures  []string `json:"allowed_procedures,omitempty"`

	// Readback carries the evaluator's verdict on readback turns so the
	// prompt can tell the model what to confirm or correct.
	Readback *ReadbackResult `json:"readback,omitempty"`
}

// SpokenName returns the preferred callsign form for reply text.
func (c CallsignInfo) SpokenName() string {
	switch {
	case c.Spoken != "":
		return c.Spoken
	case c.Radio != "":
		return c.Radio
	}
	return c.Raw
}

// ResponseValidation is the guardrail verdict on one candidate reply.
type ResponseValidation struct {
	IsValid         bool     `json:"is_valid"`
	OffendingTokens []string `json:"offending_tokens,omitempty"`
}

// ReadbackResult is the evaluator verdict on one pilot readback.
type ReadbackResult struct {
	Accepted   bool     `json:"accepted"`
	Missing    []string `json:"missing,omitempty"`
	Mismatched []string `json:"mismatched,omitempty"`
	// Callsign is the resolved callsign for any follow-up prompt,
	// preferring the radio form.
	Callsign string `json:"callsign"`
}

// Provenance tags where a spoken airport name came from.
type Provenance string

const (
	ProvenanceSimbrief     Provenance = "simbrief"
	ProvenanceGazetteer    Provenance = "gazetteer"
	ProvenanceICAOFallback Provenance = "icao_fallback"
)

// SpokenAirport pairs an ICAO code with its spoken replacement.
type SpokenAirport struct {
	ICAO   string     `json:"icao"`
	Spoken string     `json:"spoken"`
	Source Provenance `json:"source"`
}

// ResolvedContext is the per-turn scrub table: every literal token that
// must never reach speech, mapped to its spoken form.
type ResolvedContext struct {
	RawCallsign    string        `json:"raw_callsign"`
	RadioCallsign  string        `json:"radio_callsign"`
	SpokenCallsign string        `json:"spoken_callsign"`
	Departure      SpokenAirport `json:"departure"`
	Arrival        SpokenAirport `json:"arrival"`
}

// ReplySource tags where a turn's reply text came from.
type ReplySource string

const (
	// SourceNone means no transmission was needed.
	SourceNone ReplySource = "none"
	// SourceModel means the generated candidate passed validation.
	SourceModel ReplySource = "model"
	// SourceFallback means a deterministic reply replaced the candidate,
	// either after a validation failure or after a model error.
	SourceFallback ReplySource = "fallback"
	// SourceProcedural means a fixed procedural exchange answered without
	// touching the model.
	SourceProcedural ReplySource = "procedural"
)

// Reply is the outcome of one handled transmission. Spoke=false means no
// reply should be transmitted.
type Reply struct {
	Text   string      `json:"text,omitempty"`
	Spoke  bool        `json:"spoke"`
	Source ReplySource `json:"source"`
	// RecheckPending asks the session to schedule a deferred completion
	// check shortly after this turn, to absorb late-arriving flight data.
	RecheckPending bool `json:"recheck_pending,omitempty"`
	// Readback carries the evaluator verdict when this turn was a
	// clearance readback, for journaling and the UI.
	Readback *ReadbackResult `json:"readback,omitempty"`
}
