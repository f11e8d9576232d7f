package flight

import (
	"time"
)

// SelectionStatus is the tri-state of a runway or procedure choice.
type SelectionStatus int

const (
	// SelectionNone means nothing has been selected yet.
	SelectionNone SelectionStatus = iota
	// SelectionPublished means a published identifier was selected.
	SelectionPublished
	// SelectionVectors means the flight will be radar vectored instead of
	// flying a published procedure.
	SelectionVectors
)

var selectionNames = map[SelectionStatus]string{
	SelectionNone:      "none",
	SelectionPublished: "published",
	SelectionVectors:   "vectors",
}

func (s SelectionStatus) String() string {
	if name, ok := selectionNames[s]; ok {
		return name
	}
	return "unknown"
}

// Selection is a runway or procedure pick with its tri-state status.
type Selection struct {
	Status SelectionStatus `json:"status"`
	Name   string          `json:"name,omitempty"`
}

// Published returns the selection name when a published identifier exists.
func (s Selection) Published() (string, bool) {
	if s.Status == SelectionPublished && s.Name != "" {
		return s.Name, true
	}
	return "", false
}

// SetPublished records a published identifier; empty names reset to none.
func (s *Selection) SetPublished(name string) {
	if name == "" {
		*s = Selection{}
		return
	}
	s.Status = SelectionPublished
	s.Name = name
}

// WeatherSnapshot is the per-station weather subset carried in flight
// context. Fetch failures degrade to an empty snapshot with the errors
// recorded, never to a missing entry.
type WeatherSnapshot struct {
	METAR       string    `json:"metar,omitempty"`
	TAF         string    `json:"taf,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
	FetchErrors []string  `json:"fetch_errors,omitempty"`
}

// Context is the mutable per-session flight state. It is owned exclusively
// by its session: turns are serialized by the caller, so no locking happens
// here. Mutation is confined to the session's turn handler and the
// conversation machine; everything else receives read-only snapshots.
type Context struct {
	// Callsign forms, all derived once from the raw filed callsign.
	RawCallsign    string `json:"raw_callsign"`
	Callsign       string `json:"callsign"`
	RadioCallsign  string `json:"radio_callsign"`
	SpokenCallsign string `json:"spoken_callsign"`
	AirlineICAO    string `json:"airline_icao,omitempty"`
	AirlineName    string `json:"airline_name,omitempty"`

	OriginICAO      string `json:"origin_icao,omitempty"`
	OriginName      string `json:"origin_name,omitempty"`
	DestinationICAO string `json:"destination_icao,omitempty"`
	DestinationName string `json:"destination_name,omitempty"`

	RouteWaypoints []string `json:"route_waypoints,omitempty"`
	CruiseLevel    int      `json:"cruise_level,omitempty"`

	DepartureRunway Selection `json:"departure_runway"`
	ArrivalRunway   Selection `json:"arrival_runway"`
	SID             Selection `json:"sid"`
	STAR            Selection `json:"star"`
	Approach        Selection `json:"approach"`

	ClearedAltitude int    `json:"cleared_altitude,omitempty"`
	ClearedHeading  int    `json:"cleared_heading,omitempty"`
	Squawk          string `json:"squawk,omitempty"`

	Phase Phase    `json:"phase"`
	State AtcState `json:"state"`
	Unit  string   `json:"unit,omitempty"`

	// Frequencies maps a unit role (delivery, ground, tower, departure) to
	// its MHz string for handoff phrases and reply validation.
	Frequencies map[string]string `json:"frequencies,omitempty"`

	// Weather is keyed by station ICAO.
	Weather map[string]*WeatherSnapshot `json:"weather,omitempty"`

	// PendingConfirmation names a clearance slot awaiting explicit pilot
	// confirmation, e.g. "destination" after the pilot requested a
	// destination that differs from the filed one.
	PendingConfirmation string `json:"pending_confirmation,omitempty"`

	// IssuedClearanceText is the exact clearance utterance last spoken, kept
	// so readback evaluation only gates on slots that were actually said.
	IssuedClearanceText string `json:"issued_clearance_text,omitempty"`

	// PendingReadback restricts the next readback evaluation to a slot
	// subset; empty means all issued slots.
	PendingReadback []string `json:"pending_readback,omitempty"`
}

// NewContext returns an empty flight context in the preflight phase.
func NewContext() *Context {
	return &Context{
		Phase:       PhasePreflightClearance,
		State:       StateIdle,
		Frequencies: make(map[string]string),
		Weather:     make(map[string]*WeatherSnapshot),
	}
}

// Reset wipes the context wholesale for a new flight. Nothing survives: a
// new flight gets a fresh squawk, fresh clearance state, fresh weather.
func (c *Context) Reset() {
	*c = *NewContext()
}

// SetState advances the clearance state, ignoring transitions that would
// move backwards within a cycle.
func (c *Context) SetState(next AtcState) bool {
	if !c.State.CanTransition(next) {
		return false
	}
	c.State = next
	return true
}

// AdvancePhase moves the lifecycle phase forward (or through the go-around
// reversal) and reports whether anything changed.
func (c *Context) AdvancePhase(next Phase) bool {
	if next == c.Phase || !c.Phase.CanAdvance(next) {
		return false
	}
	c.Phase = next
	return true
}

// SetWeather records a station snapshot, replacing any previous one.
func (c *Context) SetWeather(icao string, snap *WeatherSnapshot) {
	if c.Weather == nil {
		c.Weather = make(map[string]*WeatherSnapshot)
	}
	c.Weather[icao] = snap
}

// HasRunway reports whether a departure runway has been selected.
func (c *Context) HasRunway() bool {
	_, ok := c.DepartureRunway.Published()
	return ok
}
