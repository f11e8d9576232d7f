package flight

// Phase is the coarse flight lifecycle, advanced by parsed pilot intent or
// simulator telemetry. It is deliberately independent of AtcState: the
// clearance workflow and the aircraft's physical progress are tracked by two
// separate machines composed by the session.
type Phase int

const (
	PhasePreflightClearance Phase = iota
	PhaseTaxiOut
	PhaseLineupTakeoff
	PhaseClimb
	PhaseEnroute
	PhaseArrival
	PhaseApproach
	PhaseLanding
	PhaseTaxiIn
	PhaseComplete
)

var phaseNames = map[Phase]string{
	PhasePreflightClearance: "preflight_clearance",
	PhaseTaxiOut:            "taxi_out",
	PhaseLineupTakeoff:      "lineup_takeoff",
	PhaseClimb:              "climb",
	PhaseEnroute:            "enroute",
	PhaseArrival:            "arrival",
	PhaseApproach:           "approach",
	PhaseLanding:            "landing",
	PhaseTaxiIn:             "taxi_in",
	PhaseComplete:           "complete",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Airborne reports whether the aircraft is expected to be in the air.
func (p Phase) Airborne() bool {
	return p >= PhaseClimb && p <= PhaseLanding
}

// OnGround reports whether the aircraft is expected to be on the surface.
func (p Phase) OnGround() bool {
	return !p.Airborne()
}

// Preflight reports whether the flight is still at the gate working the
// clearance, before any taxi movement.
func (p Phase) Preflight() bool {
	return p == PhasePreflightClearance
}

// CanAdvance reports whether a transition from p to next is plausible.
// Phases move forward; the single sanctioned reversal is a go-around
// (landing back to approach).
func (p Phase) CanAdvance(next Phase) bool {
	if next == PhaseApproach && p == PhaseLanding {
		return true
	}
	return next >= p
}
