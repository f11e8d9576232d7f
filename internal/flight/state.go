package flight

// AtcState tracks the IFR clearance workflow within a session. It advances
// monotonically within a clearance cycle and only returns to Idle when the
// whole flight context is reset.
type AtcState int

const (
	StateIdle AtcState = iota
	StateIfrRequested
	StateClearancePendingData
	StateClearanceReady
	StateClearanceIssued
)

var stateNames = map[AtcState]string{
	StateIdle:                 "idle",
	StateIfrRequested:         "ifr_requested",
	StateClearancePendingData: "clearance_pending_data",
	StateClearanceReady:       "clearance_ready",
	StateClearanceIssued:      "clearance_issued",
}

func (s AtcState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// CanTransition reports whether moving from s to next respects the forward
// ordering of the clearance cycle. Going back to Idle requires a context
// reset, not a transition.
func (s AtcState) CanTransition(next AtcState) bool {
	return next >= s
}

// Issued reports whether an IFR clearance has been issued this cycle.
func (s AtcState) Issued() bool {
	return s == StateClearanceIssued
}
