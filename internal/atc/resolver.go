package atc

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/virtualatc/atc-engine/internal/airports"
	"github.com/virtualatc/atc-engine/internal/extract"
	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/internal/intent"
	"github.com/virtualatc/atc-engine/internal/spoken"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Controller roles, keyed off the flight phase.
const (
	RoleClearanceDelivery = "Clearance Delivery"
	RoleGround            = "Ground"
	RoleTower             = "Tower"
	RoleDeparture         = "Departure"
	RoleCenter            = "Center"
	RoleApproach          = "Approach"
)

// reservedSquawks are never assigned: hijack, radio failure, emergency,
// and the two codes transponders treat specially.
var reservedSquawks = map[string]struct{}{
	"7500": {}, "7600": {}, "7700": {}, "7777": {}, "0000": {},
}

// Resolver projects mutable flight state into the immutable per-turn
// context. BuildContext is a pure function of its inputs; the only mutation
// this type performs is the one-time squawk assignment, which the machine
// invokes explicitly.
type Resolver struct {
	gazetteer airports.Gazetteer
	rand      *rand.Rand
	logger    *logger.Logger
}

// NewResolver creates a context resolver.
func NewResolver(gazetteer airports.Gazetteer, rng *rand.Rand, log *logger.Logger) *Resolver {
	return &Resolver{
		gazetteer: gazetteer,
		rand:      rng,
		logger:    log.Named("atc-resolver"),
	}
}

// EnsureSquawk assigns a squawk code once per flight. Reserved codes and
// codes with non-octal digits are never produced.
func (r *Resolver) EnsureSquawk(fc *flight.Context) string {
	if fc.Squawk != "" {
		return fc.Squawk
	}
	for {
		code := fmt.Sprintf("%04o", r.rand.Intn(0o10000))
		if _, reserved := reservedSquawks[code]; reserved {
			continue
		}
		fc.Squawk = code
		r.logger.Info("Assigned squawk code",
			logger.String("callsign", fc.Callsign),
			logger.String("squawk", code))
		return code
	}
}

// BuildContext builds the per-turn decision context from flight state and
// parsed intent. ApplyPhaseDefaults runs last so phase defaults can never
// be bypassed by the clearance-specific mapping.
func (r *Resolver) BuildContext(fc *flight.Context, it intent.Intent) *Context {
	actx := &Context{
		Callsign: CallsignInfo{
			Raw:    fc.Callsign,
			Radio:  fc.RadioCallsign,
			Spoken: fc.SpokenCallsign,
		},
		OriginICAO:      fc.OriginICAO,
		OriginSpoken:    r.spokenAirport(fc.OriginICAO, fc.OriginName),
		DestinationICAO: fc.DestinationICAO,
	}

	runway := ""
	if name, ok := fc.DepartureRunway.Published(); ok {
		runway = extract.NormalizeRunway(name)
	}
	arrivalRunway := ""
	if name, ok := fc.ArrivalRunway.Published(); ok {
		arrivalRunway = extract.NormalizeRunway(name)
	}

	initialAltitude := fc.ClearedAltitude
	if initialAltitude == 0 {
		if fc.CruiseLevel > 300 {
			initialAltitude = 5000
		} else {
			initialAltitude = 3000
		}
	}

	actx.Decision = ClearanceDecision{
		ClearanceType:   clearanceTypeFor(fc.Phase, it),
		Destination:     r.spokenAirport(fc.DestinationICAO, fc.DestinationName),
		RouteSummary:    strings.Join(fc.RouteWaypoints, " "),
		DepartureRunway: runway,
		ArrivalRunway:   arrivalRunway,
		SID:             publishedName(fc.SID),
		STAR:            publishedName(fc.STAR),
		Approach:        publishedName(fc.Approach),
		InitialAltitude: initialAltitude,
		CruiseLevel:     fc.CruiseLevel,
		Squawk:          fc.Squawk,
	}

	// The runway requirement is relaxed on the very first preflight turn,
	// before any runway selection exists, so the clearance is not held back
	// by a runway that was never going to be announced.
	firstTurn := fc.Phase.Preflight() && fc.State <= flight.StateIfrRequested && !fc.HasRunway()
	dataReady := actx.Decision.Destination != "" &&
		(runway != "" || firstTurn) &&
		initialAltitude > 0 &&
		actx.Decision.Squawk != ""

	actx.Flags = StateFlags{
		State:                 fc.State,
		ClearanceIssued:       fc.State.Issued(),
		ClearanceDataComplete: dataReady,
		PendingConfirmation:   fc.PendingConfirmation,
		AwaitingReadback:      fc.State.Issued() && fc.Phase.Preflight(),
	}

	actx.Permissions.AllowIfrClearance = fc.Phase.Preflight() && dataReady && !actx.Flags.ClearanceIssued

	actx.AllowedRunways = allowedRunways(actx.Decision, fc)
	actx.AllowedAltitudes = allowedAltitudes(actx.Decision, fc)
	actx.AllowedFrequencies = allowedFrequencies(fc)
	actx.AllowedProcedures = allowedProcedures(actx.Decision, fc)

	if len(fc.Weather) > 0 {
		actx.Weather = make(map[string]WeatherBrief, len(fc.Weather))
		for icao, snap := range fc.Weather {
			if snap == nil {
				continue
			}
			actx.Weather[icao] = WeatherBrief{METAR: snap.METAR, TAF: snap.TAF}
		}
	}

	ApplyPhaseDefaults(actx, fc.Phase)
	return actx
}

// ApplyPhaseDefaults unconditionally overwrites the controller role and the
// permission flags for the given phase. It always runs last.
func ApplyPhaseDefaults(actx *Context, phase flight.Phase) {
	actx.Role, actx.PhaseTag = roleForPhase(phase)

	perms := Permissions{}
	switch phase {
	case flight.PhasePreflightClearance:
		perms.AllowIfrClearance = actx.Flags.ClearanceDataComplete && !actx.Flags.ClearanceIssued
	case flight.PhaseTaxiOut:
		perms.AllowTaxi = true
	case flight.PhaseLineupTakeoff:
		perms.AllowTakeoff = true
	case flight.PhaseClimb:
		perms.AllowClimb = true
		perms.AllowHandoff = true
	case flight.PhaseEnroute:
		perms.AllowClimb = true
		perms.AllowDescent = true
		perms.AllowHandoff = true
	case flight.PhaseArrival:
		perms.AllowDescent = true
		perms.AllowApproach = true
	case flight.PhaseApproach:
		perms.AllowApproach = true
		perms.AllowLanding = true
	case flight.PhaseLanding:
		perms.AllowLanding = true
	case flight.PhaseTaxiIn, flight.PhaseComplete:
		perms.AllowTaxiIn = true
	}
	actx.Permissions = perms
}

// DestinationMatches reports whether a pilot-stated destination refers to
// the filed one, comparing against the filed name, its spoken form, the
// gazetteer name and the raw ICAO code.
func (r *Resolver) DestinationMatches(fc *flight.Context, said string) bool {
	said = strings.TrimSpace(said)
	if said == "" {
		return false
	}
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(airports.FoldDiacritics(s)), " "))
	}
	want := norm(said)

	candidates := []string{
		fc.DestinationName,
		spoken.StripAirportSuffix(fc.DestinationName),
		fc.DestinationICAO,
	}
	if name, ok := r.gazetteer.SpokenName(fc.DestinationICAO); ok {
		candidates = append(candidates, name)
	}
	if ap, ok := r.gazetteer.Lookup(fc.DestinationICAO); ok {
		candidates = append(candidates, ap.Name, ap.City)
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if norm(c) == want {
			return true
		}
	}
	return false
}

// spokenAirport resolves an airport to its spoken name, never the raw ICAO
// code. Unknown airports resolve to empty.
func (r *Resolver) spokenAirport(icao, filedName string) string {
	if filedName != "" {
		return spoken.StripAirportSuffix(filedName)
	}
	if name, ok := r.gazetteer.SpokenName(icao); ok {
		return name
	}
	return ""
}

func publishedName(sel flight.Selection) string {
	name, _ := sel.Published()
	return name
}

// clearanceTypeFor tags the clearance family for the turn: an explicit
// request wins, otherwise the phase default applies.
func clearanceTypeFor(phase flight.Phase, it intent.Intent) ClearanceType {
	switch it.Type {
	case intent.TypeRequestIfrClearance:
		return ClearanceIFR
	case intent.TypeRequestTaxi:
		return ClearanceTaxi
	case intent.TypeReadyForDeparture:
		return ClearanceTakeoff
	case intent.TypeRequestClimb:
		return ClearanceClimb
	case intent.TypeRequestDescent:
		return ClearanceDescent
	case intent.TypeReportFinal:
		return ClearanceLanding
	case intent.TypeRequestTaxiIn:
		return ClearanceTaxiIn
	}

	switch phase {
	case flight.PhasePreflightClearance:
		return ClearanceIFR
	case flight.PhaseTaxiOut:
		return ClearanceTaxi
	case flight.PhaseLineupTakeoff:
		return ClearanceTakeoff
	case flight.PhaseClimb:
		return ClearanceClimb
	case flight.PhaseEnroute:
		return ClearanceEnroute
	case flight.PhaseArrival:
		return ClearanceDescent
	case flight.PhaseApproach:
		return ClearanceApproach
	case flight.PhaseLanding:
		return ClearanceLanding
	case flight.PhaseTaxiIn, flight.PhaseComplete:
		return ClearanceTaxiIn
	}
	return ClearanceNone
}

func roleForPhase(phase flight.Phase) (role, tag string) {
	switch phase {
	case flight.PhasePreflightClearance:
		return RoleClearanceDelivery, "clearance"
	case flight.PhaseTaxiOut:
		return RoleGround, "taxi"
	case flight.PhaseLineupTakeoff:
		return RoleTower, "takeoff"
	case flight.PhaseClimb:
		return RoleDeparture, "departure"
	case flight.PhaseEnroute:
		return RoleCenter, "enroute"
	case flight.PhaseArrival:
		return RoleCenter, "arrival"
	case flight.PhaseApproach:
		return RoleApproach, "approach"
	case flight.PhaseLanding:
		return RoleTower, "landing"
	case flight.PhaseTaxiIn:
		return RoleGround, "taxi_in"
	case flight.PhaseComplete:
		return RoleGround, "complete"
	}
	return RoleClearanceDelivery, "clearance"
}

// allowedRunways merges runway identifiers from both the decision and the
// flight record, all normalized to the 2-digit[+side] form.
func allowedRunways(d ClearanceDecision, fc *flight.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(raw string) {
		if raw == "" {
			return
		}
		v := extract.NormalizeRunway(raw)
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	add(d.DepartureRunway)
	add(d.ArrivalRunway)
	add(fc.DepartureRunway.Name)
	add(fc.ArrivalRunway.Name)
	return out
}

// allowedAltitudes lists every altitude, in feet, a reply may mention.
func allowedAltitudes(d ClearanceDecision, fc *flight.Context) []int {
	seen := make(map[int]struct{})
	var out []int
	add := func(ft int) {
		if ft <= 0 {
			return
		}
		if _, dup := seen[ft]; dup {
			return
		}
		seen[ft] = struct{}{}
		out = append(out, ft)
	}
	add(d.InitialAltitude)
	add(fc.ClearedAltitude)
	add(fc.CruiseLevel * 100)
	return out
}

func allowedFrequencies(fc *flight.Context) []string {
	if len(fc.Frequencies) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, freq := range fc.Frequencies {
		v := extract.NormalizeFrequency(freq)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// allowedProcedures lists SID/STAR/approach identifiers plus the flight's
// own canonical callsign, which shares the letters-then-digit token shape.
func allowedProcedures(d ClearanceDecision, fc *flight.Context) []string {
	var out []string
	for _, name := range []string{d.SID, d.STAR, d.Approach, fc.Callsign, fc.RawCallsign} {
		if name == "" {
			continue
		}
		out = append(out, strings.ToUpper(name))
	}
	return out
}
