// Package intent classifies a normalized pilot transmission into the intent
// the conversation machine routes on, and extracts the operational
// parameters the transmission carries. Intents are transient: parsed,
// consumed by one turn, discarded.
package intent

import (
	"regexp"
	"strings"

	"github.com/virtualatc/atc-engine/internal/extract"
	"github.com/virtualatc/atc-engine/internal/flight"
)

// Type is the classified pilot intent.
type Type string

const (
	TypeUnknown             Type = "unknown"
	TypeAcknowledgment      Type = "acknowledgment"
	TypeRadioCheck          Type = "radio_check"
	TypeRequestIfrClearance Type = "request_ifr_clearance"
	TypeReadback            Type = "readback"
	TypeRequestTaxi         Type = "request_taxi"
	TypeReadyForDeparture   Type = "ready_for_departure"
	TypeRequestClimb        Type = "request_climb"
	TypeRequestDescent      Type = "request_descent"
	TypeReportFinal         Type = "report_final"
	TypeRequestTaxiIn       Type = "request_taxi_in"
	TypeNewFlight           Type = "new_flight"
)

// Intent is one parsed transmission.
type Intent struct {
	Type Type
	// Params carries extracted values keyed by slot name: destination,
	// destination_icao, squawk, altitude, flight_level.
	Params map[string]string
}

// Param returns a parameter value or "".
func (i Intent) Param(key string) string {
	return i.Params[key]
}

// ackWords are the words allowed in a bare acknowledgment once the callsign
// is removed.
var ackWords = map[string]bool{
	"roger": true, "wilco": true, "copy": true, "copied": true,
	"standby": true, "affirm": true, "affirmative": true,
	"good": true, "day": true, "morning": true, "evening": true,
	"thanks": true, "thank": true, "you": true, "cheers": true,
	"bye": true, "goodbye": true,
}

var (
	radioCheckRe = regexp.MustCompile(`(?i)\b(?:radio|mic)\s+check(?:ing|er)?\b`)

	clearanceReqRe = regexp.MustCompile(`(?i)\b(?:request(?:ing)?|ready\s+to\s+copy)\b[^.]*\bclearance\b|\bclearance\b[^.]*\bifr\b|\bifr\b[^.]*\bclearance\b`)

	destinationRe = regexp.MustCompile(`(?i)\b(?:clearance|cleared|ifr)\s+to\s+([a-zA-Z][a-zA-Z ]{1,40})`)

	// destinationStatedRe catches an answer to a destination confirmation,
	// e.g. "destination is Gatwick".
	destinationStatedRe = regexp.MustCompile(`(?i)\bdestination\s+(?:is\s+)?([a-zA-Z][a-zA-Z ]{1,40})`)

	taxiReqRe    = regexp.MustCompile(`(?i)\b(?:request(?:ing)?|ready)\s+(?:for\s+|to\s+)?taxi\b`)
	taxiInRe     = regexp.MustCompile(`(?i)\btaxi\b[^.]*\b(?:gate|stand|ramp|apron|parking)\b`)
	departureRe  = regexp.MustCompile(`(?i)\bready\s+for\s+departure\b|\bline\s*up\b|\bready\s+to\s+go\b|\bholding\s+short\b[^.]*\bready\b`)
	climbReqRe   = regexp.MustCompile(`(?i)\brequest(?:ing)?\s+(?:climb|higher)\b`)
	descentReqRe = regexp.MustCompile(`(?i)\brequest(?:ing)?\s+(?:descen[dt]|lower)\b`)
	finalRe      = regexp.MustCompile(`(?i)\b(?:on\s+)?final\b|\bestablished\b`)
	newFlightRe  = regexp.MustCompile(`(?i)\bnew\s+flight\b`)
)

// destinationStopWords end a captured destination name.
var destinationStopWords = map[string]bool{
	"as": true, "then": true, "via": true, "flight": true, "runway": true,
	"squawk": true, "altitude": true, "climbing": true, "and": true,
	"with": true, "request": true, "requesting": true, "please": true,
	"ready": true, "copy": true, "for": true, "good": true,
}

// Parse classifies a normalized transmission against the current flight
// state.
func Parse(text string, fc *flight.Context) Intent {
	in := Intent{Type: TypeUnknown, Params: map[string]string{}}
	if strings.TrimSpace(text) == "" {
		return in
	}

	extractParams(text, fc, in.Params)

	switch {
	case isAcknowledgment(text, fc):
		in.Type = TypeAcknowledgment
	case radioCheckRe.MatchString(text):
		in.Type = TypeRadioCheck
	case newFlightRe.MatchString(text):
		in.Type = TypeNewFlight
	case clearanceReqRe.MatchString(text):
		in.Type = TypeRequestIfrClearance
	case taxiInRe.MatchString(text) && fc != nil && fc.Phase >= flight.PhaseLanding:
		in.Type = TypeRequestTaxiIn
	case taxiReqRe.MatchString(text) || taxiInRe.MatchString(text):
		in.Type = TypeRequestTaxi
	case departureRe.MatchString(text):
		in.Type = TypeReadyForDeparture
	case climbReqRe.MatchString(text):
		in.Type = TypeRequestClimb
	case descentReqRe.MatchString(text):
		in.Type = TypeRequestDescent
	case fc != nil && fc.Phase >= flight.PhaseArrival && finalRe.MatchString(text):
		in.Type = TypeReportFinal
	case fc != nil && fc.State.Issued() && looksLikeReadback(text):
		in.Type = TypeReadback
	}

	return in
}

// extractParams pulls destination, squawk and altitude values out of the
// transmission regardless of the classified intent.
func extractParams(text string, fc *flight.Context, params map[string]string) {
	if m := destinationRe.FindStringSubmatch(text); m != nil {
		if dest := trimDestination(m[1]); dest != "" {
			params["destination"] = dest
		}
	} else if m := destinationStatedRe.FindStringSubmatch(text); m != nil {
		if dest := trimDestination(m[1]); dest != "" {
			params["destination"] = dest
		}
	}
	for _, m := range extract.ICAOCodes(text) {
		if fc != nil && strings.EqualFold(m.Value, fc.OriginICAO) {
			continue
		}
		params["destination_icao"] = m.Value
		break
	}
	if ms := extract.Squawks(text); len(ms) > 0 {
		params["squawk"] = ms[0].Value
	}
	if ms := extract.Altitudes(text); len(ms) > 0 {
		params["altitude"] = ms[0].Value
	}
	if ms := extract.FlightLevels(text); len(ms) > 0 {
		params["flight_level"] = ms[0].Value
	}
}

// trimDestination cuts a captured destination phrase at the first stop word
// and trims it to at most three words.
func trimDestination(raw string) string {
	words := strings.Fields(raw)
	var kept []string
	for _, w := range words {
		if destinationStopWords[strings.ToLower(w)] {
			break
		}
		kept = append(kept, w)
		if len(kept) == 3 {
			break
		}
	}
	return strings.Join(kept, " ")
}

// isAcknowledgment reports whether the transmission is a bare
// acknowledgment: after removing the flight's own callsign mention, every
// remaining word is an acknowledgment word.
func isAcknowledgment(text string, fc *flight.Context) bool {
	t := strings.ToLower(text)
	if fc != nil {
		for _, form := range []string{fc.RadioCallsign, fc.Callsign, fc.RawCallsign} {
			if form == "" {
				continue
			}
			t = strings.ReplaceAll(t, strings.ToLower(form), " ")
		}
	}
	t = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return ' '
	}, t)

	words := strings.Fields(t)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !ackWords[w] {
			return false
		}
	}
	return true
}

// looksLikeReadback reports whether the transmission repeats clearance
// tokens back.
func looksLikeReadback(text string) bool {
	if strings.Contains(strings.ToLower(text), "cleared to") {
		return true
	}
	return len(extract.Squawks(text)) > 0 ||
		len(extract.Runways(text)) > 0 ||
		len(extract.FlightLevels(text)) > 0 ||
		len(extract.Altitudes(text)) > 0
}

// SuggestedPhase maps a phase-advancing intent to the lifecycle phase it
// implies. The second return is false when the intent does not move the
// phase or the move is implausible from the current phase.
func (i Intent) SuggestedPhase(current flight.Phase) (flight.Phase, bool) {
	var next flight.Phase
	switch i.Type {
	case TypeRequestTaxi:
		next = flight.PhaseTaxiOut
	case TypeReadyForDeparture:
		next = flight.PhaseLineupTakeoff
	case TypeRequestClimb:
		next = flight.PhaseClimb
	case TypeRequestDescent:
		next = flight.PhaseArrival
	case TypeReportFinal:
		next = flight.PhaseApproach
	case TypeRequestTaxiIn:
		next = flight.PhaseTaxiIn
	default:
		return current, false
	}
	if next == current || !current.CanAdvance(next) {
		return current, false
	}
	return next, true
}
