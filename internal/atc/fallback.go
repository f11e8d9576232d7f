package atc

import (
	"fmt"
	"strconv"
	"strings"
)

// Standby utterances for failed or cancelled model calls. Fixed text, never
// derived from the error.
const (
	StandbyTechnical  = "Standby, technical difficulties."
	StandbyProcessing = "Standby, processing."
)

// FallbackClearance builds the deterministic reply substituted for a
// rejected candidate. Every token comes straight from the decision context,
// so the result is safe to speak no matter how the model misbehaved.
func FallbackClearance(actx *Context) string {
	if actx == nil {
		return "Station calling, say again."
	}
	cs := actx.Callsign.SpokenName()
	d := actx.Decision

	if d.ClearanceType == ClearanceIFR && d.Destination != "" {
		parts := make([]string, 0, 6)
		to := "cleared to " + d.Destination
		if d.RouteSummary != "" {
			to += " as filed"
		}
		parts = append(parts, to)
		if d.SID != "" {
			parts = append(parts, d.SID+" departure")
		}
		if d.DepartureRunway != "" {
			parts = append(parts, "runway "+d.DepartureRunway)
		}
		if d.InitialAltitude > 0 {
			parts = append(parts, "climb and maintain "+strconv.Itoa(d.InitialAltitude))
		}
		if d.CruiseLevel > 0 {
			parts = append(parts, fmt.Sprintf("expect flight level %03d ten minutes after departure", d.CruiseLevel))
		}
		if d.Squawk != "" {
			parts = append(parts, "squawk "+d.Squawk)
		}
		if cs != "" {
			return cs + ", " + strings.Join(parts, ", ") + "."
		}
		return strings.ToUpper(parts[0][:1]) + strings.Join(parts, ", ")[1:] + "."
	}

	// Outside the clearance exchange the safe deterministic reply is a bare
	// acknowledgment in the controller's voice.
	if cs != "" {
		return cs + ", roger."
	}
	return "Roger."
}
