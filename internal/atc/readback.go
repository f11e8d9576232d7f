package atc

import (
	"strconv"
	"strings"

	"github.com/virtualatc/atc-engine/internal/extract"
)

// Readback slot names, as reported in Missing and Mismatched lists.
const (
	SlotDestination = "destination"
	SlotSID         = "sid"
	SlotRunway      = "runway"
	SlotAltitude    = "altitude"
	SlotSquawk      = "squawk"
)

// criticalReadbackMinimum is the floor on critical items a readback must
// contain. When a pending subset leaves fewer applicable items, the floor
// drops to what remains.
const criticalReadbackMinimum = 2

// EvaluateReadback scores a pilot readback against the clearance actually
// issued. Presence is a whitespace-insensitive substring check, backed by
// looser extraction that distinguishes a wrong value from a missing one.
// The runway slot is evaluated only when issuedText really contained a
// runway token. pending, when non-empty, restricts evaluation to the named
// slots. Destination and SID are requested on miss but never gate
// acceptance; the critical items are runway, altitude and squawk.
func EvaluateReadback(transcript string, actx *Context, issuedText string, pending []string) ReadbackResult {
	result := ReadbackResult{Callsign: preferredCallsign(actx)}
	if actx == nil || strings.TrimSpace(transcript) == "" {
		return result
	}
	d := actx.Decision

	type slot struct {
		name     string
		expected string
		critical bool
		mentions func(string) []string
	}

	altitude := ""
	if d.InitialAltitude > 0 {
		altitude = strconv.Itoa(d.InitialAltitude)
	}

	slots := []slot{
		{SlotDestination, d.Destination, false, nil},
		{SlotSID, d.SID, false, procedureMentions},
		{SlotRunway, d.DepartureRunway, true, runwayMentions},
		{SlotAltitude, altitude, true, altitudeMentions},
		{SlotSquawk, d.Squawk, true, squawkMentions},
	}

	issuedRunway := len(extract.Runways(issuedText)) > 0
	pendingSet := stringSet(pending)
	squashed := squash(transcript)

	var criticalApplicable, criticalPresent, criticalMissing int
	for _, s := range slots {
		if s.expected == "" {
			continue
		}
		if s.name == SlotRunway && !issuedRunway {
			continue
		}
		if len(pending) > 0 {
			if _, ok := pendingSet[s.name]; !ok {
				continue
			}
		}
		if s.critical {
			criticalApplicable++
		}

		if strings.Contains(squashed, squash(s.expected)) {
			if s.critical {
				criticalPresent++
			}
			continue
		}

		var said []string
		if s.mentions != nil {
			said = s.mentions(transcript)
		}
		if contains(said, s.expected) {
			if s.critical {
				criticalPresent++
			}
			continue
		}
		if len(said) > 0 {
			result.Mismatched = append(result.Mismatched, s.name)
		} else {
			result.Missing = append(result.Missing, s.name)
			if s.critical {
				criticalMissing++
			}
		}
	}

	threshold := criticalReadbackMinimum
	if criticalApplicable < threshold {
		threshold = criticalApplicable
	}
	result.Accepted = len(result.Mismatched) == 0 &&
		criticalMissing == 0 &&
		criticalPresent >= threshold
	return result
}

func preferredCallsign(actx *Context) string {
	if actx == nil {
		return ""
	}
	switch {
	case actx.Callsign.Radio != "":
		return actx.Callsign.Radio
	case actx.Callsign.Spoken != "":
		return actx.Callsign.Spoken
	}
	return actx.Callsign.Raw
}

// squash lowercases and strips whitespace and separators so token presence
// survives arbitrary STT spacing.
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', ',', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func runwayMentions(text string) []string {
	var out []string
	for _, m := range extract.Runways(text) {
		out = append(out, m.Value)
	}
	return out
}

func altitudeMentions(text string) []string {
	var out []string
	for _, m := range extract.Altitudes(text) {
		out = append(out, m.Value)
	}
	return out
}

func squawkMentions(text string) []string {
	var out []string
	for _, m := range extract.Squawks(text) {
		out = append(out, m.Value)
	}
	return out
}

func procedureMentions(text string) []string {
	var out []string
	for _, m := range extract.Procedures(text) {
		out = append(out, strings.ToUpper(m.Value))
	}
	return out
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
