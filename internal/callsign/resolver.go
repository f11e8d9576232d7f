// Package callsign is the single source of truth for every spoken and
// written form of a flight's callsign. Parsing, airline telephony lookup and
// the recognition variant set all live here so the normalizer, the
// procedural router and the output scrubber never disagree about what the
// flight is called.
package callsign

import (
	"regexp"
	"strings"

	"github.com/virtualatc/atc-engine/internal/airlines"
	"github.com/virtualatc/atc-engine/internal/spoken"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// flightNumberRe matches the ICAO airline callsign shape: 3-letter
// designator plus 1 to 4 digits, optional separator.
var flightNumberRe = regexp.MustCompile(`^([A-Za-z]{3})\s*(\d{1,4})$`)

// candidateRe is the best-effort transcript fallback: one or two words
// followed by a digit group, e.g. "Easy 123" or "Air Canada 459".
var candidateRe = regexp.MustCompile(`(?i)\b([a-z]{2,12}(?:\s+[a-z]{2,12})?\s+\d{1,4})\b`)

// Resolved carries every derived callsign form for one flight.
type Resolved struct {
	// Raw is the callsign exactly as filed, e.g. "EZY113".
	Raw string `json:"raw"`
	// Canonical is the uppercase alphanumeric form, e.g. "EZY113".
	Canonical string `json:"canonical"`
	// Parsed reports whether Raw matched the airline callsign shape.
	Parsed       bool   `json:"parsed"`
	AirlineICAO  string `json:"airline_icao,omitempty"`
	FlightNumber string `json:"flight_number,omitempty"`
	AirlineName  string `json:"airline_name,omitempty"`
	// Telephony is the radiotelephony designator, e.g. "Easy".
	Telephony string `json:"telephony,omitempty"`
	// Radio is what the controller writes: "Easy 113".
	Radio string `json:"radio"`
	// Spoken is the TTS form with digits spelled out:
	// "Easy one one three".
	Spoken string `json:"spoken"`
	// Variants are the recognition forms checked against transmissions.
	Variants []string `json:"variants"`
}

// Resolver derives callsign identities using the airline directory.
type Resolver struct {
	directory airlines.Directory
	logger    *logger.Logger
}

// NewResolver creates a callsign resolver.
func NewResolver(directory airlines.Directory, log *logger.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		logger:    log.Named("callsign"),
	}
}

// Resolve builds the full identity for a raw callsign. Unparseable
// callsigns (GA tail numbers, military formats) degrade to raw-based forms
// rather than failing.
func (r *Resolver) Resolve(raw string) Resolved {
	raw = strings.TrimSpace(raw)
	res := Resolved{
		Raw:       raw,
		Canonical: Normalize(raw),
	}

	m := flightNumberRe.FindStringSubmatch(raw)
	if m == nil {
		res.Radio = strings.ToUpper(raw)
		res.Spoken = spoken.Letters(raw)
		res.Variants = []string{raw}
		return res
	}

	res.Parsed = true
	res.AirlineICAO = strings.ToUpper(m[1])
	res.FlightNumber = m[2]
	res.Canonical = res.AirlineICAO + res.FlightNumber

	airline, ok := r.directory.Lookup(res.AirlineICAO)
	if ok {
		res.AirlineName = airline.Name
		res.Telephony = airline.Radio
		res.Radio = airline.Radio + " " + res.FlightNumber
		res.Spoken = airline.Radio + " " + spoken.Digits(res.FlightNumber)
	} else {
		r.logger.Debug("Airline not in directory, using ICAO designator",
			logger.String("icao", res.AirlineICAO))
		res.Radio = res.AirlineICAO + " " + res.FlightNumber
		res.Spoken = spoken.Letters(res.AirlineICAO) + " " + spoken.Digits(res.FlightNumber)
	}

	res.Variants = buildVariants(res)
	return res
}

// buildVariants assembles the recognition set: raw, ICAO joined and spaced,
// the 2-letter truncation tolerating a dropped trailing STT letter, airline
// names with digits, spelled-out digits, and the "Air"-stripped form for
// multi-word names starting with Air.
func buildVariants(res Resolved) []string {
	num := res.FlightNumber
	spelled := strings.ReplaceAll(spoken.Digits(num), "niner", "nine")

	var variants []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		n := Normalize(v)
		for _, existing := range variants {
			if Normalize(existing) == n {
				return
			}
		}
		variants = append(variants, v)
	}

	add(res.Raw)
	add(res.AirlineICAO + num)
	add(res.AirlineICAO + " " + num)
	if len(res.AirlineICAO) == 3 {
		add(res.AirlineICAO[:2] + num)
	}
	for _, name := range []string{res.Telephony, res.AirlineName} {
		if name == "" {
			continue
		}
		add(name + " " + num)
		add(name + " " + spelled)
		if stripped, ok := StripAirPrefix(name); ok {
			add(stripped + " " + num)
			add(stripped + " " + spelled)
		}
	}
	return variants
}

// StripAirPrefix drops a leading "Air " from multi-word airline names, so
// "Air Canada 459" still matches when STT loses the first word.
func StripAirPrefix(name string) (string, bool) {
	fields := strings.Fields(name)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Air") {
		return "", false
	}
	return strings.Join(fields[1:], " "), true
}

// MentionedIn reports whether any recognition variant occurs in the
// transmission. Both sides are reduced to uppercase alphanumerics first, so
// spacing and punctuation never cause false negatives.
func (res Resolved) MentionedIn(transmission string) bool {
	nt := Normalize(transmission)
	if nt == "" {
		return false
	}
	for _, v := range res.Variants {
		if nv := Normalize(v); nv != "" && strings.Contains(nt, nv) {
			return true
		}
	}
	return false
}

// Normalize reduces a string to uppercase alphanumerics only.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		case (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ExtractCandidate pulls a best-effort callsign out of a transcript when no
// authoritative form is available: the first word-or-two followed by a
// digit group.
func ExtractCandidate(transcript string) (string, bool) {
	m := candidateRe.FindStringSubmatch(transcript)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
