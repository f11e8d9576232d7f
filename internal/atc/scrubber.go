package atc

import (
	"regexp"
	"strings"

	"github.com/virtualatc/atc-engine/internal/airports"
	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/internal/spoken"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Scrubber is the last rewrite before speech: any literal ICAO code or raw
// callsign that survived the upstream guards is replaced with its spoken
// form.
type Scrubber struct {
	gazetteer airports.Gazetteer
	logger    *logger.Logger
}

// NewScrubber creates an output scrubber.
func NewScrubber(gazetteer airports.Gazetteer, log *logger.Logger) *Scrubber {
	return &Scrubber{
		gazetteer: gazetteer,
		logger:    log.Named("atc-scrubber"),
	}
}

// ResolveContext builds the per-turn scrub table from flight state. Airport
// names prefer the filed flight-plan name, then the gazetteer, then the
// literal ICAO code as last resort, with the source recorded.
func (s *Scrubber) ResolveContext(fc *flight.Context) *ResolvedContext {
	rc := &ResolvedContext{
		RawCallsign:    fc.RawCallsign,
		RadioCallsign:  fc.RadioCallsign,
		SpokenCallsign: fc.SpokenCallsign,
	}
	if rc.RawCallsign == "" {
		rc.RawCallsign = fc.Callsign
	}
	if rc.SpokenCallsign == "" {
		rc.SpokenCallsign = derivedSpokenCallsign(fc)
	}
	rc.Departure = s.spokenAirport(fc.OriginICAO, fc.OriginName)
	rc.Arrival = s.spokenAirport(fc.DestinationICAO, fc.DestinationName)
	return rc
}

// Scrub word-boundary-replaces every literal ICAO or raw-callsign
// occurrence with its spoken equivalent.
func (s *Scrubber) Scrub(text string, rc *ResolvedContext) string {
	if rc == nil || text == "" {
		return text
	}
	out := text
	out = s.replaceWord(out, rc.Departure.ICAO, rc.Departure.Spoken, "departure_icao")
	out = s.replaceWord(out, rc.Arrival.ICAO, rc.Arrival.Spoken, "arrival_icao")
	out = s.replaceWord(out, rc.RawCallsign, rc.SpokenCallsign, "raw_callsign")
	return out
}

func (s *Scrubber) spokenAirport(icao, filedName string) SpokenAirport {
	ap := SpokenAirport{ICAO: strings.ToUpper(strings.TrimSpace(icao))}
	if filedName != "" {
		ap.Spoken = spoken.StripAirportSuffix(filedName)
		ap.Source = ProvenanceSimbrief
		return ap
	}
	if s.gazetteer != nil {
		if name, ok := s.gazetteer.SpokenName(ap.ICAO); ok {
			ap.Spoken = name
			ap.Source = ProvenanceGazetteer
			return ap
		}
	}
	ap.Spoken = ap.ICAO
	ap.Source = ProvenanceICAOFallback
	return ap
}

func (s *Scrubber) replaceWord(text, literal, spokenForm, kind string) string {
	if literal == "" || spokenForm == "" || strings.EqualFold(literal, spokenForm) {
		return text
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(literal) + `\b`)
	hits := re.FindAllStringIndex(text, -1)
	if len(hits) == 0 {
		return text
	}
	s.logger.Info("Scrubbed literal token from reply",
		logger.String("kind", kind),
		logger.String("literal", literal),
		logger.String("spoken", spokenForm),
		logger.Int("occurrences", len(hits)))
	return re.ReplaceAllString(text, spokenForm)
}

// derivedSpokenCallsign spells the trailing digit run of the radio callsign
// digit by digit, for flights whose spoken form was never resolved.
func derivedSpokenCallsign(fc *flight.Context) string {
	base := fc.RadioCallsign
	if base == "" {
		base = fc.Callsign
	}
	if base == "" {
		return ""
	}
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	name := strings.TrimSpace(base[:i])
	digits := base[i:]
	if digits == "" {
		return base
	}
	if name == "" {
		return spoken.Digits(digits)
	}
	return name + " " + spoken.Digits(digits)
}
