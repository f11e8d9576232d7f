package atc

import (
	"strconv"
	"strings"

	"github.com/virtualatc/atc-engine/internal/airports"
	"github.com/virtualatc/atc-engine/internal/extract"
	"github.com/virtualatc/atc-engine/internal/normalize"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Guardrail validates candidate replies against the per-turn context. The
// model is untrusted: any operational value it states must intersect the
// allow-set computed from flight state, and airport names must be spoken,
// never coded.
type Guardrail struct {
	gazetteer airports.Gazetteer
	logger    *logger.Logger
}

// NewGuardrail creates a response guardrail.
func NewGuardrail(gazetteer airports.Gazetteer, log *logger.Logger) *Guardrail {
	return &Guardrail{
		gazetteer: gazetteer,
		logger:    log.Named("atc-guardrail"),
	}
}

// ValidateResponse checks every runway, squawk, altitude, flight level,
// frequency, procedure and ICAO-looking token in the candidate against the
// context allow-sets. Without a context the candidate passes unconditionally.
func (g *Guardrail) ValidateResponse(candidate string, actx *Context) ResponseValidation {
	verdict := ResponseValidation{IsValid: true}
	if actx == nil {
		return verdict
	}

	text := normalize.NormalizeReadback(candidate)
	offend := func(family, token string) {
		verdict.IsValid = false
		verdict.OffendingTokens = append(verdict.OffendingTokens, token)
		g.logger.Warn("Candidate reply states a value outside context",
			logger.String("family", family),
			logger.String("token", token))
	}

	runways := stringSet(actx.AllowedRunways)
	for _, m := range extract.Runways(text) {
		if _, ok := runways[m.Value]; !ok {
			offend("runway", m.Value)
		}
	}

	for _, m := range extract.Squawks(text) {
		if actx.Decision.Squawk == "" || m.Value != actx.Decision.Squawk {
			offend("squawk", m.Value)
		}
	}

	altitudes := intSet(actx.AllowedAltitudes)
	for _, m := range extract.Altitudes(text) {
		ft, err := strconv.Atoi(m.Value)
		if err != nil {
			continue
		}
		if _, ok := altitudes[ft]; !ok {
			offend("altitude", m.Value)
		}
	}
	for _, m := range extract.FlightLevels(text) {
		lvl, err := strconv.Atoi(m.Value)
		if err != nil {
			continue
		}
		if _, ok := altitudes[lvl*100]; !ok {
			offend("flight_level", "FL"+m.Value)
		}
	}

	frequencies := stringSet(actx.AllowedFrequencies)
	for _, m := range extract.Frequencies(text) {
		if _, ok := frequencies[m.Value]; !ok {
			offend("frequency", m.Value)
		}
	}

	procedures := stringSet(actx.AllowedProcedures)
	for _, m := range extract.Procedures(text) {
		if _, ok := procedures[strings.ToUpper(m.Value)]; !ok {
			offend("procedure", m.Value)
		}
	}

	// Unrecognized 4-letter tokens are tolerated; a token naming a known
	// airport, or the flight's own origin or destination, never is.
	for _, m := range extract.ICAOCodes(text) {
		code := m.Value
		recognized := strings.EqualFold(code, actx.OriginICAO) ||
			strings.EqualFold(code, actx.DestinationICAO) ||
			(g.gazetteer != nil && g.gazetteer.IsKnown(code))
		if recognized {
			offend("icao_code", code)
		}
	}

	return verdict
}

// Enforce validates the candidate and substitutes the deterministic
// fallback when it fails.
func (g *Guardrail) Enforce(candidate string, actx *Context) (string, ResponseValidation) {
	verdict := g.ValidateResponse(candidate, actx)
	if verdict.IsValid {
		return candidate, verdict
	}
	g.logger.Warn("Discarding candidate reply",
		logger.Int("offending_tokens", len(verdict.OffendingTokens)),
		logger.String("tokens", strings.Join(verdict.OffendingTokens, " ")))
	return FallbackClearance(actx), verdict
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func intSet(values []int) map[int]struct{} {
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
