// Package procedural short-circuits protocol-fixed exchanges. A radio check
// has exactly one correct answer, so it is answered from a template pool
// before the conversation machine, the model or the guardrail ever see the
// transmission.
package procedural

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/virtualatc/atc-engine/internal/airports"
	"github.com/virtualatc/atc-engine/internal/callsign"
	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// IntentRadioCheck tags the one exchange currently short-circuited.
const IntentRadioCheck = "radio_check"

// Match is a short-circuited exchange: the response is final and bypasses
// the machine entirely.
type Match struct {
	Intent   string `json:"intent"`
	Response string `json:"response"`
	Callsign string `json:"callsign,omitempty"`
}

// radioCheckRe tolerates up to a few separator characters between the
// keyword and "check", so comma-spliced transcripts still match.
var radioCheckRe = regexp.MustCompile(`(?i)\b(?:radio|mic)[\s,.-]{1,3}check(?:ing|er)?\b`)

// fillerWords are dropped before detection so hesitation noise cannot split
// the keyword pair.
var fillerWords = map[string]bool{
	"uh": true, "um": true, "ah": true, "er": true, "eh": true,
	"hello": true, "hey": true, "okay": true, "ok": true, "please": true,
}

// Response template pools. North-American stations answer in strength
// phraseology, everywhere else uses ICAO readability numbers.
var (
	naTemplates = []string{
		"%s, read you loud and clear.",
		"%s, have you loud and clear.",
		"%s, read you five by five.",
	}
	icaoTemplates = []string{
		"%s, readability five.",
		"%s, read you five.",
		"%s, reading you five.",
	}
)

// Router answers protocol-fixed transmissions from templates.
type Router struct {
	rand   *rand.Rand
	logger *logger.Logger
}

// NewRouter creates a procedural router.
func NewRouter(rng *rand.Rand, log *logger.Logger) *Router {
	return &Router{
		rand:   rng,
		logger: log.Named("procedural"),
	}
}

// TryMatch reports whether the transmission is a protocol-fixed exchange
// and, when it is, the complete response. The callsign in the response
// prefers the resolved spoken form, then the stored radio form, then a
// best-effort extraction from the transcript itself.
func (r *Router) TryMatch(transcript string, fc *flight.Context) (Match, bool) {
	text := stripFillers(transcript)
	if text == "" || !radioCheckRe.MatchString(text) {
		return Match{}, false
	}

	cs := callsignFor(transcript, fc)
	m := Match{
		Intent:   IntentRadioCheck,
		Response: r.response(cs, northAmerican(fc)),
		Callsign: cs,
	}
	r.logger.Info("Procedural short-circuit",
		logger.String("intent", m.Intent),
		logger.String("callsign", cs))
	return m, true
}

func (r *Router) response(cs string, na bool) string {
	pool := icaoTemplates
	if na {
		pool = naTemplates
	}
	if cs == "" {
		cs = "Station calling"
	}
	return fmt.Sprintf(pool[r.rand.Intn(len(pool))], cs)
}

func callsignFor(transcript string, fc *flight.Context) string {
	if fc != nil {
		if fc.SpokenCallsign != "" {
			return fc.SpokenCallsign
		}
		if fc.RadioCallsign != "" {
			return fc.RadioCallsign
		}
	}
	if candidate, ok := callsign.ExtractCandidate(transcript); ok {
		return candidate
	}
	return ""
}

// northAmerican keys phraseology off the airport being worked: origin while
// it is known, destination otherwise.
func northAmerican(fc *flight.Context) bool {
	if fc == nil {
		return false
	}
	if fc.OriginICAO != "" {
		return airports.NorthAmerican(fc.OriginICAO)
	}
	return airports.NorthAmerican(fc.DestinationICAO)
}

func stripFillers(text string) string {
	words := strings.Fields(text)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if fillerWords[strings.ToLower(strings.Trim(w, ",.?!"))] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
