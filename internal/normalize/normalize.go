// Package normalize cleans raw transcribed pilot speech before any decision
// logic sees it. The pipeline is six ordered stages, each keyword-anchored
// and idempotent: re-running the pipeline on its own output is a no-op.
// Every stage rewrites only its own narrow pattern; anything outside stays
// untouched, garbled or not.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/virtualatc/atc-engine/internal/callsign"
	"github.com/virtualatc/atc-engine/internal/extract"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// sttConfusions maps frequent speech-to-text mishearings in radio
// transcripts to their intended words. Values never appear as keys, which
// keeps the substitution idempotent.
var sttConfusions = map[string]string{
	"niner":     "nine",
	"fife":      "five",
	"fower":     "four",
	"tree":      "three",
	"squack":    "squawk",
	"squak":     "squawk",
	"sqwak":     "squawk",
	"squacking": "squawking",
	"clearence": "clearance",
	"taxy":      "taxi",
	"runaway":   "runway",
	"wilko":     "wilco",
	"rodger":    "roger",
}

var confusionRe = buildConfusionRe()

func buildConfusionRe() *regexp.Regexp {
	words := make([]string, 0, len(sttConfusions))
	for w := range sttConfusions {
		words = append(words, w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

// numberWords are the digit words converted after scope keywords. "oh" is
// only safe inside a keyword-scoped run.
var numberWords = map[string]string{
	"zero": "0", "oh": "0", "one": "1", "two": "2", "three": "3",
	"four": "4", "five": "5", "six": "6", "seven": "7", "eight": "8",
	"nine": "9",
}

const numberWordAlt = `zero|oh|one|two|three|four|five|six|seven|eight|nine`

// genericNumberKeywords anchor spoken-number conversion regardless of the
// flight; airline names from the resolved callsign are added per turn.
var genericNumberKeywords = []string{
	"stand", "gate", "squawk", "squawking", "flight level", "altitude",
	"heading", "runway",
}

var (
	// AFR is a frequent mishearing of IFR, except when it starts an Air
	// France callsign, which the trailing digit group detects.
	afrRe = regexp.MustCompile(`(?i)\bafr\b(\s+\d)?`)

	spacedICAORe  = regexp.MustCompile(`\b([A-Za-z])\s+([A-Za-z])\s+([A-Za-z])\s+([A-Za-z])\b`)
	thenIsFiledRe = regexp.MustCompile(`(?i)\bthen is filed\b`)
	flWordsRe     = regexp.MustCompile(`(?i)\bflight\s+level\s+(\d{2,3})\b`)
	// Bare thousands big enough to be a flight level: 10,000 through 49,000.
	bareThousandsRe = regexp.MustCompile(`\b([1-4]\d),?000\b`)
	runwaySpokenRe  = regexp.MustCompile(`(?i)\brunway\s+(\d{1,2})(?:\s*(left|right|center|centre|[lrc]))?\b`)
	squawkSpacedRe  = regexp.MustCompile(`(?i)\b(squawk(?:ing)?)\s+(\d)\s+(\d)\s+(\d)\s+(\d)\b`)

	radioTypoRe   = regexp.MustCompile(`(?i)\b(?:radial|ratio|radios|rodeo)\s+(check(?:ing|er)?)\b`)
	radioJoinedRe = regexp.MustCompile(`(?i)\bradio-?check\b`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Pipeline runs the normalization stages in their fixed order.
type Pipeline struct {
	logger *logger.Logger
}

// NewPipeline creates a normalization pipeline.
func NewPipeline(log *logger.Logger) *Pipeline {
	return &Pipeline{logger: log.Named("normalize")}
}

type stage struct {
	name  string
	apply func(string) string
}

// Normalize cleans one transmission. The resolved callsign scopes the
// airline-name keywords and the canonical callsign collapse; a zero value
// disables those rewrites and leaves the generic stages active.
func (p *Pipeline) Normalize(text string, cs callsign.Resolved) string {
	stages := []stage{
		{"stt-confusions", fixConfusions},
		{"spoken-numbers", func(s string) string { return convertSpokenNumbers(s, cs) }},
		{"mistranscriptions", func(s string) string { return fixMistranscriptions(s, cs) }},
		{"callsign-collapse", func(s string) string { return collapseCallsign(s, cs) }},
		{"readback", NormalizeReadback},
		{"radio-check", fixRadioCheckTypos},
	}

	out := text
	for _, st := range stages {
		before := out
		out = st.apply(out)
		if out != before {
			p.logger.Debug("Normalization stage rewrote transmission",
				logger.String("stage", st.name),
				logger.String("before", before),
				logger.String("after", out))
		}
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(out, " "))
}

// Stage 1: lexical STT-confusion correction.
func fixConfusions(text string) string {
	return confusionRe.ReplaceAllStringFunc(text, func(m string) string {
		if repl, ok := sttConfusions[strings.ToLower(m)]; ok {
			return repl
		}
		return m
	})
}

// Stage 2: spoken-number-to-digit conversion, scoped to follow known
// keywords so unrelated numerals in free speech stay words.
func convertSpokenNumbers(text string, cs callsign.Resolved) string {
	keywords := make([]string, 0, len(genericNumberKeywords)+4)
	keywords = append(keywords, genericNumberKeywords...)
	for _, name := range []string{cs.Telephony, cs.AirlineName} {
		if name == "" {
			continue
		}
		keywords = append(keywords, name)
		if stripped, ok := callsign.StripAirPrefix(name); ok {
			keywords = append(keywords, stripped)
		}
	}

	escaped := make([]string, len(keywords))
	for i, k := range keywords {
		escaped[i] = strings.ReplaceAll(regexp.QuoteMeta(k), ` `, `\s+`)
	}
	re := regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)((?:\s+(?:` + numberWordAlt + `)\b){1,7})`)

	return re.ReplaceAllStringFunc(text, func(m string) string {
		sub := re.FindStringSubmatch(m)
		var digits strings.Builder
		for _, w := range strings.Fields(sub[2]) {
			digits.WriteString(numberWords[strings.ToLower(w)])
		}
		return sub[1] + " " + digits.String()
	})
}

// Stage 3: deterministic fixes for known mis-transcriptions.
func fixMistranscriptions(text string, cs callsign.Resolved) string {
	out := afrRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := afrRe.FindStringSubmatch(m)
		if sub[1] != "" {
			return m
		}
		return "IFR"
	})

	// Repair a misheard airline code immediately before this flight's own
	// digit run, e.g. "ESY 113" for EZY113. Only near-misses of one edit
	// qualify; anything farther is left for the variant collapse.
	if cs.Parsed && cs.FlightNumber != "" {
		re := regexp.MustCompile(`(?i)\b([a-z]{2,4})[\s-]*(` + cs.FlightNumber + `)\b`)
		out = re.ReplaceAllStringFunc(out, func(m string) string {
			sub := re.FindStringSubmatch(m)
			code := strings.ToUpper(sub[1])
			if code == cs.AirlineICAO || levenshtein(code, cs.AirlineICAO) != 1 {
				return m
			}
			return cs.AirlineICAO + " " + sub[2]
		})
	}
	return out
}

// Stage 4: collapse any callsign variant mention into the canonical
// "<name> <digits>" radio form.
func collapseCallsign(text string, cs callsign.Resolved) string {
	if !cs.Parsed || cs.Radio == "" {
		return text
	}
	variants := append([]string(nil), cs.Variants...)
	// Longest first so multi-word forms win before their substrings.
	sort.Slice(variants, func(i, j int) bool {
		return len(variants[i]) > len(variants[j])
	})
	for _, v := range variants {
		tokens := strings.Fields(v)
		for i := range tokens {
			tokens[i] = regexp.QuoteMeta(tokens[i])
		}
		re := regexp.MustCompile(`(?i)\b` + strings.Join(tokens, `[\s-]*`) + `\b`)
		text = re.ReplaceAllString(text, cs.Radio)
	}
	return text
}

// NormalizeReadback is stage 5, repairing ICAO-phrase STT artifacts. It is
// exported because reply validation inspects candidate replies in the same
// normalized form the readback evaluator sees.
func NormalizeReadback(text string) string {
	out := spacedICAORe.ReplaceAllStringFunc(text, func(m string) string {
		sub := spacedICAORe.FindStringSubmatch(m)
		return strings.ToUpper(sub[1] + sub[2] + sub[3] + sub[4])
	})

	out = thenIsFiledRe.ReplaceAllString(out, "then as filed")

	out = flWordsRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := flWordsRe.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 100 || n > 450 {
			return m
		}
		return fmt.Sprintf("FL%03d", n)
	})

	out = bareThousandsRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := bareThousandsRe.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			return m
		}
		fl := n * 10
		if fl < 100 || fl > 450 {
			return m
		}
		return fmt.Sprintf("FL%03d", fl)
	})

	out = runwaySpokenRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := runwaySpokenRe.FindStringSubmatch(m)
		return "runway " + extract.NormalizeRunway(sub[1]+sideSuffix(sub[2]))
	})

	out = squawkSpacedRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := squawkSpacedRe.FindStringSubmatch(m)
		return sub[1] + " " + sub[2] + sub[3] + sub[4] + sub[5]
	})

	return out
}

// Stage 6: radio-check typo repair.
func fixRadioCheckTypos(text string) string {
	out := radioTypoRe.ReplaceAllString(text, "radio $1")
	out = radioJoinedRe.ReplaceAllString(out, "radio check")
	return out
}

func sideSuffix(side string) string {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "left", "l":
		return "L"
	case "right", "r":
		return "R"
	case "center", "centre", "c":
		return "C"
	}
	return ""
}

// levenshtein computes edit distance for the short uppercase codes compared
// in stage 3.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
