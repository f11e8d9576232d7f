// Package extract owns the regex pattern families for operational tokens:
// runways, squawk codes, altitudes, flight levels, frequencies, procedure
// identifiers and ICAO airport codes. The normalizer, the response
// guardrail, the readback evaluator and the intent parser all consume this
// package, so "what counts as a runway mention" has exactly one definition.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind labels a pattern family.
type Kind string

const (
	KindRunway      Kind = "runway"
	KindSquawk      Kind = "squawk"
	KindAltitude    Kind = "altitude"
	KindFlightLevel Kind = "flight_level"
	KindFrequency   Kind = "frequency"
	KindProcedure   Kind = "procedure"
	KindICAOCode    Kind = "icao_code"
)

// Mention is one extracted operational token.
type Mention struct {
	Kind Kind
	// Raw is the text as matched.
	Raw string
	// Value is the normalized comparable form: "06L", "4406", "5000",
	// "350" (flight level), "121.9", "GOSAM1C", "EGKK".
	Value string
	// Pos is the byte offset of the match.
	Pos int
}

var (
	// runway 33, rwy 6 left, runway 24C
	runwayRe = regexp.MustCompile(`(?i)\b(?:runway|rwy)\s*(\d{1,2})(?:\s*(left|right|center|centre|[lrc]))?\b`)

	// squawk 4406, squawking 4406, transponder 4406, code 4406
	squawkRe = regexp.MustCompile(`(?i)\b(?:squawk(?:ing)?|transponder|code)\s+(\d{4})\b`)

	// climb 5000, descend and maintain 10,000, maintain 3000, altitude 5000
	altVerbRe = regexp.MustCompile(`(?i)\b(?:climb|descend|maintain|altitude)(?:\s+and\s+maintain)?\s+(\d{1,2}),?(\d{3})\b`)
	// 5000 feet, 10,000 ft
	altFeetRe = regexp.MustCompile(`(?i)\b(\d{1,2}),?(\d{3})\s*(?:feet|ft)\b`)

	// FL350, flight level 350
	flightLevelRe = regexp.MustCompile(`(?i)\b(?:FL\s*|flight\s+level\s+)(\d{2,3})\b`)

	// 121.9, 126.825 within the VHF airband
	frequencyRe = regexp.MustCompile(`\b(1[0-3]\d)[.,](\d{1,3})\b`)

	// GOSAM1C, TLA6D: procedure identifiers are written uppercase
	procedureRe = regexp.MustCompile(`\b([A-Z]{3,6}\d[A-Z]?)\b`)

	// EGKK: 4-letter ICAO-looking token, uppercase only
	icaoCodeRe = regexp.MustCompile(`\b([A-Z]{4})\b`)
)

// Runways extracts runway mentions. Values are normalized to the two-digit
// plus optional L/R/C form, e.g. "06L", "33".
func Runways(text string) []Mention {
	var out []Mention
	for _, m := range runwayRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		number := submatch(text, m, 1)
		side := submatch(text, m, 2)
		out = append(out, Mention{
			Kind:  KindRunway,
			Raw:   raw,
			Value: NormalizeRunway(number + sideLetter(side)),
			Pos:   m[0],
		})
	}
	return out
}

// Squawks extracts keyword-anchored 4-digit transponder codes.
func Squawks(text string) []Mention {
	var out []Mention
	for _, m := range squawkRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Mention{
			Kind:  KindSquawk,
			Raw:   text[m[0]:m[1]],
			Value: submatch(text, m, 1),
			Pos:   m[0],
		})
	}
	return out
}

// Altitudes extracts altitude-in-feet mentions, both verb-anchored
// ("climb 5000") and unit-suffixed ("5,000 feet"). Values are plain digit
// strings with separators removed.
func Altitudes(text string) []Mention {
	seen := make(map[int]bool)
	var out []Mention
	for _, re := range []*regexp.Regexp{altVerbRe, altFeetRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			digitsPos := m[2]
			if seen[digitsPos] {
				continue
			}
			seen[digitsPos] = true
			out = append(out, Mention{
				Kind:  KindAltitude,
				Raw:   text[m[0]:m[1]],
				Value: submatch(text, m, 1) + submatch(text, m, 2),
				Pos:   m[0],
			})
		}
	}
	return out
}

// FlightLevels extracts flight level mentions; Value is the bare level
// ("350"), zero-padded to three digits.
func FlightLevels(text string) []Mention {
	var out []Mention
	for _, m := range flightLevelRe.FindAllStringSubmatchIndex(text, -1) {
		level := submatch(text, m, 1)
		if n, err := strconv.Atoi(level); err == nil {
			level = fmt.Sprintf("%03d", n)
		}
		out = append(out, Mention{
			Kind:  KindFlightLevel,
			Raw:   text[m[0]:m[1]],
			Value: level,
			Pos:   m[0],
		})
	}
	return out
}

// Frequencies extracts VHF airband frequencies; Value is normalized with
// trailing zeros trimmed ("121.900" becomes "121.9").
func Frequencies(text string) []Mention {
	var out []Mention
	for _, m := range frequencyRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Mention{
			Kind:  KindFrequency,
			Raw:   text[m[0]:m[1]],
			Value: NormalizeFrequency(submatch(text, m, 1) + "." + submatch(text, m, 2)),
			Pos:   m[0],
		})
	}
	return out
}

// Procedures extracts SID/STAR-shaped identifiers (letters + digit +
// optional letter, uppercase).
func Procedures(text string) []Mention {
	var out []Mention
	for _, m := range procedureRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Mention{
			Kind:  KindProcedure,
			Raw:   text[m[0]:m[1]],
			Value: submatch(text, m, 1),
			Pos:   m[0],
		})
	}
	return out
}

// ICAOCodes extracts 4-letter uppercase tokens. Whether a token actually
// names an airport is the caller's judgment via the gazetteer; unrecognized
// tokens are expected and harmless here.
func ICAOCodes(text string) []Mention {
	var out []Mention
	for _, m := range icaoCodeRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Mention{
			Kind:  KindICAOCode,
			Raw:   text[m[0]:m[1]],
			Value: submatch(text, m, 1),
			Pos:   m[0],
		})
	}
	return out
}

// All runs every family over the text, in a stable order.
func All(text string) []Mention {
	var out []Mention
	out = append(out, Runways(text)...)
	out = append(out, Squawks(text)...)
	out = append(out, Altitudes(text)...)
	out = append(out, FlightLevels(text)...)
	out = append(out, Frequencies(text)...)
	out = append(out, Procedures(text)...)
	out = append(out, ICAOCodes(text)...)
	return out
}

// NormalizeRunway converts any runway spelling to the canonical two-digit
// plus optional side letter form: "6l" becomes "06L", "RW24" becomes "24",
// "33" stays "33". Unparseable input is returned uppercased and trimmed.
func NormalizeRunway(s string) string {
	r := strings.ToUpper(strings.TrimSpace(s))
	for _, prefix := range []string{"RUNWAY", "RWY", "RW"} {
		if strings.HasPrefix(r, prefix) {
			r = strings.TrimSpace(strings.TrimPrefix(r, prefix))
			break
		}
	}

	side := ""
	if n := len(r); n > 0 {
		switch r[n-1] {
		case 'L', 'R', 'C':
			side = string(r[n-1])
			r = strings.TrimSpace(r[:n-1])
		}
	}
	num, err := strconv.Atoi(r)
	if err != nil || num < 1 || num > 36 {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	return fmt.Sprintf("%02d%s", num, side)
}

// NormalizeFrequency trims trailing zeros from the decimal part so that
// "121.900" and "121.9" compare equal. At least one decimal digit is kept.
func NormalizeFrequency(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + ".0"
	}
	whole, frac := s[:dot], s[dot+1:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}
	return whole + "." + frac
}

// ValidSquawk reports whether the code is a 4-digit transponder code with
// every digit in the octal range.
func ValidSquawk(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '7' {
			return false
		}
	}
	return true
}

func sideLetter(side string) string {
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

// submatch returns the text of capture group i from a SubmatchIndex result,
// or "" when the group did not participate.
func submatch(text string, m []int, i int) string {
	if 2*i+1 >= len(m) || m[2*i] < 0 {
		return ""
	}
	return text[m[2*i]:m[2*i+1]]
}
