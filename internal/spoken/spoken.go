// Package spoken converts operational values into radiotelephony wording
// suitable for a TTS engine: digit-by-digit numbers, runway sides as words,
// decimal frequencies, airport display names without legal suffixes.
package spoken

import (
	"strconv"
	"strings"
)

var digitWords = map[byte]string{
	'0': "zero",
	'1': "one",
	'2': "two",
	'3': "three",
	'4': "four",
	'5': "five",
	'6': "six",
	'7': "seven",
	'8': "eight",
	'9': "niner",
}

// natoAlphabet spells letters for non-airline callsigns and taxiway names.
var natoAlphabet = map[byte]string{
	'A': "alpha", 'B': "bravo", 'C': "charlie", 'D': "delta",
	'E': "echo", 'F': "foxtrot", 'G': "golf", 'H': "hotel",
	'I': "india", 'J': "juliett", 'K': "kilo", 'L': "lima",
	'M': "mike", 'N': "november", 'O': "oscar", 'P': "papa",
	'Q': "quebec", 'R': "romeo", 'S': "sierra", 'T': "tango",
	'U': "uniform", 'V': "victor", 'W': "whiskey", 'X': "xray",
	'Y': "yankee", 'Z': "zulu",
}

// Digit returns the spoken word for a single digit, "niner" for 9.
func Digit(d byte) string {
	if w, ok := digitWords[d]; ok {
		return w
	}
	return string(d)
}

// Digits speaks a string digit by digit, skipping anything that is not a
// digit: "113" becomes "one one three".
func Digits(s string) string {
	var words []string
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			words = append(words, Digit(s[i]))
		}
	}
	return strings.Join(words, " ")
}

// Letters spells alphanumerics phonetically: "N12AB" becomes
// "november one two alpha bravo".
func Letters(s string) string {
	var words []string
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			words = append(words, Digit(c))
		case c >= 'A' && c <= 'Z':
			words = append(words, natoAlphabet[c])
		case c >= 'a' && c <= 'z':
			words = append(words, natoAlphabet[c-'a'+'A'])
		}
	}
	return strings.Join(words, " ")
}

// Altitude speaks an altitude in feet: 4500 becomes "four thousand five
// hundred", 10000 becomes "one zero thousand".
func Altitude(feet int) string {
	if feet <= 0 {
		return ""
	}
	thousands := feet / 1000
	hundreds := (feet % 1000) / 100

	var spokenThousands string
	if thousands >= 10 {
		// Double-digit thousands are spoken digit by digit.
		spokenThousands = Digits(strconv.Itoa(thousands))
	} else if thousands > 0 {
		spokenThousands = Digit('0' + byte(thousands))
	}

	switch {
	case thousands > 0 && hundreds > 0:
		return spokenThousands + " thousand " + Digit('0'+byte(hundreds)) + " hundred"
	case thousands > 0:
		return spokenThousands + " thousand"
	case hundreds > 0:
		return Digit('0'+byte(hundreds)) + " hundred"
	}
	return Digits(strconv.Itoa(feet)) + " feet"
}

// FlightLevel speaks a flight level digit by digit: 350 becomes
// "flight level three five zero".
func FlightLevel(level int) string {
	if level <= 0 {
		return ""
	}
	padded := strconv.Itoa(level)
	for len(padded) < 3 {
		padded = "0" + padded
	}
	return "flight level " + Digits(padded)
}

// Runway speaks a runway designator: "24L" becomes "two four left".
func Runway(designator string) string {
	r := strings.ToUpper(strings.TrimSpace(designator))
	if r == "" {
		return ""
	}
	side := ""
	switch r[len(r)-1] {
	case 'L':
		side = " left"
		r = r[:len(r)-1]
	case 'R':
		side = " right"
		r = r[:len(r)-1]
	case 'C':
		side = " center"
		r = r[:len(r)-1]
	}
	return Digits(r) + side
}

// Frequency speaks a VHF frequency: "121.9" becomes
// "one two one decimal niner".
func Frequency(mhz string) string {
	parts := strings.SplitN(strings.TrimSpace(mhz), ".", 2)
	if len(parts) == 1 {
		return Digits(parts[0])
	}
	return Digits(parts[0]) + " decimal " + Digits(parts[1])
}

// airportSuffixes are stripped from full airport names so replies say
// "Manchester" rather than "Manchester Airport".
var airportSuffixReplacer = strings.NewReplacer(
	" International Airport", "",
	" International", "",
	" Intl", "",
	" Airport", "",
	" Arpt", "",
	" Regional", "",
	" Municipal", "",
	" Field", "",
)

// StripAirportSuffix removes legal and directory suffixes from an airport
// display name.
func StripAirportSuffix(name string) string {
	return strings.TrimSpace(airportSuffixReplacer.Replace(name))
}

