package airports

import "strings"

// icaoCountryPrefixes maps ICAO location-indicator prefixes to ISO 3166-1
// alpha-2 country codes. Single-letter prefixes cover the large contiguous
// blocks; two-letter prefixes cover Europe and the rest.
var icaoCountryPrefixes = map[string]string{
	"C": "CA",
	"K": "US",

	"EB": "BE",
	"ED": "DE",
	"EE": "EE",
	"EF": "FI",
	"EG": "GB",
	"EH": "NL",
	"EI": "IE",
	"EK": "DK",
	"EN": "NO",
	"EP": "PL",
	"ES": "SE",
	"ET": "DE",
	"LE": "ES",
	"LF": "FR",
	"LG": "GR",
	"LH": "HU",
	"LI": "IT",
	"LK": "CZ",
	"LO": "AT",
	"LP": "PT",
	"LR": "RO",
	"LS": "CH",
	"LT": "TR",
	"OM": "AE",
	"OT": "QA",
	"RJ": "JP",
	"RK": "KR",
	"SB": "BR",
	"VH": "HK",
	"WS": "SG",
	"YB": "AU",
	"YM": "AU",
	"YP": "AU",
	"YS": "AU",
	"ZB": "CN",
	"ZS": "CN",
}

// RegionForICAO returns the ISO country code implied by an ICAO location
// indicator, or "" when the prefix is not recognized. Alaska, Hawaii and
// the Pacific territories keep their published prefixes, so "P" codes
// starting PA/PH resolve to US.
func RegionForICAO(icao string) string {
	code := strings.ToUpper(strings.TrimSpace(icao))
	if len(code) < 2 {
		return ""
	}
	if strings.HasPrefix(code, "PA") || strings.HasPrefix(code, "PH") {
		return "US"
	}
	if iso, ok := icaoCountryPrefixes[code[:2]]; ok {
		return iso
	}
	if iso, ok := icaoCountryPrefixes[code[:1]]; ok {
		return iso
	}
	return ""
}

// NorthAmerican reports whether the code sits in Canadian or US airspace,
// which selects North-American radio phraseology over global ICAO forms.
func NorthAmerican(icao string) bool {
	switch RegionForICAO(icao) {
	case "CA", "US":
		return true
	}
	return false
}
