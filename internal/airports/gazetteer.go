// Package airports provides the read-only airport gazetteer: display names
// for ICAO codes, spoken-form names, and ICAO-prefix region classification.
// Loaded once at startup, immutable afterwards.
package airports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Airport is one gazetteer entry.
type Airport struct {
	ICAO    string `json:"icao"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"` // ISO 3166-1 alpha-2
}

// Gazetteer answers "is this a known airport" and "what do I call it".
type Gazetteer interface {
	Lookup(icao string) (Airport, bool)
	IsKnown(icao string) bool
	// SpokenName returns a TTS-safe display name with diacritics folded.
	SpokenName(icao string) (string, bool)
}

const spokenCacheSize = 512

// StaticGazetteer is the built-in table, optionally overlaid from a CSV
// file. Spoken names are folded on demand and memoized in an LRU cache so
// a large override file does not pay the fold cost up front.
type StaticGazetteer struct {
	byICAO map[string]Airport
	spoken *lru.Cache[string, string]
	logger *logger.Logger
}

var _ Gazetteer = (*StaticGazetteer)(nil)

// NewGazetteer creates a gazetteer seeded with the built-in table.
func NewGazetteer(log *logger.Logger) *StaticGazetteer {
	cache, _ := lru.New[string, string](spokenCacheSize)
	g := &StaticGazetteer{
		byICAO: make(map[string]Airport, len(builtinAirports)),
		spoken: cache,
		logger: log.Named("airports"),
	}
	for _, a := range builtinAirports {
		g.byICAO[a.ICAO] = a
	}
	return g
}

// LoadFile overlays entries from a CSV file with lines of the form
// ICAO,Name,City,Country. Lines starting with '#' are ignored.
func (g *StaticGazetteer) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open airports file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = 4
	r.TrimLeadingSpace = true

	loaded := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse airports file: %w", err)
		}
		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		if len(code) != 4 {
			g.logger.Warn("Skipping airport entry with bad ICAO code",
				logger.String("code", code))
			continue
		}
		g.byICAO[code] = Airport{
			ICAO:    code,
			Name:    strings.TrimSpace(rec[1]),
			City:    strings.TrimSpace(rec[2]),
			Country: strings.ToUpper(strings.TrimSpace(rec[3])),
		}
		loaded++
	}
	g.spoken.Purge()

	g.logger.Info("Loaded airport gazetteer overrides",
		logger.String("path", path),
		logger.Int("entries", loaded))
	return nil
}

// Lookup returns the airport for a 4-letter ICAO code.
func (g *StaticGazetteer) Lookup(icao string) (Airport, bool) {
	a, ok := g.byICAO[strings.ToUpper(icao)]
	return a, ok
}

// IsKnown reports whether the code names a known airport.
func (g *StaticGazetteer) IsKnown(icao string) bool {
	_, ok := g.byICAO[strings.ToUpper(icao)]
	return ok
}

// SpokenName returns the preferred spoken form for the airport: the city
// when recorded, otherwise the display name, with diacritics folded either
// way.
func (g *StaticGazetteer) SpokenName(icao string) (string, bool) {
	code := strings.ToUpper(icao)
	if cached, ok := g.spoken.Get(code); ok {
		return cached, true
	}
	a, ok := g.byICAO[code]
	if !ok {
		return "", false
	}
	name := a.City
	if name == "" {
		name = a.Name
	}
	folded := FoldDiacritics(name)
	g.spoken.Add(code, folded)
	return folded, true
}

// Size returns the number of entries, for startup logging.
func (g *StaticGazetteer) Size() int {
	return len(g.byICAO)
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics strips combining marks so TTS engines fed ASCII-ish text
// do not stumble over names like Zürich or Malmö.
func FoldDiacritics(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		return s
	}
	return out
}
