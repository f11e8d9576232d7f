// Package airlines provides the read-only airline telephony directory used
// for callsign resolution. The directory is loaded once at startup and never
// mutated afterwards.
package airlines

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Airline is one directory entry keyed by the 3-letter ICAO code.
type Airline struct {
	ICAO string `json:"icao"`
	// Name is the display name, e.g. "British Airways".
	Name string `json:"name"`
	// Radio is the radiotelephony designator spoken on frequency,
	// e.g. "Speedbird".
	Radio string `json:"radio"`
}

// Directory answers airline lookups by ICAO code.
type Directory interface {
	Lookup(icao string) (Airline, bool)
}

// StaticDirectory is the built-in table, optionally overlaid from a CSV
// file. Safe for concurrent reads after loading.
type StaticDirectory struct {
	byICAO map[string]Airline
	logger *logger.Logger
}

var _ Directory = (*StaticDirectory)(nil)

// NewDirectory creates a directory seeded with the built-in table.
func NewDirectory(log *logger.Logger) *StaticDirectory {
	d := &StaticDirectory{
		byICAO: make(map[string]Airline, len(builtinAirlines)),
		logger: log.Named("airlines"),
	}
	for _, a := range builtinAirlines {
		d.byICAO[a.ICAO] = a
	}
	return d
}

// LoadFile overlays entries from a CSV file with lines of the form
// ICAO,Name,Radio. Lines starting with '#' are ignored. Existing entries
// with the same code are replaced.
func (d *StaticDirectory) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open airlines file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	loaded := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse airlines file: %w", err)
		}
		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		if len(code) != 3 {
			d.logger.Warn("Skipping airline entry with bad ICAO code",
				logger.String("code", code))
			continue
		}
		d.byICAO[code] = Airline{
			ICAO:  code,
			Name:  titleCase(rec[1]),
			Radio: titleCase(rec[2]),
		}
		loaded++
	}

	d.logger.Info("Loaded airline directory overrides",
		logger.String("path", path),
		logger.Int("entries", loaded))
	return nil
}

// Lookup returns the airline for a 3-letter ICAO code.
func (d *StaticDirectory) Lookup(icao string) (Airline, bool) {
	a, ok := d.byICAO[strings.ToUpper(icao)]
	return a, ok
}

// Size returns the number of entries, for startup logging.
func (d *StaticDirectory) Size() int {
	return len(d.byICAO)
}

// titleCase capitalizes each word, preserving already-capitalized interior
// letters such as "KLM".
func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		if w == strings.ToLower(w) {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
