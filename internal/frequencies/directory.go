// Package frequencies maps airports to the radio frequencies a pilot
// talks to during a flight. The directory backs frequency readouts in
// clearances and handoff phrases, and supplies the allow-set used when
// checking generated responses for invented frequencies.
package frequencies

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Station holds the published frequencies for one airport, in MHz,
// formatted as transmitted ("121.9", not "121.900000").
type Station struct {
	ICAO      string `json:"icao"`
	Delivery  string `json:"delivery,omitempty"`
	Ground    string `json:"ground,omitempty"`
	Tower     string `json:"tower,omitempty"`
	Departure string `json:"departure,omitempty"`
	Approach  string `json:"approach,omitempty"`
}

// Frequencies returns the station's known frequencies keyed by unit name.
// Units with no published frequency are omitted.
func (s Station) Frequencies() map[string]string {
	out := make(map[string]string, 5)
	for unit, freq := range map[string]string{
		"delivery":  s.Delivery,
		"ground":    s.Ground,
		"tower":     s.Tower,
		"departure": s.Departure,
		"approach":  s.Approach,
	} {
		if freq != "" {
			out[unit] = freq
		}
	}
	return out
}

// Unit returns the frequency for a named unit, or "" if unpublished.
func (s Station) Unit(name string) string {
	switch strings.ToLower(name) {
	case "delivery", "clearance":
		return s.Delivery
	case "ground":
		return s.Ground
	case "tower":
		return s.Tower
	case "departure":
		return s.Departure
	case "approach", "arrival":
		return s.Approach
	}
	return ""
}

// Directory resolves airport ICAO codes to station frequencies.
type Directory interface {
	// Lookup returns the station for an ICAO code.
	Lookup(icao string) (Station, bool)
	// AllowedAt returns every published frequency at the given airports.
	AllowedAt(icaos ...string) []string
}

// StaticDirectory is an in-memory Directory seeded with built-in
// stations and optionally extended from a CSV file.
type StaticDirectory struct {
	stations map[string]Station
	logger   *logger.Logger
}

var _ Directory = (*StaticDirectory)(nil)

// NewDirectory creates a directory seeded with the built-in station table.
func NewDirectory(log *logger.Logger) *StaticDirectory {
	d := &StaticDirectory{
		stations: make(map[string]Station, len(builtinStations)),
		logger:   log.Named("frequencies"),
	}
	for _, s := range builtinStations {
		d.stations[s.ICAO] = s
	}
	return d
}

// LoadFile merges stations from a CSV file into the directory. Each row is
// icao,delivery,ground,tower,departure[,approach]. Empty fields leave the
// unit unpublished. Lines starting with '#' are skipped. Loaded rows
// replace built-in entries with the same ICAO code.
func (d *StaticDirectory) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open frequencies file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse frequencies file: %w", err)
	}

	loaded := 0
	for _, rec := range records {
		if len(rec) < 5 {
			d.logger.Warn("Skipping malformed frequencies row",
				logger.Int("fields", len(rec)),
			)
			continue
		}
		s := Station{
			ICAO:      strings.ToUpper(strings.TrimSpace(rec[0])),
			Delivery:  strings.TrimSpace(rec[1]),
			Ground:    strings.TrimSpace(rec[2]),
			Tower:     strings.TrimSpace(rec[3]),
			Departure: strings.TrimSpace(rec[4]),
		}
		if len(rec) > 5 {
			s.Approach = strings.TrimSpace(rec[5])
		}
		if len(s.ICAO) != 4 {
			continue
		}
		d.stations[s.ICAO] = s
		loaded++
	}

	d.logger.Info("Loaded station frequencies",
		logger.String("path", path),
		logger.Int("stations", loaded),
		logger.Int("total", len(d.stations)),
	)
	return nil
}

// Lookup returns the station for an ICAO code.
func (d *StaticDirectory) Lookup(icao string) (Station, bool) {
	s, ok := d.stations[strings.ToUpper(strings.TrimSpace(icao))]
	return s, ok
}

// AllowedAt returns every published frequency at the given airports,
// deduplicated, for use as a guardrail allow-set.
func (d *StaticDirectory) AllowedAt(icaos ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, icao := range icaos {
		s, ok := d.Lookup(icao)
		if !ok {
			continue
		}
		for _, freq := range s.Frequencies() {
			if _, dup := seen[freq]; dup {
				continue
			}
			seen[freq] = struct{}{}
			out = append(out, freq)
		}
	}
	return out
}
