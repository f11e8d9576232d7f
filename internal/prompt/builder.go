// Package prompt assembles the model prompts from the per-turn context.
// Missing data degrades to absent sections, never to an error: a half-known
// flight still gets a usable briefing.
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/virtualatc/atc-engine/internal/atc"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// SystemTemplateFile is the filename looked up inside Config.Dir.
const SystemTemplateFile = "system.tmpl"

// Config points the builder at an optional template directory. When Dir is
// empty the built-in template is used and hot reload is disabled.
type Config struct {
	Dir string
}

// Builder renders the system prompt for one turn. The user prompt is always
// the pilot transmission itself.
type Builder struct {
	mu     sync.RWMutex
	system *template.Template

	dir    string
	logger *logger.Logger
}

var _ atc.PromptBuilder = (*Builder)(nil)

// NewBuilder creates a prompt builder. A configured directory that fails to
// load is logged and falls back to the built-in template, so a bad template
// never takes the assistant down.
func NewBuilder(config Config, log *logger.Logger) (*Builder, error) {
	system, err := parseSystem(defaultSystemTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse built-in template: %w", err)
	}

	b := &Builder{
		system: system,
		dir:    config.Dir,
		logger: log.Named("prompt"),
	}

	if b.dir != "" {
		if err := b.reload(); err != nil {
			b.logger.Warn("Template directory unusable, using built-in template",
				logger.String("dir", b.dir),
				logger.Error(err))
		}
	}
	return b, nil
}

// Build renders the system prompt and passes the transmission through as
// the user prompt.
func (b *Builder) Build(actx *atc.Context, transmission string) (string, string) {
	b.mu.RLock()
	system := b.system
	b.mu.RUnlock()

	var buf bytes.Buffer
	if err := system.Execute(&buf, dataFrom(actx)); err != nil {
		b.logger.Error("System prompt render failed", logger.Error(err))
		return minimalSystemPrompt(actx), transmission
	}
	return buf.String(), transmission
}

// Watch hot-reloads the template directory until ctx is cancelled. Writes
// are debounced so editors that save in several steps trigger one reload.
func (b *Builder) Watch(ctx context.Context) error {
	if b.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(b.dir); err != nil {
		return fmt.Errorf("watch %q: %w", b.dir, err)
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				if err := b.reload(); err != nil {
					b.logger.Error("Template reload failed, keeping previous template",
						logger.Error(err))
					return
				}
				b.logger.Info("Prompt templates reloaded", logger.String("dir", b.dir))
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("Template watcher error", logger.Error(err))
		}
	}
}

func (b *Builder) reload() error {
	raw, err := os.ReadFile(filepath.Join(b.dir, SystemTemplateFile))
	if err != nil {
		return err
	}
	system, err := parseSystem(string(raw))
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.system = system
	b.mu.Unlock()
	return nil
}

func parseSystem(text string) (*template.Template, error) {
	return template.New(SystemTemplateFile).
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(text)
}

// minimalSystemPrompt is the last resort when template execution itself
// fails.
func minimalSystemPrompt(actx *atc.Context) string {
	role := "air traffic controller"
	if actx != nil && actx.Role != "" {
		role = actx.Role
	}
	return fmt.Sprintf("You are the %s for a simulated IFR flight. "+
		"Reply with exactly one short radio transmission in ICAO phraseology and nothing else.", role)
}

type stationWeather struct {
	Station string
	Report  string
}

type templateData struct {
	Role          string
	Phase         string
	Callsign      string
	Origin        string
	Destination   string
	Route         string
	CruiseLevel   int
	Permitted     []string
	Clearance     []string
	Issued        bool
	Confirm       string
	Outstanding   []string
	Incorrect     []string
	Weather       []stationWeather
	AllowedValues []string
}

func dataFrom(actx *atc.Context) templateData {
	if actx == nil {
		return templateData{Role: "air traffic controller", Phase: "unknown"}
	}

	data := templateData{
		Role:        actx.Role,
		Phase:       actx.PhaseTag,
		Callsign:    callsignLine(actx.Callsign),
		Origin:      stationLine(actx.OriginSpoken, actx.OriginICAO),
		Destination: stationLine(actx.Decision.Destination, actx.DestinationICAO),
		Route:       actx.Decision.RouteSummary,
		CruiseLevel: actx.Decision.CruiseLevel,
		Permitted:   permittedList(actx.Permissions),
		Clearance:   clearanceLines(actx),
		Issued:      actx.Flags.AwaitingReadback,
		Confirm:     actx.Flags.PendingConfirmation,
		Weather:     weatherLines(actx.Weather),
	}
	if data.Role == "" {
		data.Role = "air traffic controller"
	}
	if actx.Readback != nil {
		data.Outstanding = actx.Readback.Missing
		data.Incorrect = actx.Readback.Mismatched
	}
	data.AllowedValues = allowedLines(actx)
	return data
}

func callsignLine(cs atc.CallsignInfo) string {
	spoken := cs.SpokenName()
	if spoken == "" {
		return "unknown station"
	}
	if cs.Raw != "" && cs.Raw != spoken {
		return fmt.Sprintf("%s (%s)", spoken, cs.Raw)
	}
	return spoken
}

func stationLine(name, icao string) string {
	switch {
	case name != "" && icao != "" && name != icao:
		return fmt.Sprintf("%s (%s)", name, icao)
	case name != "":
		return name
	}
	return icao
}

func permittedList(p atc.Permissions) []string {
	var out []string
	if p.AllowIfrClearance {
		out = append(out, "IFR clearance")
	}
	if p.AllowTaxi {
		out = append(out, "taxi")
	}
	if p.AllowTakeoff {
		out = append(out, "line-up and takeoff")
	}
	if p.AllowClimb {
		out = append(out, "climb")
	}
	if p.AllowDescent {
		out = append(out, "descent")
	}
	if p.AllowApproach {
		out = append(out, "approach")
	}
	if p.AllowLanding {
		out = append(out, "landing")
	}
	if p.AllowTaxiIn {
		out = append(out, "taxi to stand")
	}
	if p.AllowHandoff {
		out = append(out, "frequency handoff")
	}
	return out
}

func clearanceLines(actx *atc.Context) []string {
	d := actx.Decision
	var out []string

	switch d.ClearanceType {
	case atc.ClearanceNone:
		return nil
	case atc.ClearanceIFR:
		if !actx.Flags.ClearanceDataComplete {
			return nil
		}
		out = append(out, "cleared to: "+d.Destination)
		if d.RouteSummary != "" {
			out = append(out, "route: as filed ("+d.RouteSummary+")")
		}
		if d.SID != "" {
			out = append(out, "departure: "+d.SID)
		}
		if d.DepartureRunway != "" {
			out = append(out, "runway: "+d.DepartureRunway)
		}
		if d.InitialAltitude > 0 {
			out = append(out, fmt.Sprintf("initial climb: %d feet", d.InitialAltitude))
		}
		if d.CruiseLevel > 0 {
			out = append(out, fmt.Sprintf("expect: FL%03d ten minutes after departure", d.CruiseLevel))
		}
		if d.Squawk != "" {
			out = append(out, "squawk: "+d.Squawk)
		}
	default:
		if d.DepartureRunway != "" {
			out = append(out, "departure runway: "+d.DepartureRunway)
		}
		if d.ArrivalRunway != "" {
			out = append(out, "arrival runway: "+d.ArrivalRunway)
		}
		if d.STAR != "" {
			out = append(out, "arrival: "+d.STAR)
		}
		if d.Approach != "" {
			out = append(out, "approach: "+d.Approach)
		}
		if d.Squawk != "" {
			out = append(out, "assigned squawk: "+d.Squawk)
		}
	}
	return out
}

func weatherLines(briefs map[string]atc.WeatherBrief) []stationWeather {
	if len(briefs) == 0 {
		return nil
	}
	stations := make([]string, 0, len(briefs))
	for icao := range briefs {
		stations = append(stations, icao)
	}
	sort.Strings(stations)

	var out []stationWeather
	for _, icao := range stations {
		brief := briefs[icao]
		if brief.METAR != "" {
			out = append(out, stationWeather{Station: icao + " METAR", Report: brief.METAR})
		}
		if brief.TAF != "" {
			out = append(out, stationWeather{Station: icao + " TAF", Report: brief.TAF})
		}
	}
	return out
}

func allowedLines(actx *atc.Context) []string {
	var out []string
	if len(actx.AllowedRunways) > 0 {
		out = append(out, "runways: "+strings.Join(actx.AllowedRunways, ", "))
	}
	if len(actx.AllowedAltitudes) > 0 {
		parts := make([]string, 0, len(actx.AllowedAltitudes))
		for _, alt := range actx.AllowedAltitudes {
			parts = append(parts, fmt.Sprintf("%d ft", alt))
		}
		out = append(out, "altitudes: "+strings.Join(parts, ", "))
	}
	if len(actx.AllowedFrequencies) > 0 {
		out = append(out, "frequencies: "+strings.Join(actx.AllowedFrequencies, ", "))
	}
	if len(actx.AllowedProcedures) > 0 {
		out = append(out, "procedures: "+strings.Join(actx.AllowedProcedures, ", "))
	}
	return out
}
