// Package telemetry polls a simulator state endpoint and turns raw position
// data into flight phase suggestions. The poller only suggests; the session
// decides whether a suggestion is plausible for the current phase.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Config represents the telemetry poller configuration.
type Config struct {
	Enabled               bool   `toml:"enabled"`
	SourceURL             string `toml:"source_url"`
	PollIntervalSeconds   int    `toml:"poll_interval_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// State is one simulator snapshot.
type State struct {
	OnGround    bool      `json:"on_ground"`
	GroundSpeed float64   `json:"ground_speed_kts"`
	AltitudeFt  float64   `json:"altitude_ft"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Change is a significant state transition. Previous is nil on the first
// fix. Suggested is nil when the transition implies no phase change.
type Change struct {
	Previous  *State
	Current   State
	Suggested *flight.Phase
}

// ChangeFunc receives significant telemetry changes.
type ChangeFunc func(Change)

// Speed gates for surface movement, in knots.
const (
	taxiSpeedKts   = 5.0
	takeoffRollKts = 40.0
)

// Thresholds below which a diff is jitter, not a change.
const (
	speedDeltaKts   = 5.0
	altitudeDeltaFt = 100.0
)

// Poller fetches simulator state on an interval and reports changes.
type Poller struct {
	ctx    context.Context
	cancel context.CancelFunc

	config     Config
	interval   time.Duration
	httpClient *http.Client
	onChange   ChangeFunc
	logger     *logger.Logger
	wg         sync.WaitGroup

	mu   sync.RWMutex
	last *State
}

// NewPoller creates a telemetry poller.
func NewPoller(ctx context.Context, config Config, onChange ChangeFunc, log *logger.Logger) *Poller {
	pollCtx, cancel := context.WithCancel(ctx)

	interval := time.Duration(config.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	timeout := time.Duration(config.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Poller{
		ctx:        pollCtx,
		cancel:     cancel,
		config:     config,
		interval:   interval,
		httpClient: &http.Client{Timeout: timeout},
		onChange:   onChange,
		logger:     log.Named("telemetry"),
	}
}

// Start starts the polling loop.
func (p *Poller) Start() error {
	if !p.config.Enabled {
		p.logger.Info("Telemetry polling is disabled, not starting")
		return nil
	}
	if p.config.SourceURL == "" {
		return fmt.Errorf("telemetry enabled but no source URL configured")
	}

	p.logger.Info("Starting telemetry polling",
		logger.String("url", p.config.SourceURL),
		logger.Duration("interval", p.interval))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.ctx.Done():
				p.logger.Info("Telemetry polling stopped")
				return
			case <-ticker.C:
				if err := p.pollOnce(p.ctx); err != nil {
					p.logger.Warn("Telemetry poll failed", logger.Error(err))
				}
			}
		}
	}()
	return nil
}

// Stop stops the polling loop and waits for it to exit.
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Last returns a copy of the most recent state, if any.
func (p *Poller) Last() (State, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return State{}, false
	}
	return *p.last, true
}

func (p *Poller) pollOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch simulator state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	cur := State{
		OnGround:    gjson.GetBytes(body, "on_ground").Bool(),
		GroundSpeed: gjson.GetBytes(body, "ground_speed_kts").Float(),
		AltitudeFt:  gjson.GetBytes(body, "altitude_ft").Float(),
		FetchedAt:   time.Now().UTC(),
	}

	p.mu.Lock()
	prev := p.last
	p.last = &cur
	p.mu.Unlock()

	change, ok := detect(prev, cur)
	if !ok {
		return nil
	}

	if change.Suggested != nil {
		p.logger.Info("Telemetry suggests phase change",
			logger.String("phase", change.Suggested.String()),
			logger.Bool("on_ground", cur.OnGround),
			logger.Float64("ground_speed_kts", cur.GroundSpeed))
	}
	if p.onChange != nil {
		p.onChange(change)
	}
	return nil
}

// detect reports whether the transition from prev to cur is worth telling
// the session about. The first fix is always reported.
func detect(prev *State, cur State) (Change, bool) {
	if prev == nil {
		return Change{Current: cur}, true
	}
	if !significant(prev, cur) {
		return Change{}, false
	}

	change := Change{Previous: prev, Current: cur}
	if phase, ok := SuggestPhase(prev, cur); ok {
		change.Suggested = &phase
	}
	return change, true
}

func significant(prev *State, cur State) bool {
	if prev.OnGround != cur.OnGround {
		return true
	}
	if math.Abs(cur.GroundSpeed-prev.GroundSpeed) >= speedDeltaKts {
		return true
	}
	return math.Abs(cur.AltitudeFt-prev.AltitudeFt) >= altitudeDeltaFt
}

// SuggestPhase maps a state transition to the flight phase it implies.
// Whether the flight may actually enter that phase is the caller's call,
// gated by flight.Phase.CanAdvance.
func SuggestPhase(prev *State, cur State) (flight.Phase, bool) {
	if prev == nil {
		return 0, false
	}
	switch {
	case prev.OnGround && !cur.OnGround:
		return flight.PhaseClimb, true
	case !prev.OnGround && cur.OnGround:
		return flight.PhaseTaxiIn, true
	case cur.OnGround && cur.GroundSpeed >= takeoffRollKts && prev.GroundSpeed < takeoffRollKts:
		return flight.PhaseLineupTakeoff, true
	case cur.OnGround && cur.GroundSpeed >= taxiSpeedKts && prev.GroundSpeed < taxiSpeedKts:
		return flight.PhaseTaxiOut, true
	}
	return 0, false
}
