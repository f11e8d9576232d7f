// Package weather fetches METAR and TAF for the stations a flight cares
// about. Fetch failures degrade to an empty snapshot with the errors
// recorded; weather is briefing material, never a reason to refuse a turn.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Config represents the weather service configuration.
type Config struct {
	APIBaseURL            string `toml:"api_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	MaxRetries            int    `toml:"max_retries"`
	FetchMETAR            bool   `toml:"fetch_metar"`
	FetchTAF              bool   `toml:"fetch_taf"`
	CacheExpiryMinutes    int    `toml:"cache_expiry_minutes"`
}

// DefaultConfig returns the default weather configuration.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:            "https://aviationweather.gov/api/data",
		RequestTimeoutSeconds: 10,
		MaxRetries:            2,
		FetchMETAR:            true,
		FetchTAF:              true,
		CacheExpiryMinutes:    15,
	}
}

type cacheEntry struct {
	snapshot  *flight.WeatherSnapshot
	expiresAt time.Time
}

// Service fetches and caches per-station weather snapshots.
type Service struct {
	config     Config
	httpClient *http.Client
	expiry     time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	logger *logger.Logger
}

// NewService creates a weather service.
func NewService(config Config, log *logger.Logger) *Service {
	expiry := time.Duration(config.CacheExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	timeout := time.Duration(config.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Service{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		expiry:     expiry,
		cache:      make(map[string]cacheEntry),
		logger:     log.Named("weather"),
	}
}

// Snapshots returns the weather for the given stations, fetching whatever is
// missing or expired concurrently. Every requested station gets an entry;
// a station that failed to fetch gets an empty snapshot with the errors
// recorded.
func (s *Service) Snapshots(ctx context.Context, stations ...string) map[string]*flight.WeatherSnapshot {
	wanted := uniqueStations(stations)
	if len(wanted) == 0 {
		return nil
	}

	var eg errgroup.Group
	for _, icao := range wanted {
		if _, ok := s.cached(icao); ok {
			continue
		}
		icao := icao
		eg.Go(func() error {
			s.refresh(ctx, icao)
			return nil
		})
	}
	// Refresh goroutines record their own failures, so Wait never errors.
	_ = eg.Wait()

	out := make(map[string]*flight.WeatherSnapshot, len(wanted))
	for _, icao := range wanted {
		if snap, ok := s.lookup(icao); ok {
			out[icao] = snap
		}
	}
	return out
}

// cached reports a station whose snapshot is still fresh.
func (s *Service) cached(icao string) (*flight.WeatherSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[icao]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.snapshot, true
}

// lookup returns whatever snapshot is held for a station, fresh or stale.
// A stale report beats no report when a refresh just failed.
func (s *Service) lookup(icao string) (*flight.WeatherSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[icao]
	if !ok {
		return nil, false
	}
	return entry.snapshot, true
}

func (s *Service) refresh(ctx context.Context, icao string) {
	snap := &flight.WeatherSnapshot{FetchedAt: time.Now().UTC()}

	if s.config.FetchMETAR {
		metar, err := s.fetch(ctx, "metar", icao, "0.rawOb")
		if err != nil {
			snap.FetchErrors = append(snap.FetchErrors, fmt.Sprintf("metar: %v", err))
			s.logger.Warn("METAR fetch failed", logger.String("station", icao), logger.Error(err))
		} else {
			snap.METAR = metar
		}
	}
	if s.config.FetchTAF {
		taf, err := s.fetch(ctx, "taf", icao, "0.rawTAF")
		if err != nil {
			snap.FetchErrors = append(snap.FetchErrors, fmt.Sprintf("taf: %v", err))
			s.logger.Warn("TAF fetch failed", logger.String("station", icao), logger.Error(err))
		} else {
			snap.TAF = taf
		}
	}

	s.mu.Lock()
	s.cache[icao] = cacheEntry{snapshot: snap, expiresAt: time.Now().Add(s.expiry)}
	s.mu.Unlock()

	s.logger.Debug("Weather refreshed",
		logger.String("station", icao),
		logger.Bool("has_metar", snap.METAR != ""),
		logger.Bool("has_taf", snap.TAF != ""),
		logger.Int("errors", len(snap.FetchErrors)))
}

// fetch performs one GET with retries and extracts the raw report text from
// the JSON array the endpoint returns.
func (s *Service) fetch(ctx context.Context, product, icao, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?ids=%s&format=json",
		strings.TrimRight(s.config.APIBaseURL, "/"), product, url.QueryEscape(icao))

	attempts := s.config.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		body, err := s.get(ctx, endpoint)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return strings.TrimSpace(gjson.GetBytes(body, path).String()), nil
	}
	return "", lastErr
}

func (s *Service) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func uniqueStations(stations []string) []string {
	seen := make(map[string]bool, len(stations))
	out := make([]string, 0, len(stations))
	for _, icao := range stations {
		icao = strings.ToUpper(strings.TrimSpace(icao))
		if icao == "" || seen[icao] {
			continue
		}
		seen[icao] = true
		out = append(out, icao)
	}
	return out
}
