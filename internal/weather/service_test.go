package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

const (
	metarEGPH = "EGPH 251020Z 24008KT 9999 FEW025 14/09 Q1021"
	tafEGPH   = "EGPH 250900Z 2510/2609 23010KT 9999 SCT030"
)

func newWeatherServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/metar", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		station := r.URL.Query().Get("ids")
		fmt.Fprintf(w, `[{"icaoId":%q,"rawOb":"%s 251020Z 24008KT 9999 FEW025 14/09 Q1021"}]`, station, station)
	})
	mux.HandleFunc("/taf", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		station := r.URL.Query().Get("ids")
		fmt.Fprintf(w, `[{"icaoId":%q,"rawTAF":"%s 250900Z 2510/2609 23010KT 9999 SCT030"}]`, station, station)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.APIBaseURL = baseURL
	cfg.MaxRetries = 0
	return NewService(cfg, log)
}

func TestSnapshotsFetchMetarAndTaf(t *testing.T) {
	var requests atomic.Int64
	server := newWeatherServer(t, &requests)
	s := newTestService(t, server.URL)

	snaps := s.Snapshots(context.Background(), "EGPH", "EGKK")

	require.Len(t, snaps, 2)
	require.NotNil(t, snaps["EGPH"])
	assert.Equal(t, metarEGPH, snaps["EGPH"].METAR)
	assert.Equal(t, tafEGPH, snaps["EGPH"].TAF)
	assert.Empty(t, snaps["EGPH"].FetchErrors)
	assert.Contains(t, snaps["EGKK"].METAR, "EGKK")
	assert.Equal(t, int64(4), requests.Load())
}

func TestSnapshotsServeFromCache(t *testing.T) {
	var requests atomic.Int64
	server := newWeatherServer(t, &requests)
	s := newTestService(t, server.URL)

	first := s.Snapshots(context.Background(), "EGPH")
	second := s.Snapshots(context.Background(), "EGPH")

	assert.Equal(t, int64(2), requests.Load())
	assert.Same(t, first["EGPH"], second["EGPH"])
}

func TestSnapshotsRefreshAfterExpiry(t *testing.T) {
	var requests atomic.Int64
	server := newWeatherServer(t, &requests)
	s := newTestService(t, server.URL)
	s.expiry = -time.Minute

	s.Snapshots(context.Background(), "EGPH")
	s.Snapshots(context.Background(), "EGPH")

	assert.Equal(t, int64(4), requests.Load())
}

func TestSnapshotsDegradeOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	s := newTestService(t, server.URL)

	snaps := s.Snapshots(context.Background(), "EGPH")

	require.NotNil(t, snaps["EGPH"])
	assert.Empty(t, snaps["EGPH"].METAR)
	assert.Empty(t, snaps["EGPH"].TAF)
	assert.Len(t, snaps["EGPH"].FetchErrors, 2)
}

func TestSnapshotsSkipBlankAndDuplicateStations(t *testing.T) {
	var requests atomic.Int64
	server := newWeatherServer(t, &requests)
	s := newTestService(t, server.URL)

	snaps := s.Snapshots(context.Background(), "EGPH", "", "egph", "  ")

	require.Len(t, snaps, 1)
	assert.NotNil(t, snaps["EGPH"])
	assert.Equal(t, int64(2), requests.Load())
}

func TestSnapshotsNoStations(t *testing.T) {
	s := newTestService(t, "http://127.0.0.1:0")
	assert.Nil(t, s.Snapshots(context.Background()))
}

func TestFetchTafDisabled(t *testing.T) {
	var requests atomic.Int64
	server := newWeatherServer(t, &requests)

	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.APIBaseURL = server.URL
	cfg.FetchTAF = false
	s := NewService(cfg, log)

	snaps := s.Snapshots(context.Background(), "EGPH")

	assert.Equal(t, metarEGPH, snaps["EGPH"].METAR)
	assert.Empty(t, snaps["EGPH"].TAF)
	assert.Equal(t, int64(1), requests.Load())
}
