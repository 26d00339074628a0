package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mt5-market-hub/src/aggregator"
	"mt5-market-hub/src/analysis"
	"mt5-market-hub/src/helpers"
	"mt5-market-hub/src/logger"
	"mt5-market-hub/src/models"
	"mt5-market-hub/src/poller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type emptyStore struct {
	symbols []string
	pingErr error
}

func (s *emptyStore) GetBars(ctx context.Context, symbol, timeframe string) ([]models.MOHLCBar, error) {
	return nil, helpers.ErrCacheKeyMissing
}

func (s *emptyStore) GetLevels(ctx context.Context, symbol, timeframe string) (*models.MLevelSet, error) {
	return nil, helpers.ErrCacheKeyMissing
}

func (s *emptyStore) GetPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, helpers.ErrCacheKeyMissing
}

func (s *emptyStore) GetPrediction(ctx context.Context, symbol, timeframe string) (*models.MPrediction, error) {
	return nil, helpers.ErrCacheKeyMissing
}

func (s *emptyStore) GetEvents(ctx context.Context) ([]models.MFundamentalEvent, error) {
	return nil, helpers.ErrCacheKeyMissing
}

func (s *emptyStore) ListSymbols(ctx context.Context) ([]string, error) {
	if s.symbols == nil {
		return nil, helpers.ErrCacheUnavailable
	}
	return s.symbols, nil
}

func (s *emptyStore) GetSystemStatus(ctx context.Context) (map[string]string, error) {
	return nil, helpers.ErrCacheKeyMissing
}

func (s *emptyStore) SetLatestTick(ctx context.Context, tick models.MTick) error { return nil }

func (s *emptyStore) Ping(ctx context.Context) error { return s.pingErr }

// -----------------------------------------------------------------------------

type quietFeed struct {
	pingErr error
}

func (f *quietFeed) LatestTick(ctx context.Context, symbol string) (*models.MTick, error) {
	return nil, nil
}

func (f *quietFeed) Ping(ctx context.Context) error { return f.pingErr }

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func newTestServer(store *emptyStore, feed *quietFeed) *APIServer {
	cfg := &models.MConfig{
		Name:     "test",
		LogLevel: "ERROR",
		Feed: models.MFeedConfig{
			Symbols:        []string{"EURUSD", "GBPUSD"},
			PollIntervalMs: 5,
		},
	}
	log := logger.NewLogger("ERROR", "test")
	detector := analysis.NewLevelDetector(models.MLevelsConfig{Margin: 10, MaxLevels: 5, MinPipsDistance: 10})
	synthetic := analysis.NewSyntheticGenerator(models.MSyntheticConfig{Bars: 100}, detector)
	agg := aggregator.NewAggregator(store, detector, synthetic, log)
	return NewAPIServer(cfg, agg, store, feed, log)
}

func doRequest(s *APIServer, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.engine.ServeHTTP(w, req)
	return w
}

// -----------------------------------------------------------------------------

func TestDataEndpointSyntheticFallback(t *testing.T) {
	s := newTestServer(&emptyStore{}, &quietFeed{})

	w := doRequest(s, http.MethodGet, "/api/data/EURUSD/15")

	require.Equal(t, http.StatusOK, w.Code)

	var snap models.MSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Success)
	assert.Len(t, snap.OHLC, 100)
	assert.NotEmpty(t, snap.Prediction.Action)
}

// -----------------------------------------------------------------------------

func TestDataEndpointRejectsBadRequest(t *testing.T) {
	s := newTestServer(&emptyStore{}, &quietFeed{})

	for _, path := range []string{"/api/data/EU/15", "/api/data/EURUSD/7"} {
		w := doRequest(s, http.MethodGet, path)

		require.Equal(t, http.StatusBadRequest, w.Code, path)

		var snap models.MSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.False(t, snap.Success, path)
		assert.NotEmpty(t, snap.Error, path)
	}
}

// -----------------------------------------------------------------------------

func TestSymbolsEndpoint(t *testing.T) {
	s := newTestServer(&emptyStore{symbols: []string{"EURUSD", "USDJPY"}}, &quietFeed{})

	w := doRequest(s, http.MethodGet, "/api/symbols")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Symbols []string `json:"symbols"`
		Count   int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"EURUSD", "USDJPY"}, body.Symbols)
	assert.Equal(t, 2, body.Count)
}

// -----------------------------------------------------------------------------

func TestSymbolsEndpointFallsBackToConfig(t *testing.T) {
	// Cache down: the configured universe is served instead.
	s := newTestServer(&emptyStore{}, &quietFeed{})

	w := doRequest(s, http.MethodGet, "/api/symbols")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, body.Symbols)
}

// -----------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name    string
		storeUp bool
		feedUp  bool
		want    string
	}{
		{"all up", true, true, "healthy"},
		{"cache down", false, true, "degraded"},
		{"feed down", true, false, "degraded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &emptyStore{}
			feed := &quietFeed{}
			if !tc.storeUp {
				store.pingErr = helpers.ErrCacheUnavailable
			}
			if !tc.feedUp {
				feed.pingErr = errors.New("terminal gone")
			}
			s := newTestServer(store, feed)

			w := doRequest(s, http.MethodGet, "/api/health")

			require.Equal(t, http.StatusOK, w.Code)

			var health models.MHealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
			assert.Equal(t, tc.want, health.Status)
			assert.Equal(t, tc.storeUp, health.Cache)
			assert.Equal(t, tc.feedUp, health.Feed)
		})
	}
}

// -----------------------------------------------------------------------------

func TestStartStopEndpoints(t *testing.T) {
	s := newTestServer(&emptyStore{}, &quietFeed{})

	p := poller.NewTickPoller(s.Config, &quietFeed{}, s, nil, nil, s.Logger)
	var wg sync.WaitGroup
	s.AttachPoller(p, context.Background(), &wg)

	// Not running yet.
	w := doRequest(s, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	var status models.MStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Running)
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, status.TrackedSymbols)

	// Start, then a second start conflicts.
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodPost, "/api/start").Code)
	assert.Equal(t, http.StatusConflict, doRequest(s, http.MethodPost, "/api/start").Code)

	w = doRequest(s, http.MethodGet, "/api/status")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Running)

	// Stop, then a second stop conflicts.
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodPost, "/api/stop").Code)
	assert.Equal(t, http.StatusConflict, doRequest(s, http.MethodPost, "/api/stop").Code)
	wg.Wait()
}

// -----------------------------------------------------------------------------

func TestStatusWithoutPoller(t *testing.T) {
	s := newTestServer(&emptyStore{}, &quietFeed{})

	w := doRequest(s, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)

	// Control endpoints refuse until a poller is attached.
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(s, http.MethodPost, "/api/start").Code)
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(s, http.MethodPost, "/api/stop").Code)
}
