package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labpulse/internal/config"
	"labpulse/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Analysis.InputDir = t.TempDir()
	cfg.Analysis.OutputDir = t.TempDir()
	cfg.Analysis.WatchInputs = false
	cfg.Analysis.Workers = 2
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) (*Application, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.cache.Stop()
		_ = a.OTelProviders.Shutdown(context.Background())
	})
	return a, handler
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func TestNew_RoutesWithoutDataset(t *testing.T) {
	a, _ := newTestApplication(t, testConfig(t))

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "health", path: "/api/health", wantStatus: http.StatusOK},
		{name: "liveness", path: "/api/health/live", wantStatus: http.StatusOK},
		{name: "readiness before load", path: "/api/health/ready", wantStatus: http.StatusServiceUnavailable},
		{name: "version", path: "/api/version", wantStatus: http.StatusOK},
		{name: "status", path: "/api/v1/analysis/status", wantStatus: http.StatusOK},
		{name: "summary before load", path: "/api/v1/analysis/profile-summary?profile=P1", wantStatus: http.StatusServiceUnavailable},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK},
		{name: "unknown route", path: "/api/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(a, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestNew_MethodNotAllowed(t *testing.T) {
	a, _ := newTestApplication(t, testConfig(t))

	w := serve(a, httptest.NewRequest(http.MethodDelete, "/api/version", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestApplication_AnalysisAfterReload(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteInputFile(t, cfg.Analysis.InputDir, "runs.csv", testutil.RunsCSV)
	a, _ := newTestApplication(t, cfg)

	require.NoError(t, a.Analysis.Reload(context.Background()))

	w := serve(a, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/profile-summary?profile=P1", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/trend?profile=P1&format=csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Month")

	w = serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "labpulse_dataset_loads_total")
}

func TestApplication_Middleware(t *testing.T) {
	a, _ := newTestApplication(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("X-Request-ID", "req-42")
	w := serve(a, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit.RPS = 0.001
	cfg.Security.RateLimit.Burst = 1
	a, _ := newTestApplication(t, cfg)

	first := serve(a, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	second := serve(a, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.WatchInputs = true
	cfg.Analysis.LoadOnStart = true
	testutil.WriteInputFile(t, cfg.Analysis.InputDir, "runs.csv", testutil.RunsCSV)

	logger, handler := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))
	assert.True(t, a.Analysis.Ready())
	assert.Equal(t, 5, a.Analysis.Status().Records)

	require.NoError(t, a.Stop(context.Background()))
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Application shutdown complete")
}

func TestApplication_StartWithEmptyInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.LoadOnStart = true

	logger, handler := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))
	assert.False(t, a.Analysis.Ready())
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Initial dataset load failed")

	require.NoError(t, a.Stop(context.Background()))
}
