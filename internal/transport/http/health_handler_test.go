package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labpulse/internal/services"
	"labpulse/internal/shared/testutil"
	"labpulse/pkg/contracts"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name       string
		status     services.DatasetStatus
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "health", path: "/", wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "live", path: "/live", wantStatus: http.StatusOK, wantBody: "alive"},
		{name: "ready", path: "/ready", status: services.DatasetStatus{Loaded: true, LoadedAt: time.Now()}, wantStatus: http.StatusOK, wantBody: "ready"},
		{name: "not ready", path: "/ready", wantStatus: http.StatusServiceUnavailable, wantBody: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &services.MockDatasetProvider{}
			provider.On("Status").Return(tt.status).Maybe()

			hs := services.NewHealthService(t.TempDir(), provider, logger)
			rec := serve(NewHealthHandler(hs, logger).Routes(), http.MethodGet, tt.path)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Status)
			assert.Equal(t, contracts.Version, body.Version)
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	hs := services.NewHealthService(t.TempDir(), nil, nil)
	h := NewHealthHandler(hs, nil)

	rec := serve(http.HandlerFunc(h.Version), http.MethodGet, "/api/version")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, contracts.Version, body["version"])
	assert.Equal(t, contracts.APIVersion, body["api_version"])
}
