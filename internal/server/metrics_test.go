package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtaskall/gtaskall/internal/instrumentation"
)

func TestNewMetricsServerRequiresProvider(t *testing.T) {
	_, err := NewMetricsServer(MetricsServerConfig{})
	require.Error(t, err)

	disabled, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)
	_, err = NewMetricsServer(MetricsServerConfig{InstrumentationProvider: disabled})
	require.Error(t, err, "a disabled provider has no metrics to serve")
}

func TestNewMetricsServerDefaults(t *testing.T) {
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterStdout,
	})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	srv, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricsAddr, srv.Addr())
}

func TestHealthEndpoints(t *testing.T) {
	health := NewHealthChecker()
	mux := http.NewServeMux()
	health.RegisterHealthEndpoints(mux)

	get := func(path string) (*httptest.ResponseRecorder, HealthResponse) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec, body
	}

	// Liveness is green from the start.
	rec, body := get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status)

	// Readiness starts red until startup completes.
	rec, body = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body.Checks["ready"])

	health.SetReady(true)
	rec, body = get("/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status)

	// Shutdown fails readiness while liveness stays green.
	health.SetShuttingDown()
	rec, body = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutting down", body.Checks["shutdown"])

	rec, _ = get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDetailedHealthHandler(t *testing.T) {
	health := NewHealthChecker()
	health.SetReady(true)

	rec := httptest.NewRecorder()
	health.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Uptime)
}
