package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beemailley/final-project-backend-bm/internal/metrics"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/beemailley/final-project-backend-bm/internal/storage/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// downStore is a store whose ping always fails.
type downStore struct {
	*memory.Store
}

func (downStore) Ping(context.Context) error {
	return storage.Unavailable(errors.New("connection refused"))
}

func TestHealthCheck_MemoryStoreHealthy(t *testing.T) {
	checker := NewHealthChecker(memory.NewStore(), nil, "memory", "0.1.0", "test-commit", "test")

	w := httptest.NewRecorder()
	checker.Health().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response HealthCheck
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "0.1.0", response.Version)
	assert.Equal(t, "memory", response.Driver)
	require.Contains(t, response.Checks, "store")
	assert.Equal(t, "pass", response.Checks["store"].Status)
	assert.NotContains(t, response.Checks, "migrations")
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.HealthStatus))
}

func TestHealthCheck_StoreDown(t *testing.T) {
	checker := NewHealthChecker(downStore{memory.NewStore()}, nil, "mongo", "0.1.0", "test-commit", "test")

	w := httptest.NewRecorder()
	checker.Health().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var response HealthCheck
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "unhealthy", response.Status)
	assert.Equal(t, "fail", response.Checks["store"].Status)
	assert.Contains(t, response.Checks["store"].Details["error"], "connection refused")
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.HealthStatus))
}

func TestHealthCheck_ProductionHidesErrorDetail(t *testing.T) {
	checker := NewHealthChecker(downStore{memory.NewStore()}, nil, "mongo", "0.1.0", "", "production")

	w := httptest.NewRecorder()
	checker.Health().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestHealthCheck_CancelledRequest(t *testing.T) {
	checker := NewHealthChecker(memory.NewStore(), nil, "memory", "", "", "test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	checker.Health().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "shutting_down")
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		store  storage.Store
		status int
		body   string
	}{
		{"store reachable", memory.NewStore(), http.StatusOK, "ready"},
		{"store down", downStore{memory.NewStore()}, http.StatusServiceUnavailable, "unavailable"},
		{"no store", nil, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.store, nil, "memory", "", "", "test")
			w := httptest.NewRecorder()
			checker.Readyz().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	Healthz().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
