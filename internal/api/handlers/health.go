package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/config"
	"github.com/beemailley/final-project-backend-bm/internal/metrics"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Driver    string                 `json:"driver"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker reports store connectivity. pool is set only for the
// postgres driver and adds pool statistics and the migration state.
type HealthChecker struct {
	store     storage.Store
	pool      *pgxpool.Pool
	driver    string
	version   string
	gitCommit string
	env       string
}

func NewHealthChecker(store storage.Store, pool *pgxpool.Pool, driver, version, gitCommit, env string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		pool:      pool,
		driver:    driver,
		version:   version,
		gitCommit: gitCommit,
		env:       env,
	}
}

// Health returns a detailed health report.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"store": h.checkStore(ctx),
		}
		if h.pool != nil {
			checks["migrations"] = h.checkMigrations(ctx)
		}

		overallStatus := "healthy"
		statusCode := http.StatusOK
		for name, check := range checks {
			metrics.RecordHealthCheck(name, check.Status == "pass", check.LatencyMs)
			if check.Status == "fail" {
				overallStatus = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}
		if statusCode == http.StatusOK {
			metrics.HealthStatus.Set(2)
		} else {
			metrics.HealthStatus.Set(0)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Driver:    h.driver,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Readyz reports ready only while the store answers a ping.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if h.store == nil || h.store.Ping(ctx) != nil {
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

func (h *HealthChecker) checkStore(ctx context.Context) CheckResult {
	start := time.Now()
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Store not initialized"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.store.Ping(pingCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		result := CheckResult{
			Status:    "fail",
			Message:   "Store ping failed",
			LatencyMs: latency,
		}
		if config.IsDevelopment(h.env) {
			result.Details = map[string]any{"error": err.Error()}
		}
		return result
	}

	result := CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("%s store reachable", h.driver),
		LatencyMs: latency,
	}
	if h.pool != nil {
		stats := h.pool.Stat()
		result.Details = map[string]any{
			"max_connections":      stats.MaxConns(),
			"total_connections":    stats.TotalConns(),
			"idle_connections":     stats.IdleConns(),
			"acquired_connections": stats.AcquiredConns(),
		}
	}
	return result
}

// checkMigrations verifies the schema is not left in a dirty state.
func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	start := time.Now()

	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var version int64
	var dirty bool
	err := h.pool.QueryRow(migCtx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "Failed to query migration version",
			LatencyMs: latency,
			Details:   map[string]any{"remediation": "Run: server migrate up"},
		}
	}
	if dirty {
		return CheckResult{
			Status:    "fail",
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details:   map[string]any{"version": version, "dirty": true},
		}
	}
	return CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("Migrations applied successfully (version %d)", version),
		LatencyMs: latency,
		Details:   map[string]any{"version": version, "dirty": false},
	}
}

// Healthz returns a lightweight liveness response.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
