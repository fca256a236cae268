package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	Init("v1.0.0", "abc123", "2026-01-30", "memory")

	if testutil.CollectAndCount(AppInfo) == 0 {
		t.Error("AppInfo metric should be registered")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wrapped := HTTPMiddleware(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if testutil.CollectAndCount(HTTPRequestsTotal) == 0 {
		t.Error("HTTPRequestsTotal should have recorded at least one request")
	}
	if testutil.CollectAndCount(HTTPRequestDuration) == 0 {
		t.Error("HTTPRequestDuration should have recorded at least one request")
	}
}

func TestHTTPMiddlewareStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Bad Request", http.StatusBadRequest},
		{"Internal Server Error", http.StatusInternalServerError},
		{"Unauthorized", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			wrapped := HTTPMiddleware(handler)
			req := httptest.NewRequest("GET", "/test", nil)
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("Expected status %d, got %d", tt.statusCode, rec.Code)
			}
		})
	}
}

func TestDBCollector(t *testing.T) {
	// A nil pool is tolerated so the collector can run for any driver.
	collector := NewDBCollector(nil)
	collector.collect()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := collector.Run(ctx, time.Millisecond); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(EventOperationsTotal.WithLabelValues("join", "conflict"))
	RecordEvent("join", "conflict")
	if got := testutil.ToFloat64(EventOperationsTotal.WithLabelValues("join", "conflict")); got != before+1 {
		t.Errorf("expected join conflict counter to increase by 1, got %v -> %v", before, got)
	}

	RecordAuth("login", "rejected")
	if testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues("login", "rejected")) < 1 {
		t.Error("expected login rejection to be counted")
	}

	RecordHealthCheck("store", true, 3)
	if got := testutil.ToFloat64(HealthCheckStatus.WithLabelValues("store")); got != 2 {
		t.Errorf("expected pass to be recorded as 2, got %v", got)
	}
}

func TestResponseWriterStatusCode(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	_, _ = rw.Write([]byte("test"))

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", rw.statusCode)
	}
}

func TestResponseWriterBytesWritten(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	content := []byte("Hello, World!")
	_, _ = rw.Write(content)

	if rw.bytesWritten != len(content) {
		t.Errorf("Expected %d bytes written, got %d", len(content), rw.bytesWritten)
	}
}
