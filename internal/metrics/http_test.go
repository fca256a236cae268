package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "static path",
			input:    "/events",
			expected: "/events",
		},
		{
			name:     "single param",
			input:    "/events/{eventId}",
			expected: "/events/{param}",
		},
		{
			name:     "multiple params",
			input:    "/events/{eventId}/attendees/{attendeeUserId}",
			expected: "/events/{param}/attendees/{param}",
		},
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "non-path input",
			input:    "events/{id}",
			expected: "events/{id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.input)
			if got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /events/{eventId}", HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/events/01ARZ3NDEKTSV4RRFFQ69G5FAV", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/events/{param}", "200"))
	if got < 1 {
		t.Fatalf("expected request counted under the route pattern, got %v", got)
	}
}
