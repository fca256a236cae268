package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecordingTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	exporter := withRecordingTracer(t)

	handler := CorrelationID(zerolog.Nop())(Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "GET /events", span.Name)

	method, ok := attr(span.Attributes, "http.method")
	require.True(t, ok)
	require.Equal(t, "GET", method.AsString())

	status, ok := attr(span.Attributes, "http.status_code")
	require.True(t, ok)
	require.EqualValues(t, 200, status.AsInt64())

	id, ok := attr(span.Attributes, "request_id")
	require.True(t, ok)
	require.Equal(t, "req-42", id.AsString())
	require.NotEqual(t, codes.Error, span.Status.Code)
}

func TestTracing_StatusClasses(t *testing.T) {
	tests := []struct {
		status    int
		wantError bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			exporter := withRecordingTracer(t)
			handler := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/x", nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			code, ok := attr(spans[0].Attributes, "http.status_code")
			require.True(t, ok)
			require.EqualValues(t, tt.status, code.AsInt64())
			require.Equal(t, tt.wantError, spans[0].Status.Code == codes.Error)
		})
	}
}
