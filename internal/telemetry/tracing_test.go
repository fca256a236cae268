package telemetry

import (
	"context"
	"testing"

	"github.com/beemailley/final-project-backend-bm/internal/config"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TracingConfig
	}{
		{"sample rate above one", config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: 1.5}},
		{"negative sample rate", config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: -0.1}},
		{"unknown exporter", config.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRate: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitTracing(context.Background(), tt.cfg, "test")
			require.Error(t, err)
		})
	}
}

func TestInitTracing_NoneExporterInstallsProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled:     true,
		Exporter:    "none",
		ServiceName: "meetup-test",
		SampleRate:  1,
	}, "test")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, shutdown(context.Background()))
}
