package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all service metrics
const namespace = "meetup"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date", "store_driver"},
)

// HealthStatus tracks overall server health. 0 = unhealthy, 2 = healthy.
var HealthStatus = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_status",
		Help:      "Overall server health status (0=unhealthy, 2=healthy)",
	},
)

// HealthCheckStatus tracks individual health check results. 0 = fail, 2 = pass.
var HealthCheckStatus = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_status",
		Help:      "Individual health check status (0=fail, 2=pass)",
	},
	[]string{"check"},
)

// HealthCheckLatency tracks the latency of individual health checks in milliseconds
var HealthCheckLatency = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_latency_ms",
		Help:      "Health check latency in milliseconds",
	},
	[]string{"check"},
)

// Domain metrics

// AuthAttemptsTotal counts registrations, logins and token checks by outcome.
var AuthAttemptsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts",
	},
	[]string{"operation", "result"}, // operation: register|login|token, result: success|rejected|error
)

// EventOperationsTotal counts event mutations by outcome.
var EventOperationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_operations_total",
		Help:      "Total number of event operations",
	},
	[]string{"operation", "result"}, // operation: create|update|delete|join|leave
)

// StoreUnavailableTotal counts requests that failed on a timed-out or
// disconnected store.
var StoreUnavailableTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_unavailable_total",
		Help:      "Total number of requests failed by an unavailable store",
	},
)

// Init registers runtime collectors and sets version information
func Init(version, commit, buildDate, storeDriver string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate, storeDriver).Set(1)
}

// RecordAuth increments AuthAttemptsTotal.
func RecordAuth(operation, result string) {
	AuthAttemptsTotal.WithLabelValues(operation, result).Inc()
}

// RecordEvent increments EventOperationsTotal.
func RecordEvent(operation, result string) {
	EventOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordHealthCheck publishes one health check result.
func RecordHealthCheck(check string, pass bool, latencyMs int64) {
	value := 0.0
	if pass {
		value = 2
	}
	HealthCheckStatus.WithLabelValues(check).Set(value)
	HealthCheckLatency.WithLabelValues(check).Set(float64(latencyMs))
}
