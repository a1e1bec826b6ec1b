package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the experiment server.
type Metrics struct {
	EventsDelivered *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics. Registration is
// process-wide, so the same instance is shared across callers.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			EventsDelivered: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hiringtask_telemetry_events_delivered_total",
					Help: "Telemetry events delivered to the logging sink",
				},
				[]string{"event_type"},
			),
			EventsDropped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hiringtask_telemetry_events_dropped_total",
					Help: "Telemetry events dropped because delivery failed or logging is disabled",
				},
				[]string{"event_type"},
			),
			SessionsStarted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "hiringtask_sessions_started_total",
					Help: "Participant sessions created",
				},
			),
			SessionsEnded: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "hiringtask_sessions_ended_total",
					Help: "Participant sessions completed",
				},
			),
		}
	})
	return sharedMetrics
}
