package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for sync runs. They are only
// exposed in serve mode, where the /metrics endpoint exists.
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	ComprobantesFetched prometheus.Counter
	ComprobantesNew     prometheus.Counter
	RunDuration         prometheus.Histogram
	LastSuccess         prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "comprobantes_sync_runs_total",
			Help: "Total number of sync runs by outcome",
		}, []string{"status"}),
		ComprobantesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comprobantes_fetched_total",
			Help: "Total number of comprobantes fetched from the portal",
		}),
		ComprobantesNew: promauto.NewCounter(prometheus.CounterOpts{
			Name: "comprobantes_new_total",
			Help: "Total number of new comprobantes persisted",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "comprobantes_sync_run_duration_seconds",
			Help:    "Duration of sync runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		LastSuccess: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "comprobantes_sync_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful sync run",
		}),
	}
}
