package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the graph engine.
type Metrics struct {
	BuildsTotal   prometheus.Counter
	BuildFailures prometheus.Counter
	BuildDuration prometheus.Histogram
	EdgeCount     prometheus.Gauge
	Instruments   prometheus.Gauge
}

// NewMetrics registers the graph engine metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a private
// registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "falak_graph_builds_total",
			Help: "Number of market graph model builds.",
		}),
		BuildFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "falak_graph_build_failures_total",
			Help: "Number of refresh cycles that failed to fetch inputs.",
		}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "falak_graph_build_duration_seconds",
			Help:    "Wall time of a full model build.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		EdgeCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "falak_graph_edges",
			Help: "Correlation edges in the latest model.",
		}),
		Instruments: factory.NewGauge(prometheus.GaugeOpts{
			Name: "falak_graph_instruments",
			Help: "Instruments in the latest model.",
		}),
	}
}
