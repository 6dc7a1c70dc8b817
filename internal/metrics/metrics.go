// Package metrics holds the Prometheus collectors the service exports.
// Collectors work unregistered, so packages can use them freely; main
// registers them once on the default registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "campusinsight"

var (
	EventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Total number of interaction events accepted, by kind.",
		},
		[]string{"kind"},
	)

	EventsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Total number of interaction events dropped during ingest, by reason.",
		},
		[]string{"reason"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_lookups_total",
			Help:      "Analytics report cache lookups, by result (hit or miss).",
		},
		[]string{"result"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent computing an analytics report for one batch.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Event store failures, by operation.",
		},
		[]string{"op"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{EventsIngested, EventsRejected, CacheLookups, AnalysisDuration, StoreErrors} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
