// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Race metrics
	RacesSimulated *prometheus.CounterVec
	LapsSimulated  prometheus.Counter
	RaceDuration   prometheus.Histogram
	RacesInFlight  prometheus.Gauge

	// Lap event metrics
	Overtakes *prometheus.CounterVec
	PitStops  prometheus.Counter

	// Model metrics
	SamplerSources     *prometheus.CounterVec
	SamplerViolations  prometheus.Counter
	RunPersistFailures prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics registers all metrics with reg. A nil reg uses a fresh registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "f1sim"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RacesSimulated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "race",
			Name:      "races_total",
			Help:      "Total number of simulated races by outcome",
		}, []string{"status"}),
		LapsSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "race",
			Name:      "laps_total",
			Help:      "Total number of laps advanced",
		}),
		RaceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "race",
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock time spent simulating one race",
			Buckets:   prometheus.DefBuckets,
		}),
		RacesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "race",
			Name:      "in_flight",
			Help:      "Races currently being simulated",
		}),

		Overtakes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lap",
			Name:      "overtake_attempts_total",
			Help:      "Overtake attempts by outcome",
		}, []string{"outcome"}),
		PitStops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lap",
			Name:      "pit_stops_total",
			Help:      "Total number of simulated pit stops",
		}),

		SamplerSources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "sampler_sources_total",
			Help:      "Entrant samplers built, by model source",
		}, []string{"source"}),
		SamplerViolations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "sampler_violations_total",
			Help:      "Races aborted by a sampler returning an invalid value",
		}),
		RunPersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "run_persist_failures_total",
			Help:      "Simulation runs that could not be stored",
		}),

		gatherer: reg,
	}
}

// Handler returns an HTTP handler serving the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
