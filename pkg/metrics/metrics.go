package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Inventory metrics
	DevicesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracewire_devices_total",
			Help: "Total number of devices",
		},
	)

	TerminationsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracewire_terminations_total",
			Help: "Total number of terminations by type",
		},
		[]string{"type"},
	)

	CablesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracewire_cables_total",
			Help: "Total number of cables by status",
		},
		[]string{"status"},
	)

	PathsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracewire_paths_total",
			Help: "Total number of materialized cable paths by state",
		},
		[]string{"state"},
	)

	// Mutation metrics
	CableMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracewire_cable_mutations_total",
			Help: "Total number of cable mutations by operation",
		},
		[]string{"operation"},
	)

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracewire_validation_failures_total",
			Help: "Total number of rejected cable mutations by failure kind",
		},
		[]string{"kind"},
	)

	// Tracing metrics
	TraceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracewire_trace_duration_seconds",
			Help:    "Time taken to trace a path in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PathRecomputesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracewire_path_recomputes_total",
			Help: "Total number of cable path recomputations",
		},
	)

	PathRecomputeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracewire_path_recompute_failures_total",
			Help: "Total number of failed cable path recomputations",
		},
	)

	TraceLoopsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracewire_trace_loops_total",
			Help: "Total number of traces that detected a cable loop",
		},
	)

	TraceSplitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracewire_trace_splits_total",
			Help: "Total number of traces that ended in an ambiguous split",
		},
	)

	// Sweep metrics
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracewire_sweep_duration_seconds",
			Help:    "Path consistency sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracewire_sweep_cycles_total",
			Help: "Total number of path consistency sweep cycles",
		},
	)

	SweepRepairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracewire_sweep_repairs_total",
			Help: "Total number of stale paths repaired by the sweeper",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(DevicesTotal)
	prometheus.MustRegister(TerminationsTotal)
	prometheus.MustRegister(CablesTotal)
	prometheus.MustRegister(PathsTotal)
	prometheus.MustRegister(CableMutationsTotal)
	prometheus.MustRegister(ValidationFailuresTotal)
	prometheus.MustRegister(TraceDuration)
	prometheus.MustRegister(PathRecomputesTotal)
	prometheus.MustRegister(PathRecomputeFailuresTotal)
	prometheus.MustRegister(TraceLoopsTotal)
	prometheus.MustRegister(TraceSplitsTotal)
	prometheus.MustRegister(SweepDuration)
	prometheus.MustRegister(SweepCyclesTotal)
	prometheus.MustRegister(SweepRepairsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
