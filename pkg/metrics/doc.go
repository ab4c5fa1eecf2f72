/*
Package metrics provides Prometheus metrics collection and exposition for
tracewire.

The metrics package defines and registers all tracewire metrics using the
Prometheus client library: inventory gauges (devices, terminations, cables
by status, paths by state), mutation and validation counters, and trace
timing histograms. Metrics are exposed via HTTP endpoint for scraping.

# Metric Groups

Inventory gauges, refreshed by the Collector on a 15 second cycle:

	tracewire_devices_total
	tracewire_terminations_total{type}
	tracewire_cables_total{status}
	tracewire_paths_total{state}          # active / split / partial

Mutation counters, incremented inline by the manager:

	tracewire_cable_mutations_total{operation}
	tracewire_validation_failures_total{kind}
	tracewire_path_recomputes_total
	tracewire_path_recompute_failures_total
	tracewire_trace_loops_total
	tracewire_trace_splits_total

Timings:

	tracewire_trace_duration_seconds
	tracewire_sweep_duration_seconds

# Usage

	timer := metrics.NewTimer()
	result, err := tracer.Trace(origin)
	timer.ObserveDuration(metrics.TraceDuration)

Expose alongside health endpoints:

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
*/
package metrics
