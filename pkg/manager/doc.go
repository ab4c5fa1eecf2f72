/*
Package manager is the mutation engine of tracewire. Every change to the
connectivity graph flows through it, so validation, storage writes, path
recomputation and event publication happen in one place and in one order.

# Architecture

	┌──────────────────────── MANAGER ────────────────────────┐
	│                                                          │
	│  CreateCable / UpdateCable / DeleteCable                 │
	│    1. validate endpoints against the registry            │
	│    2. commit the mutation in one store transaction       │
	│    3. recompute every affected materialized path         │
	│    4. publish events, bump counters                      │
	│                                                          │
	│  Trace              ad-hoc walk, nothing persisted       │
	│  PathForOrigin      single-lookup materialized path      │
	│  ResolvePath        rehydrate node refs into entities    │
	│                                                          │
	└───────────────┬──────────────┬──────────────┬────────────┘
	                │              │              │
	           storage.Store  trace.Tracer  events.Broker

# Validation order

Cable creation checks fail fast in a fixed order: termination existence,
connectability, type compatibility, position counts, self-connection, front
port against its own rear port, occupancy, length unit. Every check runs
before any write, so a rejected cable leaves no partial state.

# Path recomputation

A committed cable mutation synchronously re-traces every path it affects:
paths originating at the cable's endpoints, paths crossing the cable, and
paths that previously dead-ended at one of its terminations. A recompute
failure is logged and counted but never rolls back the cable mutation; the
reconciler sweeps up stale paths on its next cycle.
*/
package manager
