/*
Package reconciler keeps materialized cable paths consistent with the live
cable graph.

The manager recomputes affected paths synchronously after every cable
mutation, so in normal operation the sweeper finds nothing to do. It exists
for the failure cases: a recompute that errored after its cable mutation
committed, a store modified by an external tool, or a crash between commit
and recompute.

# Sweep cycle

Each cycle makes two passes:

 1. Every stored path is re-traced from its origin. A path whose node list,
    destination, activity or split state differs from the fresh trace is
    replaced. A path whose origin lost its cable (or no longer exists) is
    removed.

 2. Every cabled endpoint without a materialized path gets one. Pass-through
    ports are skipped; they never own paths.

Repairs reuse the manager's recompute, so they publish the same events and
update the same counters as a synchronous recompute would. The cycle itself
reports tracewire_sweep_duration_seconds, tracewire_sweep_cycles_total and
tracewire_sweep_repairs_total.

The loop runs every 60 seconds by default. Sweep is also exported for
one-shot invocation from the CLI.
*/
package reconciler
