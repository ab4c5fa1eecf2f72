/*
Package types defines the core data structures used throughout tracewire.

This package contains all fundamental types of the connectivity model:
devices, circuits, terminations, cables, and materialized cable paths.
These types are used by all other packages for storage, path tracing,
and mutation logic.

# Architecture

The types package is the foundation of tracewire's data model. It defines:

  - Termination variants as a tagged union (ObjectType + Termination)
  - Polymorphic entity references (Ref: type tag + id)
  - Cable links with status, medium, and normalized length
  - Materialized cable paths with active/split state

All cross-entity pointers are (type, id) pairs rather than in-memory
references. The cable graph is cyclic by nature (cable -> termination ->
cable), and identifier-based references keep loop detection and
serialization straightforward: the storage layer owns every entity, and
in-process structures hold only references.

# Core Types

Connectivity model:
  - Termination: any entity that may be one end of at most one cable
  - Cable: a physical link between exactly two terminations
  - CablePath: a persisted, directional trace from an origin termination

Supporting entities:
  - Device: owner of device-bound terminations
  - Circuit: provider circuit bridging two circuit terminations

# Length Normalization

Cable lengths are entered in meters, centimeters, feet, or inches and
normalized to an absolute length in integer micrometers. The conversion
factors are exact (1 ft = 304800 um, 1 in = 25400 um), so normalized
lengths order and aggregate without floating-point drift.

# Error Taxonomy

Every validation failure a cable mutation can produce is a sentinel error
in this package, matched with errors.Is. Trace-level conditions (loop,
split) are deliberately not errors: they are legitimate topology states
reported as structured results.

# Usage

	cable := &types.Cable{
		ID:           uuid.New().String(),
		Status:       types.CableStatusConnected,
		TerminationA: ifaceA.Ref(),
		TerminationB: ifaceB.Ref(),
	}
*/
package types
