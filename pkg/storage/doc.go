/*
Package storage provides BoltDB-backed state persistence for tracewire's
connectivity data.

The storage package implements the Store interface using BoltDB as the
underlying database, providing ACID transactions for devices, circuits,
terminations, cables, and materialized cable paths. All data is serialized
as JSON and stored in separate buckets.

# Architecture

tracewire uses BoltDB (bbolt) for embedded, transactional storage with zero
external dependencies:

	┌──────────────────── BOLTDB STORAGE ──────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐          │
	│  │            BoltStore                       │          │
	│  │  - File: <dataDir>/tracewire.db            │          │
	│  │  - Format: B+tree with MVCC                │          │
	│  │  - Transactions: ACID with fsync           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Bucket Structure              │          │
	│  │  ┌────────────────────────────────┐        │          │
	│  │  │ devices        (Device ID)     │        │          │
	│  │  │ circuits       (Circuit ID)    │        │          │
	│  │  │ terminations   (Termination ID)│        │          │
	│  │  │ cables         (Cable ID)      │        │          │
	│  │  │ paths          (CablePath ID)  │        │          │
	│  │  │ path_index     (cable/path)    │        │          │
	│  │  └────────────────────────────────┘        │          │
	│  └────────────────────────────────────────────┘          │
	└──────────────────────────────────────────────────────────┘

# Transactional Invariants

The cable graph's integrity rules live inside single write transactions:

  - AttachCable writes the cable row and both termination back-references
    together. A reader never sees a cable whose terminations do not point
    back at it.
  - The one-cable-per-termination constraint is checked inside the attach
    transaction. Concurrent attachments to the same termination serialize
    on BoltDB's single writer; the loser gets ErrTerminationOccupied.
  - DetachCable removes the cable row and clears both back-references
    together.
  - ReplacePath swaps a recomputed path, its cable index rows, and the
    origin termination's cached path pointer atomically.

# Path Index

The path_index bucket maps "<cableID>/<pathID>" keys to path IDs. When a
cable is created, deleted, or changes status, every materialized path that
traverses it is found with a single prefix scan instead of a full paths
scan.
*/
package storage
