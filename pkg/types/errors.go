package types

import "errors"

// Validation failures raised at cable mutation time. All are detected before
// any write happens, so a failed mutation leaves no partial state. Callers
// match with errors.Is; the wrapped message carries the offending entity.
var (
	// ErrTerminationNotFound means a referenced termination id does not
	// resolve to a stored entity.
	ErrTerminationNotFound = errors.New("termination not found")

	// ErrNonConnectableInterface means an endpoint is a virtual or
	// wireless interface, which can never carry a cable.
	ErrNonConnectableInterface = errors.New("interface is not connectable")

	// ErrIncompatibleTypes means the termination type pair is absent from
	// the compatibility table.
	ErrIncompatibleTypes = errors.New("incompatible termination types")

	// ErrPositionMismatch means both ends are multi-position ports with
	// differing position counts.
	ErrPositionMismatch = errors.New("termination position counts differ")

	// ErrSelfConnection means both cable ends resolve to the same entity.
	ErrSelfConnection = errors.New("cable cannot connect a termination to itself")

	// ErrFrontRearSelfPair means a front port is being cabled to its own
	// rear port (or vice versa).
	ErrFrontRearSelfPair = errors.New("front port cannot connect to its own rear port")

	// ErrTerminationOccupied means a termination already references a
	// different cable.
	ErrTerminationOccupied = errors.New("termination already has a cable attached")

	// ErrImmutableTermination means an update tried to change an existing
	// cable's endpoints. Delete and recreate the cable instead.
	ErrImmutableTermination = errors.New("cable terminations cannot be modified")

	// ErrLengthUnitRequired means a length was given without a unit.
	ErrLengthUnitRequired = errors.New("length unit is required when length is set")

	// ErrPathTooLong means a trace exceeded the maximum hop guard. Loop
	// detection catches exact cable repetition; this guard protects
	// against pathological-but-finite chains from corrupted data.
	ErrPathTooLong = errors.New("path exceeds maximum hop count")

	// ErrCableNotFound means a referenced cable id does not resolve.
	ErrCableNotFound = errors.New("cable not found")

	// ErrPathNotFound means no materialized path exists for the origin.
	ErrPathNotFound = errors.New("cable path not found")
)
