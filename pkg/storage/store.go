package storage

import (
	"github.com/tracewire/tracewire/pkg/types"
)

// Store defines the interface for connectivity state storage.
// Implemented by BoltDB-backed storage.
//
// Compound mutations (AttachCable, DetachCable, ReplacePath) execute as a
// single transaction: a reader never observes a cable without both
// termination back-references pointing at it, or vice versa. The
// one-cable-per-termination constraint is enforced here, inside the write
// transaction, not by the caller.
type Store interface {
	// Devices
	CreateDevice(device *types.Device) error
	GetDevice(id string) (*types.Device, error)
	GetDeviceByName(name string) (*types.Device, error)
	ListDevices() ([]*types.Device, error)
	DeleteDevice(id string) error

	// Circuits
	CreateCircuit(circuit *types.Circuit) error
	GetCircuit(id string) (*types.Circuit, error)
	ListCircuits() ([]*types.Circuit, error)
	DeleteCircuit(id string) error

	// Terminations
	CreateTermination(term *types.Termination) error
	GetTermination(ref types.Ref) (*types.Termination, error)
	GetTerminationByName(deviceID, name string) (*types.Termination, error)
	ListTerminations() ([]*types.Termination, error)
	ListTerminationsByDevice(deviceID string) ([]*types.Termination, error)
	GetFrontPort(rearPortID string, position int) (*types.Termination, error)
	ListFrontPorts(rearPortID string) ([]*types.Termination, error)
	GetCircuitTermination(circuitID string, side types.CircuitSide) (*types.Termination, error)
	DeleteTermination(ref types.Ref) error

	// Cables. AttachCable writes the cable and both termination
	// back-references atomically; DetachCable reverses it and returns the
	// removed cable so the caller can recompute affected paths.
	AttachCable(cable *types.Cable) error
	GetCable(id string) (*types.Cable, error)
	ListCables() ([]*types.Cable, error)
	UpdateCable(cable *types.Cable) error
	DetachCable(id string) (*types.Cable, error)

	// Cable paths. ReplacePath upserts the path for its origin, updates
	// the origin's cached path pointer, and maintains the cable->path
	// index used to find every path a changed cable participates in.
	ReplacePath(path *types.CablePath) error
	GetPath(id string) (*types.CablePath, error)
	GetPathByOrigin(origin types.Ref) (*types.CablePath, error)
	ListPaths() ([]*types.CablePath, error)
	ListPathsByCable(cableID string) ([]*types.CablePath, error)
	DeletePathByOrigin(origin types.Ref) error

	// Utility
	Close() error
}
