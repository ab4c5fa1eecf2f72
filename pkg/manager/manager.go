package manager

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tracewire/tracewire/pkg/events"
	"github.com/tracewire/tracewire/pkg/log"
	"github.com/tracewire/tracewire/pkg/metrics"
	"github.com/tracewire/tracewire/pkg/registry"
	"github.com/tracewire/tracewire/pkg/storage"
	"github.com/tracewire/tracewire/pkg/trace"
	"github.com/tracewire/tracewire/pkg/types"
)

// Manager coordinates all connectivity mutations. Every cable create, update
// and delete flows through it so that validation, storage writes, path
// recomputation and event publication stay in one place.
type Manager struct {
	store  storage.Store
	broker *events.Broker
	tracer *trace.Tracer
	logger zerolog.Logger
}

// Config holds configuration for creating a Manager
type Config struct {
	DataDir string

	// MaxHops overrides the tracer hop guard when > 0.
	MaxHops int
}

// NewManager creates a new Manager instance
func NewManager(cfg *Config) (*Manager, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %v", err)
	}

	broker := events.NewBroker()
	broker.Start()

	tracer := trace.NewTracer(store)
	if cfg.MaxHops > 0 {
		tracer.MaxHops = cfg.MaxHops
	}

	m := &Manager{
		store:  store,
		broker: broker,
		tracer: tracer,
		logger: log.WithComponent("manager"),
	}

	metrics.RegisterComponent("storage", true, "")
	metrics.RegisterComponent("broker", true, "")

	return m, nil
}

// Store returns the underlying store for read-only consumers.
func (m *Manager) Store() storage.Store {
	return m.store
}

// Events returns the event broker for subscribers.
func (m *Manager) Events() *events.Broker {
	return m.broker
}

// Close stops the event broker and closes the store.
func (m *Manager) Close() error {
	m.broker.Stop()
	return m.store.Close()
}

// CreateDevice registers a device.
func (m *Manager) CreateDevice(name, site string) (*types.Device, error) {
	if name == "" {
		return nil, fmt.Errorf("device name is required")
	}
	if existing, err := m.store.GetDeviceByName(name); err == nil && existing != nil {
		return nil, fmt.Errorf("device %s already exists", name)
	}

	device := &types.Device{
		ID:        uuid.NewString(),
		Name:      name,
		Site:      site,
		CreatedAt: time.Now(),
	}
	if err := m.store.CreateDevice(device); err != nil {
		return nil, err
	}

	m.publish(events.EventDeviceCreated,
		fmt.Sprintf("Device %s created", name),
		map[string]string{"device_id": device.ID, "name": name})

	return device, nil
}

// GetDevice retrieves a device by ID.
func (m *Manager) GetDevice(id string) (*types.Device, error) {
	return m.store.GetDevice(id)
}

// GetDeviceByName retrieves a device by name.
func (m *Manager) GetDeviceByName(name string) (*types.Device, error) {
	return m.store.GetDeviceByName(name)
}

// ListDevices lists all devices.
func (m *Manager) ListDevices() ([]*types.Device, error) {
	return m.store.ListDevices()
}

// CreateCircuit registers a provider circuit.
func (m *Manager) CreateCircuit(cid, provider string) (*types.Circuit, error) {
	if cid == "" {
		return nil, fmt.Errorf("circuit id is required")
	}

	circuit := &types.Circuit{
		ID:        uuid.NewString(),
		CID:       cid,
		Provider:  provider,
		CreatedAt: time.Now(),
	}
	if err := m.store.CreateCircuit(circuit); err != nil {
		return nil, err
	}
	return circuit, nil
}

// GetCircuit retrieves a circuit by ID.
func (m *Manager) GetCircuit(id string) (*types.Circuit, error) {
	return m.store.GetCircuit(id)
}

// ListCircuits lists all circuits.
func (m *Manager) ListCircuits() ([]*types.Circuit, error) {
	return m.store.ListCircuits()
}

// TerminationSpec describes a termination to register. Only the fields
// meaningful for the given Type are consulted.
type TerminationSpec struct {
	Type     types.ObjectType
	Name     string
	DeviceID string

	// Circuit terminations
	CircuitID string
	Side      types.CircuitSide

	// Interfaces
	InterfaceKind types.InterfaceKind

	// Rear ports
	Positions int

	// Front ports
	RearPortID       string
	RearPortPosition int
}

// CreateTermination validates and registers a termination of any variant.
func (m *Manager) CreateTermination(spec TerminationSpec) (*types.Termination, error) {
	if !registry.IsTermination(spec.Type) {
		return nil, fmt.Errorf("unknown termination type %q", spec.Type)
	}

	term := &types.Termination{
		ID:        uuid.NewString(),
		Type:      spec.Type,
		Name:      spec.Name,
		CreatedAt: time.Now(),
	}

	if spec.Type == types.TypeCircuitTermination {
		if spec.Side != types.CircuitSideA && spec.Side != types.CircuitSideZ {
			return nil, fmt.Errorf("circuit termination side must be A or Z")
		}
		if _, err := m.store.GetCircuit(spec.CircuitID); err != nil {
			return nil, fmt.Errorf("circuit %s: %w", spec.CircuitID, err)
		}
		if _, err := m.store.GetCircuitTermination(spec.CircuitID, spec.Side); err == nil {
			return nil, fmt.Errorf("circuit %s already has a side %s termination",
				spec.CircuitID, spec.Side)
		}
		term.CircuitID = spec.CircuitID
		term.Side = spec.Side
	} else {
		if spec.Name == "" {
			return nil, fmt.Errorf("termination name is required")
		}
		if _, err := m.store.GetDevice(spec.DeviceID); err != nil {
			return nil, fmt.Errorf("device %s: %w", spec.DeviceID, err)
		}
		if _, err := m.store.GetTerminationByName(spec.DeviceID, spec.Name); err == nil {
			return nil, fmt.Errorf("device %s already has a termination named %s",
				spec.DeviceID, spec.Name)
		}
		term.DeviceID = spec.DeviceID
	}

	switch spec.Type {
	case types.TypeInterface:
		term.InterfaceKind = spec.InterfaceKind
		if term.InterfaceKind == "" {
			term.InterfaceKind = types.InterfaceKindPhysical
		}

	case types.TypeRearPort:
		term.Positions = spec.Positions
		if term.Positions == 0 {
			term.Positions = 1
		}
		if term.Positions < 1 {
			return nil, fmt.Errorf("rear port positions must be >= 1, got %d", spec.Positions)
		}

	case types.TypeFrontPort:
		rear, err := m.store.GetTermination(types.Ref{
			Type: types.TypeRearPort, ID: spec.RearPortID,
		})
		if err != nil {
			return nil, fmt.Errorf("rear port %s: %w", spec.RearPortID, err)
		}
		position := spec.RearPortPosition
		if position == 0 {
			position = 1
		}
		if position < 1 || position > rear.Positions {
			return nil, fmt.Errorf("position %d out of range for rear port %s (%d positions)",
				position, rear.Name, rear.Positions)
		}
		if _, err := m.store.GetFrontPort(spec.RearPortID, position); err == nil {
			return nil, fmt.Errorf("rear port %s position %d is already mapped",
				rear.Name, position)
		}
		term.RearPortID = spec.RearPortID
		term.RearPortPosition = position
	}

	if err := m.store.CreateTermination(term); err != nil {
		return nil, err
	}

	m.publish(events.EventTerminationCreated,
		fmt.Sprintf("Termination %s (%s) created", term.Name, term.Type),
		map[string]string{"termination_id": term.ID, "type": string(term.Type)})

	return term, nil
}

// GetTermination retrieves a termination by reference.
func (m *Manager) GetTermination(ref types.Ref) (*types.Termination, error) {
	return m.store.GetTermination(ref)
}

// GetTerminationByName retrieves a termination by owning device and name.
func (m *Manager) GetTerminationByName(deviceID, name string) (*types.Termination, error) {
	return m.store.GetTerminationByName(deviceID, name)
}

// ListTerminationsByDevice lists a device's terminations.
func (m *Manager) ListTerminationsByDevice(deviceID string) ([]*types.Termination, error) {
	return m.store.ListTerminationsByDevice(deviceID)
}

func (m *Manager) publish(eventType events.EventType, message string, metadata map[string]string) {
	m.broker.Publish(&events.Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		Message:  message,
		Metadata: metadata,
	})
}
