package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tracewire/tracewire/pkg/log"
	"github.com/tracewire/tracewire/pkg/manager"
	"github.com/tracewire/tracewire/pkg/types"
)

var validate = validator.New()

// Topology is the root of a declarative topology document.
type Topology struct {
	Devices  []DeviceSpec  `yaml:"devices" validate:"dive"`
	Circuits []CircuitSpec `yaml:"circuits" validate:"dive"`
	Cables   []CableSpec   `yaml:"cables" validate:"dive"`
}

// DeviceSpec declares a device and its terminations.
type DeviceSpec struct {
	Name string `yaml:"name" validate:"required"`
	Site string `yaml:"site"`

	Interfaces         []InterfaceSpec `yaml:"interfaces" validate:"dive"`
	ConsolePorts       []PortSpec      `yaml:"console_ports" validate:"dive"`
	ConsoleServerPorts []PortSpec      `yaml:"console_server_ports" validate:"dive"`
	PowerPorts         []PortSpec      `yaml:"power_ports" validate:"dive"`
	PowerOutlets       []PortSpec      `yaml:"power_outlets" validate:"dive"`
	PowerFeeds         []PortSpec      `yaml:"power_feeds" validate:"dive"`
	RearPorts          []RearPortSpec  `yaml:"rear_ports" validate:"dive"`
	FrontPorts         []FrontPortSpec `yaml:"front_ports" validate:"dive"`
}

// InterfaceSpec declares a network interface.
type InterfaceSpec struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"omitempty,oneof=physical virtual wireless"`
}

// PortSpec declares a simple named termination (console, power).
type PortSpec struct {
	Name string `yaml:"name" validate:"required"`
}

// RearPortSpec declares a rear port with its position count.
type RearPortSpec struct {
	Name      string `yaml:"name" validate:"required"`
	Positions int    `yaml:"positions" validate:"omitempty,min=1"`
}

// FrontPortSpec declares a front port mapped to a rear port slot.
type FrontPortSpec struct {
	Name     string `yaml:"name" validate:"required"`
	RearPort string `yaml:"rear_port" validate:"required"`
	Position int    `yaml:"position" validate:"omitempty,min=1"`
}

// CircuitSpec declares a provider circuit and which sides it terminates.
type CircuitSpec struct {
	CID      string   `yaml:"cid" validate:"required"`
	Provider string   `yaml:"provider"`
	Sides    []string `yaml:"sides" validate:"dive,oneof=A Z"`
}

// CableSpec declares a cable between two endpoints. Endpoints use
// "device:termination" for device-bound terminations and "circuit:CID:side"
// for circuit terminations.
type CableSpec struct {
	A string `yaml:"a" validate:"required"`
	B string `yaml:"b" validate:"required"`

	Type   string `yaml:"type"`
	Status string `yaml:"status" validate:"omitempty,oneof=connected planned decommissioning"`
	Label  string `yaml:"label"`
	Color  string `yaml:"color"`

	Length     *float64 `yaml:"length"`
	LengthUnit string   `yaml:"length_unit" validate:"omitempty,oneof=m cm ft in"`
}

// Result summarizes what an apply created versus found already present.
type Result struct {
	DevicesCreated      int
	CircuitsCreated     int
	TerminationsCreated int
	CablesCreated       int
	CablesSkipped       int
}

// Loader applies declarative topology documents through the manager.
type Loader struct {
	manager *manager.Manager
	logger  zerolog.Logger
}

// New creates a loader backed by the given manager.
func New(m *manager.Manager) *Loader {
	return &Loader{
		manager: m,
		logger:  log.WithComponent("loader"),
	}
}

// LoadFile reads, parses and validates a topology document. When path is a
// directory, every .yaml/.yml file in it is loaded in name order and the
// documents are concatenated into one topology.
func (l *Loader) LoadFile(path string) (*Topology, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	if info.IsDir() {
		return l.loadDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}
	return Parse(data)
}

func (l *Loader) loadDir(dir string) (*Topology, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %v", err)
	}

	merged := &Topology{}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %v", entry.Name(), err)
		}
		topo, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", entry.Name(), err)
		}
		merged.Devices = append(merged.Devices, topo.Devices...)
		merged.Circuits = append(merged.Circuits, topo.Circuits...)
		merged.Cables = append(merged.Cables, topo.Cables...)
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no topology files in %s", dir)
	}
	return merged, nil
}

// Parse parses and validates a topology document.
func Parse(data []byte) (*Topology, error) {
	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %v", err)
	}
	if err := validate.Struct(&topo); err != nil {
		return nil, fmt.Errorf("invalid topology: %v", err)
	}
	return &topo, nil
}

// Apply creates everything the topology declares that does not already
// exist. Devices and terminations are matched by name, circuits by CID, and
// a declared cable whose two endpoints already share a cable is skipped, so
// re-applying the same document is a no-op. The first failure aborts the
// apply; everything created before it stands.
func (l *Loader) Apply(topo *Topology) (*Result, error) {
	result := &Result{}

	for _, spec := range topo.Devices {
		if err := l.applyDevice(spec, result); err != nil {
			return result, err
		}
	}
	for _, spec := range topo.Circuits {
		if err := l.applyCircuit(spec, result); err != nil {
			return result, err
		}
	}
	for _, spec := range topo.Cables {
		if err := l.applyCable(spec, result); err != nil {
			return result, err
		}
	}

	l.logger.Info().
		Int("devices", result.DevicesCreated).
		Int("circuits", result.CircuitsCreated).
		Int("terminations", result.TerminationsCreated).
		Int("cables", result.CablesCreated).
		Int("skipped", result.CablesSkipped).
		Msg("Topology applied")

	return result, nil
}

func (l *Loader) applyDevice(spec DeviceSpec, result *Result) error {
	device, err := l.manager.GetDeviceByName(spec.Name)
	if err != nil {
		device, err = l.manager.CreateDevice(spec.Name, spec.Site)
		if err != nil {
			return fmt.Errorf("device %s: %v", spec.Name, err)
		}
		result.DevicesCreated++
	}

	add := func(ts manager.TerminationSpec) error {
		if _, err := l.manager.GetTerminationByName(device.ID, ts.Name); err == nil {
			return nil
		}
		if _, err := l.manager.CreateTermination(ts); err != nil {
			return fmt.Errorf("device %s termination %s: %v", spec.Name, ts.Name, err)
		}
		result.TerminationsCreated++
		return nil
	}

	for _, iface := range spec.Interfaces {
		if err := add(manager.TerminationSpec{
			Type: types.TypeInterface, Name: iface.Name, DeviceID: device.ID,
			InterfaceKind: types.InterfaceKind(iface.Kind),
		}); err != nil {
			return err
		}
	}
	for _, port := range spec.ConsolePorts {
		if err := add(manager.TerminationSpec{
			Type: types.TypeConsolePort, Name: port.Name, DeviceID: device.ID,
		}); err != nil {
			return err
		}
	}
	for _, port := range spec.ConsoleServerPorts {
		if err := add(manager.TerminationSpec{
			Type: types.TypeConsoleServerPort, Name: port.Name, DeviceID: device.ID,
		}); err != nil {
			return err
		}
	}
	for _, port := range spec.PowerPorts {
		if err := add(manager.TerminationSpec{
			Type: types.TypePowerPort, Name: port.Name, DeviceID: device.ID,
		}); err != nil {
			return err
		}
	}
	for _, port := range spec.PowerOutlets {
		if err := add(manager.TerminationSpec{
			Type: types.TypePowerOutlet, Name: port.Name, DeviceID: device.ID,
		}); err != nil {
			return err
		}
	}
	for _, port := range spec.PowerFeeds {
		if err := add(manager.TerminationSpec{
			Type: types.TypePowerFeed, Name: port.Name, DeviceID: device.ID,
		}); err != nil {
			return err
		}
	}

	// Rear ports before front ports so the position mapping can resolve.
	for _, rear := range spec.RearPorts {
		if err := add(manager.TerminationSpec{
			Type: types.TypeRearPort, Name: rear.Name, DeviceID: device.ID,
			Positions: rear.Positions,
		}); err != nil {
			return err
		}
	}
	for _, front := range spec.FrontPorts {
		rear, err := l.manager.GetTerminationByName(device.ID, front.RearPort)
		if err != nil {
			return fmt.Errorf("device %s front port %s: rear port %s not found",
				spec.Name, front.Name, front.RearPort)
		}
		if err := add(manager.TerminationSpec{
			Type: types.TypeFrontPort, Name: front.Name, DeviceID: device.ID,
			RearPortID: rear.ID, RearPortPosition: front.Position,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) applyCircuit(spec CircuitSpec, result *Result) error {
	circuit, err := l.circuitByCID(spec.CID)
	if err != nil {
		circuit, err = l.manager.CreateCircuit(spec.CID, spec.Provider)
		if err != nil {
			return fmt.Errorf("circuit %s: %v", spec.CID, err)
		}
		result.CircuitsCreated++
	}

	for _, side := range spec.Sides {
		circuitSide := types.CircuitSide(side)
		if _, err := l.manager.Store().GetCircuitTermination(circuit.ID, circuitSide); err == nil {
			continue
		}
		if _, err := l.manager.CreateTermination(manager.TerminationSpec{
			Type: types.TypeCircuitTermination, CircuitID: circuit.ID, Side: circuitSide,
		}); err != nil {
			return fmt.Errorf("circuit %s side %s: %v", spec.CID, side, err)
		}
		result.TerminationsCreated++
	}
	return nil
}

func (l *Loader) applyCable(spec CableSpec, result *Result) error {
	refA, err := l.resolveEndpoint(spec.A)
	if err != nil {
		return err
	}
	refB, err := l.resolveEndpoint(spec.B)
	if err != nil {
		return err
	}

	termA, err := l.manager.GetTermination(refA)
	if err != nil {
		return err
	}
	termB, err := l.manager.GetTermination(refB)
	if err != nil {
		return err
	}
	if termA.CableID != "" && termA.CableID == termB.CableID {
		result.CablesSkipped++
		return nil
	}

	cableSpec := manager.CableSpec{
		TerminationA: refA,
		TerminationB: refB,
		Type:         spec.Type,
		Status:       types.CableStatus(spec.Status),
		Label:        spec.Label,
		Color:        spec.Color,
		Length:       spec.Length,
		LengthUnit:   types.LengthUnit(spec.LengthUnit),
	}
	if _, err := l.manager.CreateCable(cableSpec); err != nil {
		return fmt.Errorf("cable %s <-> %s: %w", spec.A, spec.B, err)
	}
	result.CablesCreated++
	return nil
}

// resolveEndpoint maps "device:termination" or "circuit:CID:side" to a
// termination reference.
func (l *Loader) resolveEndpoint(endpoint string) (types.Ref, error) {
	parts := strings.Split(endpoint, ":")

	if len(parts) == 3 && parts[0] == "circuit" {
		circuit, err := l.circuitByCID(parts[1])
		if err != nil {
			return types.Ref{}, fmt.Errorf("endpoint %s: %v", endpoint, err)
		}
		term, err := l.manager.Store().GetCircuitTermination(
			circuit.ID, types.CircuitSide(parts[2]))
		if err != nil {
			return types.Ref{}, fmt.Errorf("endpoint %s: %v", endpoint, err)
		}
		return term.Ref(), nil
	}

	if len(parts) == 2 {
		device, err := l.manager.GetDeviceByName(parts[0])
		if err != nil {
			return types.Ref{}, fmt.Errorf("endpoint %s: device %s not found", endpoint, parts[0])
		}
		term, err := l.manager.GetTerminationByName(device.ID, parts[1])
		if err != nil {
			return types.Ref{}, fmt.Errorf("endpoint %s: termination %s not found on %s",
				endpoint, parts[1], parts[0])
		}
		return term.Ref(), nil
	}

	return types.Ref{}, fmt.Errorf("endpoint %q is not device:termination or circuit:cid:side", endpoint)
}

func (l *Loader) circuitByCID(cid string) (*types.Circuit, error) {
	circuits, err := l.manager.ListCircuits()
	if err != nil {
		return nil, err
	}
	for _, circuit := range circuits {
		if circuit.CID == cid {
			return circuit, nil
		}
	}
	return nil, fmt.Errorf("circuit %s not found", cid)
}
