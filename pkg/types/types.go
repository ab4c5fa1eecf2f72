package types

import (
	"fmt"
	"time"
)

// ObjectType identifies a termination variant. Every entity that can be one
// end of a cable has exactly one of these tags, and all cross-entity pointers
// are (type, id) pairs rather than in-memory references.
type ObjectType string

const (
	TypeInterface          ObjectType = "dcim.interface"
	TypeConsolePort        ObjectType = "dcim.consoleport"
	TypeConsoleServerPort  ObjectType = "dcim.consoleserverport"
	TypePowerPort          ObjectType = "dcim.powerport"
	TypePowerOutlet        ObjectType = "dcim.poweroutlet"
	TypeFrontPort          ObjectType = "dcim.frontport"
	TypeRearPort           ObjectType = "dcim.rearport"
	TypePowerFeed          ObjectType = "dcim.powerfeed"
	TypeCircuitTermination ObjectType = "circuits.circuittermination"

	// TypeCable is not a termination variant but appears in CablePath node
	// lists alongside pass-through ports.
	TypeCable ObjectType = "dcim.cable"
)

// Ref is a polymorphic reference to a stored entity.
type Ref struct {
	Type ObjectType `json:"type"`
	ID   string     `json:"id"`
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// Device represents a physical device that owns terminations.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Site      string    `json:"site,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CircuitSide identifies which end of a provider circuit a termination sits on.
type CircuitSide string

const (
	CircuitSideA CircuitSide = "A"
	CircuitSideZ CircuitSide = "Z"
)

// Circuit represents a provider circuit with up to two terminations (A and Z).
type Circuit struct {
	ID        string    `json:"id"`
	CID       string    `json:"cid"` // provider circuit identifier
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InterfaceKind classifies an interface's physical nature. Virtual and
// wireless interfaces can never be cable endpoints.
type InterfaceKind string

const (
	InterfaceKindPhysical InterfaceKind = "physical"
	InterfaceKindVirtual  InterfaceKind = "virtual"
	InterfaceKindWireless InterfaceKind = "wireless"
)

// Termination is any entity that may be the endpoint of at most one cable.
// It is a tagged union over the variant set: the Type field selects which of
// the variant-specific fields are meaningful.
type Termination struct {
	ID   string     `json:"id"`
	Type ObjectType `json:"type"`
	Name string     `json:"name"`

	// DeviceID is set for all device-bound variants.
	DeviceID string `json:"device_id,omitempty"`

	// CircuitID and Side are set for circuit terminations.
	CircuitID string      `json:"circuit_id,omitempty"`
	Side      CircuitSide `json:"side,omitempty"`

	// InterfaceKind is set for interfaces.
	InterfaceKind InterfaceKind `json:"interface_kind,omitempty"`

	// Positions is set for rear ports: how many front-facing slots this
	// port multiplexes. Always >= 1.
	Positions int `json:"positions,omitempty"`

	// RearPortID and RearPortPosition are set for front ports: the rear
	// port this front port maps to and the 1-indexed slot on it.
	RearPortID       string `json:"rear_port_id,omitempty"`
	RearPortPosition int    `json:"rear_port_position,omitempty"`

	// CableID is the back-reference to the attached cable, empty when
	// unconnected. A termination appears on exactly one side of at most
	// one cable.
	CableID string `json:"cable_id,omitempty"`

	// PathID caches the ID of the CablePath originating here so a
	// termination's path is a single lookup rather than a re-trace.
	PathID string `json:"path_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the polymorphic reference for this termination.
func (t *Termination) Ref() Ref {
	return Ref{Type: t.Type, ID: t.ID}
}

// CableStatus represents the operational state of a cable.
type CableStatus string

const (
	CableStatusConnected       CableStatus = "connected"
	CableStatusPlanned         CableStatus = "planned"
	CableStatusDecommissioning CableStatus = "decommissioning"
)

// Valid reports whether the status is a known value.
func (s CableStatus) Valid() bool {
	switch s {
	case CableStatusConnected, CableStatusPlanned, CableStatusDecommissioning:
		return true
	}
	return false
}

// LengthUnit is the unit a cable length was entered in.
type LengthUnit string

const (
	LengthUnitMeter      LengthUnit = "m"
	LengthUnitCentimeter LengthUnit = "cm"
	LengthUnitFoot       LengthUnit = "ft"
	LengthUnitInch       LengthUnit = "in"
)

// micrometersPerUnit holds exact conversion factors to micrometers so that
// normalized lengths order and sum without floating-point drift.
var micrometersPerUnit = map[LengthUnit]int64{
	LengthUnitMeter:      1_000_000,
	LengthUnitCentimeter: 10_000,
	LengthUnitFoot:       304_800, // 0.3048 m
	LengthUnitInch:       25_400,  // 0.0254 m
}

// Micrometers converts a length in this unit to micrometers. Returns false
// for an unknown unit.
func (u LengthUnit) Micrometers(length float64) (int64, bool) {
	factor, ok := micrometersPerUnit[u]
	if !ok {
		return 0, false
	}
	return int64(length*float64(factor) + 0.5), true
}

// Cable represents one physical link between exactly two terminations.
// The two termination references are immutable after creation; moving an
// end means deleting and recreating the cable.
type Cable struct {
	ID     string      `json:"id"`
	Type   string      `json:"type,omitempty"` // physical medium, free-form
	Status CableStatus `json:"status"`
	Label  string      `json:"label,omitempty"`
	Color  string      `json:"color,omitempty"`

	Length     *float64   `json:"length,omitempty"`
	LengthUnit LengthUnit `json:"length_unit,omitempty"`

	// AbsLength is the length normalized to micrometers, nil when no
	// length is recorded.
	AbsLength *int64 `json:"abs_length,omitempty"`

	TerminationA Ref `json:"termination_a"`
	TerminationB Ref `json:"termination_b"`

	// DeviceAID/DeviceBID cache the owning device of each end for cheap
	// filtering; empty for circuit terminations.
	DeviceAID string `json:"device_a_id,omitempty"`
	DeviceBID string `json:"device_b_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the node reference for this cable as it appears in path lists.
func (c *Cable) Ref() Ref {
	return Ref{Type: TypeCable, ID: c.ID}
}

// OtherEnd returns the termination reference opposite the given one. The
// second return value is false if the given reference is not an end of this
// cable.
func (c *Cable) OtherEnd(r Ref) (Ref, bool) {
	switch r {
	case c.TerminationA:
		return c.TerminationB, true
	case c.TerminationB:
		return c.TerminationA, true
	}
	return Ref{}, false
}

// CablePath is a materialized, directional trace from one origin termination
// to a destination (possibly unknown) through an ordered node list. The node
// list alternates cables and intermediate pass-through nodes, cable first;
// the origin and destination terminations are not part of the list. It is
// derived data: recomputable at any time from the live cable graph.
type CablePath struct {
	ID          string `json:"id"`
	Origin      Ref    `json:"origin"`
	Destination *Ref   `json:"destination,omitempty"`
	Path        []Ref  `json:"path"`

	// IsActive is true only when a destination was reached and every cable
	// on the path has status connected.
	IsActive bool `json:"is_active"`

	// IsSplit is true when the trace stopped at a multi-position rear port
	// with no known originating front-port position.
	IsSplit bool `json:"is_split"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SegmentCount returns the number of physical hops on the path. Each hop
// contributes three node slots (near termination, cable, far termination)
// with the origin and destination bookends kept outside the stored list.
func (p *CablePath) SegmentCount() int {
	n := 1 + len(p.Path)
	if p.Destination != nil {
		n++
	}
	return n / 3
}

// CableIDs returns the IDs of every cable node on the path, in order.
func (p *CablePath) CableIDs() []string {
	var ids []string
	for _, node := range p.Path {
		if node.Type == TypeCable {
			ids = append(ids, node.ID)
		}
	}
	return ids
}
