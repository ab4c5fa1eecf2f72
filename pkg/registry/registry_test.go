package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracewire/tracewire/pkg/types"
)

// TestCompatibilitySymmetric verifies the adjacency table is symmetric for
// every declared pair.
func TestCompatibilitySymmetric(t *testing.T) {
	for a, peers := range compatibility {
		for _, b := range peers {
			assert.True(t, Compatible(b, a),
				"%s lists %s but not vice versa", a, b)
		}
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b types.ObjectType
		want bool
	}{
		{"interface to interface", types.TypeInterface, types.TypeInterface, true},
		{"interface to circuit", types.TypeInterface, types.TypeCircuitTermination, true},
		{"interface to front port", types.TypeInterface, types.TypeFrontPort, true},
		{"power port to outlet", types.TypePowerPort, types.TypePowerOutlet, true},
		{"power port to feed", types.TypePowerPort, types.TypePowerFeed, true},
		{"console port to console server port", types.TypeConsolePort, types.TypeConsoleServerPort, true},
		{"interface to power outlet", types.TypeInterface, types.TypePowerOutlet, false},
		{"console port to interface", types.TypeConsolePort, types.TypeInterface, false},
		{"power outlet to feed", types.TypePowerOutlet, types.TypePowerFeed, false},
		{"unknown type", types.ObjectType("dcim.widget"), types.TypeInterface, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compatible(tt.a, tt.b))
		})
	}
}

func TestPositions(t *testing.T) {
	rear := &types.Termination{Type: types.TypeRearPort, Positions: 12}
	assert.Equal(t, 12, Positions(rear))

	rearSingle := &types.Termination{Type: types.TypeRearPort, Positions: 1}
	assert.Equal(t, 1, Positions(rearSingle))

	// Front ports map to exactly one rear port slot.
	front := &types.Termination{Type: types.TypeFrontPort, RearPortPosition: 5}
	assert.Equal(t, 1, Positions(front))

	iface := &types.Termination{Type: types.TypeInterface}
	assert.Equal(t, 1, Positions(iface))
}

func TestConnectable(t *testing.T) {
	tests := []struct {
		name string
		term *types.Termination
		want bool
	}{
		{"physical interface", &types.Termination{Type: types.TypeInterface, InterfaceKind: types.InterfaceKindPhysical}, true},
		{"interface with unset kind", &types.Termination{Type: types.TypeInterface}, true},
		{"virtual interface", &types.Termination{Type: types.TypeInterface, InterfaceKind: types.InterfaceKindVirtual}, false},
		{"wireless interface", &types.Termination{Type: types.TypeInterface, InterfaceKind: types.InterfaceKindWireless}, false},
		{"rear port", &types.Termination{Type: types.TypeRearPort, Positions: 4}, true},
		{"power feed", &types.Termination{Type: types.TypePowerFeed}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Connectable(tt.term))
		})
	}
}

func TestIsPassThrough(t *testing.T) {
	assert.True(t, IsPassThrough(types.TypeFrontPort))
	assert.True(t, IsPassThrough(types.TypeRearPort))
	assert.False(t, IsPassThrough(types.TypeInterface))
	assert.False(t, IsPassThrough(types.TypeCircuitTermination))
}
