package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLengthUnitMicrometers(t *testing.T) {
	tests := []struct {
		unit   LengthUnit
		length float64
		want   int64
	}{
		{LengthUnitMeter, 2, 2_000_000},
		{LengthUnitCentimeter, 50, 500_000},
		{LengthUnitFoot, 1, 304_800},
		{LengthUnitInch, 10, 254_000},
		{LengthUnitMeter, 0.5, 500_000},
	}
	for _, tt := range tests {
		got, ok := tt.unit.Micrometers(tt.length)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "%v %s", tt.length, tt.unit)
	}

	_, ok := LengthUnit("furlong").Micrometers(1)
	assert.False(t, ok)
}

func TestCableOtherEnd(t *testing.T) {
	a := Ref{Type: TypeInterface, ID: "a"}
	b := Ref{Type: TypeInterface, ID: "b"}
	cable := &Cable{ID: "c1", TerminationA: a, TerminationB: b}

	far, ok := cable.OtherEnd(a)
	assert.True(t, ok)
	assert.Equal(t, b, far)

	far, ok = cable.OtherEnd(b)
	assert.True(t, ok)
	assert.Equal(t, a, far)

	_, ok = cable.OtherEnd(Ref{Type: TypeInterface, ID: "stranger"})
	assert.False(t, ok)
}

func TestSegmentCount(t *testing.T) {
	cable := func(id string) Ref { return Ref{Type: TypeCable, ID: id} }
	front := Ref{Type: TypeFrontPort, ID: "f1"}
	rear := Ref{Type: TypeRearPort, ID: "r1"}
	dest := Ref{Type: TypeInterface, ID: "far"}

	// Direct link: one cable, destination reached.
	direct := &CablePath{Path: []Ref{cable("c1")}, Destination: &dest}
	assert.Equal(t, 1, direct.SegmentCount())

	// Through one patch panel: cable, front, rear, cable.
	patched := &CablePath{
		Path:        []Ref{cable("c1"), front, rear, cable("c2")},
		Destination: &dest,
	}
	assert.Equal(t, 2, patched.SegmentCount())

	// Dead end at a pass-through port: no destination bookend.
	deadEnd := &CablePath{Path: []Ref{cable("c1"), front, rear}}
	assert.Equal(t, 1, deadEnd.SegmentCount())
}

func TestCableIDs(t *testing.T) {
	path := &CablePath{Path: []Ref{
		{Type: TypeCable, ID: "c1"},
		{Type: TypeFrontPort, ID: "f1"},
		{Type: TypeRearPort, ID: "r1"},
		{Type: TypeCable, ID: "c2"},
	}}
	assert.Equal(t, []string{"c1", "c2"}, path.CableIDs())
}
