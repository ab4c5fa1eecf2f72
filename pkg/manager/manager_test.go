package manager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracewire/tracewire/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(&Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func addDevice(t *testing.T, m *Manager, name string) *types.Device {
	t.Helper()
	device, err := m.CreateDevice(name, "lab")
	require.NoError(t, err)
	return device
}

func addInterface(t *testing.T, m *Manager, deviceID, name string) *types.Termination {
	t.Helper()
	term, err := m.CreateTermination(TerminationSpec{
		Type:     types.TypeInterface,
		Name:     name,
		DeviceID: deviceID,
	})
	require.NoError(t, err)
	return term
}

func addRearPort(t *testing.T, m *Manager, deviceID, name string, positions int) *types.Termination {
	t.Helper()
	term, err := m.CreateTermination(TerminationSpec{
		Type:      types.TypeRearPort,
		Name:      name,
		DeviceID:  deviceID,
		Positions: positions,
	})
	require.NoError(t, err)
	return term
}

func addFrontPort(t *testing.T, m *Manager, deviceID, name, rearPortID string, position int) *types.Termination {
	t.Helper()
	term, err := m.CreateTermination(TerminationSpec{
		Type:             types.TypeFrontPort,
		Name:             name,
		DeviceID:         deviceID,
		RearPortID:       rearPortID,
		RearPortPosition: position,
	})
	require.NoError(t, err)
	return term
}

func connect(t *testing.T, m *Manager, a, b types.Ref) *types.Cable {
	t.Helper()
	cable, err := m.CreateCable(CableSpec{TerminationA: a, TerminationB: b})
	require.NoError(t, err)
	return cable
}

func floatPtr(f float64) *float64 { return &f }

func TestCreateCableDirectLink(t *testing.T) {
	m := newTestManager(t)
	dev1 := addDevice(t, m, "server1")
	dev2 := addDevice(t, m, "server2")
	eth0 := addInterface(t, m, dev1.ID, "eth0")
	eth1 := addInterface(t, m, dev2.ID, "eth0")

	cable := connect(t, m, eth0.Ref(), eth1.Ref())

	// Both endpoints carry the back-reference.
	for _, ref := range []types.Ref{eth0.Ref(), eth1.Ref()} {
		term, err := m.GetTermination(ref)
		require.NoError(t, err)
		assert.Equal(t, cable.ID, term.CableID)
	}

	// A path materializes from each end.
	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	require.NotNil(t, path.Destination)
	assert.Equal(t, eth1.Ref(), *path.Destination)
	assert.True(t, path.IsActive)
	assert.False(t, path.IsSplit)
	assert.Equal(t, 1, path.SegmentCount())
	assert.Equal(t, []types.Ref{cable.Ref()}, path.Path)

	reverse, err := m.PathForOrigin(eth1.Ref())
	require.NoError(t, err)
	require.NotNil(t, reverse.Destination)
	assert.Equal(t, eth0.Ref(), *reverse.Destination)

	// Lookup by path ID resolves the same record.
	byID, err := m.GetPath(path.ID)
	require.NoError(t, err)
	assert.Equal(t, path.Origin, byID.Origin)
}

func TestCreateCableValidation(t *testing.T) {
	m := newTestManager(t)
	dev := addDevice(t, m, "server1")
	peer := addDevice(t, m, "server2")
	eth0 := addInterface(t, m, dev.ID, "eth0")
	eth1 := addInterface(t, m, peer.ID, "eth0")

	virt, err := m.CreateTermination(TerminationSpec{
		Type:          types.TypeInterface,
		Name:          "vlan10",
		DeviceID:      dev.ID,
		InterfaceKind: types.InterfaceKindVirtual,
	})
	require.NoError(t, err)

	power, err := m.CreateTermination(TerminationSpec{
		Type:     types.TypePowerPort,
		Name:     "psu1",
		DeviceID: dev.ID,
	})
	require.NoError(t, err)

	rear6 := addRearPort(t, m, dev.ID, "rear6", 6)
	rear12 := addRearPort(t, m, peer.ID, "rear12", 12)
	front := addFrontPort(t, m, dev.ID, "front1", rear6.ID, 1)

	connect(t, m, eth0.Ref(), eth1.Ref())
	spare := addInterface(t, m, peer.ID, "eth1")

	tests := []struct {
		name string
		spec CableSpec
		want error
	}{
		{
			name: "unknown termination",
			spec: CableSpec{
				TerminationA: types.Ref{Type: types.TypeInterface, ID: "missing"},
				TerminationB: spare.Ref(),
			},
			want: types.ErrTerminationNotFound,
		},
		{
			name: "virtual interface",
			spec: CableSpec{TerminationA: virt.Ref(), TerminationB: spare.Ref()},
			want: types.ErrNonConnectableInterface,
		},
		{
			name: "incompatible types",
			spec: CableSpec{TerminationA: spare.Ref(), TerminationB: power.Ref()},
			want: types.ErrIncompatibleTypes,
		},
		{
			name: "position mismatch",
			spec: CableSpec{TerminationA: rear6.Ref(), TerminationB: rear12.Ref()},
			want: types.ErrPositionMismatch,
		},
		{
			name: "self connection",
			spec: CableSpec{TerminationA: spare.Ref(), TerminationB: spare.Ref()},
			want: types.ErrSelfConnection,
		},
		{
			name: "front port to own rear port",
			spec: CableSpec{TerminationA: front.Ref(), TerminationB: rear6.Ref()},
			want: types.ErrFrontRearSelfPair,
		},
		{
			name: "occupied termination",
			spec: CableSpec{TerminationA: eth0.Ref(), TerminationB: spare.Ref()},
			want: types.ErrTerminationOccupied,
		},
		{
			name: "length without unit",
			spec: CableSpec{
				TerminationA: front.Ref(),
				TerminationB: spare.Ref(),
				Length:       floatPtr(3),
			},
			want: types.ErrLengthUnitRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateCable(tt.spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}

	// Nothing was written for any rejected cable.
	cables, err := m.ListCables()
	require.NoError(t, err)
	assert.Len(t, cables, 1)
}

func TestCableLengthNormalization(t *testing.T) {
	m := newTestManager(t)
	dev1 := addDevice(t, m, "server1")
	dev2 := addDevice(t, m, "server2")
	eth0 := addInterface(t, m, dev1.ID, "eth0")
	eth1 := addInterface(t, m, dev2.ID, "eth0")

	cable, err := m.CreateCable(CableSpec{
		TerminationA: eth0.Ref(),
		TerminationB: eth1.Ref(),
		Length:       floatPtr(10),
		LengthUnit:   types.LengthUnitFoot,
	})
	require.NoError(t, err)
	require.NotNil(t, cable.AbsLength)
	assert.Equal(t, int64(3_048_000), *cable.AbsLength)

	// Changing the unit renormalizes against the same entered value.
	meters := types.LengthUnitMeter
	cable, err = m.UpdateCable(cable.ID, CableUpdate{LengthUnit: &meters})
	require.NoError(t, err)
	require.NotNil(t, cable.AbsLength)
	assert.Equal(t, int64(10_000_000), *cable.AbsLength)

	cable, err = m.UpdateCable(cable.ID, CableUpdate{ClearLength: true})
	require.NoError(t, err)
	assert.Nil(t, cable.Length)
	assert.Nil(t, cable.AbsLength)
}

// buildPatchedLink wires server1.eth0 through two single-position panels to
// server2.eth0 and returns the three cables in creation order: the two
// server-to-panel cables first, the panel trunk last.
func buildPatchedLink(t *testing.T, m *Manager) (eth0, eth1 *types.Termination, c1, c2, trunk *types.Cable) {
	t.Helper()
	server1 := addDevice(t, m, "server1")
	server2 := addDevice(t, m, "server2")
	panelA := addDevice(t, m, "panelA")
	panelB := addDevice(t, m, "panelB")

	eth0 = addInterface(t, m, server1.ID, "eth0")
	eth1 = addInterface(t, m, server2.ID, "eth0")
	rearA := addRearPort(t, m, panelA.ID, "rear1", 1)
	frontA := addFrontPort(t, m, panelA.ID, "front1", rearA.ID, 1)
	rearB := addRearPort(t, m, panelB.ID, "rear1", 1)
	frontB := addFrontPort(t, m, panelB.ID, "front1", rearB.ID, 1)

	c1 = connect(t, m, eth0.Ref(), frontA.Ref())
	c2 = connect(t, m, eth1.Ref(), frontB.Ref())

	// Before the trunk exists both paths dead-end at their panel's rear
	// port.
	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	assert.Nil(t, path.Destination)
	assert.False(t, path.IsActive)

	trunk = connect(t, m, rearA.Ref(), rearB.Ref())
	return eth0, eth1, c1, c2, trunk
}

func TestTrunkCableExtendsExistingPaths(t *testing.T) {
	m := newTestManager(t)
	eth0, eth1, c1, c2, trunk := buildPatchedLink(t, m)

	// The trunk retroactively completes both server paths.
	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	require.NotNil(t, path.Destination)
	assert.Equal(t, eth1.Ref(), *path.Destination)
	assert.True(t, path.IsActive)
	assert.Equal(t, 3, path.SegmentCount())
	assert.Equal(t, []string{c1.ID, trunk.ID, c2.ID}, path.CableIDs())

	reverse, err := m.PathForOrigin(eth1.Ref())
	require.NoError(t, err)
	require.NotNil(t, reverse.Destination)
	assert.Equal(t, eth0.Ref(), *reverse.Destination)
}

func TestDeleteTrunkTruncatesPaths(t *testing.T) {
	m := newTestManager(t)
	eth0, eth1, _, _, trunk := buildPatchedLink(t, m)

	require.NoError(t, m.DeleteCable(trunk.ID))

	// Both server paths survive, truncated at their panel with no
	// destination.
	for _, origin := range []types.Ref{eth0.Ref(), eth1.Ref()} {
		path, err := m.PathForOrigin(origin)
		require.NoError(t, err)
		assert.Nil(t, path.Destination)
		assert.False(t, path.IsActive)
		assert.Equal(t, 1, path.SegmentCount())
	}
}

func TestDeleteCableRemovesEndpointPaths(t *testing.T) {
	m := newTestManager(t)
	dev1 := addDevice(t, m, "server1")
	dev2 := addDevice(t, m, "server2")
	eth0 := addInterface(t, m, dev1.ID, "eth0")
	eth1 := addInterface(t, m, dev2.ID, "eth0")
	cable := connect(t, m, eth0.Ref(), eth1.Ref())

	require.NoError(t, m.DeleteCable(cable.ID))

	for _, ref := range []types.Ref{eth0.Ref(), eth1.Ref()} {
		term, err := m.GetTermination(ref)
		require.NoError(t, err)
		assert.Empty(t, term.CableID)

		_, err = m.PathForOrigin(ref)
		assert.True(t, errors.Is(err, types.ErrPathNotFound))
	}

	_, err := m.GetCable(cable.ID)
	assert.True(t, errors.Is(err, types.ErrCableNotFound))
}

func TestCableStatusTogglesPathActivity(t *testing.T) {
	m := newTestManager(t)
	eth0, _, _, _, trunk := buildPatchedLink(t, m)

	original, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	require.True(t, original.IsActive)

	planned := types.CableStatusPlanned
	_, err = m.UpdateCable(trunk.ID, CableUpdate{Status: &planned})
	require.NoError(t, err)

	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	assert.False(t, path.IsActive)
	require.NotNil(t, path.Destination)

	// Reconnecting restores activity and the path keeps its identity.
	connected := types.CableStatusConnected
	_, err = m.UpdateCable(trunk.ID, CableUpdate{Status: &connected})
	require.NoError(t, err)

	restored, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
	assert.Equal(t, original.ID, restored.ID)
}

func TestSplitPathMaterialized(t *testing.T) {
	m := newTestManager(t)
	server := addDevice(t, m, "server1")
	panel := addDevice(t, m, "panelA")
	eth0 := addInterface(t, m, server.ID, "eth0")
	rear := addRearPort(t, m, panel.ID, "rear1", 2)
	addFrontPort(t, m, panel.ID, "front1", rear.ID, 1)
	addFrontPort(t, m, panel.ID, "front2", rear.ID, 2)

	connect(t, m, eth0.Ref(), rear.Ref())

	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	assert.True(t, path.IsSplit)
	assert.False(t, path.IsActive)
	assert.Nil(t, path.Destination)

	// An ad-hoc trace reports the candidate branches.
	result, err := m.Trace(eth0.Ref())
	require.NoError(t, err)
	assert.Len(t, result.Split, 2)
}

func TestCircuitCompletesPath(t *testing.T) {
	m := newTestManager(t)
	dev1 := addDevice(t, m, "edge1")
	dev2 := addDevice(t, m, "edge2")
	eth0 := addInterface(t, m, dev1.ID, "eth0")
	eth1 := addInterface(t, m, dev2.ID, "eth0")

	circuit, err := m.CreateCircuit("NET-001", "upstream")
	require.NoError(t, err)
	sideA, err := m.CreateTermination(TerminationSpec{
		Type:      types.TypeCircuitTermination,
		CircuitID: circuit.ID,
		Side:      types.CircuitSideA,
	})
	require.NoError(t, err)
	sideZ, err := m.CreateTermination(TerminationSpec{
		Type:      types.TypeCircuitTermination,
		CircuitID: circuit.ID,
		Side:      types.CircuitSideZ,
	})
	require.NoError(t, err)

	connect(t, m, eth0.Ref(), sideA.Ref())

	// Only one side cabled: the path ends inside the provider network.
	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	assert.Nil(t, path.Destination)

	connect(t, m, sideZ.Ref(), eth1.Ref())

	path, err = m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	require.NotNil(t, path.Destination)
	assert.Equal(t, eth1.Ref(), *path.Destination)
	assert.True(t, path.IsActive)
	assert.Equal(t, 2, path.SegmentCount())
}

func TestRecomputePathIdempotent(t *testing.T) {
	m := newTestManager(t)
	eth0, _, _, _, _ := buildPatchedLink(t, m)

	before, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)

	require.NoError(t, m.RecomputePath(eth0.Ref()))
	require.NoError(t, m.RecomputePath(eth0.Ref()))

	after, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Path, after.Path)
	assert.Equal(t, before.Destination, after.Destination)
}

func TestResolvePath(t *testing.T) {
	m := newTestManager(t)
	eth0, eth1, _, _, _ := buildPatchedLink(t, m)

	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)

	nodes, err := m.ResolvePath(path)
	require.NoError(t, err)
	// origin + 7 path nodes + destination
	require.Len(t, nodes, 9)

	assert.Equal(t, eth0.Ref(), nodes[0].Ref)
	require.NotNil(t, nodes[0].Termination)
	require.NotNil(t, nodes[0].Device)
	assert.Equal(t, "server1", nodes[0].Device.Name)

	assert.Equal(t, types.TypeCable, nodes[1].Ref.Type)
	require.NotNil(t, nodes[1].Cable)
	assert.Nil(t, nodes[1].Termination)

	last := nodes[len(nodes)-1]
	assert.Equal(t, eth1.Ref(), last.Ref)
	require.NotNil(t, last.Device)
	assert.Equal(t, "server2", last.Device.Name)
}

func TestPathTotalLength(t *testing.T) {
	m := newTestManager(t)
	dev1 := addDevice(t, m, "server1")
	dev2 := addDevice(t, m, "server2")
	panel := addDevice(t, m, "panelA")
	eth0 := addInterface(t, m, dev1.ID, "eth0")
	eth1 := addInterface(t, m, dev2.ID, "eth0")
	rear := addRearPort(t, m, panel.ID, "rear1", 1)
	front := addFrontPort(t, m, panel.ID, "front1", rear.ID, 1)

	_, err := m.CreateCable(CableSpec{
		TerminationA: eth0.Ref(),
		TerminationB: front.Ref(),
		Length:       floatPtr(2),
		LengthUnit:   types.LengthUnitMeter,
	})
	require.NoError(t, err)

	unmeasured, err := m.CreateCable(CableSpec{
		TerminationA: rear.Ref(),
		TerminationB: eth1.Ref(),
	})
	require.NoError(t, err)

	path, err := m.PathForOrigin(eth0.Ref())
	require.NoError(t, err)

	total, complete, err := m.PathTotalLength(path)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, int64(2_000_000), total)

	_, err = m.UpdateCable(unmeasured.ID, CableUpdate{
		Length: floatPtr(50), LengthUnit: lengthUnitPtr(types.LengthUnitCentimeter),
	})
	require.NoError(t, err)

	total, complete, err = m.PathTotalLength(path)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, int64(2_500_000), total)
}

func lengthUnitPtr(u types.LengthUnit) *types.LengthUnit { return &u }

func TestCreateTerminationValidation(t *testing.T) {
	m := newTestManager(t)
	dev := addDevice(t, m, "server1")
	addInterface(t, m, dev.ID, "eth0")
	rear := addRearPort(t, m, dev.ID, "rear1", 2)
	addFrontPort(t, m, dev.ID, "front1", rear.ID, 1)

	tests := []struct {
		name string
		spec TerminationSpec
	}{
		{
			name: "unknown type",
			spec: TerminationSpec{Type: "dcim.teapot", Name: "x", DeviceID: dev.ID},
		},
		{
			name: "duplicate name on device",
			spec: TerminationSpec{Type: types.TypeInterface, Name: "eth0", DeviceID: dev.ID},
		},
		{
			name: "unknown device",
			spec: TerminationSpec{Type: types.TypeInterface, Name: "eth9", DeviceID: "missing"},
		},
		{
			name: "front port position out of range",
			spec: TerminationSpec{
				Type: types.TypeFrontPort, Name: "front9", DeviceID: dev.ID,
				RearPortID: rear.ID, RearPortPosition: 3,
			},
		},
		{
			name: "front port position taken",
			spec: TerminationSpec{
				Type: types.TypeFrontPort, Name: "front9", DeviceID: dev.ID,
				RearPortID: rear.ID, RearPortPosition: 1,
			},
		},
		{
			name: "circuit termination without circuit",
			spec: TerminationSpec{
				Type: types.TypeCircuitTermination, CircuitID: "missing",
				Side: types.CircuitSideA,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateTermination(tt.spec)
			assert.Error(t, err)
		})
	}
}
