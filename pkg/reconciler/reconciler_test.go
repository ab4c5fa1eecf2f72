package reconciler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracewire/tracewire/pkg/manager"
	"github.com/tracewire/tracewire/pkg/types"
)

func newTestSetup(t *testing.T) (*Reconciler, *manager.Manager, types.Ref, types.Ref) {
	t.Helper()
	m, err := manager.NewManager(&manager.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	dev1, err := m.CreateDevice("server1", "lab")
	require.NoError(t, err)
	dev2, err := m.CreateDevice("server2", "lab")
	require.NoError(t, err)

	eth0, err := m.CreateTermination(manager.TerminationSpec{
		Type: types.TypeInterface, Name: "eth0", DeviceID: dev1.ID,
	})
	require.NoError(t, err)
	eth1, err := m.CreateTermination(manager.TerminationSpec{
		Type: types.TypeInterface, Name: "eth0", DeviceID: dev2.ID,
	})
	require.NoError(t, err)

	_, err = m.CreateCable(manager.CableSpec{
		TerminationA: eth0.Ref(), TerminationB: eth1.Ref(),
	})
	require.NoError(t, err)

	return NewReconciler(m, 0), m, eth0.Ref(), eth1.Ref()
}

func TestSweepCleanState(t *testing.T) {
	r, _, _, _ := newTestSetup(t)

	repaired, err := r.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestSweepRepairsTamperedPath(t *testing.T) {
	r, m, origin, destination := newTestSetup(t)

	// Corrupt the stored path behind the manager's back.
	path, err := m.PathForOrigin(origin)
	require.NoError(t, err)
	tampered := *path
	tampered.Destination = nil
	tampered.IsActive = false
	require.NoError(t, m.Store().ReplacePath(&tampered))

	repaired, err := r.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	restored, err := m.PathForOrigin(origin)
	require.NoError(t, err)
	require.NotNil(t, restored.Destination)
	assert.Equal(t, destination, *restored.Destination)
	assert.True(t, restored.IsActive)
}

func TestSweepMaterializesMissingPath(t *testing.T) {
	r, m, origin, _ := newTestSetup(t)

	require.NoError(t, m.Store().DeletePathByOrigin(origin))
	_, err := m.PathForOrigin(origin)
	require.True(t, errors.Is(err, types.ErrPathNotFound))

	repaired, err := r.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	path, err := m.PathForOrigin(origin)
	require.NoError(t, err)
	assert.True(t, path.IsActive)
}

func TestSweepRemovesPathForDetachedOrigin(t *testing.T) {
	r, m, origin, otherEnd := newTestSetup(t)

	// Detach the cable directly in the store, bypassing the manager's
	// synchronous recompute.
	term, err := m.GetTermination(origin)
	require.NoError(t, err)
	_, err = m.Store().DetachCable(term.CableID)
	require.NoError(t, err)

	repaired, err := r.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)

	for _, ref := range []types.Ref{origin, otherEnd} {
		_, err = m.PathForOrigin(ref)
		assert.True(t, errors.Is(err, types.ErrPathNotFound))
	}
}

func TestStartStop(t *testing.T) {
	r, _, _, _ := newTestSetup(t)
	r.Start()
	r.Stop()
}
