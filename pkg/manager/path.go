package manager

import (
	"fmt"

	"github.com/tracewire/tracewire/pkg/metrics"
	"github.com/tracewire/tracewire/pkg/trace"
	"github.com/tracewire/tracewire/pkg/types"
)

// Trace walks the live cable graph from origin without touching stored
// paths. Use it for ad-hoc queries; materialized paths answer the common
// case with a single lookup.
func (m *Manager) Trace(origin types.Ref) (*trace.Result, error) {
	timer := metrics.NewTimer()
	result, err := m.tracer.Trace(origin)
	timer.ObserveDuration(metrics.TraceDuration)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetPath retrieves a materialized path by ID.
func (m *Manager) GetPath(id string) (*types.CablePath, error) {
	return m.store.GetPath(id)
}

// PathForOrigin retrieves the materialized path originating at the given
// termination, resolved through the termination's cached path pointer.
func (m *Manager) PathForOrigin(origin types.Ref) (*types.CablePath, error) {
	return m.store.GetPathByOrigin(origin)
}

// ListPaths lists all materialized paths.
func (m *Manager) ListPaths() ([]*types.CablePath, error) {
	return m.store.ListPaths()
}

// GetCable retrieves a cable by ID.
func (m *Manager) GetCable(id string) (*types.Cable, error) {
	return m.store.GetCable(id)
}

// ListCables lists all cables.
func (m *Manager) ListCables() ([]*types.Cable, error) {
	return m.store.ListCables()
}

// PathNode is one rehydrated entry of a path's node chain. Exactly one of
// Cable and Termination is set; Device is filled for device-bound
// terminations.
type PathNode struct {
	Ref         types.Ref
	Cable       *types.Cable
	Termination *types.Termination
	Device      *types.Device
}

// ResolvePath rehydrates a path's full node chain, origin and destination
// included, into entities. Each unique entity is fetched once regardless of
// how often it appears.
func (m *Manager) ResolvePath(path *types.CablePath) ([]*PathNode, error) {
	refs := make([]types.Ref, 0, len(path.Path)+2)
	refs = append(refs, path.Origin)
	refs = append(refs, path.Path...)
	if path.Destination != nil {
		refs = append(refs, *path.Destination)
	}

	cables := make(map[string]*types.Cable)
	terminations := make(map[types.Ref]*types.Termination)
	devices := make(map[string]*types.Device)

	nodes := make([]*PathNode, 0, len(refs))
	for _, ref := range refs {
		node := &PathNode{Ref: ref}

		if ref.Type == types.TypeCable {
			cable, ok := cables[ref.ID]
			if !ok {
				var err error
				cable, err = m.store.GetCable(ref.ID)
				if err != nil {
					return nil, fmt.Errorf("resolving path %s: %w", path.ID, err)
				}
				cables[ref.ID] = cable
			}
			node.Cable = cable
			nodes = append(nodes, node)
			continue
		}

		term, ok := terminations[ref]
		if !ok {
			var err error
			term, err = m.store.GetTermination(ref)
			if err != nil {
				return nil, fmt.Errorf("resolving path %s: %w", path.ID, err)
			}
			terminations[ref] = term
		}
		node.Termination = term

		if term.DeviceID != "" {
			device, ok := devices[term.DeviceID]
			if !ok {
				var err error
				device, err = m.store.GetDevice(term.DeviceID)
				if err != nil {
					return nil, fmt.Errorf("resolving path %s: %w", path.ID, err)
				}
				devices[term.DeviceID] = device
			}
			node.Device = device
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// PathTotalLength sums the normalized lengths of every cable on the path, in
// micrometers. The second return value is false when any cable has no
// recorded length, in which case the sum covers only the cables that do.
func (m *Manager) PathTotalLength(path *types.CablePath) (int64, bool, error) {
	var total int64
	complete := true
	for _, id := range path.CableIDs() {
		cable, err := m.store.GetCable(id)
		if err != nil {
			return 0, false, err
		}
		if cable.AbsLength == nil {
			complete = false
			continue
		}
		total += *cable.AbsLength
	}
	return total, complete, nil
}
