package manager

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tracewire/tracewire/pkg/events"
	"github.com/tracewire/tracewire/pkg/metrics"
	"github.com/tracewire/tracewire/pkg/registry"
	"github.com/tracewire/tracewire/pkg/types"
)

// CableSpec describes a cable to create. The two termination references are
// fixed for the life of the cable; everything else can change later via
// UpdateCable.
type CableSpec struct {
	TerminationA types.Ref
	TerminationB types.Ref

	Type   string
	Status types.CableStatus
	Label  string
	Color  string

	Length     *float64
	LengthUnit types.LengthUnit
}

// CableUpdate carries the mutable cable fields. Nil pointers leave the
// current value untouched; ClearLength removes the recorded length entirely.
type CableUpdate struct {
	Type   *string
	Status *types.CableStatus
	Label  *string
	Color  *string

	Length      *float64
	LengthUnit  *types.LengthUnit
	ClearLength bool
}

// CreateCable validates and creates a cable between two terminations, then
// recomputes every path the new link affects. Validation happens entirely
// before the write: a rejected cable leaves no trace in the store.
func (m *Manager) CreateCable(spec CableSpec) (*types.Cable, error) {
	status := spec.Status
	if status == "" {
		status = types.CableStatusConnected
	}
	if !status.Valid() {
		return nil, m.reject(fmt.Errorf("unknown cable status %q", spec.Status))
	}

	termA, err := m.store.GetTermination(spec.TerminationA)
	if err != nil {
		return nil, m.reject(err)
	}
	termB, err := m.store.GetTermination(spec.TerminationB)
	if err != nil {
		return nil, m.reject(err)
	}

	for _, term := range []*types.Termination{termA, termB} {
		if !registry.Connectable(term) {
			return nil, m.reject(fmt.Errorf("%w: %s is %s",
				types.ErrNonConnectableInterface, term.Name, term.InterfaceKind))
		}
	}

	if !registry.Compatible(termA.Type, termB.Type) {
		return nil, m.reject(fmt.Errorf("%w: %s and %s",
			types.ErrIncompatibleTypes, termA.Type, termB.Type))
	}

	posA, posB := registry.Positions(termA), registry.Positions(termB)
	if posA > 1 && posB > 1 && posA != posB {
		return nil, m.reject(fmt.Errorf("%w: %d vs %d",
			types.ErrPositionMismatch, posA, posB))
	}

	if termA.Ref() == termB.Ref() {
		return nil, m.reject(fmt.Errorf("%w: %s",
			types.ErrSelfConnection, termA.Ref()))
	}

	if (termA.Type == types.TypeFrontPort && termA.RearPortID == termB.ID) ||
		(termB.Type == types.TypeFrontPort && termB.RearPortID == termA.ID) {
		return nil, m.reject(fmt.Errorf("%w: %s / %s",
			types.ErrFrontRearSelfPair, termA.Name, termB.Name))
	}

	for _, term := range []*types.Termination{termA, termB} {
		if term.CableID != "" {
			return nil, m.reject(fmt.Errorf("%w: %s holds cable %s",
				types.ErrTerminationOccupied, term.Ref(), term.CableID))
		}
	}

	now := time.Now()
	cable := &types.Cable{
		ID:           uuid.NewString(),
		Type:         spec.Type,
		Status:       status,
		Label:        spec.Label,
		Color:        spec.Color,
		TerminationA: termA.Ref(),
		TerminationB: termB.Ref(),
		DeviceAID:    termA.DeviceID,
		DeviceBID:    termB.DeviceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if spec.Length != nil {
		abs, err := normalizeLength(*spec.Length, spec.LengthUnit)
		if err != nil {
			return nil, m.reject(err)
		}
		cable.Length = spec.Length
		cable.LengthUnit = spec.LengthUnit
		cable.AbsLength = &abs
	}

	if err := m.store.AttachCable(cable); err != nil {
		return nil, m.reject(err)
	}

	metrics.CableMutationsTotal.WithLabelValues("create").Inc()
	m.logger.Info().
		Str("cable_id", cable.ID).
		Str("a", cable.TerminationA.String()).
		Str("b", cable.TerminationB.String()).
		Msg("Cable created")

	m.publish(events.EventCableCreated,
		fmt.Sprintf("Cable %s created between %s and %s",
			cable.ID, termA.Name, termB.Name),
		map[string]string{"cable_id": cable.ID})

	m.repathAffected(cable)
	return cable, nil
}

// UpdateCable applies mutable field changes to an existing cable. Endpoint
// moves are not updates; delete and recreate the cable instead. A status
// change recomputes the activity of every path the cable participates in.
func (m *Manager) UpdateCable(id string, update CableUpdate) (*types.Cable, error) {
	cable, err := m.store.GetCable(id)
	if err != nil {
		return nil, err
	}
	previousStatus := cable.Status

	if update.Type != nil {
		cable.Type = *update.Type
	}
	if update.Label != nil {
		cable.Label = *update.Label
	}
	if update.Color != nil {
		cable.Color = *update.Color
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, m.reject(fmt.Errorf("unknown cable status %q", *update.Status))
		}
		cable.Status = *update.Status
	}

	switch {
	case update.ClearLength:
		cable.Length = nil
		cable.LengthUnit = ""
		cable.AbsLength = nil
	case update.Length != nil:
		unit := cable.LengthUnit
		if update.LengthUnit != nil {
			unit = *update.LengthUnit
		}
		abs, err := normalizeLength(*update.Length, unit)
		if err != nil {
			return nil, m.reject(err)
		}
		cable.Length = update.Length
		cable.LengthUnit = unit
		cable.AbsLength = &abs
	case update.LengthUnit != nil && cable.Length != nil:
		abs, err := normalizeLength(*cable.Length, *update.LengthUnit)
		if err != nil {
			return nil, m.reject(err)
		}
		cable.LengthUnit = *update.LengthUnit
		cable.AbsLength = &abs
	}

	cable.UpdatedAt = time.Now()
	if err := m.store.UpdateCable(cable); err != nil {
		return nil, m.reject(err)
	}

	metrics.CableMutationsTotal.WithLabelValues("update").Inc()
	m.publish(events.EventCableUpdated,
		fmt.Sprintf("Cable %s updated", cable.ID),
		map[string]string{"cable_id": cable.ID})

	if cable.Status != previousStatus {
		m.logger.Info().
			Str("cable_id", cable.ID).
			Str("status", string(cable.Status)).
			Msg("Cable status changed, recomputing paths")
		m.repathAffected(cable)
	}
	return cable, nil
}

// DeleteCable detaches and removes a cable, then recomputes every path that
// traversed it. Paths originating at the freed terminations are deleted;
// paths that crossed the cable mid-chain survive truncated with no
// destination.
func (m *Manager) DeleteCable(id string) error {
	cable, err := m.store.DetachCable(id)
	if err != nil {
		return err
	}

	metrics.CableMutationsTotal.WithLabelValues("delete").Inc()
	m.logger.Info().Str("cable_id", id).Msg("Cable deleted")
	m.publish(events.EventCableDeleted,
		fmt.Sprintf("Cable %s deleted", id),
		map[string]string{"cable_id": id})

	m.repathAffected(cable)
	return nil
}

// repathAffected recomputes every materialized path the given cable touches:
// the paths originating at its two terminations, every stored path that
// crosses the cable, and every stored path that previously dead-ended at one
// of its terminations (those reference the termination as a pass-through
// node). Recompute failures are logged and counted, never propagated; the
// committed cable mutation stands and the sweeper retries later.
func (m *Manager) repathAffected(cable *types.Cable) {
	origins := map[types.Ref]bool{
		cable.TerminationA: true,
		cable.TerminationB: true,
	}

	if paths, err := m.store.ListPathsByCable(cable.ID); err == nil {
		for _, path := range paths {
			origins[path.Origin] = true
		}
	}

	if paths, err := m.store.ListPaths(); err == nil {
		for _, path := range paths {
			for _, node := range path.Path {
				if node == cable.TerminationA || node == cable.TerminationB {
					origins[path.Origin] = true
					break
				}
			}
		}
	}

	for origin := range origins {
		if err := m.RecomputePath(origin); err != nil {
			metrics.PathRecomputeFailuresTotal.Inc()
			m.logger.Error().Err(err).
				Str("origin", origin.String()).
				Msg("Path recompute failed")
		}
	}
}

// RecomputePath re-traces from origin and replaces its materialized path.
// Pass-through ports never own a path; an origin with no cable has its stale
// path removed.
func (m *Manager) RecomputePath(origin types.Ref) error {
	term, err := m.store.GetTermination(origin)
	if err != nil {
		if errors.Is(err, types.ErrTerminationNotFound) {
			return m.deletePath(origin)
		}
		return err
	}
	if registry.IsPassThrough(term.Type) {
		return nil
	}
	if term.CableID == "" {
		return m.deletePath(origin)
	}

	metrics.PathRecomputesTotal.Inc()
	result, err := m.tracer.Trace(origin)
	if err != nil {
		return err
	}

	now := time.Now()
	path := &types.CablePath{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: result.Destination,
		Path:        result.Nodes,
		IsActive:    result.Destination != nil && result.AllConnected,
		IsSplit:     result.IsSplit(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// A recompute keeps the path's identity stable so external references
	// survive rewires.
	if existing, err := m.store.GetPathByOrigin(origin); err == nil {
		path.ID = existing.ID
		path.CreatedAt = existing.CreatedAt
	}

	if err := m.store.ReplacePath(path); err != nil {
		return err
	}

	m.publish(events.EventPathUpdated,
		fmt.Sprintf("Path from %s recomputed", origin),
		map[string]string{"path_id": path.ID, "origin": origin.String()})

	if result.LoopDetected {
		metrics.TraceLoopsTotal.Inc()
		m.publish(events.EventPathLoop,
			fmt.Sprintf("Path from %s terminates in a cable loop", origin),
			map[string]string{"path_id": path.ID, "origin": origin.String()})
	}
	if path.IsSplit {
		metrics.TraceSplitsTotal.Inc()
		m.publish(events.EventPathSplit,
			fmt.Sprintf("Path from %s splits at a multi-position rear port", origin),
			map[string]string{"path_id": path.ID, "origin": origin.String()})
	}
	return nil
}

func (m *Manager) deletePath(origin types.Ref) error {
	if _, err := m.store.GetPathByOrigin(origin); err != nil {
		if errors.Is(err, types.ErrPathNotFound) ||
			errors.Is(err, types.ErrTerminationNotFound) {
			return nil
		}
		return err
	}
	if err := m.store.DeletePathByOrigin(origin); err != nil {
		return err
	}
	m.publish(events.EventPathDeleted,
		fmt.Sprintf("Path from %s removed", origin),
		map[string]string{"origin": origin.String()})
	return nil
}

func normalizeLength(length float64, unit types.LengthUnit) (int64, error) {
	if unit == "" {
		return 0, fmt.Errorf("%w: length %v has no unit", types.ErrLengthUnitRequired, length)
	}
	abs, ok := unit.Micrometers(length)
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", types.ErrLengthUnitRequired, unit)
	}
	return abs, nil
}

// reject counts a validation failure by kind and returns the error unchanged.
func (m *Manager) reject(err error) error {
	metrics.ValidationFailuresTotal.WithLabelValues(validationKind(err)).Inc()
	return err
}

func validationKind(err error) string {
	switch {
	case errors.Is(err, types.ErrTerminationNotFound):
		return "not_found"
	case errors.Is(err, types.ErrNonConnectableInterface):
		return "non_connectable"
	case errors.Is(err, types.ErrIncompatibleTypes):
		return "incompatible"
	case errors.Is(err, types.ErrPositionMismatch):
		return "position_mismatch"
	case errors.Is(err, types.ErrSelfConnection):
		return "self_connection"
	case errors.Is(err, types.ErrFrontRearSelfPair):
		return "front_rear_pair"
	case errors.Is(err, types.ErrTerminationOccupied):
		return "occupied"
	case errors.Is(err, types.ErrLengthUnitRequired):
		return "length_unit"
	case errors.Is(err, types.ErrImmutableTermination):
		return "immutable"
	default:
		return "other"
	}
}
