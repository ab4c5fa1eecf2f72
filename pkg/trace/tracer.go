package trace

import (
	"errors"
	"fmt"

	"github.com/tracewire/tracewire/pkg/types"
)

// DefaultMaxHops bounds a single trace. Loop detection catches exact cable
// repetition; the hop guard protects against pathological-but-finite chains
// produced by corrupted data.
const DefaultMaxHops = 256

// Graph is the read access a trace needs. BoltStore satisfies it; tests use
// an in-memory implementation.
type Graph interface {
	GetTermination(ref types.Ref) (*types.Termination, error)
	GetCable(id string) (*types.Cable, error)
	GetFrontPort(rearPortID string, position int) (*types.Termination, error)
	ListFrontPorts(rearPortID string) ([]*types.Termination, error)
	GetCircuitTermination(circuitID string, side types.CircuitSide) (*types.Termination, error)
}

// Hop is one cable crossing: the near termination, the cable, and the far
// termination.
type Hop struct {
	Near  types.Ref
	Cable string
	Far   types.Ref
}

// Result is the outcome of a trace. Loop and split are legitimate topology
// states, not errors: callers are expected to render them, not fail on them.
type Result struct {
	Origin types.Ref

	// Hops lists every cable crossing in order.
	Hops []Hop

	// Nodes is the materialized node list: alternating cables and
	// intermediate pass-through or circuit terminations, cable first.
	// The origin and destination are not included.
	Nodes []types.Ref

	// Destination is the far endpoint, nil when the chain breaks, loops,
	// or splits before reaching one.
	Destination *types.Ref

	// Split holds the candidate front ports when the trace stopped at a
	// multi-position rear port with no known originating position.
	Split []types.Ref

	// LoopDetected is true when the trace encountered a cable it had
	// already crossed.
	LoopDetected bool

	// AllConnected is true when every crossed cable has status connected.
	AllConnected bool

	// PositionStack holds positions pushed while ascending through front
	// ports that were never consumed. A mid-chain start can legitimately
	// leave residue here.
	PositionStack []int
}

// IsSplit reports whether the trace ended ambiguously.
func (r *Result) IsSplit() bool {
	return len(r.Split) > 0
}

// Tracer walks the cable graph from an origin termination to its far
// endpoint(s). The walk is iterative with an explicit position stack, so
// arbitrarily long patch chains cannot exhaust the call stack.
type Tracer struct {
	graph Graph

	// MaxHops caps the number of cable crossings per trace.
	MaxHops int

	// FollowCircuits controls whether a trace continues through a provider
	// circuit to its far-side termination.
	FollowCircuits bool
}

// NewTracer creates a tracer with default settings.
func NewTracer(graph Graph) *Tracer {
	return &Tracer{
		graph:          graph,
		MaxHops:        DefaultMaxHops,
		FollowCircuits: true,
	}
}

// Trace follows the chain of cables and pass-through ports starting at
// origin. It returns ErrPathTooLong when the hop guard trips and propagates
// storage failures; every other outcome, including loops and splits, is a
// Result.
func (t *Tracer) Trace(origin types.Ref) (*Result, error) {
	endpoint, err := t.graph.GetTermination(origin)
	if err != nil {
		return nil, err
	}

	res := &Result{Origin: origin, AllConnected: true}
	seen := make(map[string]bool)
	var stack []int

	for endpoint.CableID != "" {
		if len(res.Hops) >= t.MaxHops {
			return nil, fmt.Errorf("%w: more than %d hops from %s",
				types.ErrPathTooLong, t.MaxHops, origin)
		}

		// A cable we have already crossed means the wiring forms a ring.
		// Terminate with the path so far and no destination.
		if seen[endpoint.CableID] {
			res.LoopDetected = true
			break
		}

		cable, err := t.graph.GetCable(endpoint.CableID)
		if err != nil {
			return nil, err
		}
		farRef, ok := cable.OtherEnd(endpoint.Ref())
		if !ok {
			return nil, fmt.Errorf("cable %s does not terminate %s",
				cable.ID, endpoint.Ref())
		}
		far, err := t.graph.GetTermination(farRef)
		if err != nil {
			return nil, err
		}

		seen[cable.ID] = true
		if cable.Status != types.CableStatusConnected {
			res.AllConnected = false
		}
		res.Hops = append(res.Hops, Hop{Near: endpoint.Ref(), Cable: cable.ID, Far: farRef})
		res.Nodes = append(res.Nodes, cable.Ref())

		switch far.Type {
		case types.TypeFrontPort:
			// Ascend to the rear port. Remember which slot we came
			// through so a later descent through a many-to-one rear
			// port picks the matching front port.
			res.Nodes = append(res.Nodes, far.Ref())
			rear, err := t.graph.GetTermination(types.Ref{
				Type: types.TypeRearPort, ID: far.RearPortID,
			})
			if err != nil {
				return nil, err
			}
			if rear.Positions > 1 {
				stack = append(stack, far.RearPortPosition)
			}
			res.Nodes = append(res.Nodes, rear.Ref())
			endpoint = rear

		case types.TypeRearPort:
			res.Nodes = append(res.Nodes, far.Ref())
			position := 1
			if far.Positions > 1 {
				if len(stack) > 0 {
					position = stack[len(stack)-1]
					stack = stack[:len(stack)-1]
				} else {
					// No way to disambiguate which front port to
					// continue into: report every mapped front port
					// as a split branch.
					fronts, err := t.graph.ListFrontPorts(far.ID)
					if err != nil {
						return nil, err
					}
					for _, fp := range fronts {
						res.Split = append(res.Split, fp.Ref())
					}
					res.PositionStack = stack
					return res, nil
				}
			}
			fp, err := t.graph.GetFrontPort(far.ID, position)
			if err != nil {
				if errors.Is(err, types.ErrTerminationNotFound) {
					// No front port mapped at this slot: broken path.
					res.PositionStack = stack
					return res, nil
				}
				return nil, err
			}
			res.Nodes = append(res.Nodes, fp.Ref())
			endpoint = fp

		case types.TypeCircuitTermination:
			if !t.FollowCircuits {
				dest := far.Ref()
				res.Destination = &dest
				res.PositionStack = stack
				return res, nil
			}
			res.Nodes = append(res.Nodes, far.Ref())
			peerSide := types.CircuitSideZ
			if far.Side == types.CircuitSideZ {
				peerSide = types.CircuitSideA
			}
			peer, err := t.graph.GetCircuitTermination(far.CircuitID, peerSide)
			if err != nil {
				if errors.Is(err, types.ErrTerminationNotFound) {
					// Circuit has no far-side termination; the chain
					// ends inside the provider network.
					res.PositionStack = stack
					return res, nil
				}
				return nil, err
			}
			res.Nodes = append(res.Nodes, peer.Ref())
			endpoint = peer

		default:
			dest := far.Ref()
			res.Destination = &dest
			res.PositionStack = stack
			return res, nil
		}
	}

	res.PositionStack = stack
	return res, nil
}
