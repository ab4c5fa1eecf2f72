package registry

import (
	"github.com/tracewire/tracewire/pkg/types"
)

// compatibility is the adjacency table of legal cable endpoint pairs. It is
// built once at init and never mutated. The table must stay symmetric: if B
// lists A, A lists B. init verifies this.
var compatibility = map[types.ObjectType][]types.ObjectType{
	types.TypeInterface: {
		types.TypeInterface,
		types.TypeCircuitTermination,
		types.TypeFrontPort,
		types.TypeRearPort,
	},
	types.TypeConsolePort: {
		types.TypeConsoleServerPort,
		types.TypeFrontPort,
		types.TypeRearPort,
	},
	types.TypeConsoleServerPort: {
		types.TypeConsolePort,
		types.TypeFrontPort,
		types.TypeRearPort,
	},
	types.TypePowerPort: {
		types.TypePowerOutlet,
		types.TypePowerFeed,
	},
	types.TypePowerOutlet: {
		types.TypePowerPort,
	},
	types.TypePowerFeed: {
		types.TypePowerPort,
	},
	types.TypeFrontPort: {
		types.TypeInterface,
		types.TypeConsolePort,
		types.TypeConsoleServerPort,
		types.TypeFrontPort,
		types.TypeRearPort,
		types.TypeCircuitTermination,
	},
	types.TypeRearPort: {
		types.TypeInterface,
		types.TypeConsolePort,
		types.TypeConsoleServerPort,
		types.TypeFrontPort,
		types.TypeRearPort,
		types.TypeCircuitTermination,
	},
	types.TypeCircuitTermination: {
		types.TypeInterface,
		types.TypeFrontPort,
		types.TypeRearPort,
		types.TypeCircuitTermination,
	},
}

// compatSet is the lookup form of the table.
var compatSet map[types.ObjectType]map[types.ObjectType]bool

func init() {
	compatSet = make(map[types.ObjectType]map[types.ObjectType]bool, len(compatibility))
	for t, peers := range compatibility {
		set := make(map[types.ObjectType]bool, len(peers))
		for _, p := range peers {
			set[p] = true
		}
		compatSet[t] = set
	}

	// The relation must be symmetric or cable validation would depend on
	// which end is A and which is B.
	for t, peers := range compatSet {
		for p := range peers {
			if !compatSet[p][t] {
				panic("registry: compatibility table is not symmetric: " +
					string(t) + " -> " + string(p))
			}
		}
	}
}

// IsTermination reports whether t is a known termination variant.
func IsTermination(t types.ObjectType) bool {
	_, ok := compatSet[t]
	return ok
}

// Compatible reports whether terminations of type a and b may be cabled
// together.
func Compatible(a, b types.ObjectType) bool {
	return compatSet[a][b]
}

// CompatibleTypes returns the allowed peer types for a termination type.
// The returned slice is a copy; callers may modify it.
func CompatibleTypes(t types.ObjectType) []types.ObjectType {
	peers := compatibility[t]
	out := make([]types.ObjectType, len(peers))
	copy(out, peers)
	return out
}

// IsPassThrough reports whether the type relays a signal to another physical
// position rather than terminating it.
func IsPassThrough(t types.ObjectType) bool {
	return t == types.TypeFrontPort || t == types.TypeRearPort
}

// Positions returns the slot count used by the equal-positions validation
// rule: the declared count for rear ports, 1 for everything else. A front
// port always maps to exactly one rear port slot.
func Positions(t *types.Termination) int {
	if t.Type == types.TypeRearPort && t.Positions > 1 {
		return t.Positions
	}
	return 1
}

// Connectable reports whether the termination may carry a cable at all.
// Virtual and wireless interfaces are rejected regardless of the
// compatibility table.
func Connectable(t *types.Termination) bool {
	if t.Type != types.TypeInterface {
		return true
	}
	switch t.InterfaceKind {
	case types.InterfaceKindVirtual, types.InterfaceKindWireless:
		return false
	}
	return true
}
