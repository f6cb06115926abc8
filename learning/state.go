// Package learning implements the tabular epsilon-greedy runner policy.
package learning

// Distance buckets the horizontal distance to the nearest hunter.
type Distance uint8

const (
	DistanceCritical Distance = iota
	DistanceClose
	DistanceFar
)

// Wall buckets the distance from the arena boundary.
type Wall uint8

const (
	WallNear Wall = iota
	WallSafe
)

// Footing records whether the agent is standing on the floor.
type Footing uint8

const (
	FootingGround Footing = iota
	FootingAir
)

const (
	numDistances = 3
	numWalls     = 2
	numFootings  = 2

	// NumStates is the number of discrete states.
	NumStates = numDistances * numWalls * numFootings
)

// State is one cell of the discretized observation space.
type State struct {
	Distance Distance
	Wall     Wall
	Footing  Footing
}

// DefaultState is the state a learner bootstraps from at round start:
// far from any hunter, clear of the wall, on the ground.
var DefaultState = State{Distance: DistanceFar, Wall: WallSafe, Footing: FootingGround}

// Index maps the state to a dense index in [0, NumStates). Table rows are
// stored at this index.
func (s State) Index() int {
	return (int(s.Distance)*numWalls+int(s.Wall))*numFootings + int(s.Footing)
}

// Grounded reports whether the state was observed on the floor.
func (s State) Grounded() bool {
	return s.Footing == FootingGround
}

func (d Distance) String() string {
	switch d {
	case DistanceCritical:
		return "CRITICAL"
	case DistanceClose:
		return "CLOSE"
	default:
		return "FAR"
	}
}

func (w Wall) String() string {
	if w == WallNear {
		return "WALL"
	}
	return "SAFE"
}

func (f Footing) String() string {
	if f == FootingGround {
		return "GROUND"
	}
	return "AIR"
}

// String returns the state label, e.g. "FAR_SAFE_GROUND".
func (s State) String() string {
	return s.Distance.String() + "_" + s.Wall.String() + "_" + s.Footing.String()
}

// Discretize buckets a runner's observation into a State.
func (p Params) Discretize(distToThreat, distToCenter float64, grounded bool) State {
	var s State
	switch {
	case distToThreat < p.CriticalRange:
		s.Distance = DistanceCritical
	case distToThreat < p.CloseRange:
		s.Distance = DistanceClose
	default:
		s.Distance = DistanceFar
	}
	if distToCenter > p.BoundaryRadius-p.WallMargin {
		s.Wall = WallNear
	} else {
		s.Wall = WallSafe
	}
	if grounded {
		s.Footing = FootingGround
	} else {
		s.Footing = FootingAir
	}
	return s
}
