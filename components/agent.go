package components

// Role identifies which side of the game an agent plays.
type Role uint8

const (
	RoleHunter Role = iota
	RoleRunner
)

// String returns the display name for a Role.
func (r Role) String() string {
	switch r {
	case RoleHunter:
		return "HUNTER"
	case RoleRunner:
		return "RUNNER"
	default:
		return "UNKNOWN"
	}
}

// Agent bundles identity and liveness.
type Agent struct {
	ID    string
	Role  Role
	Slot  int  // index into the role's roster formation
	Alive bool // hunters are never eliminated
}

// ControlMode selects the controller that drives an agent.
type ControlMode uint8

const (
	ControlHeuristic ControlMode = iota
	ControlLearning
)

// String returns the display name for a ControlMode.
func (m ControlMode) String() string {
	if m == ControlLearning {
		return "learning"
	}
	return "heuristic"
}

// Control holds the controller assignment and the action it last chose.
type Control struct {
	Mode   ControlMode
	Action Action
}
