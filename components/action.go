package components

// Action is a discrete runner manoeuvre.
type Action uint8

const (
	ActionFlee Action = iota
	ActionJukeLeft
	ActionJukeRight
	ActionCenter
	ActionJump
)

// NumActions is the size of the action space.
const NumActions = 5

// String returns the display label for an Action.
func (a Action) String() string {
	names := ActionNames()
	if int(a) < len(names) {
		return names[a]
	}
	return "UNKNOWN"
}

// ActionNames returns the labels for all actions.
// The order matches the Action constants.
func ActionNames() []string {
	return []string{"FLEE", "JUKE_L", "JUKE_R", "CENTER", "JUMP"}
}
