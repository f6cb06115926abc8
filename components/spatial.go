package components

import "gonum.org/v1/gonum/spatial/r3"

// Position represents an agent's world position.
// Y is height above the arena floor; X and Z span the horizontal plane.
type Position struct {
	r3.Vec
}

// Velocity represents an agent's velocity in units per second.
type Velocity struct {
	r3.Vec
}

// Heading represents an agent's facing.
type Heading struct {
	Yaw float64 // radians about the vertical axis, 0 faces +Z
}

// Horizontal returns the vector projected onto the horizontal plane.
func Horizontal(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Z: v.Z}
}
