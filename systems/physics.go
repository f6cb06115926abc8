package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/config"
)

// Arena describes the circular playing field.
type Arena struct {
	Radius          float64 // horizontal clamp radius
	GroundLevel     float64
	GroundedEpsilon float64
	PushRadius      float64 // inward push applies beyond this horizontal distance
}

// ArenaFromConfig returns the arena described by cfg.
func ArenaFromConfig(cfg *config.Config) Arena {
	return Arena{
		Radius:          cfg.Arena.BoundaryRadius,
		GroundLevel:     cfg.Arena.GroundLevel,
		GroundedEpsilon: cfg.Arena.GroundedEpsilon,
		PushRadius:      cfg.Derived.PushRadius,
	}
}

// Grounded reports whether an agent at pos is standing on the floor.
func (a Arena) Grounded(pos r3.Vec) bool {
	return pos.Y <= a.GroundLevel+a.GroundedEpsilon
}

// Clamp pulls pos back onto the boundary circle when it lies outside it.
// Direction from the centre is preserved; height is untouched.
func (a Arena) Clamp(pos r3.Vec) r3.Vec {
	r := HorizontalLength(pos)
	if r <= a.Radius {
		return pos
	}
	scale := a.Radius / r
	return r3.Vec{X: pos.X * scale, Y: pos.Y, Z: pos.Z * scale}
}

// InwardPush returns a centre-bound force of the given magnitude for agents
// beyond the push radius, and zero otherwise.
func (a Arena) InwardPush(pos r3.Vec, speed float64) r3.Vec {
	if HorizontalLength(pos) <= a.PushRadius {
		return r3.Vec{}
	}
	return r3.Scale(speed, unitOrZero(components.Horizontal(r3.Scale(-1, pos))))
}

// Integrator advances agent kinematics by one tick.
type Integrator struct {
	Arena             Arena
	Gravity           float64
	DriveGain         float64
	ReferenceRate     float64
	YawSmoothing      float64
	YawSpeedThreshold float64
}

// NewIntegrator creates an integrator from cfg.
func NewIntegrator(cfg *config.Config) Integrator {
	return Integrator{
		Arena:             ArenaFromConfig(cfg),
		Gravity:           cfg.Physics.Gravity,
		DriveGain:         cfg.Physics.DriveGain,
		ReferenceRate:     cfg.Physics.ReferenceRate,
		YawSmoothing:      cfg.Physics.YawSmoothing,
		YawSpeedThreshold: cfg.Physics.YawSpeedThreshold,
	}
}

// Step integrates one agent over dt seconds under the applied force.
//
// Horizontal velocity eases toward force*DriveGain with the agent's smoothing
// factor; vertical velocity only feels gravity (jumps set it directly before
// Step). Position is kept above the floor and inside the boundary.
func (in Integrator) Step(pos *components.Position, vel *components.Velocity, head *components.Heading, force r3.Vec, smoothing, dt float64) {
	alpha := smoothingAlpha(smoothing, dt, in.ReferenceRate)
	target := r3.Scale(in.DriveGain, components.Horizontal(force))
	vel.X = lerp(vel.X, target.X, alpha)
	vel.Z = lerp(vel.Z, target.Z, alpha)
	vel.Y -= in.Gravity * dt

	pos.Vec = r3.Add(pos.Vec, r3.Scale(dt, vel.Vec))

	if pos.Y < in.Arena.GroundLevel {
		pos.Y = in.Arena.GroundLevel
		vel.Y = 0
	}
	pos.Vec = in.Arena.Clamp(pos.Vec)

	if math.Hypot(vel.X, vel.Z) > in.YawSpeedThreshold {
		target := math.Atan2(vel.X, vel.Z)
		head.Yaw = lerpAngle(head.Yaw, target, smoothingAlpha(in.YawSmoothing, dt, in.ReferenceRate))
	}
}
