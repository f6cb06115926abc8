package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/config"
)

// Nearest returns the candidate closest to from on the horizontal plane.
// Ties keep the earliest candidate. ok is false when candidates is empty.
func Nearest(from r3.Vec, candidates []r3.Vec) (dist float64, target r3.Vec, idx int, ok bool) {
	if len(candidates) == 0 {
		return 0, r3.Vec{}, -1, false
	}
	dist = math.Inf(1)
	for i, c := range candidates {
		if d := HorizontalDistance(from, c); d < dist {
			dist, target, idx = d, c, i
		}
	}
	return dist, target, idx, true
}

// HunterParams holds the pursuit heuristic knobs.
type HunterParams struct {
	Speed            float64
	JumpRange        float64
	JumpTargetHeight float64
	JumpChance       float64
}

// HunterParamsFromConfig returns the hunter knobs from cfg.
func HunterParamsFromConfig(cfg *config.Config) HunterParams {
	return HunterParams{
		Speed:            cfg.Hunter.Speed,
		JumpRange:        cfg.Hunter.JumpRange,
		JumpTargetHeight: cfg.Hunter.JumpTargetHeight,
		JumpChance:       cfg.Hunter.JumpChance,
	}
}

// Intent is a controller's output for one tick.
type Intent struct {
	Force r3.Vec // horizontal steering force
	Jump  bool   // set vertical velocity to the jump impulse
}

// Pursue steers a hunter straight at its nearest target.
// The hunter jumps when grounded, within jump range, and either the target is
// airborne above the height threshold or the random jump chance fires.
func Pursue(self, target r3.Vec, dist float64, grounded bool, p HunterParams, rng *rand.Rand) Intent {
	dir := unitOrZero(components.Horizontal(r3.Sub(target, self)))
	intent := Intent{Force: r3.Scale(p.Speed, dir)}
	if grounded && dist < p.JumpRange {
		if target.Y > p.JumpTargetHeight || rng.Float64() < p.JumpChance {
			intent.Jump = true
		}
	}
	return intent
}

// RunnerParams holds the scripted-runner heuristic and action mapping knobs.
type RunnerParams struct {
	AirborneFactor   float64
	FleeRange        float64
	BoundaryRadius   float64
	BoundaryMargin   float64
	JumpRange        float64
	JumpChance       float64
	JukeMultiplier   float64
	CenterMultiplier float64
}

// RunnerParamsFromConfig returns the runner knobs from cfg.
func RunnerParamsFromConfig(cfg *config.Config) RunnerParams {
	return RunnerParams{
		AirborneFactor:   cfg.Runner.AirborneFactor,
		FleeRange:        cfg.Runner.FleeRange,
		BoundaryRadius:   cfg.Arena.BoundaryRadius,
		BoundaryMargin:   cfg.Runner.BoundaryMargin,
		JumpRange:        cfg.Runner.JumpRange,
		JumpChance:       cfg.Runner.JumpChance,
		JukeMultiplier:   cfg.Runner.JukeMultiplier,
		CenterMultiplier: cfg.Runner.CenterMultiplier,
	}
}

// ScriptedAction picks a non-learning runner's action.
//
// The rules are applied in order and each satisfied rule overwrites the
// previous choice: FLEE near a threat, CENTER near the wall, then a rare JUMP
// when the threat is very close. FLEE is also the fallback.
func ScriptedAction(distToThreat, distToCenter float64, grounded bool, p RunnerParams, rng *rand.Rand) components.Action {
	action := components.ActionFlee
	if distToThreat < p.FleeRange {
		action = components.ActionFlee
	}
	if distToCenter > p.BoundaryRadius-p.BoundaryMargin {
		action = components.ActionCenter
	}
	if distToThreat < p.JumpRange && rng.Float64() < p.JumpChance && grounded {
		action = components.ActionJump
	}
	return action
}

// RunnerSpeed returns the move speed for a runner, slowed while airborne.
func RunnerSpeed(base float64, grounded bool, p RunnerParams) float64 {
	if !grounded {
		return base * p.AirborneFactor
	}
	return base
}

// ActionIntent maps a runner action to a steering force.
// Jump is requested for ActionJump only; the caller applies it if grounded.
func ActionIntent(action components.Action, self, threat r3.Vec, speed float64, p RunnerParams) Intent {
	away := unitOrZero(components.Horizontal(r3.Sub(self, threat)))

	switch action {
	case components.ActionJukeLeft:
		return Intent{Force: r3.Scale(speed*p.JukeMultiplier, r3.Rotate(away, math.Pi/2, up))}
	case components.ActionJukeRight:
		return Intent{Force: r3.Scale(speed*p.JukeMultiplier, r3.Rotate(away, -math.Pi/2, up))}
	case components.ActionCenter:
		toCenter := unitOrZero(components.Horizontal(r3.Scale(-1, self)))
		return Intent{Force: r3.Scale(speed*p.CenterMultiplier, toCenter)}
	case components.ActionJump:
		return Intent{Force: r3.Scale(speed, away), Jump: true}
	default:
		return Intent{Force: r3.Scale(speed, away)}
	}
}
