package components

import "github.com/pthm-cable/pursuit/config"

// Motion holds the movement knobs an agent's controller drives with.
type Motion struct {
	Speed     float64 // force magnitude of a plain move
	Smoothing float64 // per-reference-frame horizontal velocity blend
}

// MotionForRole returns the movement knobs configured for the given role.
func MotionForRole(cfg *config.Config, role Role) Motion {
	if role == RoleHunter {
		return Motion{Speed: cfg.Hunter.Speed, Smoothing: cfg.Hunter.Smoothing}
	}
	return Motion{Speed: cfg.Runner.Speed, Smoothing: cfg.Runner.Smoothing}
}
