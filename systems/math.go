// Package systems contains the per-tick movement, perception and heuristic
// steering rules the game loop applies to agents.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// up is the vertical axis juke rotations turn about.
var up = r3.Vec{Y: 1}

// lerp blends a toward b by t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// lerpAngle blends angle a toward b along the shorter arc.
func lerpAngle(a, b, t float64) float64 {
	return normalizeAngle(a + normalizeAngle(b-a)*t)
}

// smoothingAlpha converts a per-reference-frame blend factor into the blend
// for a step of dt seconds, so variable frame times converge at the same rate.
func smoothingAlpha(factor, dt, referenceRate float64) float64 {
	if factor >= 1 {
		return 1
	}
	if factor <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Pow(1-factor, dt*referenceRate)
}

// unitOrZero returns the unit vector of v, or the zero vector when v has no length.
func unitOrZero(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// HorizontalDistance returns the distance between a and b ignoring height.
func HorizontalDistance(a, b r3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// HorizontalLength returns the distance of v from the vertical axis.
func HorizontalLength(v r3.Vec) float64 {
	return math.Hypot(v.X, v.Z)
}
