package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/config"
)

func testIntegrator(t *testing.T) Integrator {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	return NewIntegrator(cfg)
}

func TestArenaClamp(t *testing.T) {
	a := Arena{Radius: 10}

	inside := r3.Vec{X: 3, Y: 2, Z: 4}
	if got := a.Clamp(inside); got != inside {
		t.Errorf("inside point moved: %+v", got)
	}

	got := a.Clamp(r3.Vec{X: 30, Y: 7, Z: 40})
	if r := HorizontalLength(got); math.Abs(r-10) > 1e-9 {
		t.Errorf("clamped radius = %v, want 10", r)
	}
	if math.Abs(got.X-6) > 1e-9 || math.Abs(got.Z-8) > 1e-9 {
		t.Errorf("clamp changed direction: %+v", got)
	}
	if got.Y != 7 {
		t.Errorf("clamp changed height: %v", got.Y)
	}
}

func TestArenaInwardPush(t *testing.T) {
	a := Arena{Radius: 30, PushRadius: 29}

	if f := a.InwardPush(r3.Vec{X: 28}, 2); f != (r3.Vec{}) {
		t.Errorf("push inside radius = %+v, want zero", f)
	}

	f := a.InwardPush(r3.Vec{X: 29.5, Y: 3}, 2)
	if math.Abs(f.X+2) > 1e-9 || f.Y != 0 || f.Z != 0 {
		t.Errorf("push at boundary = %+v, want (-2, 0, 0)", f)
	}
}

func TestArenaGrounded(t *testing.T) {
	a := Arena{GroundLevel: 0.5, GroundedEpsilon: 0.05}
	tests := []struct {
		y    float64
		want bool
	}{
		{0.5, true},
		{0.54, true},
		{0.56, false},
		{3, false},
	}
	for _, tt := range tests {
		if got := a.Grounded(r3.Vec{Y: tt.y}); got != tt.want {
			t.Errorf("Grounded(y=%v) = %v, want %v", tt.y, got, tt.want)
		}
	}
}

func TestStepKeepsAgentsInArena(t *testing.T) {
	in := testIntegrator(t)
	rng := rand.New(rand.NewSource(7))

	pos := components.Position{Vec: r3.Vec{X: 20, Y: in.Arena.GroundLevel}}
	vel := components.Velocity{}
	head := components.Heading{}

	for i := 0; i < 5000; i++ {
		// Variable frame times between 1 and 50 ms
		dt := 0.001 + rng.Float64()*0.049
		force := r3.Vec{X: rng.NormFloat64() * 10, Z: rng.NormFloat64() * 10}
		if rng.Float64() < 0.02 && in.Arena.Grounded(pos.Vec) {
			vel.Y = 12
		}
		in.Step(&pos, &vel, &head, force, 0.2, dt)

		if r := HorizontalLength(pos.Vec); r > in.Arena.Radius+1e-9 {
			t.Fatalf("tick %d: radius %v exceeds boundary %v", i, r, in.Arena.Radius)
		}
		if pos.Y < in.Arena.GroundLevel {
			t.Fatalf("tick %d: height %v below ground %v", i, pos.Y, in.Arena.GroundLevel)
		}
	}
}

func TestStepGroundContactZeroesVerticalVelocity(t *testing.T) {
	in := testIntegrator(t)
	pos := components.Position{Vec: r3.Vec{Y: in.Arena.GroundLevel}}
	vel := components.Velocity{Vec: r3.Vec{Y: -5}}
	head := components.Heading{}

	in.Step(&pos, &vel, &head, r3.Vec{}, 0.2, 1.0/60)

	if pos.Y != in.Arena.GroundLevel {
		t.Errorf("height = %v, want ground %v", pos.Y, in.Arena.GroundLevel)
	}
	if vel.Y != 0 {
		t.Errorf("vertical velocity = %v, want 0", vel.Y)
	}
}

func TestStepJumpArc(t *testing.T) {
	in := testIntegrator(t)
	pos := components.Position{Vec: r3.Vec{Y: in.Arena.GroundLevel}}
	vel := components.Velocity{Vec: r3.Vec{Y: 12}}
	head := components.Heading{}

	peak := pos.Y
	landed := false
	for i := 0; i < 120; i++ {
		in.Step(&pos, &vel, &head, r3.Vec{}, 0.2, 1.0/60)
		peak = math.Max(peak, pos.Y)
		if i > 0 && in.Arena.Grounded(pos.Vec) {
			landed = true
			break
		}
	}
	if peak < in.Arena.GroundLevel+1.5 {
		t.Errorf("jump peak %v too low", peak)
	}
	if !landed {
		t.Error("agent never landed")
	}
}

func TestStepSmoothingIndependentOfFrameRate(t *testing.T) {
	in := testIntegrator(t)
	force := r3.Vec{X: 2}

	// One 1/30 s step should match two 1/60 s steps
	posA := components.Position{Vec: r3.Vec{Y: in.Arena.GroundLevel}}
	velA := components.Velocity{}
	in.Step(&posA, &velA, &components.Heading{}, force, 0.2, 1.0/30)

	posB := components.Position{Vec: r3.Vec{Y: in.Arena.GroundLevel}}
	velB := components.Velocity{}
	in.Step(&posB, &velB, &components.Heading{}, force, 0.2, 1.0/60)
	in.Step(&posB, &velB, &components.Heading{}, force, 0.2, 1.0/60)

	if math.Abs(velA.X-velB.X) > 1e-9 {
		t.Errorf("velocity after 1/30 s: %v (one step) vs %v (two steps)", velA.X, velB.X)
	}
}

func TestStepTerminalVelocity(t *testing.T) {
	in := testIntegrator(t)
	pos := components.Position{Vec: r3.Vec{Y: in.Arena.GroundLevel}}
	vel := components.Velocity{}
	head := components.Heading{}

	for i := 0; i < 600; i++ {
		in.Step(&pos, &vel, &head, r3.Vec{Z: 2}, 0.1, 1.0/60)
		pos.Vec = r3.Vec{Y: pos.Y} // stay clear of the wall
	}
	want := 2 * in.DriveGain
	if math.Abs(vel.Z-want) > 1e-6 {
		t.Errorf("terminal speed = %v, want %v", vel.Z, want)
	}
}

func TestStepYaw(t *testing.T) {
	in := testIntegrator(t)

	// Below the speed threshold heading does not move
	pos := components.Position{Vec: r3.Vec{Y: in.Arena.GroundLevel}}
	vel := components.Velocity{}
	head := components.Heading{Yaw: 1}
	in.Step(&pos, &vel, &head, r3.Vec{}, 0.2, 1.0/60)
	if head.Yaw != 1 {
		t.Errorf("yaw changed at rest: %v", head.Yaw)
	}

	// Moving along +X turns heading toward atan2(1, 0) = Pi/2
	vel = components.Velocity{Vec: r3.Vec{X: 10}}
	head = components.Heading{}
	for i := 0; i < 300; i++ {
		in.Step(&pos, &vel, &head, r3.Vec{X: 2}, 0.2, 1.0/60)
		pos.Vec = r3.Vec{Y: pos.Y}
	}
	if math.Abs(head.Yaw-math.Pi/2) > 1e-3 {
		t.Errorf("yaw = %v, want %v", head.Yaw, math.Pi/2)
	}
}

func TestLerpAngleShortestArc(t *testing.T) {
	got := lerpAngle(math.Pi-0.1, -math.Pi+0.1, 0.5)
	if math.Abs(math.Abs(got)-math.Pi) > 1e-9 {
		t.Errorf("lerpAngle across the seam = %v, want +-Pi", got)
	}
}
