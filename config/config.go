// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Arena     ArenaConfig     `yaml:"arena"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Hunter    HunterConfig    `yaml:"hunter"`
	Runner    RunnerConfig    `yaml:"runner"`
	Learning  LearningConfig  `yaml:"learning"`
	Round     RoundConfig     `yaml:"round"`
	Roster    RosterConfig    `yaml:"roster"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Feed      FeedConfig      `yaml:"feed"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig holds the circular arena geometry.
type ArenaConfig struct {
	BoundaryRadius     float64 `yaml:"boundary_radius"`      // Horizontal clamp radius around the origin
	GroundLevel        float64 `yaml:"ground_level"`         // Minimum height of an agent's position
	GroundedEpsilon    float64 `yaml:"grounded_epsilon"`     // Height tolerance for the grounded flag
	BoundaryPushMargin float64 `yaml:"boundary_push_margin"` // Inward push applies beyond radius - margin
}

// PhysicsConfig holds integration parameters shared by every agent.
type PhysicsConfig struct {
	DT                float64 `yaml:"dt"`                  // Fixed step for headless runs (seconds)
	Gravity           float64 `yaml:"gravity"`             // Downward acceleration (units/s^2)
	JumpImpulse       float64 `yaml:"jump_impulse"`        // Vertical velocity set on jump
	DriveGain         float64 `yaml:"drive_gain"`          // Terminal horizontal velocity per unit of force
	ReferenceRate     float64 `yaml:"reference_rate"`      // Frame rate the smoothing factors are tuned for
	YawSmoothing      float64 `yaml:"yaw_smoothing"`       // Per-reference-frame blend toward heading
	YawSpeedThreshold float64 `yaml:"yaw_speed_threshold"` // Horizontal speed below which yaw is frozen
}

// HunterConfig holds pursuit heuristic parameters.
type HunterConfig struct {
	Speed            float64 `yaml:"speed"`
	Smoothing        float64 `yaml:"smoothing"`          // Per-reference-frame velocity blend
	JumpRange        float64 `yaml:"jump_range"`         // Jump only when the target is closer than this
	JumpTargetHeight float64 `yaml:"jump_target_height"` // Jump when the target is higher than this
	JumpChance       float64 `yaml:"jump_chance"`        // Per-tick random jump probability in range
}

// RunnerConfig holds evasion heuristic and action mapping parameters.
type RunnerConfig struct {
	Speed            float64 `yaml:"speed"`
	Smoothing        float64 `yaml:"smoothing"`
	AirborneFactor   float64 `yaml:"airborne_factor"`   // Speed multiplier while not grounded
	FleeRange        float64 `yaml:"flee_range"`        // Scripted runners flee inside this distance
	BoundaryMargin   float64 `yaml:"boundary_margin"`   // Scripted runners head to centre beyond radius - margin
	JumpRange        float64 `yaml:"jump_range"`        // Scripted runners may jump inside this distance
	JumpChance       float64 `yaml:"jump_chance"`       // Per-tick jump probability in range
	JukeMultiplier   float64 `yaml:"juke_multiplier"`   // Speed multiplier for JUKE_L / JUKE_R
	CenterMultiplier float64 `yaml:"center_multiplier"` // Speed multiplier for CENTER
}

// LearningConfig holds the tabular learner parameters.
type LearningConfig struct {
	Alpha            float64 `yaml:"alpha"`
	Gamma            float64 `yaml:"gamma"`
	InitialEpsilon   float64 `yaml:"initial_epsilon"`
	MinEpsilon       float64 `yaml:"min_epsilon"`
	EpsilonDecay     float64 `yaml:"epsilon_decay"`
	DecisionInterval float64 `yaml:"decision_interval"` // Seconds between policy evaluations
	SurvivalReward   float64 `yaml:"survival_reward"`
	TerminalReward   float64 `yaml:"terminal_reward"`
	CriticalRange    float64 `yaml:"critical_range"` // Threat distance below which the state is CRITICAL
	CloseRange       float64 `yaml:"close_range"`    // Threat distance below which the state is CLOSE
	WallMargin       float64 `yaml:"wall_margin"`    // WALL when distance to centre > radius - margin
}

// RoundConfig holds round lifecycle parameters.
type RoundConfig struct {
	Duration    float64 `yaml:"duration"`     // Seconds until runners win
	ResetDelay  float64 `yaml:"reset_delay"`  // Seconds between round over and the next round
	TagDistance float64 `yaml:"tag_distance"` // Horizontal distance that eliminates a runner
}

// SlotConfig places one agent of the roster.
// Agents without an explicit position are spread on a ring of the given radius.
type SlotConfig struct {
	ID       string    `yaml:"id"`
	Position []float64 `yaml:"position,omitempty"` // Optional fixed [x, z]
}

// RingPoint is a resolved horizontal spawn location.
type RingPoint struct {
	X, Z float64
}

// RosterConfig holds the agents that take part in every round.
type RosterConfig struct {
	Hunters          []SlotConfig `yaml:"hunters"`
	Runners          []SlotConfig `yaml:"runners"`
	HunterRingRadius float64      `yaml:"hunter_ring_radius"` // Formation radius for hunters without a fixed position
	RunnerRingRadius float64      `yaml:"runner_ring_radius"` // Formation radius for runners without a fixed position
	Learner          string       `yaml:"learner"`            // ID of the runner driven by the learner ("" = none)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Rounds per stats and perf window
}

// FeedConfig holds presentation feed parameters.
type FeedConfig struct {
	BroadcastEvery int `yaml:"broadcast_every"` // Ticks between snapshot broadcasts
	TargetFPS      int `yaml:"target_fps"`      // Real-time loop frequency
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HunterSpawns []RingPoint // Resolved hunter formation, in roster order
	RunnerSpawns []RingPoint // Resolved runner formation, in roster order
	PushRadius   float64     // BoundaryRadius - BoundaryPushMargin
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate rejects configurations the engine cannot run.
func (c *Config) Validate() error {
	switch {
	case c.Arena.BoundaryRadius <= 0:
		return fmt.Errorf("arena.boundary_radius must be positive, got %v", c.Arena.BoundaryRadius)
	case c.Round.Duration <= 0:
		return fmt.Errorf("round.duration must be positive, got %v", c.Round.Duration)
	case c.Round.ResetDelay < 0:
		return fmt.Errorf("round.reset_delay must not be negative, got %v", c.Round.ResetDelay)
	case c.Learning.DecisionInterval <= 0:
		return fmt.Errorf("learning.decision_interval must be positive, got %v", c.Learning.DecisionInterval)
	case c.Learning.EpsilonDecay <= 0 || c.Learning.EpsilonDecay > 1:
		return fmt.Errorf("learning.epsilon_decay must be in (0, 1], got %v", c.Learning.EpsilonDecay)
	case len(c.Roster.Hunters) == 0:
		return fmt.Errorf("roster.hunters must not be empty")
	case len(c.Roster.Runners) == 0:
		return fmt.Errorf("roster.runners must not be empty")
	}

	seen := make(map[string]bool, len(c.Roster.Hunters)+len(c.Roster.Runners))
	for _, slots := range [][]SlotConfig{c.Roster.Hunters, c.Roster.Runners} {
		for _, s := range slots {
			if s.ID == "" {
				return fmt.Errorf("roster: agent id must not be empty")
			}
			if seen[s.ID] {
				return fmt.Errorf("roster: duplicate agent id %q", s.ID)
			}
			if len(s.Position) != 0 && len(s.Position) != 2 {
				return fmt.Errorf("roster: agent %q position must be [x, z]", s.ID)
			}
			seen[s.ID] = true
		}
	}

	if c.Roster.Learner != "" {
		found := false
		for _, s := range c.Roster.Runners {
			if s.ID == c.Roster.Learner {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("roster.learner %q is not a runner", c.Roster.Learner)
		}
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config.
// Call again after mutating a loaded Config in code.
func (c *Config) ComputeDerived() {
	c.Derived.PushRadius = c.Arena.BoundaryRadius - c.Arena.BoundaryPushMargin
	c.Derived.HunterSpawns = formation(c.Roster.Hunters, c.Roster.HunterRingRadius)
	c.Derived.RunnerSpawns = formation(c.Roster.Runners, c.Roster.RunnerRingRadius)
}

// formation resolves spawn points. Slots with a fixed position keep it; the
// rest are spaced evenly on a ring, angle measured from +Z toward +X.
func formation(slots []SlotConfig, radius float64) []RingPoint {
	var ringCount int
	for _, s := range slots {
		if len(s.Position) == 0 {
			ringCount++
		}
	}

	points := make([]RingPoint, len(slots))
	ringIdx := 0
	for i, s := range slots {
		if len(s.Position) == 2 {
			points[i] = RingPoint{X: s.Position[0], Z: s.Position[1]}
		} else {
			angle := float64(ringIdx) / float64(ringCount) * 2 * math.Pi
			points[i] = RingPoint{X: math.Sin(angle) * radius, Z: math.Cos(angle) * radius}
			ringIdx++
		}
	}
	return points
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
