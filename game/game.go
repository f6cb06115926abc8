// Package game runs the pursuit simulation: the agent registry, the
// per-tick update, and the round lifecycle.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/config"
	"github.com/pthm-cable/pursuit/learning"
	"github.com/pthm-cable/pursuit/systems"
	"github.com/pthm-cable/pursuit/telemetry"
)

// Options configures a Game.
type Options struct {
	Config    *config.Config // nil = config.Cfg()
	Seed      int64
	LogStats  bool   // log stats windows and perf via slog
	OutputDir string // CSV output directory ("" = disabled)

	// Optional hooks, called on the tick path.
	RoundCallback func(telemetry.RoundRecord)
	StatsCallback func(telemetry.WindowStats)
	PerfCallback  func(telemetry.PerfStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	agentMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Heading,
		components.Agent,
		components.Control,
	]
	agentFilter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Heading,
		components.Agent,
		components.Control,
	]

	posMap   *ecs.Map1[components.Position]
	velMap   *ecs.Map1[components.Velocity]
	headMap  *ecs.Map1[components.Heading]
	agentMap *ecs.Map1[components.Agent]
	ctrlMap  *ecs.Map1[components.Control]

	// Registry in roster order
	byID    map[string]ecs.Entity
	ids     []string
	hunters []ecs.Entity
	runners []ecs.Entity

	// Learning controllers, keyed by the agent they drive
	table    *learning.Table
	learners map[ecs.Entity]*learning.Learner
	learner  ecs.Entity // agent whose action label is reported
	hasLearn bool

	integrator   systems.Integrator
	hunterParams systems.HunterParams
	runnerParams systems.RunnerParams
	learnParams  learning.Params
	hunterMotion components.Motion
	runnerMotion components.Motion

	round      *Round
	active     *ActiveSet
	timers     Timers
	resetTimer TimerID

	tick         int64
	learnerDeath float64 // elapsed time the reported learner was tagged, <0 while alive

	// Per-tick scratch
	activeBuf []ecs.Entity
	runnerPos []r3.Vec
	hunterPos []r3.Vec

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	perfDue       bool // a stats window closed during this tick
	perfRound     int
	roundCallback func(telemetry.RoundRecord)
	statsCallback func(telemetry.WindowStats)
	perfCallback  func(telemetry.PerfStats)
}

// NewGameWithOptions creates a game and spawns the roster.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		agentMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Heading,
			components.Agent,
			components.Control,
		](world),
		agentFilter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Heading,
			components.Agent,
			components.Control,
		](world),
		posMap:   ecs.NewMap1[components.Position](world),
		velMap:   ecs.NewMap1[components.Velocity](world),
		headMap:  ecs.NewMap1[components.Heading](world),
		agentMap: ecs.NewMap1[components.Agent](world),
		ctrlMap:  ecs.NewMap1[components.Control](world),

		byID:     make(map[string]ecs.Entity),
		table:    learning.NewTable(),
		learners: make(map[ecs.Entity]*learning.Learner),

		integrator:   systems.NewIntegrator(cfg),
		hunterParams: systems.HunterParamsFromConfig(cfg),
		runnerParams: systems.RunnerParamsFromConfig(cfg),
		learnParams:  learning.ParamsFromConfig(cfg),
		hunterMotion: components.MotionForRole(cfg, components.RoleHunter),
		runnerMotion: components.MotionForRole(cfg, components.RoleRunner),

		round:        NewRound(cfg.Round.Duration),
		learnerDeath: -1,

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector: telemetry.NewPerfCollector(cfg.Feed.TargetFPS),
		logStats:      opts.LogStats,
		roundCallback: opts.RoundCallback,
		statsCallback: opts.StatsCallback,
		perfCallback:  opts.PerfCallback,
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	g.spawnRoster()
	g.active = NewActiveSet(g.runners)

	return g, nil
}

// Unload flushes and closes any output files.
func (g *Game) Unload() {
	if g.collector.Pending() > 0 {
		g.flushStats()
	}
	if g.perfDue {
		g.flushPerf()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// Tick returns the number of ticks simulated.
func (g *Game) Tick() int64 { return g.tick }

// Round returns the round manager.
func (g *Game) Round() *Round { return g.round }

// Config returns the config the game was built with.
func (g *Game) Config() *config.Config { return g.cfg }

// ActiveRunners returns the number of runners still in the round.
func (g *Game) ActiveRunners() int { return g.active.Len() }

// Entity looks up an agent by id.
func (g *Game) Entity(id string) (ecs.Entity, bool) {
	e, ok := g.byID[id]
	return e, ok
}

// IsActive reports whether the runner with the given id is still in the round.
// Hunters are always active.
func (g *Game) IsActive(id string) bool {
	e, ok := g.byID[id]
	if !ok {
		return false
	}
	if g.agentMap.Get(e).Role == components.RoleHunter {
		return true
	}
	return g.active.Contains(e)
}

// Position returns the position of the agent with the given id.
func (g *Game) Position(id string) (r3.Vec, bool) {
	e, ok := g.byID[id]
	if !ok {
		return r3.Vec{}, false
	}
	return g.posMap.Get(e).Vec, true
}

// Velocity returns the velocity of the agent with the given id.
func (g *Game) Velocity(id string) (r3.Vec, bool) {
	e, ok := g.byID[id]
	if !ok {
		return r3.Vec{}, false
	}
	return g.velMap.Get(e).Vec, true
}

// Learner returns the learning controller that drives the given agent.
func (g *Game) Learner(id string) (*learning.Learner, bool) {
	e, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	l, ok := g.learners[e]
	return l, ok
}

// Table returns the shared policy table.
func (g *Game) Table() *learning.Table { return g.table }

// LearnerLabel returns the reported learner's current action label, or
// "ELIMINATED" once it has been tagged this round.
func (g *Game) LearnerLabel() string {
	if !g.hasLearn {
		return ""
	}
	if !g.active.Contains(g.learner) {
		return "ELIMINATED"
	}
	return g.ctrlMap.Get(g.learner).Action.String()
}

// Epsilon returns the reported learner's exploration rate.
func (g *Game) Epsilon() float64 {
	if l, ok := g.learners[g.learner]; ok && g.hasLearn {
		return l.Epsilon()
	}
	return 0
}

// StatusSummary returns the squad status line.
func (g *Game) StatusSummary() string {
	n := g.active.Len()
	switch {
	case n == g.active.Size():
		return "FULL SQUAD OPERATIONAL"
	case n < 3:
		return "CRITICAL LOSSES DETECTED"
	default:
		return fmt.Sprintf("%d RUNNERS REMAINING", n)
	}
}
