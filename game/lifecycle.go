package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/config"
	"github.com/pthm-cable/pursuit/learning"
)

// spawnRoster creates one entity per configured agent at its formation slot.
func (g *Game) spawnRoster() {
	cfg := g.cfg
	for i, slot := range cfg.Roster.Hunters {
		e := g.spawnAgent(slot.ID, components.RoleHunter, i, cfg.Derived.HunterSpawns[i], components.ControlHeuristic)
		g.hunters = append(g.hunters, e)
	}
	for i, slot := range cfg.Roster.Runners {
		mode := components.ControlHeuristic
		if slot.ID == cfg.Roster.Learner {
			mode = components.ControlLearning
		}
		e := g.spawnAgent(slot.ID, components.RoleRunner, i, cfg.Derived.RunnerSpawns[i], mode)
		g.runners = append(g.runners, e)
	}
}

// spawnAgent creates an agent entity and registers it by id.
func (g *Game) spawnAgent(id string, role components.Role, slot int, at config.RingPoint, mode components.ControlMode) ecs.Entity {
	pos := components.Position{Vec: g.spawnPoint(at)}
	vel := components.Velocity{}
	head := components.Heading{}
	agent := components.Agent{ID: id, Role: role, Slot: slot, Alive: true}
	ctrl := components.Control{Mode: mode, Action: components.ActionFlee}

	e := g.agentMapper.NewEntity(&pos, &vel, &head, &agent, &ctrl)
	g.byID[id] = e
	g.ids = append(g.ids, id)

	if mode == components.ControlLearning {
		g.AssignLearner(e)
	}
	return e
}

// AssignLearner attaches a learning controller to e, sharing the game's
// policy table. The first learner assigned is the one reported in snapshots.
func (g *Game) AssignLearner(e ecs.Entity) *learning.Learner {
	if l, ok := g.learners[e]; ok {
		return l
	}
	l := learning.New(g.learnParams, g.table, rand.New(rand.NewSource(g.rng.Int63())))
	g.learners[e] = l
	g.ctrlMap.Get(e).Mode = components.ControlLearning
	if !g.hasLearn {
		g.learner = e
		g.hasLearn = true
	}
	return l
}

func (g *Game) spawnPoint(at config.RingPoint) r3.Vec {
	return r3.Vec{X: at.X, Y: g.cfg.Arena.GroundLevel, Z: at.Z}
}

// finishRound ends the round with the given outcome. It runs at most once
// per round: the round guard flips synchronously, before the learner is
// credited and before the reset is scheduled.
func (g *Game) finishRound(outcome Outcome) {
	if !g.round.End(outcome) {
		return
	}

	if outcome == OutcomeRunners {
		// Surviving learners collect the terminal reward before decay
		for e, l := range g.learners {
			if g.active.Contains(e) {
				l.Terminal()
			}
		}
	}
	for _, l := range g.learners {
		l.Decay()
	}

	slog.Info("round_over",
		"round", g.round.Generation(),
		"outcome", outcome.String(),
		"elapsed", g.round.Survival(),
		"runners_left", g.active.Len(),
		"score_hunters", g.round.Score().HunterWins,
		"score_runners", g.round.Score().RunnerWins,
		"best_time", g.round.BestTime(),
	)
	g.recordRound(outcome)

	g.resetTimer = g.timers.After(g.cfg.Round.ResetDelay, g.resetRound)
}

// resetRound puts every agent back on its slot and starts the next round.
func (g *Game) resetRound() {
	g.resetTimer = 0
	g.resetAgents()
	g.active.Reset()
	g.round.Restart()
	for _, l := range g.learners {
		l.Reset()
	}
	g.learnerDeath = -1

	slog.Debug("round_reset", "round", g.round.Generation()+1)
}

// resetAgents moves every agent to its formation slot and zeroes velocities.
func (g *Game) resetAgents() {
	cfg := g.cfg
	query := g.agentFilter.Query()
	for query.Next() {
		pos, vel, head, agent, _ := query.Get()
		spawns := cfg.Derived.RunnerSpawns
		if agent.Role == components.RoleHunter {
			spawns = cfg.Derived.HunterSpawns
		}
		pos.Vec = g.spawnPoint(spawns[agent.Slot])
		vel.Vec = r3.Vec{}
		head.Yaw = 0
		agent.Alive = true
	}
}

// Restart cancels any pending reset and starts a fresh round immediately.
// Score, generation and learned values are kept.
func (g *Game) Restart() {
	if g.resetTimer != 0 {
		g.timers.Cancel(g.resetTimer)
	}
	g.resetRound()
}
