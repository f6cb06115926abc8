package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/systems"
	"github.com/pthm-cable/pursuit/telemetry"
)

// Update advances the simulation by dt seconds of host frame time.
//
// Nothing moves while the round is over; only the timers advance, so the
// pending reset can fire. A reset that fires takes effect from the next tick.
func (g *Game) Update(dt float64) {
	g.tick++
	running := g.round.Running()
	g.timers.Advance(dt)
	if !running {
		g.perfCollector.CountOverTick()
		return
	}

	g.perfCollector.StartTick()
	g.step(dt)
	g.perfCollector.EndTick()

	if g.perfDue {
		g.flushPerf()
	}
}

// UpdateHeadless advances by the configured fixed step.
func (g *Game) UpdateHeadless() {
	g.Update(g.cfg.Physics.DT)
}

// step runs one tick of a running round.
func (g *Game) step(dt float64) {
	g.perfCollector.StartPhase(telemetry.PhaseRound)
	g.round.Advance(dt)
	if g.round.TimeUp() {
		g.finishRound(OutcomeRunners)
		return
	}

	g.perfCollector.StartPhase(telemetry.PhasePerception)
	g.gatherRunners()
	if len(g.runnerPos) == 0 {
		g.finishRound(OutcomeHunters)
		return
	}

	g.perfCollector.StartPhase(telemetry.PhaseHunters)
	g.updateHunters(dt)

	g.perfCollector.StartPhase(telemetry.PhasePerception)
	g.gatherHunters()

	g.perfCollector.StartPhase(telemetry.PhaseRunners)
	g.updateRunners(dt)

	g.perfCollector.StartPhase(telemetry.PhaseElimination)
	g.checkEliminations()

	g.perfCollector.StartPhase(telemetry.PhaseRound)
	g.checkWinConditions()
}

// gatherRunners snapshots the active runners and their positions.
func (g *Game) gatherRunners() {
	g.activeBuf = g.active.AppendMembers(g.activeBuf[:0])
	g.runnerPos = g.runnerPos[:0]
	for _, e := range g.activeBuf {
		g.runnerPos = append(g.runnerPos, g.posMap.Get(e).Vec)
	}
}

// gatherHunters snapshots hunter positions in roster order.
func (g *Game) gatherHunters() {
	g.hunterPos = g.hunterPos[:0]
	for _, e := range g.hunters {
		g.hunterPos = append(g.hunterPos, g.posMap.Get(e).Vec)
	}
}

// updateHunters steers every hunter at its nearest active runner.
func (g *Game) updateHunters(dt float64) {
	arena := g.integrator.Arena
	query := g.agentFilter.Query()
	for query.Next() {
		pos, vel, head, agent, _ := query.Get()
		if agent.Role != components.RoleHunter {
			continue
		}

		var force r3.Vec
		if dist, target, _, ok := systems.Nearest(pos.Vec, g.runnerPos); ok {
			intent := systems.Pursue(pos.Vec, target, dist, arena.Grounded(pos.Vec), g.hunterParams, g.rng)
			force = intent.Force
			if intent.Jump {
				vel.Y = g.cfg.Physics.JumpImpulse
			}
		}
		force = r3.Add(force, arena.InwardPush(pos.Vec, g.hunterMotion.Speed))
		g.integrator.Step(pos, vel, head, force, g.hunterMotion.Smoothing, dt)
	}
}

// updateRunners runs every active runner's controller and physics.
// Eliminated runners stay frozen where they were tagged.
func (g *Game) updateRunners(dt float64) {
	arena := g.integrator.Arena
	query := g.agentFilter.Query()
	for query.Next() {
		pos, vel, head, agent, ctrl := query.Get()
		if agent.Role != components.RoleRunner || !agent.Alive {
			continue
		}

		distToThreat, threat, _, ok := systems.Nearest(pos.Vec, g.hunterPos)
		if !ok {
			continue
		}
		distToCenter := systems.HorizontalLength(pos.Vec)
		grounded := arena.Grounded(pos.Vec)

		if l, ok := g.learners[query.Entity()]; ok && ctrl.Mode == components.ControlLearning {
			state := g.learnParams.Discretize(distToThreat, distToCenter, grounded)
			ctrl.Action, _ = l.Step(dt, state)
		} else {
			ctrl.Action = systems.ScriptedAction(distToThreat, distToCenter, grounded, g.runnerParams, g.rng)
		}

		speed := systems.RunnerSpeed(g.runnerMotion.Speed, grounded, g.runnerParams)
		intent := systems.ActionIntent(ctrl.Action, pos.Vec, threat, speed, g.runnerParams)
		if intent.Jump && grounded {
			vel.Y = g.cfg.Physics.JumpImpulse
		}
		force := r3.Add(intent.Force, arena.InwardPush(pos.Vec, speed))
		g.integrator.Step(pos, vel, head, force, g.runnerMotion.Smoothing, dt)
	}
}

// checkEliminations removes each active runner within tag distance of a
// hunter. Removal is immediate, so one tick can take out several runners.
func (g *Game) checkEliminations() {
	for _, e := range g.activeBuf {
		pos := g.posMap.Get(e)
		dist, _, idx, ok := systems.Nearest(pos.Vec, g.hunterPos)
		if !ok || dist >= g.cfg.Round.TagDistance {
			continue
		}
		if !g.active.Remove(e) {
			continue
		}
		agent := g.agentMap.Get(e)
		agent.Alive = false

		_, isLearner := g.learners[e]
		if g.hasLearn && e == g.learner {
			g.learnerDeath = g.round.Elapsed()
		}

		hunter := g.agentMap.Get(g.hunters[idx])
		ev := telemetry.Elimination{
			Round:      g.round.Generation() + 1,
			ElapsedSec: g.round.Elapsed(),
			RunnerID:   agent.ID,
			HunterID:   hunter.ID,
			Distance:   dist,
			Learner:    isLearner,
			Remaining:  g.active.Len(),
		}
		g.recordElimination(ev)
	}
}

// checkWinConditions ends the round when the clock has run out or no
// runner is left. Calling it again after a win changes nothing.
func (g *Game) checkWinConditions() {
	if !g.round.Running() {
		return
	}
	switch {
	case g.round.TimeUp():
		g.finishRound(OutcomeRunners)
	case g.active.Len() == 0:
		g.finishRound(OutcomeHunters)
	}
}
