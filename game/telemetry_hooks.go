package game

import (
	"log/slog"

	"github.com/pthm-cable/pursuit/telemetry"
)

// recordRound builds the round record, writes it, and flushes the stats
// window when it is full.
func (g *Game) recordRound(outcome Outcome) {
	rec := telemetry.RoundRecord{
		Round:       g.round.Generation(),
		Outcome:     outcome.String(),
		SurvivalSec: g.round.Survival(),
		RunnersLeft: g.active.Len(),
		HunterWins:  g.round.Score().HunterWins,
		RunnerWins:  g.round.Score().RunnerWins,
		QStates:     g.table.Len(),
	}
	if g.hasLearn {
		rec.LearnerAlive = g.active.Contains(g.learner)
		rec.LearnerSurvivalSec = g.round.Survival()
		if g.learnerDeath >= 0 {
			rec.LearnerSurvivalSec = g.learnerDeath
		}
		rec.Epsilon = g.learners[g.learner].Epsilon()
	}

	g.collector.RecordRound(rec)
	if err := g.outputManager.WriteRound(rec); err != nil {
		slog.Error("failed to write round", "error", err)
	}
	if g.roundCallback != nil {
		g.roundCallback(rec)
	}

	if g.collector.ShouldFlush() {
		g.flushStats()
	}
}

// recordElimination logs and stores one elimination.
func (g *Game) recordElimination(ev telemetry.Elimination) {
	slog.Debug("runner_eliminated", "event", ev)
	g.collector.RecordElimination(ev)
	if err := g.outputManager.WriteElimination(ev); err != nil {
		slog.Error("failed to write elimination", "error", err)
	}
}

// flushStats closes the current stats window.
func (g *Game) flushStats() {
	stats := g.collector.Flush()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}
	if g.logStats {
		stats.LogStats()
	}
	if err := g.outputManager.WriteWindow(stats); err != nil {
		slog.Error("failed to write stats window", "error", err)
	}

	// The perf window closes with the stats window, after the current
	// tick has been timed.
	g.perfDue = true
	g.perfRound = stats.WindowEndRound
}

// flushPerf closes the perf window that matches the stats window just flushed.
func (g *Game) flushPerf() {
	g.perfDue = false
	perfStats := g.perfCollector.Flush(g.perfRound, g.tick)

	if g.perfCallback != nil {
		g.perfCallback(perfStats)
	}
	if g.logStats {
		perfStats.LogStats()
	}
	if err := g.outputManager.WritePerf(perfStats); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// PerfStats returns the open perf window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// RecordFrame records one host frame of dt seconds for real-time runs.
func (g *Game) RecordFrame(dt float64) {
	g.perfCollector.RecordFrame(dt)
}
