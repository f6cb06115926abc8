package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// RoundRecord summarizes one completed round.
type RoundRecord struct {
	Round              int     `csv:"round"`
	Outcome            string  `csv:"outcome"` // "hunters" or "runners"
	SurvivalSec        float64 `csv:"survival_sec"`
	RunnersLeft        int     `csv:"runners_left"`
	LearnerAlive       bool    `csv:"learner_alive"`
	LearnerSurvivalSec float64 `csv:"learner_survival_sec"`
	Epsilon            float64 `csv:"epsilon"` // Exploration rate after the round's decay
	QStates            int     `csv:"q_states"`
	HunterWins         int     `csv:"hunter_wins"`
	RunnerWins         int     `csv:"runner_wins"`
}

// RunnersWon reports whether the runners survived to timeout.
func (r RoundRecord) RunnersWon() bool {
	return r.Outcome == OutcomeRunners
}

// Outcome labels used in RoundRecord.Outcome.
const (
	OutcomeHunters = "hunters"
	OutcomeRunners = "runners"
)

// LogValue implements slog.LogValuer for structured logging.
func (r RoundRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("round", r.Round),
		slog.String("outcome", r.Outcome),
		slog.Float64("survival", r.SurvivalSec),
		slog.Int("runners_left", r.RunnersLeft),
		slog.Bool("learner_alive", r.LearnerAlive),
		slog.Float64("learner_survival", r.LearnerSurvivalSec),
		slog.Float64("epsilon", r.Epsilon),
		slog.Int("q_states", r.QStates),
	)
}

// WindowStats holds aggregated statistics over a window of rounds.
type WindowStats struct {
	WindowStartRound int `csv:"-"`
	WindowEndRound   int `csv:"window_end"`
	Rounds           int `csv:"rounds"`

	HunterWins    int     `csv:"hunter_wins"`
	RunnerWins    int     `csv:"runner_wins"`
	RunnerWinRate float64 `csv:"runner_win_rate"`
	Eliminations  int     `csv:"eliminations"`

	// Round length distribution
	SurvivalMean float64 `csv:"survival_mean"`
	SurvivalStd  float64 `csv:"survival_std"`
	SurvivalP50  float64 `csv:"survival_p50"`
	SurvivalP90  float64 `csv:"survival_p90"`

	// Learning agent
	LearnerSurvivalMean float64 `csv:"learner_survival_mean"`
	LearnerAliveRate    float64 `csv:"learner_alive_rate"`
	Epsilon             float64 `csv:"epsilon"`
	QStates             int     `csv:"q_states"`
}

// SurvivalStats returns mean, standard deviation, median and 90th
// percentile of the given durations. Empty input yields zeros.
func SurvivalStats(values []float64) (mean, std, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if len(sorted) > 1 {
		mean, std = stat.MeanStdDev(sorted, nil)
	} else {
		mean = sorted[0]
	}
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartRound),
		slog.Int("window_end", s.WindowEndRound),
		slog.Int("rounds", s.Rounds),
		slog.Float64("runner_win_rate", s.RunnerWinRate),
		slog.Float64("survival_mean", s.SurvivalMean),
		slog.Float64("learner_survival_mean", s.LearnerSurvivalMean),
		slog.Float64("epsilon", s.Epsilon),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndRound,
		"rounds", s.Rounds,
		"hunter_wins", s.HunterWins,
		"runner_wins", s.RunnerWins,
		"runner_win_rate", s.RunnerWinRate,
		"eliminations", s.Eliminations,
		"survival_mean", s.SurvivalMean,
		"survival_std", s.SurvivalStd,
		"survival_p50", s.SurvivalP50,
		"survival_p90", s.SurvivalP90,
		"learner_survival_mean", s.LearnerSurvivalMean,
		"learner_alive_rate", s.LearnerAliveRate,
		"epsilon", s.Epsilon,
		"q_states", s.QStates,
	)
}
