// Package telemetry provides round statistics, elimination events and
// performance tracking for the pursuit simulation.
package telemetry

import "log/slog"

// Elimination records one runner being tagged.
type Elimination struct {
	Round      int     `csv:"round"`
	ElapsedSec float64 `csv:"elapsed_sec"`
	RunnerID   string  `csv:"runner"`
	HunterID   string  `csv:"hunter"`
	Distance   float64 `csv:"distance"`
	Learner    bool    `csv:"learner"`
	Remaining  int     `csv:"remaining"` // Active runners after the elimination
}

// LogValue implements slog.LogValuer for structured logging.
func (e Elimination) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("round", e.Round),
		slog.Float64("elapsed", e.ElapsedSec),
		slog.String("runner", e.RunnerID),
		slog.String("hunter", e.HunterID),
		slog.Float64("distance", e.Distance),
		slog.Bool("learner", e.Learner),
		slog.Int("remaining", e.Remaining),
	)
}
