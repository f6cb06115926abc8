package telemetry

// Collector accumulates round records and produces WindowStats every
// windowRounds rounds.
type Collector struct {
	windowRounds int

	windowStartRound int
	records          []RoundRecord
	eliminations     int
}

// NewCollector creates a collector that flushes every windowRounds rounds.
func NewCollector(windowRounds int) *Collector {
	if windowRounds < 1 {
		windowRounds = 1
	}
	return &Collector{windowRounds: windowRounds}
}

// RecordRound adds a completed round to the current window.
func (c *Collector) RecordRound(r RoundRecord) {
	c.records = append(c.records, r)
}

// RecordElimination counts an elimination in the current window.
func (c *Collector) RecordElimination(Elimination) {
	c.eliminations++
}

// ShouldFlush returns true once the window holds enough rounds.
func (c *Collector) ShouldFlush() bool {
	return len(c.records) >= c.windowRounds
}

// Pending returns the number of rounds in the current window.
func (c *Collector) Pending() int {
	return len(c.records)
}

// Flush produces a WindowStats over the buffered rounds and starts a new window.
func (c *Collector) Flush() WindowStats {
	stats := WindowStats{
		WindowStartRound: c.windowStartRound,
		Rounds:           len(c.records),
		Eliminations:     c.eliminations,
	}

	survival := make([]float64, 0, len(c.records))
	var learnerSum float64
	var learnerAlive int
	for _, r := range c.records {
		survival = append(survival, r.SurvivalSec)
		learnerSum += r.LearnerSurvivalSec
		if r.LearnerAlive {
			learnerAlive++
		}
		if r.RunnersWon() {
			stats.RunnerWins++
		} else {
			stats.HunterWins++
		}
	}

	if n := len(c.records); n > 0 {
		last := c.records[n-1]
		stats.WindowEndRound = last.Round
		stats.Epsilon = last.Epsilon
		stats.QStates = last.QStates
		stats.RunnerWinRate = float64(stats.RunnerWins) / float64(n)
		stats.LearnerSurvivalMean = learnerSum / float64(n)
		stats.LearnerAliveRate = float64(learnerAlive) / float64(n)
	} else {
		stats.WindowEndRound = c.windowStartRound
	}
	stats.SurvivalMean, stats.SurvivalStd, stats.SurvivalP50, stats.SurvivalP90 = SurvivalStats(survival)

	c.windowStartRound = stats.WindowEndRound
	c.records = c.records[:0]
	c.eliminations = 0

	return stats
}
