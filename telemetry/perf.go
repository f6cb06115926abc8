package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is a section of a running simulation tick.
type Phase uint8

// Tick phases, in the order a running tick first enters them.
const (
	PhaseRound Phase = iota
	PhasePerception
	PhaseHunters
	PhaseRunners
	PhaseElimination
	numPhases
)

var phaseNames = [numPhases]string{"round", "perception", "hunters", "runners", "elimination"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "none"
}

// PerfCollector times running ticks phase by phase, counts the ticks spent
// waiting out a finished round, and checks host frames against the frame
// budget. A window is closed by Flush, once per stats window of rounds.
type PerfCollector struct {
	budget float64 // seconds per host frame at the target rate
	now    func() time.Time

	tickStart  time.Time
	phaseStart time.Time
	phase      Phase

	phaseTime [numPhases]time.Duration
	tickUS    []float64
	overTicks int

	frames   int
	overruns int
	frameSum float64
	frameMax float64
}

// NewPerfCollector creates a collector whose frame budget is 1/targetFPS.
// A non-positive rate disables overrun counting.
func NewPerfCollector(targetFPS int) *PerfCollector {
	p := &PerfCollector{now: time.Now, phase: numPhases}
	if targetFPS > 0 {
		p.budget = 1 / float64(targetFPS)
	}
	return p
}

// StartTick begins timing a running tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.phase = numPhases
}

// StartPhase closes the current phase and opens phase. A phase entered more
// than once in a tick accumulates.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

// EndTick closes the running tick.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.phase = numPhases
	p.tickUS = append(p.tickUS, float64(now.Sub(p.tickStart).Microseconds()))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase < numPhases {
		p.phaseTime[p.phase] += now.Sub(p.phaseStart)
	}
}

// CountOverTick counts a tick where the round was over and nothing moved.
func (p *PerfCollector) CountOverTick() {
	p.overTicks++
}

// RecordFrame records one host frame of dt seconds. Frames longer than the
// budget are overruns.
func (p *PerfCollector) RecordFrame(dt float64) {
	p.frames++
	p.frameSum += dt
	p.frameMax = max(p.frameMax, dt)
	if p.budget > 0 && dt > p.budget {
		p.overruns++
	}
}

// PerfStats summarizes one perf window.
type PerfStats struct {
	WindowEndRound int
	WindowEndTick  int64

	RunningTicks int
	OverTicks    int

	// Running tick wall time in microseconds
	AvgTickUS float64
	P50TickUS float64
	P99TickUS float64
	MaxTickUS float64

	// Fraction of measured tick time per phase
	PhaseShare [numPhases]float64

	Frames      int
	Overruns    int
	FrameBudget float64
	AvgFrameDT  float64
	MaxFrameDT  float64
}

// OverShare returns the fraction of ticks spent with the round over.
func (s PerfStats) OverShare() float64 {
	total := s.RunningTicks + s.OverTicks
	if total == 0 {
		return 0
	}
	return float64(s.OverTicks) / float64(total)
}

// Share returns the fraction of measured tick time spent in phase.
func (s PerfStats) Share(phase Phase) float64 {
	if phase >= numPhases {
		return 0
	}
	return s.PhaseShare[phase]
}

// Stats summarizes the open window without closing it.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		RunningTicks: len(p.tickUS),
		OverTicks:    p.overTicks,
		Frames:       p.frames,
		Overruns:     p.overruns,
		FrameBudget:  p.budget,
		MaxFrameDT:   p.frameMax,
	}
	if p.frames > 0 {
		s.AvgFrameDT = p.frameSum / float64(p.frames)
	}

	if len(p.tickUS) > 0 {
		sorted := slices.Clone(p.tickUS)
		slices.Sort(sorted)
		s.AvgTickUS = stat.Mean(sorted, nil)
		s.P50TickUS = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		s.P99TickUS = stat.Quantile(0.99, stat.Empirical, sorted, nil)
		s.MaxTickUS = sorted[len(sorted)-1]
	}

	var total time.Duration
	for _, d := range p.phaseTime {
		total += d
	}
	if total > 0 {
		for i, d := range p.phaseTime {
			s.PhaseShare[i] = float64(d) / float64(total)
		}
	}
	return s
}

// Flush closes the window at the given round and tick and starts a new one.
func (p *PerfCollector) Flush(round int, tick int64) PerfStats {
	s := p.Stats()
	s.WindowEndRound = round
	s.WindowEndTick = tick

	p.phaseTime = [numPhases]time.Duration{}
	p.tickUS = p.tickUS[:0]
	p.overTicks = 0
	p.frames = 0
	p.overruns = 0
	p.frameSum = 0
	p.frameMax = 0
	return s
}

// LogStats logs the window.
func (s PerfStats) LogStats() {
	slog.Info("perf", "window", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("window_end_round", s.WindowEndRound),
		slog.Int64("window_end_tick", s.WindowEndTick),
		slog.Int("running_ticks", s.RunningTicks),
		slog.Int("over_ticks", s.OverTicks),
		slog.Float64("avg_tick_us", s.AvgTickUS),
		slog.Float64("p99_tick_us", s.P99TickUS),
		slog.Float64("max_tick_us", s.MaxTickUS),
	}
	for i, share := range s.PhaseShare {
		if share > 0.001 {
			attrs = append(attrs, slog.Float64(Phase(i).String()+"_share", share))
		}
	}
	if s.Frames > 0 {
		attrs = append(attrs,
			slog.Int("frames", s.Frames),
			slog.Int("overruns", s.Overruns),
			slog.Float64("max_frame_dt", s.MaxFrameDT),
		)
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of a perf window.
type PerfStatsCSV struct {
	WindowEndRound   int     `csv:"window_end_round"`
	WindowEndTick    int64   `csv:"window_end_tick"`
	RunningTicks     int     `csv:"running_ticks"`
	OverTicks        int     `csv:"over_ticks"`
	AvgTickUS        float64 `csv:"avg_tick_us"`
	P50TickUS        float64 `csv:"p50_tick_us"`
	P99TickUS        float64 `csv:"p99_tick_us"`
	MaxTickUS        float64 `csv:"max_tick_us"`
	RoundShare       float64 `csv:"round_share"`
	PerceptionShare  float64 `csv:"perception_share"`
	HuntersShare     float64 `csv:"hunters_share"`
	RunnersShare     float64 `csv:"runners_share"`
	EliminationShare float64 `csv:"elimination_share"`
	Frames           int     `csv:"frames"`
	Overruns         int     `csv:"overruns"`
	MaxFrameDT       float64 `csv:"max_frame_dt"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		WindowEndRound:   s.WindowEndRound,
		WindowEndTick:    s.WindowEndTick,
		RunningTicks:     s.RunningTicks,
		OverTicks:        s.OverTicks,
		AvgTickUS:        s.AvgTickUS,
		P50TickUS:        s.P50TickUS,
		P99TickUS:        s.P99TickUS,
		MaxTickUS:        s.MaxTickUS,
		RoundShare:       s.PhaseShare[PhaseRound],
		PerceptionShare:  s.PhaseShare[PhasePerception],
		HuntersShare:     s.PhaseShare[PhaseHunters],
		RunnersShare:     s.PhaseShare[PhaseRunners],
		EliminationShare: s.PhaseShare[PhaseElimination],
		Frames:           s.Frames,
		Overruns:         s.Overruns,
		MaxFrameDT:       s.MaxFrameDT,
	}
}
