package game

import (
	"testing"

	"github.com/pthm-cable/pursuit/config"
	"github.com/pthm-cable/pursuit/telemetry"
)

func TestPerfWindowFollowsRounds(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		harmless(c)
		c.Round.Duration = 1
		c.Round.ResetDelay = 2.5
		c.Telemetry.StatsWindow = 1
		c.Feed.TargetFPS = 50
	})
	var stats []telemetry.WindowStats
	var perf []telemetry.PerfStats
	g, err := NewGameWithOptions(Options{
		Config:        cfg,
		Seed:          1,
		StatsCallback: func(s telemetry.WindowStats) { stats = append(stats, s) },
		PerfCallback:  func(p telemetry.PerfStats) { perf = append(perf, p) },
	})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)

	// Round 1: four running ticks, the last one ends it
	for i := 0; i < 4; i++ {
		g.Update(0.25)
	}
	if g.Round().Running() {
		t.Fatal("round 1 still running")
	}
	if len(stats) != 1 || len(perf) != 1 {
		t.Fatalf("windows after round 1: stats %d, perf %d, want 1 each", len(stats), len(perf))
	}
	if p := perf[0]; p.WindowEndRound != 1 || p.WindowEndTick != 4 || p.RunningTicks != 4 || p.OverTicks != 0 {
		t.Errorf("perf window 1 = round %d tick %d running %d over %d, want 1/4/4/0",
			p.WindowEndRound, p.WindowEndTick, p.RunningTicks, p.OverTicks)
	}
	if perf[0].AvgTickUS < 0 || perf[0].MaxTickUS < perf[0].P50TickUS {
		t.Errorf("tick timings out of order: %+v", perf[0])
	}

	// Frames recorded between rounds land in the open window
	g.RecordFrame(0.01)
	g.RecordFrame(0.05)
	if open := g.PerfStats(); open.Frames != 2 || open.Overruns != 1 {
		t.Errorf("frames/overruns = %d/%d, want 2/1", open.Frames, open.Overruns)
	}

	// The reset delay is ten frozen ticks, then round 2 runs four more
	for i := 0; i < 10; i++ {
		g.Update(0.25)
	}
	if !g.Round().Running() {
		t.Fatal("round 2 did not start after the reset delay")
	}
	if open := g.PerfStats(); open.RunningTicks != 0 || open.OverTicks != 10 {
		t.Errorf("open window running/over = %d/%d, want 0/10", open.RunningTicks, open.OverTicks)
	}
	for i := 0; i < 4; i++ {
		g.Update(0.25)
	}
	if len(perf) != 2 {
		t.Fatalf("perf windows = %d, want 2", len(perf))
	}
	p := perf[1]
	if p.WindowEndRound != 2 || p.WindowEndTick != 18 || p.RunningTicks != 4 || p.OverTicks != 10 {
		t.Errorf("perf window 2 = round %d tick %d running %d over %d, want 2/18/4/10",
			p.WindowEndRound, p.WindowEndTick, p.RunningTicks, p.OverTicks)
	}
	if p.OverShare() != 10.0/14.0 {
		t.Errorf("over share = %v", p.OverShare())
	}
}

func TestUnloadFlushesPartialWindows(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		harmless(c)
		c.Round.Duration = 1
		c.Telemetry.StatsWindow = 10
	})
	var stats []telemetry.WindowStats
	var perf []telemetry.PerfStats
	g, err := NewGameWithOptions(Options{
		Config:        cfg,
		Seed:          1,
		StatsCallback: func(s telemetry.WindowStats) { stats = append(stats, s) },
		PerfCallback:  func(p telemetry.PerfStats) { perf = append(perf, p) },
	})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}

	for i := 0; i < 6; i++ {
		g.Update(0.25)
	}
	if len(stats) != 0 || len(perf) != 0 {
		t.Fatalf("window flushed before it was full")
	}

	g.Unload()
	if len(stats) != 1 || len(perf) != 1 {
		t.Fatalf("windows after unload: stats %d, perf %d, want 1 each", len(stats), len(perf))
	}
	if p := perf[0]; p.WindowEndRound != 1 || p.RunningTicks != 4 || p.OverTicks != 2 {
		t.Errorf("partial perf window = round %d running %d over %d, want 1/4/2",
			p.WindowEndRound, p.RunningTicks, p.OverTicks)
	}
}
