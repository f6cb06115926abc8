package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/pursuit/config"
	"github.com/pthm-cable/pursuit/feed"
	"github.com/pthm-cable/pursuit/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats windows and perf via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxRounds := flag.Int("max-rounds", 0, "Stop after N completed rounds (0 = unlimited)")
	feedAddr := flag.String("feed-addr", "", "Serve a real-time websocket feed on this address (empty = headless)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g, err := game.NewGameWithOptions(game.Options{
		Config:    cfg,
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limits := runLimits{maxTicks: *maxTicks, maxRounds: *maxRounds}
	if *feedAddr == "" {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"dt", cfg.Physics.DT,
			"max_ticks", *maxTicks,
			"max_rounds", *maxRounds,
		)
		runHeadless(ctx, g, limits)
		return
	}

	slog.Info("starting real-time simulation",
		"seed", rngSeed,
		"feed_addr", *feedAddr,
		"target_fps", cfg.Feed.TargetFPS,
	)
	if err := runRealtime(ctx, g, *feedAddr, limits); err != nil {
		slog.Error("feed server failed", "error", err)
		g.Unload()
		os.Exit(1)
	}
}

type runLimits struct {
	maxTicks  int64
	maxRounds int
}

// reached reports whether g has hit either limit, logging which one.
func (l runLimits) reached(g *game.Game) bool {
	if l.maxTicks > 0 && g.Tick() >= l.maxTicks {
		slog.Info("max ticks reached", "tick", g.Tick())
		return true
	}
	if l.maxRounds > 0 && g.Round().Generation() >= l.maxRounds {
		slog.Info("max rounds reached", "rounds", g.Round().Generation(), "tick", g.Tick())
		return true
	}
	return false
}

// runHeadless steps the fixed physics dt as fast as possible.
func runHeadless(ctx context.Context, g *game.Game, limits runLimits) {
	for ctx.Err() == nil {
		g.UpdateHeadless()
		if limits.reached(g) {
			return
		}
	}
	slog.Info("interrupted", "tick", g.Tick())
}

// runRealtime ticks at the target frame rate using measured wall time as dt
// and broadcasts snapshots to feed clients.
func runRealtime(ctx context.Context, g *game.Game, addr string, limits runLimits) error {
	cfg := g.Config()
	hub := feed.NewHub()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- feed.Serve(ctx, addr, hub)
	}()

	fps := max(cfg.Feed.TargetFPS, 1)
	every := int64(max(cfg.Feed.BroadcastEvery, 1))
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return <-serveErr
		case err := <-serveErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			g.Update(dt)
			g.RecordFrame(dt)
			if g.Tick()%every == 0 {
				hub.Broadcast(g.Snapshot())
			}
			if limits.reached(g) {
				cancel()
			}
		}
	}
}
