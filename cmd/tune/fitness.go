package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pursuit/config"
	"github.com/pthm-cable/pursuit/game"
	"github.com/pthm-cable/pursuit/telemetry"
)

// FitnessEvaluator runs headless sessions and scores learner survival.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	seeds      []int64
	rounds     int   // rounds per seed
	maxTicks   int64 // safety cap per seed

	mu           sync.Mutex
	lastSurvival float64 // mean learner survival from the most recent Evaluate
}

// NewFitnessEvaluator creates an evaluator. The base config must name a learner.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, seeds []int64, rounds int) (*FitnessEvaluator, error) {
	if baseCfg.Roster.Learner == "" {
		return nil, fmt.Errorf("roster.learner is empty: nothing to tune")
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", rounds)
	}

	// Every round ends by the clock at the latest, plus its reset delay
	perRound := (baseCfg.Round.Duration + baseCfg.Round.ResetDelay) / baseCfg.Physics.DT
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		seeds:      seeds,
		rounds:     rounds,
		maxTicks:   int64(math.Ceil(perRound*float64(rounds))) + int64(rounds)*2,
	}, nil
}

// LastSurvival returns the mean learner survival of the most recent evaluation.
func (fe *FitnessEvaluator) LastSurvival() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSurvival
}

// Evaluate computes fitness for a raw parameter vector (lower = better):
// the negated mean learner survival time across all seeds and rounds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([][]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSession(x, s)
		}(i, seed)
	}
	wg.Wait()

	var all []float64
	for _, r := range results {
		all = append(all, r...)
	}
	mean := 0.0
	if len(all) > 0 {
		mean = stat.Mean(all, nil)
	}

	fe.mu.Lock()
	fe.lastSurvival = mean
	fe.mu.Unlock()

	return -mean
}

// runSession plays fe.rounds rounds headless and returns the learner's
// survival time in each.
func (fe *FitnessEvaluator) runSession(x []float64, seed int64) []float64 {
	cfg := fe.configFor(x)
	survival := make([]float64, 0, fe.rounds)

	g, err := game.NewGameWithOptions(game.Options{
		Config: cfg,
		Seed:   seed,
		RoundCallback: func(rec telemetry.RoundRecord) {
			survival = append(survival, rec.LearnerSurvivalSec)
		},
	})
	if err != nil {
		return nil
	}
	defer g.Unload()

	for g.Round().Generation() < fe.rounds && g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	return survival
}

// configFor copies the base config with the given parameters applied.
// Roster slices are shared; nothing in a session mutates them.
func (fe *FitnessEvaluator) configFor(x []float64) *config.Config {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	cfg.ComputeDerived()
	return &cfg
}
