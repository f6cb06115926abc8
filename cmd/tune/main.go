// Command tune searches learning hyper-parameters with CMA-ES, scoring each
// candidate by how long the learner survives in headless sessions.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/pursuit/config"
	"github.com/pthm-cable/pursuit/telemetry"
)

// EvalRecord is one row of tune_log.csv.
type EvalRecord struct {
	Eval             int     `csv:"eval"`
	Fitness          float64 `csv:"fitness"`
	MeanSurvivalSec  float64 `csv:"mean_survival_sec"`
	Alpha            float64 `csv:"alpha"`
	Gamma            float64 `csv:"gamma"`
	EpsilonDecay     float64 `csv:"epsilon_decay"`
	DecisionInterval float64 `csv:"decision_interval"`
}

func newEvalRecord(eval int, fitness, survival float64, v []float64) EvalRecord {
	return EvalRecord{
		Eval:             eval,
		Fitness:          fitness,
		MeanSurvivalSec:  survival,
		Alpha:            v[0],
		Gamma:            v[1],
		EpsilonDecay:     v[2],
		DecisionInterval: v[3],
	}
}

// formatDuration formats a duration as 1h02m03s or 2m03s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	rounds := flag.Int("rounds", 50, "Rounds per seed")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(*configPath, *outputDir, *seeds, *rounds, *maxEvals, *population); err != nil {
		fmt.Fprintf(os.Stderr, "tune: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, seeds, rounds, maxEvals, population int) error {
	if outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	params := NewParamVector()
	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator, err := NewFitnessEvaluator(params, baseCfg, evalSeeds, rounds)
	if err != nil {
		return err
	}

	logPath := filepath.Join(outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating tune log: %w", err)
	}
	defer logFile.Close()
	evalLog := telemetry.NewCSVWriter[EvalRecord](logFile)

	dim := params.Dim()
	popSize := population
	if popSize == 0 {
		// Standard CMA-ES default: 4 + floor(3 ln n)
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}
			rec := newEvalRecord(evalCount, fitness, evaluator.LastSurvival(), raw)
			if err := evalLog.Write(rec); err != nil {
				slog.Error("failed to write tune log", "error", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: survival=%.2fs (best=%.2fs) | elapsed: %s, ETA: %s\n",
				evalCount, maxEvals, -fitness, -bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES with %d parameters, population=%d, max_evals=%d\n", dim, popSize, maxEvals)
	fmt.Printf("Seeds per evaluation: %d, rounds per seed: %d\n", seeds, rounds)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector(baseCfg)), settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluation completed")
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best mean learner survival: %.2fs\n", -bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return nil
}
