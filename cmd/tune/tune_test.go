package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/pursuit/config"
)

func TestParamVectorNormalize(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector(nil)
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestParamVectorClampAndApply(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}

	pv.ApplyToConfig(cfg, []float64{5, 0.1, 0.95, 0.3})

	if cfg.Learning.Alpha != 1.0 {
		t.Errorf("alpha = %v, want clamped to 1", cfg.Learning.Alpha)
	}
	if cfg.Learning.Gamma != 0.5 {
		t.Errorf("gamma = %v, want clamped to 0.5", cfg.Learning.Gamma)
	}
	if cfg.Learning.EpsilonDecay != 0.95 || cfg.Learning.DecisionInterval != 0.3 {
		t.Errorf("decay/interval = %v/%v", cfg.Learning.EpsilonDecay, cfg.Learning.DecisionInterval)
	}
}

func TestDefaultVectorFromConfig(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Learning.Alpha = 0.25
	v := pv.DefaultVector(cfg)
	if v[0] != 0.25 || v[1] != cfg.Learning.Gamma {
		t.Errorf("DefaultVector = %v", v)
	}
}

func shortSessionConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Round.Duration = 2
	cfg.Round.ResetDelay = 0.25
	cfg.ComputeDerived()
	return cfg
}

func TestFitnessEvaluator(t *testing.T) {
	cfg := shortSessionConfig(t)
	pv := NewParamVector()
	fe, err := NewFitnessEvaluator(pv, cfg, []int64{1, 2}, 3)
	if err != nil {
		t.Fatal(err)
	}

	x := pv.DefaultVector(cfg)
	f1 := fe.Evaluate(x)
	// The clock may overshoot the duration by less than one step
	if f1 >= 0 || f1 < -(cfg.Round.Duration+cfg.Physics.DT) {
		t.Errorf("fitness = %v, want in [-%v, 0)", f1, cfg.Round.Duration)
	}
	if fe.LastSurvival() != -f1 {
		t.Errorf("last survival = %v, fitness = %v", fe.LastSurvival(), f1)
	}

	// Seeded sessions are reproducible
	if f2 := fe.Evaluate(x); f2 != f1 {
		t.Errorf("fitness not reproducible: %v then %v", f1, f2)
	}
}

func TestFitnessEvaluatorNeedsLearner(t *testing.T) {
	cfg := shortSessionConfig(t)
	cfg.Roster.Learner = ""
	if _, err := NewFitnessEvaluator(NewParamVector(), cfg, []int64{1}, 1); err == nil {
		t.Error("expected error without a learner")
	}
}
