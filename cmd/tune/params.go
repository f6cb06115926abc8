package main

import (
	"github.com/pthm-cable/pursuit/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Column name in the tune log
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting point
}

// ParamVector holds the set of tunable learning parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "alpha", Path: "learning.alpha", Min: 0.05, Max: 1.0, Default: 0.5},
			{Name: "gamma", Path: "learning.gamma", Min: 0.5, Max: 0.99, Default: 0.9},
			{Name: "epsilon_decay", Path: "learning.epsilon_decay", Min: 0.9, Max: 0.999, Default: 0.99},
			{Name: "decision_interval", Path: "learning.decision_interval", Min: 0.05, Max: 1.0, Default: 0.2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting values, taken from cfg when given.
func (pv *ParamVector) DefaultVector(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	if cfg != nil {
		v = pv.Clamp([]float64{
			cfg.Learning.Alpha,
			cfg.Learning.Gamma,
			cfg.Learning.EpsilonDecay,
			cfg.Learning.DecisionInterval,
		})
	}
	return v
}

// Normalize converts raw parameter values to the [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Learning.Alpha = clamped[0]
	cfg.Learning.Gamma = clamped[1]
	cfg.Learning.EpsilonDecay = clamped[2]
	cfg.Learning.DecisionInterval = clamped[3]
}
