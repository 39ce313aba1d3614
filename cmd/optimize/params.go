// Package main provides CMA-ES optimization for zoo simulation parameters.
package main

import (
	"github.com/pthm-cable/zoo/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Spawning
			{Name: "spawn_min_interval", Path: "spawn.min_interval", Min: 0.25, Max: 3.0, Default: 1.0},
			// max_interval is min_interval + span so the pair always validates
			{Name: "spawn_interval_span", Path: "spawn.max_interval", Min: 0.0, Max: 4.0, Default: 1.0},
			{Name: "population_scale", Path: "spawn.population_scale", Min: 10, Max: 150, Default: 50},
			{Name: "prey_spawn_weight", Path: "spawn.prey_spawn_weight", Min: 0.3, Max: 0.95, Default: 0.7},
			{Name: "safe_radius", Path: "spawn.safe_radius", Min: 0.5, Max: 4.0, Default: 2.0},
			// Resolution
			{Name: "eat_duration", Path: "resolution.eat_duration", Min: 0.1, Max: 2.0, Default: 0.5},
			{Name: "fight_duration", Path: "resolution.fight_duration", Min: 0.1, Max: 2.0, Default: 0.5},
			// Movement
			{Name: "predator_speed", Path: "movement.predator.move_speed", Min: 0.5, Max: 5.0, Default: 2.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
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

// ApplyToConfig applies parameter values to a Config struct and
// recomputes its derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	i := 0
	cfg.Spawn.MinInterval = clamped[i]
	i++
	cfg.Spawn.MaxInterval = cfg.Spawn.MinInterval + clamped[i]
	i++
	cfg.Spawn.PopulationScale = clamped[i]
	i++
	cfg.Spawn.PreySpawnWeight = clamped[i]
	i++
	cfg.Spawn.SafeRadius = clamped[i]
	i++
	cfg.Resolution.EatDuration = clamped[i]
	i++
	cfg.Resolution.FightDuration = clamped[i]
	i++
	cfg.Movement.Predator.MoveSpeed = clamped[i]

	return cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Spawn.MinInterval,
		cfg.Spawn.MaxInterval - cfg.Spawn.MinInterval,
		cfg.Spawn.PopulationScale,
		cfg.Spawn.PreySpawnWeight,
		cfg.Spawn.SafeRadius,
		cfg.Resolution.EatDuration,
		cfg.Resolution.FightDuration,
		cfg.Movement.Predator.MoveSpeed,
	}
}
