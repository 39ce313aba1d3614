package main

import (
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
	"github.com/pthm-cable/zoo/game"
	"github.com/pthm-cable/zoo/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64
	targetRatio float64 // desired prey per predator

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config, targetRatio float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0, // 10 seconds per window
		targetRatio: targetRatio,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable population: if either kind stays below this for
// extinctionGraceSec it counts as functionally extinct.
const (
	minViablePop       = 2
	extinctionGraceSec = 30.0
	warmupSec          = 10.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int64                   // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
}

// penaltyFitness is returned for parameter vectors that do not produce a
// valid config.
const penaltyFitness = 0.0

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks scaled by ecosystem quality.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		slog.Warn("invalid parameters", "error", err)
		return penaltyFitness
	}
	cfg.Telemetry.StatsWindow = fe.statsWindow
	if err := cfg.Refresh(); err != nil {
		return penaltyFitness
	}

	// Games share nothing, so seeds run in parallel
	results := make([]seedResult, len(fe.seeds))
	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			result, err := fe.runSimulation(cfg, seed)
			if err != nil {
				return err
			}
			results[i] = seedResult{
				fitness: fe.computeFitness(result),
				quality: fe.computeQuality(result.windowStats),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Error("evaluation failed", "error", err)
		return penaltyFitness
	}

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (*runResult, error) {
	result := &runResult{}

	g, err := game.NewGame(cfg, game.Options{
		Seed:   seed,
		Logger: slog.New(slog.DiscardHandler),
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Close()

	dt := cfg.Physics.DT
	graceTicks := int64(extinctionGraceSec / dt)
	warmupTicks := int64(warmupSec / dt)
	var preyBelow, predBelow int64

	for g.Clock().Tick() < fe.maxTicks {
		g.Step()

		tick := g.Clock().Tick()
		if tick < warmupTicks {
			continue
		}

		prey, pred := countKinds(g)
		preyBelow = belowFor(preyBelow, prey)
		predBelow = belowFor(predBelow, pred)
		if preyBelow >= graceTicks || predBelow >= graceTicks {
			result.survivalTicks = tick
			return result, nil
		}
	}

	result.survivalTicks = fe.maxTicks
	return result, nil
}

func belowFor(ticks int64, count int) int64 {
	if count < minViablePop {
		return ticks + 1
	}
	return 0
}

// countKinds returns the registered prey and predator counts.
func countKinds(g *game.Game) (prey, pred int) {
	for _, a := range g.Registry().Animals() {
		if a.Kind == components.KindPredator {
			pred++
		} else {
			prey++
		}
	}
	return prey, pred
}

// copyConfig creates a copy of the base config. Config holds no pointers,
// so a value copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := fe.computeQuality(r.windowStats)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.40
	qualityWeightStability = 0.35
	qualityWeightActivity  = 0.25

	qualityWarmupWindows = 1 // skip first N windows (warmup)
	qualityMinPop        = 2 // exclude windows where either kind < this
)

// computeQuality computes ecosystem quality ∈ [0, 1] from window stats.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var ratioSum, activitySum float64
	preyCounts := make([]float64, 0, len(windows))
	predCounts := make([]float64, 0, len(windows))

	for _, w := range windows[qualityWarmupWindows:] {
		if w.PreyCount < qualityMinPop || w.PredCount < qualityMinPop {
			continue
		}
		preyCounts = append(preyCounts, float64(w.PreyCount))
		predCounts = append(predCounts, float64(w.PredCount))

		// Log-normal score around the target ratio
		logErr := math.Log(float64(w.PreyCount) / float64(w.PredCount) / fe.targetRatio)
		ratioSum += math.Exp(-logErr * logErr)

		// Meals per predator, saturating
		activitySum += 1 - math.Exp(-float64(w.Meals)/float64(w.PredCount))
	}

	n := len(preyCounts)
	if n == 0 {
		return 0
	}

	stabilityScore := 0.0
	if n >= 2 {
		cvPrey, cvPred := cv(preyCounts), cv(predCounts)
		stabilityScore = math.Exp(-(cvPrey*cvPrey + cvPred*cvPred))
	}

	quality := qualityWeightRatio*ratioSum/float64(n) +
		qualityWeightStability*stabilityScore +
		qualityWeightActivity*activitySum/float64(n)

	return min(max(quality, 0), 1)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	mean, variance := stat.PopMeanVariance(values, nil)
	if mean == 0 {
		return 0
	}
	return math.Sqrt(variance) / mean
}
