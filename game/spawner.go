package game

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
	"github.com/pthm-cable/zoo/systems"
)

// SpawnStats counts spawn controller outcomes since start.
type SpawnStats struct {
	Triggered  int // spawn tasks started
	Spawned    int // animals registered
	Aborted    int // no safe position found
	Failed     int // factory errors
	Duplicates int // already registered when the task tried to register
	Lost       int // died before registration
}

// Spawner creates animals at a rate that slows as the population grows.
type Spawner struct {
	cfg       config.SpawnConfig
	factory   Factory
	registry  *Registry
	bounds    Bounds
	occupancy Occupancy
	sched     *systems.Scheduler
	rng       *rand.Rand
	logger    *slog.Logger

	timer float64
	stats SpawnStats
}

// NewSpawner creates a spawn controller.
func NewSpawner(cfg config.SpawnConfig, factory Factory, registry *Registry, bounds Bounds, occupancy Occupancy, sched *systems.Scheduler, rng *rand.Rand, logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{
		cfg:       cfg,
		factory:   factory,
		registry:  registry,
		bounds:    bounds,
		occupancy: occupancy,
		sched:     sched,
		rng:       rng,
		logger:    logger,
	}
}

// Interval returns the spawn interval for a population size.
func (s *Spawner) Interval(population int) float64 {
	t := math.Min(float64(population)/s.cfg.PopulationScale, 1)
	if t < 0 {
		t = 0
	}
	return s.cfg.MinInterval + (s.cfg.MaxInterval-s.cfg.MinInterval)*t
}

// Update advances the timer by dt and starts at most one spawn when the
// current interval elapses. Overshoot is discarded.
func (s *Spawner) Update(dt float64) {
	s.timer += dt
	if s.timer < s.Interval(s.registry.Len()) {
		return
	}
	s.timer = 0
	s.Trigger()
}

// Trigger starts a spawn task immediately.
func (s *Spawner) Trigger() {
	kind := components.KindPredator
	if s.rng.Float64() < s.cfg.PreySpawnWeight {
		kind = components.KindPrey
	}
	s.stats.Triggered++
	s.sched.Go("spawn", &spawnTask{s: s, kind: kind}, nil)
}

// Timer returns the accumulated time since the last spawn.
func (s *Spawner) Timer() float64 { return s.timer }

// Stats returns the spawn counters.
func (s *Spawner) Stats() SpawnStats { return s.stats }

const (
	spawnSearching = iota
	spawnSettling
)

// spawnTask searches for a safe position, creates the animal, lets it
// settle and then registers it.
type spawnTask struct {
	s       *Spawner
	kind    components.Kind
	phase   int
	attempt int
	yielded bool

	animal   Animal
	settleAt float64
}

func (t *spawnTask) Step(now float64) (systems.Yield, error) {
	s := t.s
	switch t.phase {
	case spawnSearching:
		for t.attempt < s.cfg.MaxAttempts {
			if s.cfg.YieldEvery > 0 && t.attempt%s.cfg.YieldEvery == 0 && !t.yielded {
				t.yielded = true
				return systems.NextFrame(), nil
			}
			t.yielded = false

			pos := s.bounds.RandomSpawnPosition()
			t.attempt++
			if s.occupancy.Occupied(pos, s.cfg.SafeRadius) {
				continue
			}

			heading := s.rng.Float64() * 2 * math.Pi
			a, err := s.factory.CreateEntity(t.kind, pos, heading, ecs.Entity{})
			if err != nil {
				s.stats.Failed++
				s.logger.Warn("spawn_failed", "kind", t.kind, "error", err)
				return systems.Finish(), nil
			}
			t.animal = a
			t.phase = spawnSettling
			t.settleAt = now + s.cfg.SettleDelay
			return systems.Yield{Wake: t.settleAt}, nil
		}
		s.stats.Aborted++
		s.logger.Debug("spawn_no_safe_position", "kind", t.kind, "attempts", t.attempt)
		return systems.Finish(), nil

	case spawnSettling:
		if now < t.settleAt {
			return systems.Yield{Wake: t.settleAt}, nil
		}
		switch {
		case s.registry.Contains(t.animal):
			s.stats.Duplicates++
		case s.registry.Add(t.animal):
			s.stats.Spawned++
			s.logger.Debug("spawned", "animal", t.animal.String(), "population", s.registry.Len())
		default:
			s.stats.Lost++
		}
		return systems.Finish(), nil
	}
	return systems.Finish(), nil
}
