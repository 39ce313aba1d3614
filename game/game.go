// Package game composes the simulation: entity lifecycle, population
// registry, spawn controller, collision resolver and game state, driven by
// a single-threaded tick loop.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/bus"
	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
	"github.com/pthm-cable/zoo/systems"
	"github.com/pthm-cable/zoo/telemetry"
)

// Options configures a Game beyond the loaded config.
type Options struct {
	Seed      int64
	OutputDir string // CSV, config and snapshot output; empty disables
	Logger    *slog.Logger
	LogStats  bool // log window and perf stats at each flush

	// Testing and embedding hooks
	DisableSpawner  bool
	DisableContacts bool
	Factory         Factory  // replaces the default lifecycle factory
	Feedback        Feedback // replaces the popup layer
	StatsCallback   func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	opts   Options
	world  *ecs.World
	rng    *rand.Rand
	logger *slog.Logger

	clock    *Clock
	sched    *systems.Scheduler
	grid     *systems.SpatialGrid
	physics  *systems.PhysicsSystem
	bounds   *systems.Boundary
	wanderer *systems.Wanderer
	popups   *systems.Popups

	life     *Lifecycle
	registry *Registry
	state    *State
	factory  Factory
	spawner  *Spawner
	resolver *Resolver

	// Lookups for snapshots
	posMap    *ecs.Map[components.Position]
	velMap    *ecs.Map[components.Velocity]
	rotMap    *ecs.Map[components.Rotation]
	vitalsMap *ecs.Map[components.Vitals]

	// Telemetry
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	lifetimes *telemetry.LifetimeTracker
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager
	records   []telemetry.ResolutionRecord

	subs   []*bus.Subscription
	closed bool
}

// NewGame creates a new game instance.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))

	g := &Game{
		cfg:       cfg,
		opts:      opts,
		world:     world,
		rng:       rng,
		logger:    logger,
		clock:     NewClock(cfg.Physics.DT),
		sched:     systems.NewScheduler(logger),
		posMap:    ecs.NewMap[components.Position](world),
		velMap:    ecs.NewMap[components.Velocity](world),
		rotMap:    ecs.NewMap[components.Rotation](world),
		vitalsMap: ecs.NewMap[components.Vitals](world),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT),
		perf:      telemetry.NewPerfCollector(cfg.Derived.WindowTicks),
		lifetimes: telemetry.NewLifetimeTracker(),
		bookmarks: telemetry.NewBookmarkDetector(10),
	}

	// Collaborators
	g.bounds = systems.NewBoundary(cfg.World, rng, logger)
	g.grid = systems.NewSpatialGrid(g.bounds.Area(), cfg.Physics.GridCellSize)
	g.physics = systems.NewPhysicsSystem(world, g.grid, cfg.Physics.Drag)
	g.wanderer = systems.NewWanderer(world, g.bounds, cfg.Movement, rng)
	g.popups = systems.NewPopups(cfg.Feedback, logger)

	var feedback Feedback = g.popups
	if opts.Feedback != nil {
		feedback = opts.Feedback
	}

	// Core
	g.life = NewLifecycle(world, cfg.Entity, g.clock, g.sched, g.wanderer, logger)
	g.registry = NewRegistry(g.life, logger)
	g.state = NewState(logger)

	g.factory = opts.Factory
	if g.factory == nil {
		g.factory = NewFactory(g.life, cfg.Entity.MaxEntities)
	}
	g.spawner = NewSpawner(cfg.Spawn, g.factory, g.registry, g.bounds, g, g.sched, rng, logger)
	g.resolver = NewResolver(cfg.Resolution, cfg.Entity.LethalDamage, ResolverDeps{
		Lifecycle: g.life,
		Movement:  g.wanderer,
		Impulser:  g.physics,
		Feedback:  feedback,
		State:     g.state,
		Scheduler: g.sched,
		Clock:     g.clock,
		Rand:      rng,
		Logger:    logger,
	})

	g.subs = append(g.subs, g.life.Disposed().Subscribe(func(a Animal) {
		g.physics.Forget(a.Entity)
	}))
	g.wireTelemetry()

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}
	g.output = output

	logger.Info("game_created",
		"seed", opts.Seed,
		"dt", cfg.Physics.DT,
		"viewport", g.bounds.HasViewport(),
		"output_dir", opts.OutputDir,
	)
	return g, nil
}

// Step advances the simulation by one tick.
func (g *Game) Step() {
	g.perf.StartTick()
	now := g.clock.advance()
	dt := g.clock.DT()

	g.perf.StartPhase(telemetry.PhaseMovement)
	g.wanderer.Update(now)

	g.perf.StartPhase(telemetry.PhasePhysics)
	g.physics.Integrate(dt)
	g.physics.RebuildGrid()

	g.perf.StartPhase(telemetry.PhaseContacts)
	if !g.opts.DisableContacts {
		g.physics.DetectContacts(g.onContact)
	}

	g.perf.StartPhase(telemetry.PhaseSpawner)
	if !g.opts.DisableSpawner {
		g.spawner.Update(dt)
	}

	g.perf.StartPhase(telemetry.PhaseResolver)
	g.resolver.Drain()

	g.perf.StartPhase(telemetry.PhaseScheduler)
	g.sched.Update(now)

	g.perf.StartPhase(telemetry.PhaseFeedback)
	g.popups.Update(now, dt)

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perf.EndTick()
}

// onContact forwards a physics contact to the resolver.
func (g *Game) onContact(a, b ecs.Entity) {
	ha, okA := g.life.Handle(a)
	hb, okB := g.life.Handle(b)
	if !okA || !okB {
		return
	}
	g.resolver.PublishCollision(ha, hb)
}

// Run steps the simulation until ctx is done or maxTicks ticks have run
// (0 = no limit). In realtime mode ticks are paced to the wall clock.
func (g *Game) Run(ctx context.Context, maxTicks int64, realtime bool) error {
	var tick <-chan time.Time
	if realtime {
		ticker := time.NewTicker(time.Duration(g.clock.DT() * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for maxTicks <= 0 || g.clock.Tick() < maxTicks {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		g.Step()
	}
	return nil
}

// Occupied reports whether a live body lies within radius of p.
// Reflects the grid as of the last physics step.
func (g *Game) Occupied(p r2.Vec, radius float64) bool {
	return g.grid.AnyWithin(p.X, p.Y, radius, g.posMap)
}

// SetViewport updates the visible area used for spawning and bounds.
func (g *Game) SetViewport(r config.Rect) {
	g.bounds.SetViewport(r)
}

// Close disposes every entity, writes a final snapshot and closes output.
// Safe to call more than once.
func (g *Game) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	var errs []error
	if g.output != nil {
		if _, err := telemetry.SaveSnapshot(g.Snapshot(nil), g.snapshotDir()); err != nil {
			errs = append(errs, err)
		}
		if err := g.output.WriteResolutions(g.records); err != nil {
			errs = append(errs, err)
		}
		g.records = nil
	}

	g.sched.Clear()
	g.registry.Clear()
	g.life.DisposeAll()

	for _, sub := range g.subs {
		sub.Cancel()
	}
	g.subs = nil

	if err := g.output.Close(); err != nil {
		errs = append(errs, err)
	}

	g.logger.Info("game_closed",
		"ticks", g.clock.Tick(),
		"prey_deaths", g.state.PreyDeaths().Get(),
		"predator_deaths", g.state.PredatorDeaths().Get(),
	)
	return errors.Join(errs...)
}

func (g *Game) snapshotDir() string {
	return filepath.Join(g.output.Dir(), "snapshots")
}

// Snapshot captures every entity not yet disposed.
func (g *Game) Snapshot(bm *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:        telemetry.SnapshotVersion,
		RNGSeed:        g.opts.Seed,
		Tick:           g.clock.Tick(),
		SimTime:        g.clock.Now(),
		PreyDeaths:     g.state.PreyDeaths().Get(),
		PredatorDeaths: g.state.PredatorDeaths().Get(),
		Bookmark:       bm,
	}

	for _, a := range g.life.Animals() {
		pos := g.posMap.Get(a.Entity)
		vel := g.velMap.Get(a.Entity)
		vitals := g.vitalsMap.Get(a.Entity)
		scale, _ := g.life.Scale(a)

		es := telemetry.EntityState{
			ID:      a.ID.String(),
			Kind:    a.Kind.String(),
			State:   vitals.State.String(),
			Health:  vitals.Health,
			Scale:   scale,
			X:       pos.X,
			Y:       pos.Y,
			VelX:    vel.X,
			VelY:    vel.Y,
			Heading: g.rotMap.Get(a.Entity).Heading,
			Moving:  g.wanderer.IsMoving(a.Entity),
		}
		if ls := g.lifetimes.Get(a.ID); ls != nil {
			g.lifetimes.UpdateSurvivalTime(a.ID, snap.Tick, g.clock.DT())
			es.Lifetime = ls.ToJSON()
		}
		snap.Entities = append(snap.Entities, es)
	}
	return snap
}

// Config returns the active configuration.
func (g *Game) Config() *config.Config { return g.cfg }

// World returns the ECS world.
func (g *Game) World() *ecs.World { return g.world }

// Clock returns the simulation clock.
func (g *Game) Clock() *Clock { return g.clock }

// Scheduler returns the task scheduler.
func (g *Game) Scheduler() *systems.Scheduler { return g.sched }

// Lifecycle returns the entity lifecycle manager.
func (g *Game) Lifecycle() *Lifecycle { return g.life }

// Registry returns the population registry.
func (g *Game) Registry() *Registry { return g.registry }

// State returns the game-state counters.
func (g *Game) State() *State { return g.state }

// Spawner returns the spawn controller.
func (g *Game) Spawner() *Spawner { return g.spawner }

// Resolver returns the collision resolver.
func (g *Game) Resolver() *Resolver { return g.resolver }

// Factory returns the entity factory in use.
func (g *Game) Factory() Factory { return g.factory }

// Physics returns the physics stand-in.
func (g *Game) Physics() *systems.PhysicsSystem { return g.physics }

// Movement returns the movement collaborator.
func (g *Game) Movement() *systems.Wanderer { return g.wanderer }

// Boundary returns the boundary collaborator.
func (g *Game) Boundary() *systems.Boundary { return g.bounds }

// Popups returns the transient text layer.
func (g *Game) Popups() *systems.Popups { return g.popups }
