package game

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/bus"
	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
	"github.com/pthm-cable/zoo/systems"
)

// Spec describes an animal to create.
type Spec struct {
	Kind       components.Kind
	Position   r2.Vec
	Heading    float64
	Parent     ecs.Entity // optional owner, zero for none
	NoBody     bool       // omit the physical body capability
	NoMovement bool       // omit the movement capability
}

// Lifecycle owns entity creation, damage, death and disposal.
//
// State machine: Alive -> Dead -> disposed. Dead is entered synchronously
// when health drops to <= 0; disposal follows after the grace delay.
type Lifecycle struct {
	world    *ecs.World
	cfg      config.EntityConfig
	clock    *Clock
	sched    *systems.Scheduler
	movement Movement
	logger   *slog.Logger

	animalMap *ecs.Map6[
		components.Identity,
		components.Vitals,
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Appearance,
	]
	identMap     *ecs.Map[components.Identity]
	vitalsMap    *ecs.Map[components.Vitals]
	posMap       *ecs.Map[components.Position]
	appearMap    *ecs.Map[components.Appearance]
	bodyMap      *ecs.Map[components.Body]
	motionMap    *ecs.Map[components.Motion]
	parentMap    *ecs.Map[Parent]
	vitalsFilter *ecs.Filter2[components.Identity, components.Vitals]

	deathHooks map[ecs.Entity][]func(Animal)
	live       int

	spawned  *bus.Channel[Animal]
	died     *bus.Channel[Animal]
	disposed *bus.Channel[Animal]
}

// Parent links an animal to the entity that owns it.
type Parent struct {
	Entity ecs.Entity
}

// NewLifecycle creates the lifecycle manager.
func NewLifecycle(w *ecs.World, cfg config.EntityConfig, clock *Clock, sched *systems.Scheduler, movement Movement, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		world:    w,
		cfg:      cfg,
		clock:    clock,
		sched:    sched,
		movement: movement,
		logger:   logger,
		animalMap: ecs.NewMap6[
			components.Identity,
			components.Vitals,
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Appearance,
		](w),
		identMap:     ecs.NewMap[components.Identity](w),
		vitalsMap:    ecs.NewMap[components.Vitals](w),
		posMap:       ecs.NewMap[components.Position](w),
		appearMap:    ecs.NewMap[components.Appearance](w),
		bodyMap:      ecs.NewMap[components.Body](w),
		motionMap:    ecs.NewMap[components.Motion](w),
		parentMap:    ecs.NewMap[Parent](w),
		vitalsFilter: ecs.NewFilter2[components.Identity, components.Vitals](w),
		deathHooks:   make(map[ecs.Entity][]func(Animal)),
		spawned:      bus.NewChannel[Animal](),
		died:         bus.NewChannel[Animal](),
		disposed:     bus.NewChannel[Animal](),
	}
}

// Spawned publishes each new animal exactly once, right after creation.
func (l *Lifecycle) Spawned() *bus.Channel[Animal] { return l.spawned }

// Died publishes each animal exactly once when it enters Dead.
func (l *Lifecycle) Died() *bus.Channel[Animal] { return l.died }

// Disposed publishes each animal when its entity is removed.
func (l *Lifecycle) Disposed() *bus.Channel[Animal] { return l.disposed }

// Live returns the number of entities not yet disposed.
func (l *Lifecycle) Live() int { return l.live }

// Create adds a new animal to the world. The spawn notification fires
// before any other wiring; movement starts on the next frame.
func (l *Lifecycle) Create(spec Spec) Animal {
	ident := components.Identity{ID: uuid.New(), Kind: spec.Kind}
	vitals := components.Vitals{Health: l.cfg.InitialHealth, State: components.StateAlive}
	pos := components.PositionOf(spec.Position)
	vel := components.Velocity{}
	rot := components.Rotation{Heading: spec.Heading}
	look := components.Appearance{Scale: 1}

	e := l.animalMap.NewEntity(&ident, &vitals, &pos, &vel, &rot, &look)
	if !spec.NoBody {
		l.bodyMap.Add(e, &components.Body{Radius: l.cfg.BodyRadius, Mass: l.cfg.Mass})
	}
	if !spec.NoMovement {
		l.motionMap.Add(e, &components.Motion{})
	}
	if !spec.Parent.IsZero() {
		l.parentMap.Add(e, &Parent{Entity: spec.Parent})
	}
	l.live++

	a := Animal{Entity: e, ID: ident.ID, Kind: ident.Kind}
	l.spawned.Publish(a)

	if !spec.NoMovement {
		l.sched.Go("start_movement", startMovementTask(l, a), nil)
	}
	return a
}

// startMovementTask starts movement if a is still alive. Tasks take their
// first step on the next scheduler update, which is the next frame.
func startMovementTask(l *Lifecycle, a Animal) systems.Task {
	return systems.TaskFunc(func(float64) (systems.Yield, error) {
		if l.IsAlive(a) {
			l.movement.Start(a.Entity)
		}
		return systems.Finish(), nil
	})
}

// Exists reports whether a has not been disposed.
func (l *Lifecycle) Exists(a Animal) bool {
	if a.IsZero() || !l.world.Alive(a.Entity) || !l.identMap.Has(a.Entity) {
		return false
	}
	return l.identMap.Get(a.Entity).ID == a.ID
}

// Handle returns the animal handle for a live ECS entity.
func (l *Lifecycle) Handle(e ecs.Entity) (Animal, bool) {
	if !l.world.Alive(e) || !l.identMap.Has(e) {
		return Animal{}, false
	}
	ident := l.identMap.Get(e)
	return Animal{Entity: e, ID: ident.ID, Kind: ident.Kind}, true
}

// IsAlive reports whether a exists and is in the Alive state.
func (l *Lifecycle) IsAlive(a Animal) bool {
	return l.Exists(a) && l.vitalsMap.Get(a.Entity).State == components.StateAlive
}

// State returns the lifecycle state. Disposed animals report Dead.
func (l *Lifecycle) State(a Animal) components.State {
	if !l.Exists(a) {
		return components.StateDead
	}
	return l.vitalsMap.Get(a.Entity).State
}

// Health returns the current health, and false if a was disposed.
func (l *Lifecycle) Health(a Animal) (int, bool) {
	if !l.Exists(a) {
		return 0, false
	}
	return l.vitalsMap.Get(a.Entity).Health, true
}

// Position returns the current position, and false if a was disposed.
func (l *Lifecycle) Position(a Animal) (r2.Vec, bool) {
	if !l.Exists(a) {
		return r2.Vec{}, false
	}
	return l.posMap.Get(a.Entity).Vec(), true
}

// Scale returns the visual scale, and false if a was disposed.
func (l *Lifecycle) Scale(a Animal) (float64, bool) {
	if !l.Exists(a) {
		return 0, false
	}
	return l.appearMap.Get(a.Entity).Scale, true
}

// SetScale sets the visual scale. No-op for disposed animals.
func (l *Lifecycle) SetScale(a Animal, scale float64) {
	if l.Exists(a) {
		l.appearMap.Get(a.Entity).Scale = scale
	}
}

// HasMovement reports whether a carries the movement capability.
func (l *Lifecycle) HasMovement(a Animal) bool {
	return l.Exists(a) && l.motionMap.Has(a.Entity)
}

// Parent returns the owner entity recorded at creation, if any.
func (l *Lifecycle) Parent(a Animal) (ecs.Entity, bool) {
	if !l.Exists(a) || !l.parentMap.Has(a.Entity) {
		return ecs.Entity{}, false
	}
	return l.parentMap.Get(a.Entity).Entity, true
}

// OnDeath registers a one-shot hook for a's death. Hooks registered on an
// animal that is already dead or disposed never fire.
func (l *Lifecycle) OnDeath(a Animal, fn func(Animal)) {
	if !l.IsAlive(a) {
		return
	}
	l.deathHooks[a.Entity] = append(l.deathHooks[a.Entity], fn)
}

// TakeDamage subtracts amount from a's health. Health is not clamped.
// Crossing to <= 0 kills the animal; further damage on a dead animal only
// lowers health and never signals death again.
func (l *Lifecycle) TakeDamage(a Animal, amount int) {
	if !l.Exists(a) {
		return
	}
	vitals := l.vitalsMap.Get(a.Entity)
	vitals.Health -= amount
	l.logger.Debug("animal_damaged", "animal", a.String(), "amount", amount, "health", vitals.Health)

	if vitals.State == components.StateDead || vitals.Health > 0 {
		return
	}
	vitals.State = components.StateDead
	vitals.DiedAt = l.clock.Now()
	l.enterDead(a)
}

// Kill applies lethal damage.
func (l *Lifecycle) Kill(a Animal) {
	l.TakeDamage(a, l.cfg.LethalDamage)
}

func (l *Lifecycle) enterDead(a Animal) {
	if l.motionMap.Has(a.Entity) {
		l.movement.Stop(a.Entity)
	}

	hooks := l.deathHooks[a.Entity]
	delete(l.deathHooks, a.Entity)

	l.logger.Debug("animal_died", "animal", a.String())
	for _, fn := range hooks {
		fn(a)
	}
	l.died.Publish(a)

	disposeAt := l.clock.Now() + l.cfg.DeathGrace
	l.sched.Go("dispose", systems.TaskFunc(func(now float64) (systems.Yield, error) {
		if now < disposeAt {
			return systems.Yield{Wake: disposeAt}, nil
		}
		l.dispose(a)
		return systems.Finish(), nil
	}), nil)
}

// dispose removes a's entity from the world.
func (l *Lifecycle) dispose(a Animal) {
	if !l.Exists(a) {
		return
	}
	delete(l.deathHooks, a.Entity)
	l.world.RemoveEntity(a.Entity)
	l.live--
	l.logger.Debug("animal_disposed", "animal", a.String())
	l.disposed.Publish(a)
}

// Animals returns handles for every entity not yet disposed.
func (l *Lifecycle) Animals() []Animal {
	var out []Animal
	query := l.vitalsFilter.Query()
	for query.Next() {
		ident, _ := query.Get()
		out = append(out, Animal{Entity: query.Entity(), ID: ident.ID, Kind: ident.Kind})
	}
	return out
}

// DisposeAll removes every remaining entity immediately, without death
// notifications. Used on shutdown.
func (l *Lifecycle) DisposeAll() {
	for _, a := range l.Animals() {
		l.dispose(a)
	}
}
