package systems

import (
	"errors"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/components"
)

// ErrNoBody is returned when an impulse targets an entity without a Body.
var ErrNoBody = errors.New("entity has no physical body")

// contactKey is an unordered entity pair, lower ID first.
type contactKey struct {
	a, b ecs.Entity
}

func makeContactKey(a, b ecs.Entity) contactKey {
	if b.ID() < a.ID() {
		a, b = b, a
	}
	return contactKey{a: a, b: b}
}

// PhysicsSystem is a minimal stand-in for engine physics: it integrates
// velocities, applies impulses and reports new contacts between live bodies.
type PhysicsSystem struct {
	world   *ecs.World
	motion  *ecs.Filter2[components.Position, components.Velocity]
	bodies  *ecs.Filter3[components.Position, components.Body, components.Vitals]
	posMap  *ecs.Map[components.Position]
	velMap  *ecs.Map[components.Velocity]
	bodyMap *ecs.Map[components.Body]
	grid    *SpatialGrid
	drag    float64

	touching map[contactKey]struct{}
	scratch  map[contactKey]struct{}
	nbuf     []Neighbor
}

// NewPhysicsSystem creates a new physics system over the given grid.
func NewPhysicsSystem(w *ecs.World, grid *SpatialGrid, drag float64) *PhysicsSystem {
	return &PhysicsSystem{
		world:    w,
		motion:   ecs.NewFilter2[components.Position, components.Velocity](w),
		bodies:   ecs.NewFilter3[components.Position, components.Body, components.Vitals](w),
		posMap:   ecs.NewMap[components.Position](w),
		velMap:   ecs.NewMap[components.Velocity](w),
		bodyMap:  ecs.NewMap[components.Body](w),
		grid:     grid,
		drag:     drag,
		touching: make(map[contactKey]struct{}),
		scratch:  make(map[contactKey]struct{}),
	}
}

// Integrate advances positions by velocity and applies linear drag.
func (s *PhysicsSystem) Integrate(dt float64) {
	damp := 1 - s.drag*dt
	if damp < 0 {
		damp = 0
	}

	query := s.motion.Query()
	for query.Next() {
		pos, vel := query.Get()
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		vel.X *= damp
		vel.Y *= damp
	}
}

// RebuildGrid reinserts every live body into the spatial grid.
func (s *PhysicsSystem) RebuildGrid() {
	s.grid.Clear()
	query := s.bodies.Query()
	for query.Next() {
		pos, _, vitals := query.Get()
		if vitals.State == components.StateAlive {
			s.grid.Insert(query.Entity(), pos.X, pos.Y)
		}
	}
}

// DetectContacts calls onEnter for every pair of live bodies that started
// touching since the previous call. Like per-body collision callbacks, each
// new contact is reported from both sides: (a, b) and then (b, a).
// RebuildGrid must run first.
func (s *PhysicsSystem) DetectContacts(onEnter func(a, b ecs.Entity)) {
	clear(s.scratch)

	var entered []contactKey
	query := s.bodies.Query()
	for query.Next() {
		e := query.Entity()
		pos, body, vitals := query.Get()
		if vitals.State != components.StateAlive {
			continue
		}

		// Twice the own radius covers equal-sized bodies; larger partners
		// are caught from their own side of the query.
		s.nbuf = s.grid.QueryRadiusInto(s.nbuf[:0], pos.X, pos.Y, 2*body.Radius, e, s.posMap)
		for _, n := range s.nbuf {
			other := s.bodyMap.Get(n.E)
			reach := body.Radius + other.Radius
			if n.DistSq > reach*reach {
				continue
			}
			key := makeContactKey(e, n.E)
			if _, seen := s.scratch[key]; seen {
				continue
			}
			s.scratch[key] = struct{}{}
			if _, was := s.touching[key]; !was {
				entered = append(entered, key)
			}
		}
	}

	s.touching, s.scratch = s.scratch, s.touching

	// Callbacks run after the query so they may touch the world freely
	for _, key := range entered {
		onEnter(key.a, key.b)
		onEnter(key.b, key.a)
	}
}

// ApplyImpulse changes the velocity of e by impulse / mass.
func (s *PhysicsSystem) ApplyImpulse(e ecs.Entity, impulse r2.Vec) error {
	if !s.world.Alive(e) || !s.bodyMap.Has(e) || !s.velMap.Has(e) {
		return ErrNoBody
	}
	body := s.bodyMap.Get(e)
	mass := body.Mass
	if mass <= 0 {
		mass = 1
	}
	vel := s.velMap.Get(e)
	vel.X += impulse.X / mass
	vel.Y += impulse.Y / mass
	return nil
}

// HasBody reports whether e can receive impulses.
func (s *PhysicsSystem) HasBody(e ecs.Entity) bool {
	return s.world.Alive(e) && s.bodyMap.Has(e)
}

// Forget drops contact state involving e, used when an entity is disposed.
func (s *PhysicsSystem) Forget(e ecs.Entity) {
	for key := range s.touching {
		if key.a == e || key.b == e {
			delete(s.touching, key)
		}
	}
}
