package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/bus"
	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
)

// MotionChange reports an entity starting or stopping autonomous movement.
type MotionChange struct {
	Entity ecs.Entity
	Moving bool
}

// Wanderer drives autonomous movement. Prey hop on an interval; predators
// glide and change direction periodically. Anything outside the boundary
// is pushed back toward its centre.
type Wanderer struct {
	world     *ecs.World
	filter    *ecs.Filter4[components.Motion, components.Velocity, components.Position, components.Identity]
	motionMap *ecs.Map[components.Motion]
	velMap    *ecs.Map[components.Velocity]
	bodyMap   *ecs.Map[components.Body]
	identMap  *ecs.Map[components.Identity]
	bounds    *Boundary
	cfg       config.MovementConfigs
	rng       *rand.Rand
	now       float64

	changes *bus.Channel[MotionChange]
}

// NewWanderer creates a movement system.
func NewWanderer(w *ecs.World, bounds *Boundary, cfg config.MovementConfigs, rng *rand.Rand) *Wanderer {
	return &Wanderer{
		world:     w,
		filter:    ecs.NewFilter4[components.Motion, components.Velocity, components.Position, components.Identity](w),
		motionMap: ecs.NewMap[components.Motion](w),
		velMap:    ecs.NewMap[components.Velocity](w),
		bodyMap:   ecs.NewMap[components.Body](w),
		identMap:  ecs.NewMap[components.Identity](w),
		bounds:    bounds,
		cfg:       cfg,
		rng:       rng,
		changes:   bus.NewChannel[MotionChange](),
	}
}

// Changes publishes every start/stop transition.
func (m *Wanderer) Changes() *bus.Channel[MotionChange] {
	return m.changes
}

// Start begins moving e. No-op if already moving or e has no Motion.
func (m *Wanderer) Start(e ecs.Entity) {
	if !m.world.Alive(e) || !m.motionMap.Has(e) {
		return
	}
	motion := m.motionMap.Get(e)
	if motion.Moving {
		return
	}
	cfg := m.configFor(e)
	motion.Moving = true
	motion.Direction = m.rng.Float64() * 2 * math.Pi
	motion.Speed = cfg.MoveSpeed
	motion.NextJump = m.now // first hop right away
	motion.NextTurn = m.now + cfg.DirectionChangeInterval
	m.changes.Publish(MotionChange{Entity: e, Moving: true})
}

// Stop halts e and zeroes its velocity. No-op if not moving.
func (m *Wanderer) Stop(e ecs.Entity) {
	if !m.world.Alive(e) || !m.motionMap.Has(e) {
		return
	}
	motion := m.motionMap.Get(e)
	if !motion.Moving {
		return
	}
	motion.Moving = false
	if m.velMap.Has(e) {
		*m.velMap.Get(e) = components.Velocity{}
	}
	m.changes.Publish(MotionChange{Entity: e, Moving: false})
}

// IsMoving reports whether e is currently moving.
func (m *Wanderer) IsMoving(e ecs.Entity) bool {
	if !m.world.Alive(e) || !m.motionMap.Has(e) {
		return false
	}
	return m.motionMap.Get(e).Moving
}

// Update steers every moving entity.
func (m *Wanderer) Update(now float64) {
	m.now = now
	center := m.bounds.Center()

	query := m.filter.Query()
	for query.Next() {
		motion, vel, pos, ident := query.Get()
		if !motion.Moving {
			continue
		}
		cfg := m.cfg.Prey
		if ident.Kind == components.KindPredator {
			cfg = m.cfg.Predator
		}
		mass := 1.0
		if e := query.Entity(); m.bodyMap.Has(e) {
			if b := m.bodyMap.Get(e); b.Mass > 0 {
				mass = b.Mass
			}
		}

		if cfg.JumpInterval > 0 {
			// Hopper: periodic impulse in a fresh random direction
			if now >= motion.NextJump {
				motion.Direction = m.rng.Float64() * 2 * math.Pi
				vel.X += math.Cos(motion.Direction) * cfg.JumpForce / mass
				vel.Y += math.Sin(motion.Direction) * cfg.JumpForce / mass
				motion.NextJump = now + cfg.JumpInterval
			}
		} else {
			// Glider: constant speed, periodic turns
			if now >= motion.NextTurn {
				motion.Direction = m.rng.Float64() * 2 * math.Pi
				motion.NextTurn = now + cfg.DirectionChangeInterval
			}
			vel.X = math.Cos(motion.Direction) * motion.Speed
			vel.Y = math.Sin(motion.Direction) * motion.Speed
		}

		p := pos.Vec()
		if !m.bounds.IsWithinBounds(p) {
			home := r2.Unit(r2.Sub(center, p))
			motion.Direction = math.Atan2(home.Y, home.X)
			vel.X += home.X * cfg.ReturnForce / mass
			vel.Y += home.Y * cfg.ReturnForce / mass
		}
	}
}

func (m *Wanderer) configFor(e ecs.Entity) config.MovementConfig {
	if m.identMap.Has(e) && m.identMap.Get(e).Kind == components.KindPredator {
		return m.cfg.Predator
	}
	return m.cfg.Prey
}
