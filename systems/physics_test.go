package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
)

type physicsFixture struct {
	world   *ecs.World
	physics *PhysicsSystem
	bodies  *ecs.Map4[components.Position, components.Velocity, components.Body, components.Vitals]
	posMap  *ecs.Map[components.Position]
	velMap  *ecs.Map[components.Velocity]
}

func newPhysicsFixture(drag float64) *physicsFixture {
	w := ecs.NewWorld()
	grid := NewSpatialGrid(config.Rect{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}, 2)
	return &physicsFixture{
		world:   w,
		physics: NewPhysicsSystem(w, grid, drag),
		bodies:  ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Vitals](w),
		posMap:  ecs.NewMap[components.Position](w),
		velMap:  ecs.NewMap[components.Velocity](w),
	}
}

func (f *physicsFixture) body(x, y float64) ecs.Entity {
	return f.bodies.NewEntity(
		&components.Position{X: x, Y: y},
		&components.Velocity{},
		&components.Body{Radius: 0.5, Mass: 2},
		&components.Vitals{Health: 100, State: components.StateAlive},
	)
}

type contact struct{ a, b ecs.Entity }

func (f *physicsFixture) contacts() []contact {
	var got []contact
	f.physics.RebuildGrid()
	f.physics.DetectContacts(func(a, b ecs.Entity) {
		got = append(got, contact{a, b})
	})
	return got
}

func TestDetectContactsReportsBothSidesOnce(t *testing.T) {
	f := newPhysicsFixture(0)
	a := f.body(0, 0)
	b := f.body(0.8, 0)
	f.body(5, 5) // not touching anything

	got := f.contacts()
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []contact{{a, b}, {b, a}}, got)
	assert.Equal(t, got[0].a, got[1].b, "second report is the mirror of the first")

	// Still touching: not a new contact
	assert.Empty(t, f.contacts())

	// Separate and touch again
	f.posMap.Get(b).X = 3
	assert.Empty(t, f.contacts())
	f.posMap.Get(b).X = 0.5
	assert.Len(t, f.contacts(), 2)
}

func TestDetectContactsIgnoresDeadBodies(t *testing.T) {
	f := newPhysicsFixture(0)
	f.body(0, 0)
	b := f.body(0.5, 0)
	ecs.NewMap[components.Vitals](f.world).Get(b).State = components.StateDead

	assert.Empty(t, f.contacts())
}

func TestForgetAllowsContactAfterDisposal(t *testing.T) {
	f := newPhysicsFixture(0)
	f.body(0, 0)
	b := f.body(0.5, 0)
	require.Len(t, f.contacts(), 2)

	f.physics.Forget(b)
	f.world.RemoveEntity(b)
	c := f.body(0.5, 0)

	got := f.contacts()
	require.Len(t, got, 2)
	assert.Contains(t, []ecs.Entity{got[0].a, got[0].b}, c)
}

func TestApplyImpulse(t *testing.T) {
	f := newPhysicsFixture(0)
	e := f.body(0, 0)

	require.NoError(t, f.physics.ApplyImpulse(e, r2.Vec{X: 4, Y: -2}))
	vel := f.velMap.Get(e)
	assert.InDelta(t, 2.0, vel.X, 1e-9)
	assert.InDelta(t, -1.0, vel.Y, 1e-9)

	bare := f.posMap.NewEntity(&components.Position{})
	assert.False(t, f.physics.HasBody(bare))
	assert.ErrorIs(t, f.physics.ApplyImpulse(bare, r2.Vec{X: 1}), ErrNoBody)

	f.world.RemoveEntity(e)
	assert.ErrorIs(t, f.physics.ApplyImpulse(e, r2.Vec{X: 1}), ErrNoBody)
}

func TestIntegrateAppliesVelocityAndDrag(t *testing.T) {
	tests := []struct {
		name    string
		drag    float64
		wantX   float64
		wantVel float64
	}{
		{name: "no drag", drag: 0, wantX: 0.5, wantVel: 1},
		{name: "half drag", drag: 1, wantX: 0.5, wantVel: 0.5},
		{name: "drag clamps at zero", drag: 10, wantX: 0.5, wantVel: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPhysicsFixture(tt.drag)
			e := f.body(0, 0)
			f.velMap.Get(e).X = 1

			f.physics.Integrate(0.5)
			assert.InDelta(t, tt.wantX, f.posMap.Get(e).X, 1e-9)
			assert.InDelta(t, tt.wantVel, f.velMap.Get(e).X, 1e-9)
		})
	}
}
