package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/components"
)

// Animal is a handle to a simulated animal. It is a comparable value and
// stays valid as an identifier after the entity is disposed.
type Animal struct {
	Entity ecs.Entity
	ID     uuid.UUID
	Kind   components.Kind
}

// IsZero reports whether a is the zero handle.
func (a Animal) IsZero() bool {
	return a.ID == uuid.Nil
}

// String returns a short human-readable form for logs.
func (a Animal) String() string {
	return fmt.Sprintf("%s/%s", a.Kind, a.ID.String()[:8])
}

// Movement starts and stops autonomous motion. The core never moves
// entities itself.
type Movement interface {
	Start(e ecs.Entity)
	Stop(e ecs.Entity)
	IsMoving(e ecs.Entity) bool
}

// Bounds answers spawn-area questions.
type Bounds interface {
	RandomSpawnPosition() r2.Vec
	IsWithinBounds(p r2.Vec) bool
}

// Feedback shows cosmetic feedback. Fire-and-forget.
type Feedback interface {
	ShowTransientText(pos r2.Vec)
}

// Impulser applies physical impulses to entities with a body.
type Impulser interface {
	HasBody(e ecs.Entity) bool
	ApplyImpulse(e ecs.Entity, impulse r2.Vec) error
}

// Occupancy answers whether a position is crowded by live entities.
type Occupancy interface {
	Occupied(p r2.Vec, radius float64) bool
}
