package game

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/components"
)

var (
	// ErrEntityCap is returned when the world already holds the maximum
	// number of entities.
	ErrEntityCap = errors.New("entity cap reached")
	// ErrNoBody is returned when an operation needs a physical body the
	// entity does not have.
	ErrNoBody = errors.New("entity has no body")
	// ErrStale is returned when an entity died or was disposed while an
	// operation on it was in flight.
	ErrStale = errors.New("entity is no longer alive")
)

// Factory creates animals.
type Factory interface {
	CreateEntity(kind components.Kind, pos r2.Vec, heading float64, parent ecs.Entity) (Animal, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(kind components.Kind, pos r2.Vec, heading float64, parent ecs.Entity) (Animal, error)

// CreateEntity calls f.
func (f FactoryFunc) CreateEntity(kind components.Kind, pos r2.Vec, heading float64, parent ecs.Entity) (Animal, error) {
	return f(kind, pos, heading, parent)
}

// lifecycleFactory creates fully equipped animals through the lifecycle.
type lifecycleFactory struct {
	life *Lifecycle
	max  int
}

// NewFactory returns a factory that creates animals with a body and
// movement, refusing once max entities exist (0 = unlimited).
func NewFactory(life *Lifecycle, max int) Factory {
	return &lifecycleFactory{life: life, max: max}
}

func (f *lifecycleFactory) CreateEntity(kind components.Kind, pos r2.Vec, heading float64, parent ecs.Entity) (Animal, error) {
	if kind != components.KindPrey && kind != components.KindPredator {
		return Animal{}, fmt.Errorf("creating %s: unknown kind %d", kind, kind)
	}
	if f.max > 0 && f.life.Live() >= f.max {
		return Animal{}, fmt.Errorf("creating %s: %w (%d)", kind, ErrEntityCap, f.max)
	}
	return f.life.Create(Spec{
		Kind:     kind,
		Position: pos,
		Heading:  heading,
		Parent:   parent,
	}), nil
}
