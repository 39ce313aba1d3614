// Package components defines ECS components for the simulation.
package components

import "github.com/google/uuid"

// Kind distinguishes prey from predators.
type Kind uint8

const (
	KindPrey Kind = iota
	KindPredator
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindPrey:
		return "prey"
	case KindPredator:
		return "predator"
	default:
		return "unknown"
	}
}

// State is an entity's lifecycle state. Alive -> Dead is the only transition.
type State uint8

const (
	StateAlive State = iota
	StateDead
)

// String returns the lowercase state name.
func (s State) String() string {
	if s == StateDead {
		return "dead"
	}
	return "alive"
}

// Identity holds the immutable identity of an animal.
type Identity struct {
	ID   uuid.UUID
	Kind Kind
}
