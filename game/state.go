package game

import (
	"log/slog"

	"github.com/pthm-cable/zoo/bus"
)

// State holds cumulative game counters. Counters only go up.
type State struct {
	preyDeaths     *bus.Value[int]
	predatorDeaths *bus.Value[int]
	logger         *slog.Logger
}

// NewState creates zeroed counters.
func NewState(logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		preyDeaths:     bus.NewValue(0),
		predatorDeaths: bus.NewValue(0),
		logger:         logger,
	}
}

// IncrementPreyDeaths adds one prey death.
func (s *State) IncrementPreyDeaths() {
	n := s.preyDeaths.Update(func(v int) int { return v + 1 })
	s.logger.Info("prey_deaths", "count", n)
}

// IncrementPredatorDeaths adds one predator death.
func (s *State) IncrementPredatorDeaths() {
	n := s.predatorDeaths.Update(func(v int) int { return v + 1 })
	s.logger.Info("predator_deaths", "count", n)
}

// PreyDeaths is the observable prey death counter.
func (s *State) PreyDeaths() *bus.Value[int] { return s.preyDeaths }

// PredatorDeaths is the observable predator death counter.
func (s *State) PredatorDeaths() *bus.Value[int] { return s.predatorDeaths }
