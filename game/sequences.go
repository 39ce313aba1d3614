package game

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/systems"
)

// bounceSequence pushes two prey apart and reports a Bounce once they
// have had time to separate. No health or counters change.
type bounceSequence struct {
	r        *Resolver
	req      CollisionRequest
	pushed   bool
	settleAt float64
}

func (s *bounceSequence) Step(now float64) (systems.Yield, error) {
	r, a, b := s.r, s.req.A, s.req.B
	if !r.bothAlive(a, b) {
		return r.abort(s.req, OutcomeBounce, ErrStale)
	}

	if !s.pushed {
		if !r.impulser.HasBody(a.Entity) || !r.impulser.HasBody(b.Entity) {
			r.logger.Warn("bounce_without_body", "a", a.String(), "b", b.String())
			return r.abort(s.req, OutcomeBounce, ErrNoBody)
		}
		pa, _ := r.life.Position(a)
		pb, _ := r.life.Position(b)
		dir := r2.Sub(pb, pa)
		if r2.Norm(dir) == 0 {
			angle := r.rng.Float64() * 2 * math.Pi
			dir = r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
		}
		push := r2.Scale(r.cfg.BounceForce, r2.Unit(dir))
		if err := r.impulser.ApplyImpulse(a.Entity, r2.Scale(-1, push)); err != nil {
			return r.abort(s.req, OutcomeBounce, fmt.Errorf("impulse %s: %w", a, err))
		}
		if err := r.impulser.ApplyImpulse(b.Entity, push); err != nil {
			return r.abort(s.req, OutcomeBounce, fmt.Errorf("impulse %s: %w", b, err))
		}
		s.pushed = true
		s.settleAt = now + r.cfg.BounceSettle
		return systems.Yield{Wake: s.settleAt}, nil
	}

	if now < s.settleAt {
		return systems.Yield{Wake: s.settleAt}, nil
	}
	r.publish(s.req, a, b, OutcomeBounce)
	return systems.Finish(), nil
}

const (
	eatStart = iota
	eatShrinking
	eatSettling
)

// eatingSequence stops both animals, shrinks the prey away, then kills it.
type eatingSequence struct {
	r        *Resolver
	req      CollisionRequest
	predator Animal
	prey     Animal
	phase    int
	started  float64
	settleAt float64
}

func newEatingSequence(r *Resolver, req CollisionRequest) *eatingSequence {
	predator, prey := req.A, req.B
	if predator.Kind != components.KindPredator {
		predator, prey = prey, predator
	}
	return &eatingSequence{r: r, req: req, predator: predator, prey: prey}
}

func (s *eatingSequence) Step(now float64) (systems.Yield, error) {
	r := s.r
	if !r.bothAlive(s.predator, s.prey) {
		s.restore()
		return r.abort(s.req, OutcomeEating, ErrStale)
	}

	switch s.phase {
	case eatStart:
		if pos, ok := r.life.Position(s.predator); ok {
			r.feedback.ShowTransientText(pos)
		}
		s.stop(s.predator)
		s.stop(s.prey)
		s.started = now
		s.phase = eatShrinking
		return systems.NextFrame(), nil

	case eatShrinking:
		progress := 1.0
		if r.cfg.EatDuration > 0 {
			progress = (now - s.started) / r.cfg.EatDuration
		}
		if progress < 1 {
			r.life.SetScale(s.prey, 1-progress)
			return systems.NextFrame(), nil
		}
		r.life.SetScale(s.prey, 0)
		s.phase = eatSettling
		s.settleAt = now + r.cfg.EatSettle
		return systems.Yield{Wake: s.settleAt}, nil

	case eatSettling:
		if now < s.settleAt {
			return systems.Yield{Wake: s.settleAt}, nil
		}
		if r.life.HasMovement(s.predator) {
			r.movement.Start(s.predator.Entity)
		}
		r.life.TakeDamage(s.prey, r.lethal)
		r.state.IncrementPreyDeaths()
		r.kills[s.predator]++
		r.publish(s.req, s.predator, s.prey, OutcomeEating)
		return systems.Finish(), nil
	}
	return systems.Finish(), nil
}

func (s *eatingSequence) stop(a Animal) {
	if s.r.life.HasMovement(a) {
		s.r.movement.Stop(a.Entity)
	}
}

// restore undoes the cosmetic effects of an aborted meal on survivors.
func (s *eatingSequence) restore() {
	if s.phase == eatStart {
		return
	}
	r := s.r
	if r.life.IsAlive(s.prey) {
		r.life.SetScale(s.prey, 1)
		if r.life.HasMovement(s.prey) {
			r.movement.Start(s.prey.Entity)
		}
	}
	if r.life.IsAlive(s.predator) && r.life.HasMovement(s.predator) {
		r.movement.Start(s.predator.Entity)
	}
}

// fightSequence picks a loser at random, waits out the fight and kills it.
// Movement is not interrupted.
type fightSequence struct {
	r      *Resolver
	req    CollisionRequest
	winner Animal
	loser  Animal
	picked bool
	endAt  float64
}

func (s *fightSequence) Step(now float64) (systems.Yield, error) {
	r := s.r
	if !r.bothAlive(s.req.A, s.req.B) {
		return r.abort(s.req, OutcomeFight, ErrStale)
	}

	if !s.picked {
		s.winner, s.loser = s.req.A, s.req.B
		if r.rng.Intn(2) == 0 {
			s.winner, s.loser = s.loser, s.winner
		}
		if pos, ok := r.life.Position(s.winner); ok {
			r.feedback.ShowTransientText(pos)
		}
		s.picked = true
		s.endAt = now + r.cfg.FightDuration
		return systems.Yield{Wake: s.endAt}, nil
	}

	if now < s.endAt {
		return systems.Yield{Wake: s.endAt}, nil
	}
	r.life.TakeDamage(s.loser, r.lethal)
	r.state.IncrementPredatorDeaths()
	r.kills[s.winner]++
	r.publish(s.req, s.winner, s.loser, OutcomeFight)
	return systems.Finish(), nil
}
