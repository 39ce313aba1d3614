package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/zoo/components"
)

// collect records every resolution and drop published by g's resolver.
type collect struct {
	events  []ResolutionEvent
	dropped []DroppedRequest
}

func collectResolutions(g *Game) *collect {
	c := &collect{}
	g.Resolver().Resolved().Subscribe(func(ev ResolutionEvent) { c.events = append(c.events, ev) })
	g.Resolver().Dropped().Subscribe(func(d DroppedRequest) { c.dropped = append(c.dropped, d) })
	return c
}

func TestClassifyIsOrderIndependent(t *testing.T) {
	prey, pred := components.KindPrey, components.KindPredator
	tests := []struct {
		a, b    components.Kind
		want    PairKind
		outcome Outcome
	}{
		{prey, prey, PairPreyPrey, OutcomeBounce},
		{prey, pred, PairPreyPredator, OutcomeEating},
		{pred, prey, PairPreyPredator, OutcomeEating},
		{pred, pred, PairPredatorPredator, OutcomeFight},
	}
	for _, tt := range tests {
		got := Classify(tt.a, tt.b)
		assert.Equal(t, tt.want, got, "%s/%s", tt.a, tt.b)
		assert.Equal(t, tt.outcome, got.Outcome())
	}
}

func TestBounceLeavesBothAlive(t *testing.T) {
	g := newTestGame(t, Options{})
	c := collectResolutions(g)
	a := addAnimal(t, g, components.KindPrey, 0, 0)
	b := addAnimal(t, g, components.KindPrey, 0.8, 0)

	g.Resolver().PublishCollision(a, b)
	stepUntil(t, g, 60, func() bool { return len(c.events) > 0 })

	require.Len(t, c.events, 1)
	ev := c.events[0]
	assert.Equal(t, OutcomeBounce, ev.Outcome)
	assert.Equal(t, a, ev.Initiator)
	assert.Equal(t, b, ev.Target)
	assert.GreaterOrEqual(t, ev.At-ev.RequestedAt, g.Config().Resolution.BounceSettle)

	for _, x := range []Animal{a, b} {
		assert.True(t, g.Lifecycle().IsAlive(x))
		health, _ := g.Lifecycle().Health(x)
		assert.Equal(t, 100, health)
	}
	assert.Equal(t, 0, g.State().PreyDeaths().Get())
	assert.Equal(t, 0, g.State().PredatorDeaths().Get())

	// Pushed apart along the line between them
	pa, pb := mustPosition(t, g, a), mustPosition(t, g, b)
	assert.Less(t, pa.X, 0.0)
	assert.Greater(t, pb.X, 0.8)
}

func TestBounceWithoutBodyAborts(t *testing.T) {
	g := newTestGame(t, Options{})
	c := collectResolutions(g)
	a := addAnimal(t, g, components.KindPrey, 0, 0)
	ghost := g.Lifecycle().Create(Spec{Kind: components.KindPrey, NoBody: true, NoMovement: true})

	g.Resolver().PublishCollision(a, ghost)
	stepFor(g, 1)

	assert.Empty(t, c.events)
	assert.Equal(t, 1, g.Resolver().Stats().Aborted)
	assert.Equal(t, 0, g.Resolver().InFlight())
}

func TestEatingKillsPreyInEitherOrder(t *testing.T) {
	for _, predatorFirst := range []bool{true, false} {
		name := "prey first"
		if predatorFirst {
			name = "predator first"
		}
		t.Run(name, func(t *testing.T) {
			fb := &recordingFeedback{}
			g := newTestGame(t, Options{Feedback: fb})
			c := collectResolutions(g)
			predator := addAnimal(t, g, components.KindPredator, 0, 0)
			prey := addAnimal(t, g, components.KindPrey, 0.5, 0)

			if predatorFirst {
				g.Resolver().PublishCollision(predator, prey)
			} else {
				g.Resolver().PublishCollision(prey, predator)
			}
			stepUntil(t, g, 120, func() bool { return len(c.events) > 0 })

			ev := c.events[0]
			assert.Equal(t, OutcomeEating, ev.Outcome)
			assert.Equal(t, predator, ev.Initiator)
			assert.Equal(t, prey, ev.Target)

			assert.Equal(t, components.StateDead, g.Lifecycle().State(prey))
			assert.True(t, g.Lifecycle().IsAlive(predator))
			assert.False(t, g.Registry().Contains(prey))
			scale, _ := g.Lifecycle().Scale(prey)
			assert.Equal(t, 0.0, scale)

			assert.Equal(t, 1, g.State().PreyDeaths().Get())
			assert.Equal(t, 0, g.State().PredatorDeaths().Get())
			assert.Equal(t, 1, g.Resolver().KillCount(predator))
			assert.Len(t, fb.shown, 1)

			minLatency := g.Config().Resolution.EatDuration + g.Config().Resolution.EatSettle
			assert.GreaterOrEqual(t, ev.At-ev.RequestedAt, minLatency)
		})
	}
}

func TestEatingShrinksPreyGradually(t *testing.T) {
	g := newTestGame(t, Options{Feedback: &recordingFeedback{}})
	predator := addAnimal(t, g, components.KindPredator, 0, 0)
	prey := addAnimal(t, g, components.KindPrey, 0.5, 0)

	g.Resolver().PublishCollision(predator, prey)
	var scales []float64
	for range 20 {
		g.Step()
		s, _ := g.Lifecycle().Scale(prey)
		scales = append(scales, s)
	}

	for i := 1; i < len(scales); i++ {
		assert.LessOrEqual(t, scales[i], scales[i-1])
	}
	assert.Equal(t, 1.0, scales[0])
	assert.Less(t, scales[len(scales)-1], 1.0)
	assert.Greater(t, scales[len(scales)-1], 0.0)
}

func TestFightKillsOnePredator(t *testing.T) {
	g := newTestGame(t, Options{Feedback: &recordingFeedback{}})
	c := collectResolutions(g)
	a := addAnimal(t, g, components.KindPredator, 0, 0)
	b := addAnimal(t, g, components.KindPredator, 0.5, 0)

	g.Resolver().PublishCollision(a, b)
	stepUntil(t, g, 120, func() bool { return len(c.events) > 0 })

	ev := c.events[0]
	assert.Equal(t, OutcomeFight, ev.Outcome)
	assert.ElementsMatch(t, []Animal{a, b}, []Animal{ev.Initiator, ev.Target})
	assert.True(t, g.Lifecycle().IsAlive(ev.Initiator), "initiator is the winner")
	assert.Equal(t, components.StateDead, g.Lifecycle().State(ev.Target))
	assert.Equal(t, 1, g.State().PredatorDeaths().Get())
	assert.Equal(t, 0, g.State().PreyDeaths().Get())
	assert.Equal(t, 1, g.Resolver().KillCount(ev.Initiator))
	assert.Equal(t, 1, g.Registry().Len())
}

func TestFightWinnerIsFair(t *testing.T) {
	const fights = 400
	g := newTestGame(t, Options{Seed: 2024, Feedback: &recordingFeedback{}})
	c := collectResolutions(g)

	firstWins := 0
	firsts := make(map[Animal]bool)
	for i := range fights {
		a := addAnimal(t, g, components.KindPredator, float64(i%20), float64(i/20))
		b := addAnimal(t, g, components.KindPredator, float64(i%20)+0.5, float64(i/20))
		firsts[a] = true
		g.Resolver().PublishCollision(a, b)
	}
	stepUntil(t, g, 120, func() bool { return len(c.events) == fights })

	for _, ev := range c.events {
		if firsts[ev.Initiator] {
			firstWins++
		}
	}

	// Two-sided binomial test against p = 0.5
	dist := distuv.Binomial{N: fights, P: 0.5}
	k := float64(firstWins)
	pLow := dist.CDF(k)
	pHigh := 1 - dist.CDF(k-1)
	pValue := 2 * min(pLow, pHigh)
	assert.Greater(t, pValue, 0.001, "first party won %d of %d fights", firstWins, fights)
	assert.Equal(t, fights, g.State().PredatorDeaths().Get())
}

func TestStaleAndSelfRequestsAreDropped(t *testing.T) {
	g := newTestGame(t, Options{})
	c := collectResolutions(g)
	predator := addAnimal(t, g, components.KindPredator, 0, 0)
	prey := addAnimal(t, g, components.KindPrey, 0.5, 0)
	g.Lifecycle().Kill(prey)

	g.Resolver().PublishCollision(predator, prey)
	g.Resolver().PublishCollision(predator, predator)
	stepFor(g, 2)

	assert.Empty(t, c.events)
	require.Len(t, c.dropped, 2)
	assert.Equal(t, DropStale, c.dropped[0].Reason)
	assert.Equal(t, DropSelf, c.dropped[1].Reason)

	assert.Equal(t, 0, g.State().PreyDeaths().Get(), "killing outside the resolver does not count")
	assert.Equal(t, 0, g.Resolver().KillCount(predator))
	assert.Equal(t, 1, g.Resolver().Stats().Stale)

	// Disposed partner is stale too
	g.Resolver().PublishCollision(prey, predator)
	g.Step()
	assert.Equal(t, 2, g.Resolver().Stats().Stale)
}

func TestDeathMidEatingAbortsAndRestores(t *testing.T) {
	g := newTestGame(t, Options{Feedback: &recordingFeedback{}})
	c := collectResolutions(g)
	predator := addAnimal(t, g, components.KindPredator, 0, 0)
	prey := g.Lifecycle().Create(Spec{Kind: components.KindPrey, Position: mustPosition(t, g, predator)})
	require.True(t, g.Registry().Add(prey))
	g.Step()
	require.True(t, g.Movement().IsMoving(prey.Entity))

	g.Resolver().PublishCollision(predator, prey)
	for range 10 {
		g.Step()
	}
	scale, _ := g.Lifecycle().Scale(prey)
	require.Less(t, scale, 1.0, "shrinking has started")
	require.False(t, g.Movement().IsMoving(prey.Entity))

	g.Lifecycle().Kill(predator)
	stepFor(g, 2)

	assert.Empty(t, c.events)
	assert.Equal(t, 1, g.Resolver().Stats().Aborted)
	assert.Equal(t, 0, g.State().PreyDeaths().Get())
	assert.True(t, g.Lifecycle().IsAlive(prey))
	scale, _ = g.Lifecycle().Scale(prey)
	assert.Equal(t, 1.0, scale)
	assert.True(t, g.Movement().IsMoving(prey.Entity))
}

func TestInFlightPairsResolveOnce(t *testing.T) {
	g := newTestGame(t, Options{})
	c := collectResolutions(g)
	a := addAnimal(t, g, components.KindPrey, 0, 0)
	b := addAnimal(t, g, components.KindPrey, 0.5, 0)
	other := addAnimal(t, g, components.KindPrey, 5, 5)

	g.Resolver().PublishCollision(a, b)
	g.Resolver().PublishCollision(b, a)
	g.Resolver().PublishCollision(a, b)
	g.Resolver().PublishCollision(a, other)
	g.Step()
	assert.Equal(t, 2, g.Resolver().InFlight())

	// Still in flight on a later frame
	g.Resolver().PublishCollision(b, a)
	g.Step()

	stepFor(g, 1)
	assert.Len(t, c.events, 2)
	assert.Equal(t, 3, g.Resolver().Stats().Duplicates)
	for _, d := range c.dropped {
		assert.Equal(t, DropInFlight, d.Reason)
	}
	assert.Equal(t, 0, g.Resolver().InFlight())

	// Once finished the pair may resolve again
	g.Resolver().PublishCollision(a, b)
	stepFor(g, 1)
	assert.Len(t, c.events, 3)
}

func TestKillCountForgottenOnDisposal(t *testing.T) {
	g := newTestGame(t, Options{Feedback: &recordingFeedback{}})
	c := collectResolutions(g)
	predator := addAnimal(t, g, components.KindPredator, 0, 0)
	prey := addAnimal(t, g, components.KindPrey, 0.5, 0)

	g.Resolver().PublishCollision(predator, prey)
	stepUntil(t, g, 120, func() bool { return len(c.events) > 0 })
	require.Equal(t, 1, g.Resolver().KillCount(predator))

	g.Lifecycle().Kill(predator)
	assert.Equal(t, 1, g.Resolver().KillCount(predator), "kept until disposal")
	stepFor(g, g.Config().Entity.DeathGrace+0.1)
	assert.Equal(t, 0, g.Resolver().KillCount(predator))
}

func TestPublishCollisionFromManyGoroutines(t *testing.T) {
	g := newTestGame(t, Options{})
	c := collectResolutions(g)
	a := addAnimal(t, g, components.KindPrey, 0, 0)
	b := addAnimal(t, g, components.KindPrey, 0.5, 0)

	var eg errgroup.Group
	for range 50 {
		eg.Go(func() error {
			g.Resolver().PublishCollision(a, b)
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.Equal(t, 50, g.Resolver().Pending())

	stepFor(g, 1)
	assert.Equal(t, 0, g.Resolver().Pending())
	assert.Len(t, c.events, 1)
	assert.Len(t, c.dropped, 49)
}
