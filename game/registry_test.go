package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/zoo/components"
)

func TestRegistryCountTracksDeaths(t *testing.T) {
	tests := []struct {
		name  string
		spawn int
		kill  int
	}{
		{name: "none die", spawn: 5, kill: 0},
		{name: "some die", spawn: 8, kill: 3},
		{name: "all die", spawn: 4, kill: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, Options{})
			reg := g.Registry()

			var counts []int
			reg.Count().Subscribe(func(n int) { counts = append(counts, n) })
			despawned := 0
			reg.Despawned().Subscribe(func(Animal) { despawned++ })

			var animals []Animal
			for i := range tt.spawn {
				animals = append(animals, addAnimal(t, g, components.KindPrey, float64(i), 0))
			}
			for _, a := range animals[:tt.kill] {
				g.Lifecycle().Kill(a)
			}

			assert.Equal(t, tt.spawn-tt.kill, reg.Len())
			assert.Equal(t, tt.spawn-tt.kill, reg.Count().Get())
			assert.Equal(t, tt.kill, despawned)
			assert.Equal(t, animals[tt.kill:], nonNil(reg.Animals()), "spawn order is kept")
			require.NotEmpty(t, counts)
			assert.Equal(t, tt.spawn-tt.kill, counts[len(counts)-1])
		})
	}
}

func nonNil(as []Animal) []Animal {
	if as == nil {
		return []Animal{}
	}
	return as
}

func TestRegistryRejectsDuplicatesAndDead(t *testing.T) {
	g := newTestGame(t, Options{})
	reg := g.Registry()
	life := g.Lifecycle()

	a := addAnimal(t, g, components.KindPredator, 0, 0)
	spawned := 0
	reg.Spawned().Subscribe(func(Animal) { spawned++ })

	assert.False(t, reg.Add(a), "second add is rejected")
	assert.Equal(t, 1, reg.Len())

	dead := life.Create(Spec{Kind: components.KindPrey, NoMovement: true})
	life.Kill(dead)
	assert.False(t, reg.Add(dead))
	assert.False(t, reg.Contains(dead))
	assert.Equal(t, 0, spawned)

	// Death of a registered animal removes it exactly once
	life.Kill(a)
	life.Kill(a)
	assert.False(t, reg.Contains(a))
	assert.False(t, reg.Remove(a))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryAnimalsIsACopy(t *testing.T) {
	g := newTestGame(t, Options{})
	a := addAnimal(t, g, components.KindPrey, 0, 0)

	list := g.Registry().Animals()
	list[0] = Animal{}
	assert.True(t, g.Registry().Contains(a))
	assert.Equal(t, a, g.Registry().Animals()[0])
}

func TestStateCountersNotify(t *testing.T) {
	g := newTestGame(t, Options{})
	st := g.State()

	var prey, pred []int
	st.PreyDeaths().Subscribe(func(n int) { prey = append(prey, n) })
	st.PredatorDeaths().Subscribe(func(n int) { pred = append(pred, n) })

	st.IncrementPreyDeaths()
	st.IncrementPreyDeaths()
	st.IncrementPredatorDeaths()

	assert.Equal(t, []int{1, 2}, prey)
	assert.Equal(t, []int{1}, pred)
	assert.Equal(t, 2, st.PreyDeaths().Get())
	assert.Equal(t, 1, st.PredatorDeaths().Get())
}
