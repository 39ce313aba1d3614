package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
)

func TestSpatialGridQueryRadius(t *testing.T) {
	w := ecs.NewWorld()
	posMap := ecs.NewMap[components.Position](w)
	grid := NewSpatialGrid(config.Rect{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}, 2)

	place := func(x, y float64) ecs.Entity {
		e := posMap.NewEntity(&components.Position{X: x, Y: y})
		grid.Insert(e, x, y)
		return e
	}
	origin := place(0, 0)
	near := place(1, 1)
	far := place(6, 6)
	outside := place(50, 0) // clamped into the edge column

	assert.Equal(t, 4, grid.Len())

	tests := []struct {
		name    string
		x, y    float64
		radius  float64
		exclude ecs.Entity
		want    []ecs.Entity
	}{
		{name: "origin small radius", x: 0, y: 0, radius: 0.5, want: []ecs.Entity{origin}},
		{name: "origin excluded", x: 0, y: 0, radius: 2, exclude: origin, want: []ecs.Entity{near}},
		{name: "covers near", x: 0, y: 0, radius: 2, want: []ecs.Entity{origin, near}},
		{name: "far corner", x: 5, y: 5, radius: 2, want: []ecs.Entity{far}},
		{name: "outside area still found", x: 49, y: 0, radius: 2, want: []ecs.Entity{outside}},
		{name: "empty space", x: -8, y: -8, radius: 1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := grid.QueryRadiusInto(nil, tt.x, tt.y, tt.radius, tt.exclude, posMap)
			var ents []ecs.Entity
			for _, n := range got {
				ents = append(ents, n.E)
			}
			assert.ElementsMatch(t, tt.want, ents)
		})
	}
}

func TestSpatialGridAnyWithinAndClear(t *testing.T) {
	w := ecs.NewWorld()
	posMap := ecs.NewMap[components.Position](w)
	grid := NewSpatialGrid(config.Rect{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}, 2)

	e := posMap.NewEntity(&components.Position{X: 3, Y: 3})
	grid.Insert(e, 3, 3)

	assert.True(t, grid.AnyWithin(2, 2, 2, posMap))
	assert.False(t, grid.AnyWithin(-3, -3, 2, posMap))

	grid.Clear()
	assert.Equal(t, 0, grid.Len())
	assert.False(t, grid.AnyWithin(3, 3, 1, posMap))
}
