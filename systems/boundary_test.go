package systems

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/config"
)

func testWorldConfig() config.WorldConfig {
	return config.WorldConfig{
		SpawnInset:     0.1,
		BoundsPadding:  1,
		FallbackSpawn:  config.Rect{MinX: -8, MinY: -8, MaxX: 8, MaxY: 8},
		FallbackBounds: config.Rect{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10},
	}
}

func inRect(r config.Rect, p r2.Vec) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

func TestBoundaryFallbackWithoutViewport(t *testing.T) {
	cfg := testWorldConfig()
	b := NewBoundary(cfg, rand.New(rand.NewSource(1)), nil)
	assert.False(t, b.HasViewport())

	for range 200 {
		p := b.RandomSpawnPosition()
		assert.True(t, inRect(cfg.FallbackSpawn, p), "spawn %v outside fallback", p)
	}

	assert.True(t, b.IsWithinBounds(r2.Vec{X: 9.5, Y: -9.5}))
	assert.False(t, b.IsWithinBounds(r2.Vec{X: 10.5, Y: 0}))
	assert.Equal(t, cfg.FallbackBounds, b.Area())
	assert.Equal(t, r2.Vec{}, b.Center())
}

func TestBoundaryViewportInsetAndPadding(t *testing.T) {
	cfg := testWorldConfig()
	cfg.Viewport = config.Rect{MinX: 0, MinY: 0, MaxX: 20, MaxY: 10}
	b := NewBoundary(cfg, rand.New(rand.NewSource(2)), nil)
	assert.True(t, b.HasViewport())

	inset := config.Rect{MinX: 2, MinY: 1, MaxX: 18, MaxY: 9}
	for range 200 {
		p := b.RandomSpawnPosition()
		assert.True(t, inRect(inset, p), "spawn %v outside inset viewport", p)
	}

	tests := []struct {
		name string
		p    r2.Vec
		want bool
	}{
		{name: "inside", p: r2.Vec{X: 10, Y: 5}, want: true},
		{name: "within padding", p: r2.Vec{X: -0.5, Y: 10.9}, want: true},
		{name: "beyond padding", p: r2.Vec{X: 21.5, Y: 5}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.IsWithinBounds(tt.p))
		})
	}

	assert.Equal(t, config.Rect{MinX: -1, MinY: -1, MaxX: 21, MaxY: 11}, b.Area())
	assert.Equal(t, r2.Vec{X: 10, Y: 5}, b.Center())
}

func TestBoundarySetViewportFallsBack(t *testing.T) {
	cfg := testWorldConfig()
	cfg.Viewport = config.Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4}
	b := NewBoundary(cfg, rand.New(rand.NewSource(3)), nil)

	b.SetViewport(config.Rect{})
	assert.False(t, b.HasViewport())
	assert.True(t, b.IsWithinBounds(r2.Vec{X: -9, Y: 9}))
}
