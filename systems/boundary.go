package systems

import (
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/zoo/config"
)

// Boundary answers world-bounds questions for spawning and movement.
// Without a viewport it degrades to fixed fallback rectangles.
type Boundary struct {
	cfg      config.WorldConfig
	viewport config.Rect
	rng      *rand.Rand
	logger   *slog.Logger
	warned   bool
}

// NewBoundary creates a boundary using the configured viewport, if any.
func NewBoundary(cfg config.WorldConfig, rng *rand.Rand, logger *slog.Logger) *Boundary {
	if logger == nil {
		logger = slog.Default()
	}
	return &Boundary{cfg: cfg, viewport: cfg.Viewport, rng: rng, logger: logger}
}

// SetViewport replaces the visible area. An empty rect drops back to the fallbacks.
func (b *Boundary) SetViewport(r config.Rect) {
	b.viewport = r
	b.warned = false
}

// HasViewport reports whether viewport data is available.
func (b *Boundary) HasViewport() bool {
	return !b.viewport.Empty()
}

// RandomSpawnPosition returns a uniformly random position inside the
// inset viewport, or inside the fallback spawn area.
func (b *Boundary) RandomSpawnPosition() r2.Vec {
	if !b.HasViewport() {
		b.warnFallback()
		return b.randomIn(b.cfg.FallbackSpawn)
	}

	v := b.viewport
	insetX := (v.MaxX - v.MinX) * b.cfg.SpawnInset
	insetY := (v.MaxY - v.MinY) * b.cfg.SpawnInset
	return b.randomIn(config.Rect{
		MinX: v.MinX + insetX,
		MinY: v.MinY + insetY,
		MaxX: v.MaxX - insetX,
		MaxY: v.MaxY - insetY,
	})
}

// IsWithinBounds reports whether p lies inside the padded viewport,
// or inside the fallback bounds.
func (b *Boundary) IsWithinBounds(p r2.Vec) bool {
	if !b.HasViewport() {
		b.warnFallback()
		return contains(b.cfg.FallbackBounds, p, 0)
	}
	return contains(b.viewport, p, b.cfg.BoundsPadding)
}

// Center returns the centre of the active area.
func (b *Boundary) Center() r2.Vec {
	r := b.viewport
	if !b.HasViewport() {
		r = b.cfg.FallbackBounds
	}
	return r2.Vec{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Area returns the rectangle covered by IsWithinBounds.
func (b *Boundary) Area() config.Rect {
	if !b.HasViewport() {
		return b.cfg.FallbackBounds
	}
	pad := b.cfg.BoundsPadding
	return config.Rect{
		MinX: b.viewport.MinX - pad,
		MinY: b.viewport.MinY - pad,
		MaxX: b.viewport.MaxX + pad,
		MaxY: b.viewport.MaxY + pad,
	}
}

func (b *Boundary) randomIn(r config.Rect) r2.Vec {
	return r2.Vec{
		X: r.MinX + b.rng.Float64()*(r.MaxX-r.MinX),
		Y: r.MinY + b.rng.Float64()*(r.MaxY-r.MinY),
	}
}

func (b *Boundary) warnFallback() {
	if b.warned {
		return
	}
	b.warned = true
	b.logger.Warn("boundary_fallback", "reason", "no viewport")
}

func contains(r config.Rect, p r2.Vec, pad float64) bool {
	return p.X >= r.MinX-pad && p.X <= r.MaxX+pad &&
		p.Y >= r.MinY-pad && p.Y <= r.MaxY+pad
}
