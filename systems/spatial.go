// Package systems provides the simulation services the game composes:
// scheduling, spatial lookup, movement, boundary and feedback.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	DX, DY float64 // Delta from query origin
	DistSq float64 // Squared distance (avoid sqrt in hot path)
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid.
// The grid covers a bounded rectangle; positions outside it are clamped
// into the edge cells, so queries near the edge still find them.
type SpatialGrid struct {
	cellSize   float64
	cols, rows int
	minX, minY float64
	cells      [][]ecs.Entity // flat grid of entity lists
	count      int
}

// NewSpatialGrid creates a spatial grid covering the given area.
func NewSpatialGrid(area config.Rect, cellSize float64) *SpatialGrid {
	cols := int((area.MaxX-area.MinX)/cellSize) + 1
	rows := int((area.MaxY-area.MinY)/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		minX:     area.MinX,
		minY:     area.MinY,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], e)
	g.count++
}

// Len returns the number of inserted entities.
func (g *SpatialGrid) Len() int {
	return g.count
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// QueryRadiusInto finds entities within radius and appends to dst (up to MaxQueryResults).
// Returns the updated slice. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, y, radius float64, exclude ecs.Entity, posMap *ecs.Map[components.Position]) []Neighbor {
	colMin, rowMin := g.cellCoords(x-radius, y-radius)
	colMax, rowMax := g.cellCoords(x+radius, y+radius)
	radiusSq := radius * radius

	for row := rowMin; row <= rowMax; row++ {
		for col := colMin; col <= colMax; col++ {
			for _, e := range g.cells[row*g.cols+col] {
				if e == exclude {
					continue
				}

				pos := posMap.Get(e)
				if pos == nil {
					continue
				}

				dx, dy := pos.X-x, pos.Y-y
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: e, DX: dx, DY: dy, DistSq: distSq})
					// Early exit if we hit the cap
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// AnyWithin reports whether any entity lies within radius of (x, y).
func (g *SpatialGrid) AnyWithin(x, y, radius float64, posMap *ecs.Map[components.Position]) bool {
	var buf [1]Neighbor
	return len(g.QueryRadiusInto(buf[:0], x, y, radius, ecs.Entity{}, posMap)) > 0
}

// cellCoords returns the clamped column and row for a position.
func (g *SpatialGrid) cellCoords(x, y float64) (col, row int) {
	col = int((x - g.minX) / g.cellSize)
	row = int((y - g.minY) / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.cellCoords(x, y)
	return row*g.cols + col
}
