package telemetry

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/zoo/components"
)

// LifetimeStats tracks per-animal statistics over its lifetime.
type LifetimeStats struct {
	Kind            components.Kind
	SpawnTick       int64
	DeathTick       int64 // -1 while alive
	SurvivalTimeSec float64

	// Collisions
	Collisions int
	Bounces    int
	Kills      int
}

// LifetimeTracker manages per-animal lifetime statistics.
type LifetimeTracker struct {
	stats map[uuid.UUID]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uuid.UUID]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new animal.
func (lt *LifetimeTracker) Register(id uuid.UUID, kind components.Kind, spawnTick int64) {
	lt.stats[id] = &LifetimeStats{
		Kind:      kind,
		SpawnTick: spawnTick,
		DeathTick: -1,
	}
}

// Get returns the lifetime stats for an animal, or nil if not found.
func (lt *LifetimeTracker) Get(id uuid.UUID) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an animal's stats and returns them (for snapshot/logging).
func (lt *LifetimeTracker) Remove(id uuid.UUID) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordCollision increments the resolved collision count.
func (lt *LifetimeTracker) RecordCollision(id uuid.UUID) {
	if s := lt.stats[id]; s != nil {
		s.Collisions++
	}
}

// RecordBounce increments the bounce count.
func (lt *LifetimeTracker) RecordBounce(id uuid.UUID) {
	if s := lt.stats[id]; s != nil {
		s.Bounces++
	}
}

// RecordKill increments the kill count.
func (lt *LifetimeTracker) RecordKill(id uuid.UUID) {
	if s := lt.stats[id]; s != nil {
		s.Kills++
	}
}

// MarkDead records the death tick and final survival time.
func (lt *LifetimeTracker) MarkDead(id uuid.UUID, tick int64, dt float64) {
	if s := lt.stats[id]; s != nil && s.DeathTick < 0 {
		s.DeathTick = tick
		s.SurvivalTimeSec = float64(tick-s.SpawnTick) * dt
	}
}

// UpdateSurvivalTime updates survival time for an animal still alive.
func (lt *LifetimeTracker) UpdateSurvivalTime(id uuid.UUID, currentTick int64, dt float64) {
	if s := lt.stats[id]; s != nil && s.DeathTick < 0 {
		s.SurvivalTimeSec = float64(currentTick-s.SpawnTick) * dt
	}
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[uuid.UUID]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked animals.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
