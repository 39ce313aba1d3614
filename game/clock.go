package game

import (
	"math"
	"sync/atomic"
)

// Clock is the simulation clock. The simulation thread advances it; other
// goroutines may read it, e.g. to timestamp a collision they submit.
type Clock struct {
	dt   float64
	tick atomic.Int64
	now  atomic.Uint64 // float64 bits
}

// NewClock creates a clock at tick zero.
func NewClock(dt float64) *Clock {
	return &Clock{dt: dt}
}

// Now returns the current simulation time in seconds.
func (c *Clock) Now() float64 {
	return math.Float64frombits(c.now.Load())
}

// Tick returns the number of completed ticks.
func (c *Clock) Tick() int64 {
	return c.tick.Load()
}

// DT returns seconds per tick.
func (c *Clock) DT() float64 {
	return c.dt
}

// advance moves the clock forward one tick. Time is derived from the tick
// count so it does not drift.
func (c *Clock) advance() float64 {
	t := c.tick.Add(1)
	now := float64(t) * c.dt
	c.now.Store(math.Float64bits(now))
	return now
}
