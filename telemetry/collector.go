package telemetry

import "github.com/pthm-cable/zoo/components"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	preySpawns int
	predSpawns int
	despawns   int
	preyDeaths int
	predDeaths int
	bounces    int
	meals      int
	fights     int
	stale      int
	inFlight   int

	latencySum   float64
	latencyCount int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSpawn records a registered animal.
func (c *Collector) RecordSpawn(kind components.Kind) {
	if kind == components.KindPrey {
		c.preySpawns++
	} else {
		c.predSpawns++
	}
}

// RecordDespawn records an animal leaving the population.
func (c *Collector) RecordDespawn() {
	c.despawns++
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(kind components.Kind) {
	if kind == components.KindPrey {
		c.preyDeaths++
	} else {
		c.predDeaths++
	}
}

// RecordResolution records a resolved collision by outcome name and its
// latency from submission to completion.
func (c *Collector) RecordResolution(outcome string, latency float64) {
	switch outcome {
	case "bounce":
		c.bounces++
	case "eating":
		c.meals++
	case "fight":
		c.fights++
	}
	c.latencySum += latency
	c.latencyCount++
}

// RecordDropped records a collision request rejected before resolution.
func (c *Collector) RecordDropped(reason string) {
	switch reason {
	case "stale":
		c.stale++
	case "in_flight":
		c.inFlight++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Totals carries cumulative counters sampled at flush time.
type Totals struct {
	PreyDeaths int
	PredDeaths int
}

// Flush produces a WindowStats and resets counters for the next window.
// health holds the health of every live animal at window end.
func (c *Collector) Flush(currentTick int64, preyCount, predCount int, health []float64, totals Totals) WindowStats {
	var meanLatency float64
	if c.latencyCount > 0 {
		meanLatency = c.latencySum / float64(c.latencyCount)
	}

	hMean, hStd, hP10, hP50, hP90 := ComputeHealthStats(health)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		PreyCount: preyCount,
		PredCount: predCount,

		PreySpawns: c.preySpawns,
		PredSpawns: c.predSpawns,
		Despawns:   c.despawns,
		PreyDeaths: c.preyDeaths,
		PredDeaths: c.predDeaths,

		Bounces:  c.bounces,
		Meals:    c.meals,
		Fights:   c.fights,
		Stale:    c.stale,
		InFlight: c.inFlight,

		MeanLatency: meanLatency,

		HealthMean: hMean,
		HealthStd:  hStd,
		HealthP10:  hP10,
		HealthP50:  hP50,
		HealthP90:  hP90,

		TotalPreyDeaths: totals.PreyDeaths,
		TotalPredDeaths: totals.PredDeaths,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.preySpawns = 0
	c.predSpawns = 0
	c.despawns = 0
	c.preyDeaths = 0
	c.predDeaths = 0
	c.bounces = 0
	c.meals = 0
	c.fights = 0
	c.stale = 0
	c.inFlight = 0
	c.latencySum = 0
	c.latencyCount = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
