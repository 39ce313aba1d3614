package game

import (
	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/telemetry"
)

// wireTelemetry subscribes the collectors to game events. Handlers only
// record; they never touch entity state.
func (g *Game) wireTelemetry() {
	g.subs = append(g.subs,
		g.registry.Spawned().Subscribe(func(a Animal) {
			g.collector.RecordSpawn(a.Kind)
			g.lifetimes.Register(a.ID, a.Kind, g.clock.Tick())
		}),
		g.registry.Despawned().Subscribe(func(Animal) {
			g.collector.RecordDespawn()
		}),
		g.life.Died().Subscribe(func(a Animal) {
			g.collector.RecordDeath(a.Kind)
			g.lifetimes.MarkDead(a.ID, g.clock.Tick(), g.clock.DT())
		}),
		g.life.Disposed().Subscribe(func(a Animal) {
			if ls := g.lifetimes.Remove(a.ID); ls != nil {
				g.logger.Debug("lifetime",
					"animal", a.String(),
					"survival_sec", ls.SurvivalTimeSec,
					"collisions", ls.Collisions,
					"kills", ls.Kills,
				)
			}
		}),
		g.resolver.Resolved().Subscribe(g.recordResolution),
		g.resolver.Dropped().Subscribe(func(d DroppedRequest) {
			g.collector.RecordDropped(d.Reason)
		}),
	)
}

// recordResolution feeds a resolution event to the collectors.
func (g *Game) recordResolution(ev ResolutionEvent) {
	g.collector.RecordResolution(ev.Outcome.String(), ev.At-ev.RequestedAt)

	g.lifetimes.RecordCollision(ev.Initiator.ID)
	g.lifetimes.RecordCollision(ev.Target.ID)
	switch ev.Outcome {
	case OutcomeBounce:
		g.lifetimes.RecordBounce(ev.Initiator.ID)
		g.lifetimes.RecordBounce(ev.Target.ID)
	case OutcomeEating, OutcomeFight:
		g.lifetimes.RecordKill(ev.Initiator.ID)
	}

	if g.output != nil {
		g.records = append(g.records, telemetry.NewResolutionRecord(
			g.clock.Tick(), ev.At, ev.RequestedAt, ev.Outcome.String(),
			telemetry.Party{ID: ev.Initiator.ID.String(), Kind: ev.Initiator.Kind},
			telemetry.Party{ID: ev.Target.ID.String(), Kind: ev.Target.Kind},
		))
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.clock.Tick()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	preyCount, predCount := g.populationByKind()
	stats := g.collector.Flush(tick, preyCount, predCount, g.sampleHealth(), telemetry.Totals{
		PreyDeaths: g.state.PreyDeaths().Get(),
		PredDeaths: g.state.PredatorDeaths().Get(),
	})
	perfStats := g.perf.Stats()

	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats(g.logger)
		perfStats.LogStats(g.logger)
	}

	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			g.logger.Error("failed to write telemetry", "error", err)
		}
		if err := g.output.WriteResolutions(g.records); err != nil {
			g.logger.Error("failed to write resolutions", "error", err)
		}
		g.records = g.records[:0]
		if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			g.logger.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark(g.logger)
		}
		if g.output == nil {
			continue
		}
		if err := g.output.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
		if _, err := telemetry.SaveSnapshot(g.Snapshot(&bm), g.snapshotDir()); err != nil {
			g.logger.Error("failed to save snapshot", "error", err)
		}
	}
}

// populationByKind counts registered animals per kind.
func (g *Game) populationByKind() (prey, pred int) {
	for _, a := range g.registry.Animals() {
		if a.Kind == components.KindPrey {
			prey++
		} else {
			pred++
		}
	}
	return prey, pred
}

// sampleHealth collects the health of every alive animal.
func (g *Game) sampleHealth() []float64 {
	var health []float64
	for _, a := range g.registry.Animals() {
		if h, ok := g.life.Health(a); ok && g.life.IsAlive(a) {
			health = append(health, float64(h))
		}
	}
	return health
}
