package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	PreyCount int `csv:"prey"`
	PredCount int `csv:"pred"`

	// Events during window
	PreySpawns int `csv:"prey_spawns"`
	PredSpawns int `csv:"pred_spawns"`
	Despawns   int `csv:"despawns"`
	PreyDeaths int `csv:"prey_deaths"`
	PredDeaths int `csv:"pred_deaths"`

	// Collision outcomes
	Bounces  int `csv:"bounces"`
	Meals    int `csv:"meals"`
	Fights   int `csv:"fights"`
	Stale    int `csv:"dropped_stale"`
	InFlight int `csv:"dropped_in_flight"`

	// Mean time from submission to resolution, seconds
	MeanLatency float64 `csv:"mean_latency"`

	// Health distribution over live animals (sampled at window end)
	HealthMean float64 `csv:"health_mean"`
	HealthStd  float64 `csv:"health_std"`
	HealthP10  float64 `csv:"health_p10"`
	HealthP50  float64 `csv:"health_p50"`
	HealthP90  float64 `csv:"health_p90"`

	// Cumulative counters
	TotalPreyDeaths int `csv:"total_prey_deaths"`
	TotalPredDeaths int `csv:"total_pred_deaths"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeHealthStats calculates mean, standard deviation and percentiles.
// The standard deviation is the population one, zero for fewer than two values.
func ComputeHealthStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if n > 1 {
		_, variance := stat.PopMeanVariance(values, nil)
		std = math.Sqrt(variance)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Int("prey_spawns", s.PreySpawns),
		slog.Int("pred_spawns", s.PredSpawns),
		slog.Int("despawns", s.Despawns),
		slog.Int("prey_deaths", s.PreyDeaths),
		slog.Int("pred_deaths", s.PredDeaths),
		slog.Int("bounces", s.Bounces),
		slog.Int("meals", s.Meals),
		slog.Int("fights", s.Fights),
		slog.Int("dropped_stale", s.Stale),
		slog.Int("dropped_in_flight", s.InFlight),
		slog.Float64("mean_latency", s.MeanLatency),
		slog.Float64("health_mean", s.HealthMean),
		slog.Float64("health_std", s.HealthStd),
		slog.Float64("health_p50", s.HealthP50),
		slog.Int("total_prey_deaths", s.TotalPreyDeaths),
		slog.Int("total_pred_deaths", s.TotalPredDeaths),
	)
}

// LogStats logs the window stats using the given logger.
func (s WindowStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"prey_spawns", s.PreySpawns,
		"pred_spawns", s.PredSpawns,
		"prey_deaths", s.PreyDeaths,
		"pred_deaths", s.PredDeaths,
		"bounces", s.Bounces,
		"meals", s.Meals,
		"fights", s.Fights,
		"dropped_stale", s.Stale,
		"dropped_in_flight", s.InFlight,
		"mean_latency", s.MeanLatency,
		"health_mean", s.HealthMean,
	)
}
