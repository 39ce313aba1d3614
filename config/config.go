// Package config provides configuration loading for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world" toml:"world"`
	Physics    PhysicsConfig    `yaml:"physics" toml:"physics"`
	Entity     EntityConfig     `yaml:"entity" toml:"entity"`
	Spawn      SpawnConfig      `yaml:"spawn" toml:"spawn"`
	Resolution ResolutionConfig `yaml:"resolution" toml:"resolution"`
	Movement   MovementConfigs  `yaml:"movement" toml:"movement"`
	Feedback   FeedbackConfig   `yaml:"feedback" toml:"feedback"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" toml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

// Rect is an axis-aligned rectangle on the ground plane.
type Rect struct {
	MinX float64 `yaml:"min_x" toml:"min_x"`
	MinY float64 `yaml:"min_y" toml:"min_y"`
	MaxX float64 `yaml:"max_x" toml:"max_x"`
	MaxY float64 `yaml:"max_y" toml:"max_y"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// WorldConfig holds the visible area and its fallbacks.
// An empty Viewport means no camera data is available.
type WorldConfig struct {
	Viewport       Rect    `yaml:"viewport" toml:"viewport"`
	SpawnInset     float64 `yaml:"spawn_inset" toml:"spawn_inset"`         // Fraction of viewport kept clear at each edge
	BoundsPadding  float64 `yaml:"bounds_padding" toml:"bounds_padding"`   // Slack outside viewport still considered in bounds
	FallbackSpawn  Rect    `yaml:"fallback_spawn" toml:"fallback_spawn"`   // Spawn area used without a viewport
	FallbackBounds Rect    `yaml:"fallback_bounds" toml:"fallback_bounds"` // Bounds used without a viewport
}

// PhysicsConfig holds the headless physics stand-in parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt" toml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size" toml:"grid_cell_size"`
	Drag         float64 `yaml:"drag" toml:"drag"` // Velocity damping per second
}

// EntityConfig holds entity creation parameters.
type EntityConfig struct {
	InitialHealth int     `yaml:"initial_health" toml:"initial_health"`
	LethalDamage  int     `yaml:"lethal_damage" toml:"lethal_damage"`
	DeathGrace    float64 `yaml:"death_grace" toml:"death_grace"` // Seconds between death and disposal
	BodyRadius    float64 `yaml:"body_radius" toml:"body_radius"`
	Mass          float64 `yaml:"mass" toml:"mass"`
	MaxEntities   int     `yaml:"max_entities" toml:"max_entities"` // Factory refuses beyond this (0 = unlimited)
}

// SpawnConfig holds spawn controller parameters.
type SpawnConfig struct {
	MinInterval     float64 `yaml:"min_interval" toml:"min_interval"`
	MaxInterval     float64 `yaml:"max_interval" toml:"max_interval"`
	PopulationScale float64 `yaml:"population_scale" toml:"population_scale"` // Population at which MaxInterval is reached
	PreySpawnWeight float64 `yaml:"prey_spawn_weight" toml:"prey_spawn_weight"`
	MaxAttempts     int     `yaml:"max_attempts" toml:"max_attempts"`
	YieldEvery      int     `yaml:"yield_every" toml:"yield_every"`
	SafeRadius      float64 `yaml:"safe_radius" toml:"safe_radius"`
	SettleDelay     float64 `yaml:"settle_delay" toml:"settle_delay"`
}

// ResolutionConfig holds collision resolution timings and forces.
type ResolutionConfig struct {
	BounceForce   float64 `yaml:"bounce_force" toml:"bounce_force"`
	BounceSettle  float64 `yaml:"bounce_settle" toml:"bounce_settle"`
	EatDuration   float64 `yaml:"eat_duration" toml:"eat_duration"`
	EatSettle     float64 `yaml:"eat_settle" toml:"eat_settle"`
	FightDuration float64 `yaml:"fight_duration" toml:"fight_duration"`
}

// MovementConfig holds per-kind movement parameters.
type MovementConfig struct {
	MoveSpeed               float64 `yaml:"move_speed" toml:"move_speed"`
	JumpInterval            float64 `yaml:"jump_interval" toml:"jump_interval"` // 0 = glide instead of hop
	JumpForce               float64 `yaml:"jump_force" toml:"jump_force"`
	DirectionChangeInterval float64 `yaml:"direction_change_interval" toml:"direction_change_interval"`
	ReturnForce             float64 `yaml:"return_force" toml:"return_force"`
}

// MovementConfigs groups movement parameters by animal kind.
type MovementConfigs struct {
	Prey     MovementConfig `yaml:"prey" toml:"prey"`
	Predator MovementConfig `yaml:"predator" toml:"predator"`
}

// FeedbackConfig holds transient text parameters.
type FeedbackConfig struct {
	Text      string  `yaml:"text" toml:"text"`
	Duration  float64 `yaml:"duration" toml:"duration"`
	RiseSpeed float64 `yaml:"rise_speed" toml:"rise_speed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window" toml:"stats_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HasViewport   bool    // Viewport is non-empty
	WindowTicks   int     // Telemetry.StatsWindow in ticks
	TicksPerSec   float64 // 1 / Physics.DT
	GraceTicks    int     // Entity.DeathGrace in ticks, rounded up
	SafeRadiusSq  float64 // Spawn.SafeRadius squared
	ContactRadius float64 // Two body radii
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing toml config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks the configuration for values the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.DT <= 0 {
		errs = append(errs, errors.New("physics.dt must be positive"))
	}
	if c.Physics.GridCellSize <= 0 {
		errs = append(errs, errors.New("physics.grid_cell_size must be positive"))
	}
	if c.Spawn.MinInterval <= 0 || c.Spawn.MaxInterval < c.Spawn.MinInterval {
		errs = append(errs, fmt.Errorf("spawn intervals must satisfy 0 < min <= max, got %v..%v",
			c.Spawn.MinInterval, c.Spawn.MaxInterval))
	}
	if c.Spawn.PopulationScale <= 0 {
		errs = append(errs, errors.New("spawn.population_scale must be positive"))
	}
	if c.Spawn.PreySpawnWeight < 0 || c.Spawn.PreySpawnWeight > 1 {
		errs = append(errs, fmt.Errorf("spawn.prey_spawn_weight must be in [0,1], got %v", c.Spawn.PreySpawnWeight))
	}
	if c.Spawn.MaxAttempts < 1 {
		errs = append(errs, errors.New("spawn.max_attempts must be at least 1"))
	}
	if c.Entity.InitialHealth <= 0 {
		errs = append(errs, errors.New("entity.initial_health must be positive"))
	}
	if c.Entity.LethalDamage < c.Entity.InitialHealth {
		errs = append(errs, errors.New("entity.lethal_damage must be at least entity.initial_health"))
	}
	if c.Entity.DeathGrace < 0 {
		errs = append(errs, errors.New("entity.death_grace must not be negative"))
	}
	if c.World.FallbackSpawn.Empty() || c.World.FallbackBounds.Empty() {
		errs = append(errs, errors.New("world fallback rectangles must have area"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Refresh validates the config and recomputes derived values. Call it after
// changing fields of a loaded config.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.HasViewport = !c.World.Viewport.Empty()
	c.Derived.TicksPerSec = 1 / c.Physics.DT

	c.Derived.WindowTicks = int(c.Telemetry.StatsWindow / c.Physics.DT)
	if c.Derived.WindowTicks < 1 {
		c.Derived.WindowTicks = 1
	}

	// Round up so disposal never happens before the grace delay
	grace := c.Entity.DeathGrace / c.Physics.DT
	c.Derived.GraceTicks = int(grace)
	if float64(c.Derived.GraceTicks) < grace {
		c.Derived.GraceTicks++
	}

	c.Derived.SafeRadiusSq = c.Spawn.SafeRadius * c.Spawn.SafeRadius
	c.Derived.ContactRadius = 2 * c.Entity.BodyRadius
}

// MovementFor returns the movement parameters for predators or prey.
func (c *Config) MovementFor(predator bool) MovementConfig {
	if predator {
		return c.Movement.Predator
	}
	return c.Movement.Prey
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
