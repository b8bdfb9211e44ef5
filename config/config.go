// Package config loads scene-runner settings from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/plus3/slotcore/ecs"
)

type Config struct {
	Allocator AllocatorConfig `toml:"allocator"`
	Content   ContentConfig   `toml:"content"`
	Runner    RunnerConfig    `toml:"runner"`
	Logging   LoggingConfig   `toml:"logging"`
}

type AllocatorConfig struct {
	MinDeletedElements int    `toml:"min_deleted_elements"`
	Sentinel           string `toml:"sentinel"` // "max" or "zero"
	InitialCapacity    int    `toml:"initial_capacity"`
}

type ContentConfig struct {
	Scene      string        `toml:"scene"` // .yaml scene or .lvl level
	ScriptsDir string        `toml:"scripts_dir"`
	Watch      bool          `toml:"watch"`
	Debounce   time.Duration `toml:"debounce"`
}

type RunnerConfig struct {
	TickRate    time.Duration `toml:"tick_rate"`
	Frames      int           `toml:"frames"` // 0 runs until interrupted
	StatsPeriod time.Duration `toml:"stats_period"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the zero value of which would be meaningless.
func (c *Config) Validate() error {
	var errs []error
	if c.Allocator.MinDeletedElements < 1 {
		errs = append(errs, fmt.Errorf("allocator.min_deleted_elements must be at least 1, got %d", c.Allocator.MinDeletedElements))
	}
	if _, err := ecs.ParseSentinel(c.Allocator.Sentinel); err != nil {
		errs = append(errs, fmt.Errorf("allocator.sentinel: %w", err))
	}
	if c.Runner.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("runner.tick_rate must be positive, got %s", c.Runner.TickRate))
	}
	if c.Runner.Frames < 0 {
		errs = append(errs, fmt.Errorf("runner.frames must not be negative, got %d", c.Runner.Frames))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// AllocatorOptions translates the allocator section. Call Validate first.
func (c *Config) AllocatorOptions() []ecs.AllocatorOption {
	sentinel, _ := ecs.ParseSentinel(c.Allocator.Sentinel)
	opts := []ecs.AllocatorOption{
		ecs.WithMinDeletedElements(c.Allocator.MinDeletedElements),
		ecs.WithSentinel(sentinel),
	}
	if c.Allocator.InitialCapacity > 0 {
		opts = append(opts, ecs.WithCapacity(c.Allocator.InitialCapacity))
	}
	return opts
}

func defaults() *Config {
	return &Config{
		Allocator: AllocatorConfig{
			MinDeletedElements: ecs.MinDeletedElements,
			Sentinel:           "max",
			InitialCapacity:    256,
		},
		Content: ContentConfig{
			Scene:      "",
			ScriptsDir: "scripts",
			Watch:      false,
			Debounce:   100 * time.Millisecond,
		},
		Runner: RunnerConfig{
			TickRate:    16 * time.Millisecond,
			Frames:      0,
			StatsPeriod: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
