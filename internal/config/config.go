// Package config loads the simulator configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Workload describes a batch of synthetic processes spawned at boot.
type Workload struct {
	// Kind is cpu, io, or mixed.
	Kind  string `yaml:"kind"`
	Count int    `yaml:"count"`
	// Iters is the quanta (cpu), cycles (io), or bursts (mixed) the
	// workload runs before exiting.
	Iters int `yaml:"iters"`
	// Pause is the pause length in ticks for io and mixed workloads.
	Pause uint64 `yaml:"pause"`
}

// Config holds all simulator settings.
type Config struct {
	// MaxProcs is the number of process-table slots.
	MaxProcs int `yaml:"max_procs"`

	// SnapshotInterval is the tick period of snapshot blocks; it also
	// defines the recent-CPU decay epoch.
	SnapshotInterval uint64 `yaml:"snapshot_interval"`

	// StalenessWindow is the maximum tick age of usable advice,
	// normally a small multiple of the snapshot interval.
	StalenessWindow uint64 `yaml:"staleness_window"`

	// PipeCapacity bounds each byte pipe.
	PipeCapacity int `yaml:"pipe_capacity"`

	// LineMax bounds console line assembly; longer lines are
	// truncated, not fatal.
	LineMax int `yaml:"line_max"`

	// TickHz is the real-time tick rate of `advos run`.
	TickHz int `yaml:"tick_hz"`

	Workloads []Workload `yaml:"workloads"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		MaxProcs:         64,
		SnapshotInterval: 20,
		StalenessWindow:  60,
		PipeCapacity:     1024,
		LineMax:          256,
		TickHz:           100,
		Workloads: []Workload{
			{Kind: "cpu", Count: 2, Iters: 400},
			{Kind: "io", Count: 2, Iters: 100, Pause: 5},
			{Kind: "mixed", Count: 1, Iters: 20, Pause: 4},
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the kernel cannot honor.
func (c *Config) Validate() error {
	if c.MaxProcs < 4 {
		return fmt.Errorf("max_procs must be at least 4 (router, shell, advisor and one workload), got %d", c.MaxProcs)
	}
	if c.SnapshotInterval == 0 {
		return fmt.Errorf("snapshot_interval must be positive")
	}
	if c.StalenessWindow < c.SnapshotInterval {
		return fmt.Errorf("staleness_window (%d) must cover at least one snapshot_interval (%d)", c.StalenessWindow, c.SnapshotInterval)
	}
	// A forwarded line carries its terminator, so a pipe exactly line_max
	// wide could never accept a truncated line and the router would wedge.
	if c.PipeCapacity <= c.LineMax {
		return fmt.Errorf("pipe_capacity (%d) must exceed line_max (%d): lines are forwarded with their terminator", c.PipeCapacity, c.LineMax)
	}
	if c.LineMax < 16 {
		return fmt.Errorf("line_max must be at least 16, got %d", c.LineMax)
	}
	if c.TickHz <= 0 {
		return fmt.Errorf("tick_hz must be positive, got %d", c.TickHz)
	}
	for i, w := range c.Workloads {
		switch w.Kind {
		case "cpu", "io", "mixed":
		default:
			return fmt.Errorf("workloads[%d]: unknown kind %q", i, w.Kind)
		}
		if w.Count < 1 {
			return fmt.Errorf("workloads[%d]: count must be positive", i)
		}
	}
	return nil
}
