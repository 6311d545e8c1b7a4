package core

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the core's compile-time tunables. It never touches
// os.Args or the filesystem itself (§6: "no files, wire protocols, or CLI
// flags are owned by the core") — LoadConfig below is a convenience for the
// demo CLI, mirroring the teacher's sim.LoadPolicyBundle, but production
// embedders are free to construct a Config by hand.
type Config struct {
	// PlacementStrategy selects Greedy (default), "balanced" or "pmapper".
	PlacementStrategy string `yaml:"placement_strategy"`
	// VMTaskSoftCap is the maximum active tasks a VM may hold before the
	// Placement Engine creates a new VM instead of reusing it.
	VMTaskSoftCap int64 `yaml:"vm_task_soft_cap"`
	// ConsolidationEnabled gates the opportunistic consolidation pass on
	// TaskComplete (§4.3). Open Question in spec.md §9, resolved on: the
	// spec frames consolidation as the mechanism that lets the lower half of
	// the fleet sleep, which is this system's entire purpose, so it
	// defaults on.
	ConsolidationEnabled bool `yaml:"consolidation_enabled"`
	// StateChangeThreshold is the minimum number of simulated ticks between
	// two Power Controller samples of a machine; each sample may step the
	// machine's S-state and P-state (§4.4). A sample is taken whether or not
	// the machine was busy in between.
	StateChangeThreshold int64 `yaml:"state_change_threshold"`
	// MigrationCooldownTicks is the minimum number of ticks between two
	// migrations of the same VM.
	MigrationCooldownTicks int64 `yaml:"migration_cooldown_ticks"`
	// TickDelta is the simulated-time delta SchedulerCheck advances cooldowns
	// by each invocation.
	TickDelta int64 `yaml:"tick_delta"`
	// LogLevel is a logrus level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the core's default tunables.
func DefaultConfig() Config {
	return Config{
		PlacementStrategy:      "greedy",
		VMTaskSoftCap:          100,
		ConsolidationEnabled:   true,
		StateChangeThreshold:   10_000_000,
		MigrationCooldownTicks: 5_000_000,
		TickDelta:              1_000_000,
		LogLevel:               "info",
	}
}

// LoadConfig reads and strictly decodes a YAML config file over
// DefaultConfig, rejecting unrecognized keys exactly as the teacher's
// LoadPolicyBundle does. Unset fields keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading core config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing core config: %w", err)
	}
	return cfg, nil
}
