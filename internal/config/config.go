// Package config loads the scheduler.toml a clmctl invocation reads its
// runtime shape from.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Scheduler mirrors cml.Config's shape as a TOML document, plus a
// handful of CLI-facing knobs (trace output, dashboard refresh) that
// have no equivalent in the library's own Config.
type Scheduler struct {
	Workers   int    `toml:"workers"`
	IdleMinMs int    `toml:"idle_min_ms"`
	IdleMaxMs int    `toml:"idle_max_ms"`
	Fuzz      bool   `toml:"fuzz"`
	Seed      int64  `toml:"seed"`
	TracePath string `toml:"trace_path"`
	MonitorHz int    `toml:"monitor_hz"`
}

// Default returns the configuration clmctl falls back to when no
// scheduler.toml is found: GOMAXPROCS workers, idle bounds of 1ms and
// 250ms, no trace recording, and a 4Hz dashboard refresh. The idle
// bounds are only recorded here; no clmctl subcommand passes them to the
// scheduler.
func Default() Scheduler {
	return Scheduler{
		IdleMinMs: 1,
		IdleMaxMs: 250,
		MonitorHz: 4,
	}
}

// Load reads and decodes a scheduler.toml at path, falling back to
// Default() if path does not exist.
func Load(path string) (Scheduler, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Scheduler{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
