package manager

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/horao-project/horao/pkg/replication"
	"github.com/horao-project/horao/pkg/scheduler"
)

// Config holds everything needed to construct a Replica: where it
// persists state, and the scheduler/replication tuning knobs documented
// in spec.md's external interfaces section.
type Config struct {
	HostID  string
	DataDir string

	Replication replication.Config
	Scheduler   scheduler.Config
}

// LoadConfig builds a Config from the environment, the same variables
// replication.ConfigFromEnv reads plus the scheduler's PLANNING_WINDOW,
// PLANNING_INTERVAL and DYNAMIC_START.
func LoadConfig(dataDir string) Config {
	cfg := Config{
		DataDir:     dataDir,
		Replication: replication.ConfigFromEnv(),
		Scheduler:   scheduler.DefaultConfig(),
	}
	cfg.HostID = cfg.Replication.HostID

	if v := os.Getenv("PLANNING_WINDOW"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.PlanningWindow = time.Duration(days) * 24 * time.Hour
		}
	}
	if v := os.Getenv("PLANNING_INTERVAL"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.PlanningInterval = time.Duration(hours) * time.Hour
		}
	}
	if v := os.Getenv("DYNAMIC_START"); v != "" {
		cfg.Scheduler.DynamicStart, _ = strconv.ParseBool(v)
	}
	return cfg
}

// yamlOverlay is the subset of Config operators may set from a file. It
// deliberately excludes PeerSecret: secrets are only ever read from the
// environment, never from a file an operator might commit or share.
type yamlOverlay struct {
	Peers            []string `yaml:"peers"`
	PeerStrict       *bool    `yaml:"peer_strict"`
	MaxChanges       *int     `yaml:"max_changes"`
	SyncDeltaSeconds *int     `yaml:"sync_delta_seconds"`
	PlanningWindow   *int     `yaml:"planning_window_days"`
	PlanningInterval *int     `yaml:"planning_interval_hours"`
	DynamicStart     *bool    `yaml:"dynamic_start"`
}

// OverlayYAML reads a non-secret settings file and applies any fields it
// sets on top of cfg, following the teacher's env-plus-file config
// pattern (gopkg.in/yaml.v3).
func (cfg *Config) OverlayYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("manager: read config overlay: %w", err)
	}
	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("manager: parse config overlay: %w", err)
	}

	if len(overlay.Peers) > 0 {
		cfg.Replication.Peers = overlay.Peers
	}
	if overlay.PeerStrict != nil {
		cfg.Replication.PeerStrict = *overlay.PeerStrict
	}
	if overlay.MaxChanges != nil {
		cfg.Replication.MaxChanges = *overlay.MaxChanges
	}
	if overlay.SyncDeltaSeconds != nil {
		cfg.Replication.SyncDelta = time.Duration(*overlay.SyncDeltaSeconds) * time.Second
	}
	if overlay.PlanningWindow != nil {
		cfg.Scheduler.PlanningWindow = time.Duration(*overlay.PlanningWindow) * 24 * time.Hour
	}
	if overlay.PlanningInterval != nil {
		cfg.Scheduler.PlanningInterval = time.Duration(*overlay.PlanningInterval) * time.Hour
	}
	if overlay.DynamicStart != nil {
		cfg.Scheduler.DynamicStart = *overlay.DynamicStart
	}
	return nil
}
