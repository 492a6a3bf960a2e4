package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration for the vigil daemon.
type Config struct {
	DeviceID    string      `yaml:"device_id"`
	NotifyURL   string      `yaml:"notify_url"`
	MetricsAddr string      `yaml:"metrics_addr"`
	Network     Network     `yaml:"network"`
	Supervisor  Supervisor  `yaml:"supervisor"`
	Maintenance Maintenance `yaml:"maintenance"`
	Storage     Storage     `yaml:"storage"`
	Clock       Clock       `yaml:"clock"`
	Log         Log         `yaml:"log"`
}

// Network configures the connectivity retry loop.
type Network struct {
	SSID            string `yaml:"ssid"`
	Passphrase      string `yaml:"passphrase"`
	ProbeAddr       string `yaml:"probe_addr"`
	MaxAttempts     int    `yaml:"max_attempts"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// Supervisor configures the fault handler and run loop.
type Supervisor struct {
	MaxResets            int `yaml:"max_resets"`
	RetentionHours       int `yaml:"retention_hours"`
	FlashCount           int `yaml:"flash_count"`
	FlashIntervalSeconds int `yaml:"flash_interval_seconds"`
	TickSeconds          int `yaml:"tick_seconds"`
}

// Maintenance configures the gated background tasks.
type Maintenance struct {
	OTAURL          string `yaml:"ota_url"`
	OTACheckSeconds int    `yaml:"ota_check_seconds"`
	TimeSyncURL     string `yaml:"time_sync_url"`
	TimeSyncSeconds int    `yaml:"time_sync_seconds"`
	MaxDriftSeconds int    `yaml:"max_drift_seconds"`
	PurgeSeconds    int    `yaml:"purge_seconds"`
}

// Clock selects the zone fault record names are stamped in. An empty zone
// means the host's local zone; a named zone is a plain UTC offset, which is
// all a device without a zoneinfo database can carry.
type Clock struct {
	Zone          string `yaml:"zone"`
	OffsetSeconds int    `yaml:"offset_seconds"`
}

// Storage locates the fault log directory and the state database.
type Storage struct {
	FaultDir  string `yaml:"fault_dir"`
	StateFile string `yaml:"state_file"`
}

// Log configures structured logging.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns sensible defaults in case no configuration file is
// provided. The device identifier falls back to the hostname.
func Default() Config {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "vigil-device"
	}

	return Config{
		DeviceID: hostname,
		Network: Network{
			MaxAttempts:     10,
			IntervalSeconds: 3,
		},
		Supervisor: Supervisor{
			MaxResets:            3,
			RetentionHours:       48,
			FlashCount:           3000,
			FlashIntervalSeconds: 3,
			TickSeconds:          5,
		},
		Maintenance: Maintenance{
			OTACheckSeconds: 28800, // 8 hours
			TimeSyncSeconds: 3600,
			MaxDriftSeconds: 60,
			PurgeSeconds:    3600,
		},
		Storage: Storage{
			FaultDir:  "./vigil-data/faults",
			StateFile: "./vigil-data/vigil.db",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads configuration from a yaml file. A missing file falls back to
// defaults; a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// normalize fills zeroed numeric fields back in with defaults so a sparse
// config file does not disable retry bounds or retention.
func (c *Config) normalize() {
	def := Default()
	if c.Network.MaxAttempts <= 0 {
		c.Network.MaxAttempts = def.Network.MaxAttempts
	}
	if c.Network.IntervalSeconds <= 0 {
		c.Network.IntervalSeconds = def.Network.IntervalSeconds
	}
	if c.Supervisor.MaxResets <= 0 {
		c.Supervisor.MaxResets = def.Supervisor.MaxResets
	}
	if c.Supervisor.RetentionHours <= 0 {
		c.Supervisor.RetentionHours = def.Supervisor.RetentionHours
	}
	if c.Supervisor.FlashCount <= 0 {
		c.Supervisor.FlashCount = def.Supervisor.FlashCount
	}
	if c.Supervisor.FlashIntervalSeconds <= 0 {
		c.Supervisor.FlashIntervalSeconds = def.Supervisor.FlashIntervalSeconds
	}
	if c.Supervisor.TickSeconds <= 0 {
		c.Supervisor.TickSeconds = def.Supervisor.TickSeconds
	}
	if c.Maintenance.OTACheckSeconds <= 0 {
		c.Maintenance.OTACheckSeconds = def.Maintenance.OTACheckSeconds
	}
	if c.Maintenance.TimeSyncSeconds <= 0 {
		c.Maintenance.TimeSyncSeconds = def.Maintenance.TimeSyncSeconds
	}
	if c.Maintenance.MaxDriftSeconds <= 0 {
		c.Maintenance.MaxDriftSeconds = def.Maintenance.MaxDriftSeconds
	}
	if c.Maintenance.PurgeSeconds <= 0 {
		c.Maintenance.PurgeSeconds = def.Maintenance.PurgeSeconds
	}
	if c.Storage.FaultDir == "" {
		c.Storage.FaultDir = def.Storage.FaultDir
	}
	if c.Storage.StateFile == "" {
		c.Storage.StateFile = def.Storage.StateFile
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate rejects configurations the supervisor cannot run with.
func (c *Config) Validate() error {
	if c.DeviceID == "" {
		return errors.New("config: device_id is required")
	}
	if c.NotifyURL == "" {
		return errors.New("config: notify_url is required for escalation")
	}
	if c.Network.SSID == "" && c.Network.ProbeAddr == "" {
		return errors.New("config: either network.ssid or network.probe_addr is required")
	}
	return nil
}
