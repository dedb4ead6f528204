// Package config loads the recipebuilder tool configuration: where the
// workspace lives, whether runs are journaled, where metrics go, whether
// published packages are announced over NATS and how logs look.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "recipebuilder.yaml"

// JournalOff disables the run journal when used as journal.path.
const JournalOff = "off"

// Config represents the tool configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Journal   JournalConfig   `yaml:"journal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Notify    NotifyConfig    `yaml:"notify"`
	Logging   LoggingConfig   `yaml:"logging"`
	Package   PackageConfig   `yaml:"package"`
	Daemon    DaemonConfig    `yaml:"daemon"`
}

// WorkspaceConfig selects the working directory.
type WorkspaceConfig struct {
	BaseDir   string `yaml:"base_dir"`
	Ephemeral bool   `yaml:"ephemeral"` // timestamped dir removed after the run
}

// JournalConfig configures the SQLite run journal.
type JournalConfig struct {
	Path string `yaml:"path"` // "" means <workspace>/journal.db, "off" disables
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// NotifyConfig configures publish notifications.
type NotifyConfig struct {
	NATSURL   string `yaml:"nats_url"`
	Subject   string `yaml:"subject"`
	JetStream bool   `yaml:"jetstream"`
	Timeout   string `yaml:"timeout"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// PackageConfig holds packaging policy.
type PackageConfig struct {
	Strict bool `yaml:"strict"` // zero-match rules fail the run
}

// DaemonConfig configures watch and schedule modes.
type DaemonConfig struct {
	WatchDebounce string `yaml:"watch_debounce"`
	ScheduleEvery string `yaml:"schedule_every"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	return cfg
}

// Load reads the configuration at path. A missing file is an error unless
// optional is set, in which case defaults are used. .env files are loaded
// first and RECIPEBUILDER_* variables override file values.
func Load(path string, optional bool) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
				WithContext("path", path).Build()
		}
	case os.IsNotExist(err) && optional:
	case os.IsNotExist(err):
		return nil, errors.ConfigError("configuration file not found").WithContext("path", path).Build()
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", path).Build()
	}

	applyEnvOverrides(cfg)
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// JournalEnabled reports whether runs are journaled.
func (c *Config) JournalEnabled() bool { return c.Journal.Path != JournalOff }

// NotifyTimeout parses notify.timeout.
func (c *Config) NotifyTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Notify.Timeout)
	return d
}

// WatchDebounce parses daemon.watch_debounce.
func (c *Config) WatchDebounce() time.Duration {
	d, _ := time.ParseDuration(c.Daemon.WatchDebounce)
	return d
}

// ScheduleEvery parses daemon.schedule_every.
func (c *Config) ScheduleEvery() time.Duration {
	d, _ := time.ParseDuration(c.Daemon.ScheduleEvery)
	return d
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	durations := map[string]string{
		"notify.timeout":        c.Notify.Timeout,
		"daemon.watch_debounce": c.Daemon.WatchDebounce,
		"daemon.schedule_every": c.Daemon.ScheduleEvery,
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return errors.ConfigError("invalid duration").WithContext("field", field).WithContext("value", raw).Build()
		}
	}
	return nil
}
