package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

var appliers = []DefaultApplier{
	&WorkspaceDefaultApplier{},
	&NotifyDefaultApplier{},
	&LoggingDefaultApplier{},
	&DaemonDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// WorkspaceDefaultApplier handles workspace defaults.
type WorkspaceDefaultApplier struct{}

func (WorkspaceDefaultApplier) Domain() string { return "workspace" }

func (WorkspaceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Workspace.BaseDir == "" {
		cfg.Workspace.BaseDir = ".recipebuilder"
	}
	return nil
}

// NotifyDefaultApplier handles notification defaults.
type NotifyDefaultApplier struct{}

func (NotifyDefaultApplier) Domain() string { return "notify" }

func (NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "recipebuilder.package.published"
	}
	if cfg.Notify.Timeout == "" {
		cfg.Notify.Timeout = "5s"
	}
	return nil
}

// LoggingDefaultApplier normalizes logging values; unknown spellings fall
// back to info/text.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// DaemonDefaultApplier handles watch/schedule defaults.
type DaemonDefaultApplier struct{}

func (DaemonDefaultApplier) Domain() string { return "daemon" }

func (DaemonDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Daemon.WatchDebounce == "" {
		cfg.Daemon.WatchDebounce = "500ms"
	}
	return nil
}
