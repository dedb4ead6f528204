package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// Environment variables recognised on top of the config file.
const (
	EnvWorkspace       = "RECIPEBUILDER_WORKSPACE"
	EnvEphemeral       = "RECIPEBUILDER_EPHEMERAL"
	EnvJournal         = "RECIPEBUILDER_JOURNAL"
	EnvMetricsTextfile = "RECIPEBUILDER_METRICS_TEXTFILE"
	EnvNATSURL         = "RECIPEBUILDER_NATS_URL"
	EnvLogLevel        = "RECIPEBUILDER_LOG_LEVEL"
	EnvLogFormat       = "RECIPEBUILDER_LOG_FORMAT"
	EnvStrict          = "RECIPEBUILDER_STRICT"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local when present. Values already set
// in the process environment win.
func loadEnvFiles() {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(f), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(f))
	}
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString(EnvWorkspace, &cfg.Workspace.BaseDir)
	setBool(EnvEphemeral, &cfg.Workspace.Ephemeral)
	setString(EnvJournal, &cfg.Journal.Path)
	setString(EnvMetricsTextfile, &cfg.Metrics.Textfile)
	setString(EnvNATSURL, &cfg.Notify.NATSURL)
	setBool(EnvStrict, &cfg.Package.Strict)

	var level, format string
	setString(EnvLogLevel, &level)
	setString(EnvLogFormat, &format)
	if level != "" {
		cfg.Logging.Level = LogLevel(level)
	}
	if format != "" {
		cfg.Logging.Format = LogFormat(format)
	}
}
