package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/recipebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/pipeline"
	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
)

// Global carries state shared by all subcommands.
type Global struct {
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Tool configuration file" default:"recipebuilder.yaml"`
	Recipe  string           `short:"r" help:"Recipe file (built-in cppunix recipe when empty)"`
	Verbose bool             `short:"v" help:"Enable verbose logging and stream clone and build output to stderr"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Create       CreateCmd       `cmd:"" help:"Run every phase: fetch, build, package and publish"`
	Source       SourceCmd       `cmd:"" help:"Fetch the recipe source only"`
	Build        BuildCmd        `cmd:"" help:"Build previously fetched source"`
	Package      PackageCmd      `cmd:"" help:"Package and publish previously built source"`
	Requirements RequirementsCmd `cmd:"" help:"Print the declared requirements"`
	Info         InfoCmd         `cmd:"" help:"Print package info from a package folder"`
	Init         InitCmd         `cmd:"" help:"Write the built-in recipe as a starting point"`
	History      HistoryCmd      `cmd:"" help:"Show journaled runs"`
	Watch        WatchCmd        `cmd:"" help:"Rebuild whenever the recipe file changes"`
	Schedule     ScheduleCmd     `cmd:"" help:"Rebuild periodically"`
}

// AfterApply runs after flag parsing; logging honours the environment until
// a command loads the config file.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(config.LoggingConfig{
		Level:  config.NormalizeLogLevel(os.Getenv(config.EnvLogLevel)),
		Format: config.NormalizeLogFormat(os.Getenv(config.EnvLogFormat)),
	}, c.Verbose, os.Stderr)
	return nil
}

// LoadConfig reads the tool configuration. The default path may be absent.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config, c.Config == config.DefaultPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Logging, c.Verbose, os.Stderr)
	return cfg, nil
}

// childOutput is where clone progress and build command output are mirrored.
func (c *CLI) childOutput() io.Writer {
	if c.Verbose {
		return os.Stderr
	}
	return nil
}

// LoadRecipe returns the recipe named by --recipe or the built-in one.
func (c *CLI) LoadRecipe() (*recipe.Recipe, error) {
	if c.Recipe == "" {
		return recipe.Default(), nil
	}
	return recipe.Load(c.Recipe)
}

func setupLogging(lc config.LoggingConfig, verbose bool, w io.Writer) {
	level := lc.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if lc.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// SettingsFlags select the settings and options that name a package folder.
type SettingsFlags struct {
	OS        string `name:"os" help:"Target operating system (host when empty)"`
	Compiler  string `name:"compiler" help:"Compiler (host default when empty)"`
	BuildType string `name:"build-type" short:"b" help:"Debug, Release, RelWithDebInfo or MinSizeRel (Release when empty)"`
	Arch      string `name:"arch" help:"Target architecture (host when empty)"`
	Shared    bool   `name:"shared" xor:"shared" help:"Build shared libraries"`
	NoShared  bool   `name:"no-shared" xor:"shared" help:"Build static libraries"`
	Workspace string `name:"workspace" help:"Workspace directory (overrides workspace.base_dir)"`
}

func (f *SettingsFlags) applyWorkspace(cfg *config.Config) {
	if f.Workspace != "" {
		cfg.Workspace.BaseDir = f.Workspace
	}
}

func (f *SettingsFlags) baseRequest(trigger string) pipeline.Request {
	req := pipeline.Request{
		Settings: recipe.Settings{OS: f.OS, Compiler: f.Compiler, BuildType: f.BuildType, Arch: f.Arch},
		Trigger:  trigger,
	}
	switch {
	case f.Shared:
		req.Shared = boolPtr(true)
	case f.NoShared:
		req.Shared = boolPtr(false)
	}
	return req
}

// RunFlags add run behaviour and the package reference to SettingsFlags.
type RunFlags struct {
	SettingsFlags `embed:""`
	Strict        bool   `name:"strict" help:"Fail packaging when a rule matches no files"`
	Ephemeral     bool   `name:"ephemeral" help:"Fetch and build in a throwaway directory; only the package folder is kept"`
	User          string `name:"user" help:"Reference user"`
	Channel       string `name:"channel" help:"Reference channel"`
}

// apply overlays the flags on the loaded configuration.
func (f *RunFlags) apply(cfg *config.Config) {
	f.applyWorkspace(cfg)
	cfg.Workspace.Ephemeral = cfg.Workspace.Ephemeral || f.Ephemeral
	cfg.Package.Strict = cfg.Package.Strict || f.Strict
}

func (f *RunFlags) request(cfg *config.Config, trigger string) pipeline.Request {
	req := f.baseRequest(trigger)
	req.User = f.User
	req.Channel = f.Channel
	req.Strict = cfg.Package.Strict
	return req
}

func boolPtr(b bool) *bool { return &b }

func requireRecipeFile(c *CLI, cmd string) error {
	if c.Recipe == "" {
		return ferrors.ValidationError(cmd + " needs a recipe file (--recipe)").Build()
	}
	return nil
}
