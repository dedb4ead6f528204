package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/recipebuilder/internal/config"
	"git.home.luguber.info/inful/recipebuilder/internal/daemon"
	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	RunFlags `embed:""`
	Debounce time.Duration `help:"Quiet period after a change before rebuilding (default daemon.watch_debounce)"`
	Initial  bool          `default:"true" negatable:"" help:"Run once right after startup"`
}

func (c *WatchCmd) Run(ctx context.Context, root *CLI) error {
	if err := requireRecipeFile(root, "watch"); err != nil {
		return err
	}
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	c.apply(cfg)

	s, err := openSession(cfg, root.childOutput())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	debounce := c.Debounce
	if debounce <= 0 {
		debounce = cfg.WatchDebounce()
	}
	serial := daemon.NewSerial(recipeRun(s, root, &c.RunFlags, cfg))
	w, err := daemon.NewWatcher(root.Recipe, debounce, serial)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create recipe watcher").Build()
	}
	if err := w.Start(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to start recipe watcher").Build()
	}
	if c.Initial {
		_ = serial.Run(ctx, daemon.TriggerWatch)
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher", slog.Int64("runs", serial.Runs()), slog.Int64("failures", serial.Failures()))
	return w.Stop()
}

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	RunFlags `embed:""`
	Every    time.Duration `help:"Interval between runs (default daemon.schedule_every)"`
	Cron     string        `help:"Five-field cron expression used instead of an interval"`
	Initial  bool          `default:"true" negatable:"" help:"Run once right after startup"`
}

func (c *ScheduleCmd) Run(ctx context.Context, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	c.apply(cfg)

	every := c.Every
	if every <= 0 && c.Cron == "" {
		every = cfg.ScheduleEvery()
	}
	if every <= 0 && c.Cron == "" {
		return ferrors.ValidationError("schedule needs --every, --cron or daemon.schedule_every").Build()
	}

	s, err := openSession(cfg, root.childOutput())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sched, err := daemon.NewScheduler()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create scheduler").Build()
	}
	serial := daemon.NewSerial(recipeRun(s, root, &c.RunFlags, cfg))
	id, err := daemon.ScheduleRuns(ctx, sched, serial, every, c.Cron)
	if err != nil {
		_ = sched.Stop()
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid schedule").Build()
	}
	slog.Info("Scheduled recipe runs", slog.String("job_id", id), slog.Duration("every", every), slog.String("cron", c.Cron))
	sched.Start()
	if c.Initial {
		_ = serial.Run(ctx, daemon.TriggerSchedule)
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping scheduler", slog.Int64("runs", serial.Runs()), slog.Int64("failures", serial.Failures()))
	if err := sched.Stop(); err != nil {
		slog.Warn("Scheduler shutdown incomplete", logfields.Error(err))
	}
	return nil
}

// recipeRun reloads the recipe for every triggered run so edits take effect.
func recipeRun(s *session, root *CLI, flags *RunFlags, cfg *config.Config) daemon.RunFunc {
	return func(ctx context.Context, trigger string) error {
		rc, err := root.LoadRecipe()
		if err != nil {
			return err
		}
		_, err = s.execute(ctx, rc, flags.request(cfg, trigger))
		return err
	}
}
