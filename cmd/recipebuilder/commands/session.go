package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/recipebuilder/internal/config"
	"git.home.luguber.info/inful/recipebuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
	"git.home.luguber.info/inful/recipebuilder/internal/metrics"
	"git.home.luguber.info/inful/recipebuilder/internal/notify"
	"git.home.luguber.info/inful/recipebuilder/internal/pipeline"
	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
	"git.home.luguber.info/inful/recipebuilder/internal/workspace"
)

// session holds the collaborators that outlive a single run: the journal,
// metrics and the notifier. Watch and schedule reuse one session for every
// triggered run.
type session struct {
	cfg      *config.Config
	journal  eventstore.Store
	registry *prom.Registry
	recorder metrics.Recorder
	notifier notify.Notifier
	output   io.Writer
}

// openSession opens the shared collaborators. Child process output is
// mirrored to output when it is non-nil.
func openSession(cfg *config.Config, output io.Writer) (*session, error) {
	s := &session{cfg: cfg, recorder: metrics.NoopRecorder{}, notifier: notify.NoopNotifier{}, output: output}

	if cfg.JournalEnabled() {
		store, err := openJournal(cfg)
		if err != nil {
			return nil, err
		}
		s.journal = store
	}

	if cfg.Metrics.Textfile != "" {
		s.registry = prom.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}

	if cfg.Notify.NATSURL != "" {
		n, err := notify.NewNATSNotifier(notify.Options{
			URL:       cfg.Notify.NATSURL,
			Subject:   cfg.Notify.Subject,
			JetStream: cfg.Notify.JetStream,
			Timeout:   cfg.NotifyTimeout(),
		})
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.notifier = n
	}
	return s, nil
}

// openJournal opens the SQLite journal below the workspace base directory so
// ephemeral runs share one history.
func openJournal(cfg *config.Config) (*eventstore.SQLiteStore, error) {
	path := workspace.NewPersistentManager(cfg.Workspace.BaseDir).JournalPath()
	if cfg.Journal.Path != "" {
		path = cfg.Journal.Path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "failed to create journal directory").
			WithContext("path", path).Build()
	}
	return eventstore.NewSQLiteStore(path)
}

// Close releases the journal and the NATS connection.
func (s *session) Close() error {
	var errs []error
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	if s.notifier != nil {
		errs = append(errs, s.notifier.Close())
	}
	return errors.Join(errs...)
}

func (s *session) workspace() *workspace.Manager {
	if s.cfg.Workspace.Ephemeral {
		return workspace.NewManager(s.cfg.Workspace.BaseDir)
	}
	return workspace.NewPersistentManager(s.cfg.Workspace.BaseDir)
}

func (s *session) newRunner(rc *recipe.Recipe, ws *workspace.Manager, req pipeline.Request) (*pipeline.Runner, error) {
	opts := []pipeline.Option{pipeline.WithRecorder(s.recorder), pipeline.WithNotifier(s.notifier), pipeline.WithOutput(s.output)}
	if s.journal != nil {
		opts = append(opts, pipeline.WithJournal(s.journal))
	}
	return pipeline.New(rc, ws, req, opts...)
}

// execute performs one run of the given phases in a fresh workspace manager.
func (s *session) execute(ctx context.Context, rc *recipe.Recipe, req pipeline.Request, phases ...pipeline.Phase) (*pipeline.Result, error) {
	ws := s.workspace()
	if err := ws.Create(); err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	runner, err := s.newRunner(rc, ws, req)
	if err != nil {
		return nil, err
	}
	res, runErr := runner.Run(ctx, phases...)

	if res != nil && !ws.Persistent() {
		if err := s.retainPackage(res); err != nil && runErr == nil {
			runErr = err
		}
	}
	s.flushMetrics()
	return res, runErr
}

// retainPackage moves the package folder of an ephemeral run to
// <base_dir>/package/<id> before the workspace is removed.
func (s *session) retainPackage(res *pipeline.Result) error {
	if _, err := os.Stat(res.PackageDir); err != nil {
		return nil
	}
	dst := workspace.NewPersistentManager(s.cfg.Workspace.BaseDir).PackageDir(res.PackageID)
	if err := os.RemoveAll(dst); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to replace retained package").
			WithContext("path", dst).Build()
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create package directory").
			WithContext("path", dst).Build()
	}
	if err := os.Rename(res.PackageDir, dst); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to retain package").
			WithContext("path", dst).Build()
	}
	for i, f := range res.InfoFiles {
		if rel, err := filepath.Rel(res.PackageDir, f); err == nil {
			res.InfoFiles[i] = filepath.Join(dst, rel)
		}
	}
	slog.Info("Retained package from ephemeral workspace", logfields.Path(dst))
	res.PackageDir = dst
	return nil
}

func (s *session) flushMetrics() {
	if s.registry == nil {
		return
	}
	if err := metrics.WriteTextfile(s.cfg.Metrics.Textfile, s.registry); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(s.cfg.Metrics.Textfile), logfields.Error(err))
	}
}
