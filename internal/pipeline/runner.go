package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/recipebuilder/internal/build"
	"git.home.luguber.info/inful/recipebuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/git"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
	"git.home.luguber.info/inful/recipebuilder/internal/metrics"
	"git.home.luguber.info/inful/recipebuilder/internal/notify"
	"git.home.luguber.info/inful/recipebuilder/internal/packaging"
	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
	"git.home.luguber.info/inful/recipebuilder/internal/workspace"
)

// Fetcher clones recipe sources.
type Fetcher interface {
	Clone(ctx context.Context, src git.Source) (*git.CloneResult, error)
}

// Request carries the invoker's inputs for one run.
type Request struct {
	// Settings may be partial; missing values default from the host.
	Settings recipe.Settings
	// Shared overrides the recipe's default option when set.
	Shared  *bool
	User    string
	Channel string
	Strict  bool
	// Trigger tells the journal who started the run (cli, watch, schedule).
	Trigger string
}

// Runner executes the phases of one recipe run.
type Runner struct {
	recipe   *recipe.Recipe
	ws       *workspace.Manager
	fetcher  Fetcher
	builder  build.Runner
	journal  eventstore.Store
	recorder metrics.Recorder
	notifier notify.Notifier
	output   io.Writer
	strict   bool
	trigger  string

	settings  recipe.Settings
	options   recipe.Options
	reference recipe.Reference
	packageID string
	runID     string

	started   bool
	failed    bool
	next      int
	commit    string
	manifest  *packaging.Manifest
	warnings  []*ferrors.ClassifiedError
	libs      []string
	infoFiles []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithFetcher replaces the go-git fetcher.
func WithFetcher(f Fetcher) Option { return func(r *Runner) { r.fetcher = f } }

// WithBuilder replaces the os/exec build runner.
func WithBuilder(b build.Runner) Option { return func(r *Runner) { r.builder = b } }

// WithOutput mirrors clone progress and build command output to w.
func WithOutput(w io.Writer) Option { return func(r *Runner) { r.output = w } }

// WithJournal journals phase events to store.
func WithJournal(store eventstore.Store) Option { return func(r *Runner) { r.journal = store } }

// WithRecorder records metrics.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithNotifier announces published packages.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// New resolves settings and options and prepares a runner. Settings are
// validated here, before anything is fetched or built.
func New(rc *recipe.Recipe, ws *workspace.Manager, req Request, opts ...Option) (*Runner, error) {
	settings, err := req.Settings.WithDefaults(recipe.HostSettings()).Resolve()
	if err != nil {
		return nil, ferrors.ValidationError("invalid settings").WithCause(err).WithContext("recipe", rc.Name).Build()
	}
	options, err := rc.ResolveOptions(req.Shared)
	if err != nil {
		return nil, err
	}
	ref, err := rc.Reference(req.User, req.Channel)
	if err != nil {
		return nil, ferrors.ValidationError("invalid package reference").WithCause(err).Build()
	}

	r := &Runner{
		recipe:    rc,
		ws:        ws,
		recorder:  metrics.NoopRecorder{},
		notifier:  notify.NoopNotifier{},
		strict:    req.Strict,
		trigger:   req.Trigger,
		settings:  settings,
		options:   options,
		reference: ref,
		packageID: rc.PackageID(settings, options),
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fetcher == nil {
		r.fetcher = git.NewClient(ws.SourceDir()).WithProgress(r.output)
	}
	if r.builder == nil {
		r.builder = build.NewExecutor(recipe.Env(settings, options)).WithOutput(r.output)
	}
	return r, nil
}

// RunID identifies this run in logs and the journal.
func (r *Runner) RunID() string { return r.runID }

// PackageID names the package folder for the resolved settings and options.
func (r *Runner) PackageID() string { return r.packageID }

// Reference is the package's own reference.
func (r *Runner) Reference() recipe.Reference { return r.reference }

// Settings returns the resolved settings.
func (r *Runner) Settings() recipe.Settings { return r.settings }

// Options returns the resolved options.
func (r *Runner) Options() recipe.Options { return r.options }

// SourceDir is the clone location.
func (r *Runner) SourceDir() string { return filepath.Join(r.ws.SourceDir(), r.recipe.Name) }

// PackageDir is the package folder.
func (r *Runner) PackageDir() string { return r.ws.PackageDir(r.packageID) }

// DeclareRequirements returns the recipe's dependency references.
func (r *Runner) DeclareRequirements() []recipe.Requirement {
	return r.recipe.DeclareRequirements()
}

// Run executes phases (all of them when none are given) and stops at the
// first failure.
func (r *Runner) Run(ctx context.Context, phases ...Phase) (*Result, error) {
	plan, err := ValidatePlan(phases)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{
		RunID:      r.runID,
		Reference:  r.reference.String(),
		PackageID:  r.packageID,
		SourceDir:  r.SourceDir(),
		PackageDir: r.PackageDir(),
	}
	slog.Info("Recipe run started",
		logfields.RunID(r.runID),
		logfields.Reference(res.Reference),
		logfields.PackageID(r.packageID),
		logfields.BuildType(r.settings.BuildType),
		slog.Any("phases", phaseNames(plan)))
	r.emit(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewRunStarted(r.runID, eventstore.RunStartedMeta{
			Recipe:    r.recipe.Name,
			Reference: res.Reference,
			PackageID: r.packageID,
			Phases:    phaseNames(plan),
			BuildType: r.settings.BuildType,
			Trigger:   r.trigger,
		})
	})

	var runErr error
	for _, p := range plan {
		began := time.Now()
		err := r.runOne(ctx, p)
		res.Phases = append(res.Phases, PhaseResult{Phase: p, Duration: time.Since(began), Err: err})
		if err != nil {
			runErr = err
			break
		}
	}

	res.Commit = r.commit
	res.Manifest = r.manifest
	res.Warnings = r.warnings
	res.Libs = r.libs
	res.InfoFiles = r.infoFiles
	res.Duration = time.Since(start)

	outcome := metrics.ResultSuccess
	switch {
	case runErr != nil:
		res.Status = eventstore.RunStatusFailed
		outcome = resultLabel(runErr)
	case len(r.warnings) > 0:
		res.Status = eventstore.RunStatusWarnings
		outcome = metrics.ResultWarning
	default:
		res.Status = eventstore.RunStatusSucceeded
	}
	r.recorder.ObserveRunDuration(res.Duration)
	r.recorder.IncRunOutcome(outcome)
	r.emit(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewRunCompleted(r.runID, res.Status, res.Duration, r.libs)
	})

	slog.Info("Recipe run finished",
		logfields.RunID(r.runID),
		slog.String("status", res.Status),
		logfields.DurationMS(float64(res.Duration.Milliseconds())),
		logfields.Count(len(r.warnings)))
	return res, runErr
}

func (r *Runner) runOne(ctx context.Context, p Phase) error {
	var err error
	switch p {
	case PhaseFetch:
		_, err = r.FetchSource(ctx, "")
	case PhaseBuild:
		err = r.Build(ctx)
	case PhasePackage:
		_, err = r.PackageArtifacts(ctx)
	case PhasePublish:
		_, err = r.PublishPackageInfo(ctx)
	}
	return err
}

// enter enforces the phase order on this runner.
func (r *Runner) enter(p Phase) error {
	idx := p.index()
	switch {
	case r.failed:
		return ferrors.ValidationError("runner stopped after a failed phase").WithContext("phase", string(p)).Build()
	case r.started && idx != r.next:
		expected := "none"
		if r.next < len(Phases) {
			expected = string(Phases[r.next])
		}
		return ferrors.ValidationError("phase called out of order").
			WithContext("phase", string(p)).WithContext("expected", expected).Build()
	case !r.started && idx > 0:
		return r.checkResume(p)
	}
	return nil
}

// checkResume verifies that the output an earlier invocation left behind is
// present when a run starts after fetch.
func (r *Runner) checkResume(p Phase) error {
	dir, needs := r.SourceDir(), "fetch"
	if p == PhasePublish {
		dir, needs = r.PackageDir(), "package"
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ferrors.ValidationError("phase requires output of an earlier phase").
			WithContext("phase", string(p)).
			WithContext("requires", needs).
			WithContext("path", dir).Build()
	}
	return nil
}

func (r *Runner) runPhase(ctx context.Context, p Phase, fn func(context.Context) (map[string]any, error)) error {
	if err := r.enter(p); err != nil {
		return err
	}
	r.started = true
	log := slog.With(logfields.RunID(r.runID), logfields.Phase(string(p)), logfields.Recipe(r.recipe.Name))

	if err := ctx.Err(); err != nil {
		r.failed = true
		return err
	}

	log.Info("Phase started")
	r.emit(ctx, func() (*eventstore.BaseEvent, error) { return eventstore.NewPhaseStarted(r.runID, string(p)) })

	start := time.Now()
	details, err := fn(ctx)
	d := time.Since(start)
	r.recorder.ObservePhaseDuration(string(p), d)

	if err != nil {
		r.failed = true
		r.recorder.IncPhaseResult(string(p), resultLabel(err))
		r.emit(ctx, func() (*eventstore.BaseEvent, error) { return eventstore.NewPhaseFailed(r.runID, string(p), d, err) })
		log.Error("Phase failed", logfields.DurationMS(float64(d.Milliseconds())), logfields.Error(err))
		return err
	}

	label := metrics.ResultSuccess
	if p == PhasePackage && len(r.warnings) > 0 {
		label = metrics.ResultWarning
	}
	r.recorder.IncPhaseResult(string(p), label)
	r.emit(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewPhaseCompleted(r.runID, string(p), d, details)
	})
	r.next = p.index() + 1
	log.Info("Phase completed", logfields.DurationMS(float64(d.Milliseconds())))
	return nil
}

// emit journals an event. Journal failures are logged, never fatal: the
// package on disk is the source of truth.
func (r *Runner) emit(ctx context.Context, mk func() (*eventstore.BaseEvent, error)) {
	if r.journal == nil {
		return
	}
	e, err := mk()
	if err == nil {
		err = eventstore.Emit(context.WithoutCancel(ctx), r.journal, e)
	}
	if err != nil {
		slog.Warn("Failed to journal event", logfields.RunID(r.runID), logfields.Error(err))
	}
}

func resultLabel(err error) metrics.ResultLabel {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFatal
}
