package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// defaultTailSize bounds how much command output is kept for error context.
const defaultTailSize = 4 << 10

// Runner abstracts how build commands are executed so the pipeline can be
// driven without real toolchains in tests.
type Runner interface {
	Run(ctx context.Context, dir string, commands [][]string) (*Result, error)
}

// StepResult describes one executed command.
type StepResult struct {
	Command  string
	ExitCode int
	Duration time.Duration
}

// Result collects the steps of one build phase.
type Result struct {
	Steps    []StepResult
	Duration time.Duration
}

// Executor runs commands through os/exec.
type Executor struct {
	env      []string
	output   io.Writer
	tailSize int
}

// NewExecutor creates an executor exporting env on top of the process
// environment.
func NewExecutor(env []string) *Executor {
	return &Executor{env: env, tailSize: defaultTailSize}
}

// WithOutput mirrors command output to w in addition to capturing the tail.
// A nil w disables mirroring.
func (e *Executor) WithOutput(w io.Writer) *Executor { e.output = w; return e }

// Run executes commands in order inside dir. It stops at the first failure.
func (e *Executor) Run(ctx context.Context, dir string, commands [][]string) (*Result, error) {
	start := time.Now()
	res := &Result{}
	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		return res, ferrors.BuildError("build directory not found").
			WithCause(err).WithContext("path", dir).Build()
	}

	for _, argv := range commands {
		step, err := e.runOne(ctx, dir, argv)
		res.Steps = append(res.Steps, step)
		if err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (e *Executor) runOne(ctx context.Context, dir string, argv []string) (StepResult, error) {
	line := strings.Join(argv, " ")
	step := StepResult{Command: line, ExitCode: -1}

	if len(argv) == 0 {
		return step, ferrors.BuildError("empty build command").Build()
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return step, ferrors.BuildError("build command not found").
			WithCause(err).
			WithContext("command", line).
			WithContext("exit_code", step.ExitCode).
			Build()
	}

	// #nosec G204 -- commands come from the recipe being built
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), e.env...)

	// One writer for both streams: os/exec then serializes the copies.
	tail := newTailBuffer(e.tailSize)
	var sink io.Writer = tail
	if e.output != nil {
		sink = io.MultiWriter(tail, e.output)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	slog.Info("Running build command", logfields.Command(line), logfields.Path(dir))
	began := time.Now()
	err := cmd.Run()
	step.Duration = time.Since(began)
	if cmd.ProcessState != nil {
		step.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		slog.Info("Build command finished", logfields.Command(line), logfields.DurationMS(float64(step.Duration.Milliseconds())))
		return step, nil
	}
	slog.Warn("Build command output", logfields.Command(line), slog.String("output_tail", tail.String()))

	cause := err
	if ctxErr := ctx.Err(); ctxErr != nil {
		cause = fmt.Errorf("%w: %w", ctxErr, err)
	}
	var exitErr *exec.ExitError
	msg := "build command failed"
	if errors.As(err, &exitErr) {
		msg = fmt.Sprintf("build command exited with status %d", step.ExitCode)
	}
	return step, ferrors.BuildError(msg).
		WithCause(cause).
		WithContext("command", line).
		WithContext("exit_code", step.ExitCode).
		WithContext("output", tail.String()).
		Build()
}

// NoopRunner records commands without executing them.
type NoopRunner struct {
	Calls [][]string
}

func (n *NoopRunner) Run(_ context.Context, dir string, commands [][]string) (*Result, error) {
	slog.Debug("NoopRunner skipping build", logfields.Path(dir))
	res := &Result{}
	for _, argv := range commands {
		n.Calls = append(n.Calls, argv)
		res.Steps = append(res.Steps, StepResult{Command: strings.Join(argv, " ")})
	}
	return res, nil
}
