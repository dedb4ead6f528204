package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// Trigger sources.
const (
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// RunFunc performs one full recipe run.
type RunFunc func(ctx context.Context, trigger string) error

// Serial executes runs one at a time.
type Serial struct {
	mu   sync.Mutex
	fn   RunFunc
	runs atomic.Int64
	errs atomic.Int64
}

// NewSerial wraps fn.
func NewSerial(fn RunFunc) *Serial {
	return &Serial{fn: fn}
}

// Run blocks until any active run finishes, then runs fn. Errors are logged
// and returned; the daemon keeps going.
func (s *Serial) Run(ctx context.Context, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	n := s.runs.Add(1)
	slog.Info("Triggered run starting", slog.String("trigger", trigger), slog.Int64("run_number", n))

	err := s.fn(ctx, trigger)
	d := float64(time.Since(start).Milliseconds())
	if err != nil {
		s.errs.Add(1)
		slog.Error("Triggered run failed", slog.String("trigger", trigger), logfields.DurationMS(d), logfields.Error(err))
		return err
	}
	slog.Info("Triggered run finished", slog.String("trigger", trigger), logfields.DurationMS(d))
	return nil
}

// Runs returns how many runs were started.
func (s *Serial) Runs() int64 { return s.runs.Load() }

// Failures returns how many runs returned an error.
func (s *Serial) Failures() int64 { return s.errs.Load() }
