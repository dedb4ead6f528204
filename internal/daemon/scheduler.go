package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery registers a job that runs every interval. A tick that fires
// while the previous run is still going is rescheduled, never run alongside.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", errors.New("schedule interval must be positive")
	}
	return s.add(name, gocron.DurationJob(interval), task)
}

// ScheduleCron registers a job from a five-field cron expression.
func (s *Scheduler) ScheduleCron(name, expression string, task func()) (string, error) {
	return s.add(name, gocron.CronJob(expression, false), task)
}

func (s *Scheduler) add(name string, def gocron.JobDefinition, task func()) (string, error) {
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create scheduled job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

// ScheduleRuns wires a Serial to the scheduler. Exactly one of interval or
// cron must be set.
func ScheduleRuns(ctx context.Context, s *Scheduler, serial *Serial, interval time.Duration, cron string) (string, error) {
	task := func() { _ = serial.Run(ctx, TriggerSchedule) }
	switch {
	case interval > 0 && cron != "":
		return "", errors.New("use either an interval or a cron expression, not both")
	case cron != "":
		return s.ScheduleCron("recipe-run", cron, task)
	default:
		return s.ScheduleEvery("recipe-run", interval, task)
	}
}
