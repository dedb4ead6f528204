package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"time"
)

const runStatusRunning = "running"

// RunSummary is a read model summarizing one recipe run.
type RunSummary struct {
	RunID        string         `json:"run_id"`
	Recipe       string         `json:"recipe,omitempty"`
	Reference    string         `json:"reference,omitempty"`
	PackageID    string         `json:"package_id,omitempty"`
	Trigger      string         `json:"trigger,omitempty"`
	Status       string         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Duration     time.Duration  `json:"duration,omitempty"`
	Phases       []PhaseSummary `json:"phases"`
	Warnings     int            `json:"warnings"`
	ErrorPhase   string         `json:"error_phase,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Libs         []string       `json:"libs,omitempty"`
}

// PhaseSummary is the outcome of one phase within a run.
type PhaseSummary struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
}

// Summarize folds the events of one run into a summary. Events must belong
// to the same run and be ordered oldest first.
func Summarize(events []Event) *RunSummary {
	if len(events) == 0 {
		return nil
	}
	s := &RunSummary{RunID: events[0].RunID(), Status: runStatusRunning, StartedAt: events[0].Timestamp()}
	for _, e := range events {
		s.apply(e)
	}
	return s
}

func (s *RunSummary) apply(e Event) {
	switch e.Type() {
	case TypeRunStarted:
		var meta RunStartedMeta
		if json.Unmarshal(e.Payload(), &meta) == nil {
			s.Recipe = meta.Recipe
			s.Reference = meta.Reference
			s.PackageID = meta.PackageID
			s.Trigger = meta.Trigger
		}
		s.StartedAt = e.Timestamp()

	case TypePhaseStarted:
		s.Phases = append(s.Phases, PhaseSummary{Name: e.Metadata()["phase"], Status: runStatusRunning})

	case TypePhaseCompleted, TypePhaseFailed:
		var payload struct {
			Phase      string `json:"phase"`
			DurationMS int64  `json:"duration_ms"`
			Error      string `json:"error"`
		}
		_ = json.Unmarshal(e.Payload(), &payload)
		status := "completed"
		if e.Type() == TypePhaseFailed {
			status = RunStatusFailed
			s.ErrorPhase = payload.Phase
			s.ErrorMessage = payload.Error
		}
		for i := range s.Phases {
			if s.Phases[i].Name == payload.Phase {
				s.Phases[i].Status = status
				s.Phases[i].Duration = time.Duration(payload.DurationMS) * time.Millisecond
			}
		}

	case TypePackagingWarning:
		s.Warnings++

	case TypeRunCompleted:
		var payload struct {
			Status string   `json:"status"`
			Libs   []string `json:"libs"`
		}
		if json.Unmarshal(e.Payload(), &payload) == nil {
			s.Status = payload.Status
			s.Libs = payload.Libs
		}
		now := e.Timestamp()
		s.CompletedAt = &now
		s.Duration = now.Sub(s.StartedAt)
	}
}

// History rebuilds run summaries from all journaled events, newest first,
// bounded by limit (0 means unbounded).
func History(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	events, err := store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}

	byRun := make(map[string][]Event)
	var order []string
	for _, e := range events {
		if _, seen := byRun[e.RunID()]; !seen {
			order = append(order, e.RunID())
		}
		byRun[e.RunID()] = append(byRun[e.RunID()], e)
	}

	history := make([]*RunSummary, 0, len(order))
	for _, id := range order {
		history = append(history, Summarize(byRun[id]))
	}
	slices.Reverse(history)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}
