package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
)

// Event type names written to the journal.
const (
	TypeRunStarted       = "run_started"
	TypePhaseStarted     = "phase_started"
	TypePhaseCompleted   = "phase_completed"
	TypePhaseFailed      = "phase_failed"
	TypePackagingWarning = "packaging_warning"
	TypeRunCompleted     = "run_completed"
)

// Run statuses carried by run_completed.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusWarnings  = "succeeded_with_warnings"
	RunStatusFailed    = "failed"
)

// RunStartedMeta describes the inputs of a run.
type RunStartedMeta struct {
	Recipe    string   `json:"recipe"`
	Reference string   `json:"reference"`
	PackageID string   `json:"package_id"`
	Phases    []string `json:"phases"`
	BuildType string   `json:"build_type"`
	Trigger   string   `json:"trigger,omitempty"` // cli, watch, schedule
}

func newEvent(runID, eventType string, payload any, metadata map[string]string) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.JournalError("failed to marshal event payload").
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
		EventMetadata:  metadata,
	}, nil
}

// NewRunStarted creates a run_started event.
func NewRunStarted(runID string, meta RunStartedMeta) (*BaseEvent, error) {
	return newEvent(runID, TypeRunStarted, meta, map[string]string{"recipe": meta.Recipe})
}

// NewPhaseStarted creates a phase_started event.
func NewPhaseStarted(runID, phase string) (*BaseEvent, error) {
	return newEvent(runID, TypePhaseStarted, map[string]any{"phase": phase}, map[string]string{"phase": phase})
}

// NewPhaseCompleted creates a phase_completed event. details carries
// phase-specific counters (commit, artifact counts, libs).
func NewPhaseCompleted(runID, phase string, duration time.Duration, details map[string]any) (*BaseEvent, error) {
	return newEvent(runID, TypePhaseCompleted, map[string]any{
		"phase":       phase,
		"duration_ms": duration.Milliseconds(),
		"details":     details,
	}, map[string]string{"phase": phase})
}

// NewPhaseFailed creates a phase_failed event.
func NewPhaseFailed(runID, phase string, duration time.Duration, cause error) (*BaseEvent, error) {
	payload := map[string]any{
		"phase":       phase,
		"duration_ms": duration.Milliseconds(),
		"error":       cause.Error(),
	}
	if ce, ok := errors.AsClassified(cause); ok {
		payload["category"] = string(ce.Category())
	}
	return newEvent(runID, TypePhaseFailed, payload, map[string]string{"phase": phase})
}

// NewPackagingWarning records a rule that matched nothing.
func NewPackagingWarning(runID, pattern, dst string) (*BaseEvent, error) {
	return newEvent(runID, TypePackagingWarning, map[string]any{
		"pattern": pattern,
		"dst":     dst,
	}, map[string]string{"phase": "package"})
}

// NewRunCompleted closes a run with its final status.
func NewRunCompleted(runID, status string, duration time.Duration, libs []string) (*BaseEvent, error) {
	return newEvent(runID, TypeRunCompleted, map[string]any{
		"status":      status,
		"duration_ms": duration.Milliseconds(),
		"libs":        libs,
	}, nil)
}
