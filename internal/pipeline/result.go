package pipeline

import (
	"time"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/packaging"
)

// PhaseResult records one executed phase.
type PhaseResult struct {
	Phase    Phase
	Duration time.Duration
	Err      error
}

// IsSuccess reports whether the phase completed.
func (r PhaseResult) IsSuccess() bool { return r.Err == nil }

// Result summarizes a Run.
type Result struct {
	RunID      string
	Reference  string
	PackageID  string
	SourceDir  string
	PackageDir string
	Commit     string
	Phases     []PhaseResult
	Manifest   *packaging.Manifest
	Warnings   []*ferrors.ClassifiedError
	Libs       []string
	InfoFiles  []string
	Status     string
	Duration   time.Duration
}

// IsSuccess returns true if every executed phase completed.
func (r *Result) IsSuccess() bool {
	for _, p := range r.Phases {
		if !p.IsSuccess() {
			return false
		}
	}
	return true
}

// FailedPhase returns the phase that stopped the run, if any.
func (r *Result) FailedPhase() (Phase, bool) {
	for _, p := range r.Phases {
		if !p.IsSuccess() {
			return p.Phase, true
		}
	}
	return "", false
}
