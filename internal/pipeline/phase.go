package pipeline

import (
	"slices"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
)

// Phase names one step of a recipe run.
type Phase string

const (
	PhaseFetch   Phase = "fetch"
	PhaseBuild   Phase = "build"
	PhasePackage Phase = "package"
	PhasePublish Phase = "publish"
)

// Phases is the fixed execution order.
var Phases = []Phase{PhaseFetch, PhaseBuild, PhasePackage, PhasePublish}

func (p Phase) index() int { return slices.Index(Phases, p) }

// ValidatePlan checks that phases is an ordered, contiguous slice of Phases.
// An empty plan means all phases.
func ValidatePlan(phases []Phase) ([]Phase, error) {
	if len(phases) == 0 {
		return slices.Clone(Phases), nil
	}
	first := phases[0].index()
	if first < 0 {
		return nil, ferrors.ValidationError("unknown phase").WithContext("phase", string(phases[0])).Build()
	}
	for i, p := range phases {
		idx := p.index()
		if idx < 0 {
			return nil, ferrors.ValidationError("unknown phase").WithContext("phase", string(p)).Build()
		}
		if idx != first+i {
			return nil, ferrors.ValidationError("phases must be a contiguous run of fetch, build, package, publish").
				WithContext("phases", phaseNames(phases)).Build()
		}
	}
	return slices.Clone(phases), nil
}

func phaseNames(phases []Phase) []string {
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = string(p)
	}
	return out
}
