package metrics

import "time"

// testRecorder counts calls; used to check the Recorder contract.
type testRecorder struct {
	phaseDurations map[string]int
	phaseResults   map[string]map[ResultLabel]int
	runDurations   int
	runOutcomes    map[ResultLabel]int
	artifacts      map[string]int
	warnings       int
	libs           int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		phaseDurations: map[string]int{},
		phaseResults:   map[string]map[ResultLabel]int{},
		runOutcomes:    map[ResultLabel]int{},
		artifacts:      map[string]int{},
	}
}

func (t *testRecorder) ObservePhaseDuration(phase string, _ time.Duration) {
	t.phaseDurations[phase]++
}
func (t *testRecorder) IncPhaseResult(phase string, result ResultLabel) {
	m, ok := t.phaseResults[phase]
	if !ok {
		m = map[ResultLabel]int{}
		t.phaseResults[phase] = m
	}
	m[result]++
}
func (t *testRecorder) ObserveRunDuration(time.Duration)   { t.runDurations++ }
func (t *testRecorder) IncRunOutcome(outcome ResultLabel)  { t.runOutcomes[outcome]++ }
func (t *testRecorder) SetArtifacts(category string, n int) { t.artifacts[category] = n }
func (t *testRecorder) AddPackagingWarnings(n int)          { t.warnings += n }
func (t *testRecorder) SetPublishedLibs(n int)              { t.libs = n }

var (
	_ Recorder = (*testRecorder)(nil)
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
