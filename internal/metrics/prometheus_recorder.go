package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "recipebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	phaseDuration     *prom.HistogramVec
	phaseResults      *prom.CounterVec
	runDuration       prom.Histogram
	runOutcome        *prom.CounterVec
	artifacts         *prom.GaugeVec
	packagingWarnings prom.Counter
	publishedLibs     prom.Gauge
	lastRun           prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		phaseDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of individual recipe phases",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"phase"}),
		phaseResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "phase_results_total",
			Help:      "Phase result counts by outcome",
		}, []string{"phase", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total recipe run duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Recipe runs by final status",
		}, []string{"outcome"}),
		artifacts: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "package_artifacts",
			Help:      "Files copied into the package by category for the last run",
		}, []string{"category"}),
		packagingWarnings: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "packaging_warnings_total",
			Help:      "Packaging rules that matched no files",
		}),
		publishedLibs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "published_libs",
			Help:      "Link libraries published by the last run",
		}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
	reg.MustRegister(pr.phaseDuration, pr.phaseResults, pr.runDuration, pr.runOutcome,
		pr.artifacts, pr.packagingWarnings, pr.publishedLibs, pr.lastRun)
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	if p == nil {
		return
	}
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPhaseResult(phase string, result ResultLabel) {
	if p == nil {
		return
	}
	p.phaseResults.WithLabelValues(phase, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome ResultLabel) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetArtifacts(category string, n int) {
	if p == nil {
		return
	}
	p.artifacts.WithLabelValues(category).Set(float64(n))
}

func (p *PrometheusRecorder) AddPackagingWarnings(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.packagingWarnings.Add(float64(n))
}

func (p *PrometheusRecorder) SetPublishedLibs(n int) {
	if p == nil {
		return
	}
	p.publishedLibs.Set(float64(n))
}

// WriteTextfile writes everything gathered by g in the text exposition
// format, atomically replacing path.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
