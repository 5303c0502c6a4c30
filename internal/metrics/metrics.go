// Package metrics records engine counters on a private prometheus registry.
package metrics

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	m "gooze.dev/pkg/mutexec/internal/model"
)

const namespace = "mutexec"

// Metrics holds the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	MutantsTotal      *prometheus.CounterVec
	MutantRunDuration prometheus.Histogram
	RunnerRestarts    *prometheus.CounterVec
	Sandboxes         prometheus.Gauge
}

// New registers the collectors on a fresh registry. runID is attached as a
// constant label.
func New(runID string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := prometheus.Labels{"run_id": runID}

	return &Metrics{
		registry: registry,
		MutantsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "mutants_total",
				Help:        "Tested mutants by terminal status",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		MutantRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "mutant_run_duration_seconds",
				Help:        "Wall time spent testing one mutant",
				Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
				ConstLabels: labels,
			},
		),
		RunnerRestarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "runner_restarts_total",
				Help:        "Test runner subprocess replacements by reason",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),
		Sandboxes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "sandboxes",
				Help:        "Sandboxes currently initialized",
				ConstLabels: labels,
			},
		),
	}
}

// Registry exposes the underlying registry.
func (mt *Metrics) Registry() *prometheus.Registry {
	if mt == nil {
		return nil
	}

	return mt.registry
}

// ObserveMutant counts result and records its duration.
func (mt *Metrics) ObserveMutant(result m.MutantResult) {
	if mt == nil {
		return
	}

	mt.MutantsTotal.WithLabelValues(result.Status.String()).Inc()

	if result.Status != m.NoCoverage {
		mt.MutantRunDuration.Observe(float64(result.TimeSpentMs) / 1000)
	}
}

// RunnerRestarted counts a replaced runner. Its signature matches
// runner.WithRestartHook.
func (mt *Metrics) RunnerRestarted(reason string) {
	if mt == nil {
		return
	}

	mt.RunnerRestarts.WithLabelValues(reason).Inc()
}

// SandboxesUp adjusts the live sandbox gauge by delta.
func (mt *Metrics) SandboxesUp(delta int) {
	if mt == nil {
		return
	}

	mt.Sandboxes.Add(float64(delta))
}

// WriteTextfile writes every collector in the textfile exposition format.
func (mt *Metrics) WriteTextfile(path string) error {
	if mt == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, mt.registry); err != nil {
		slog.Error("Failed to write metrics", "path", path, "error", err)
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}
