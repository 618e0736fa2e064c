// Package metrics exports the outcome of a backup run in the Prometheus
// text format, for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pgbackup-go/internal/pgbackup"
)

const namespace = "pgbackup"

// RunMetrics holds the collectors for one run. Each run uses its own
// registry so the textfile only describes that run.
type RunMetrics struct {
	registry *prometheus.Registry

	lastRunTimestamp prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	artifacts        *prometheus.CounterVec
	expired          *prometheus.CounterVec
}

// New creates a RunMetrics with a fresh registry.
func New() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last backup run finished.",
		}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last backup run completed without error, 0 otherwise.",
		}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Artifacts produced by the last run, by tier and action.",
		}, []string{"tier", "action"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_total",
			Help:      "Artifacts removed by retention in the last run, by tier.",
		}, []string{"tier"}),
	}
	m.registry.MustRegister(m.lastRunTimestamp, m.lastRunSuccess, m.artifacts, m.expired)
	return m
}

// Observe records the results of a run that finished at finishedAt.
// runErr is the error that stopped the run, if any.
func (m *RunMetrics) Observe(results []*pgbackup.Result, finishedAt time.Time, runErr error) {
	m.lastRunTimestamp.Set(float64(finishedAt.Unix()))
	if runErr == nil {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}

	for _, r := range results {
		tier := string(r.Identity.Tier)
		m.artifacts.WithLabelValues(tier, string(r.Action)).Inc()
		if len(r.Expired) > 0 {
			m.expired.WithLabelValues(tier).Add(float64(len(r.Expired)))
		}
	}
}

// WriteTextfile writes the registry to path atomically.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Gatherer exposes the registry, mainly for tests.
func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
