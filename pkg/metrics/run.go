/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics tracks per-run collection statistics in a Prometheus registry
// that can be exported through the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

const namespace = "hostsentry"

// RunMetrics holds the series updated by the collector. It owns its registry so
// the textfile only carries hostsentry series.
type RunMetrics struct {
	log      logger.Logger
	registry *prometheus.Registry
	textfile string

	EventsCollected  *prometheus.CounterVec
	EmitFailures     prometheus.Counter
	BackupFailures   prometheus.Counter
	Runs             prometheus.Counter
	LastRunEvents    prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
	LastRunDuration  prometheus.Gauge
}

// NewRunMetrics registers all series. An empty textfile disables Flush.
func NewRunMetrics(log logger.Logger, textfile string) *RunMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &RunMetrics{
		log:      log,
		registry: registry,
		textfile: textfile,
		EventsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_collected_total",
			Help:      "Security events collected, by kind",
		}, []string{"kind"}),
		EmitFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emit_failures_total",
			Help:      "Messages that could not be delivered to the aggregator",
		}),
		BackupFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_failures_total",
			Help:      "Runs whose CSV backup could not be written",
		}),
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed collection runs",
		}),
		LastRunEvents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_events",
			Help:      "Events collected by the most recent run",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the most recent run started",
		}),
		LastRunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the most recent run",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RunMetrics) IncEmitFailures() {
	m.EmitFailures.Inc()
}

func (m *RunMetrics) IncBackupFailures() {
	m.BackupFailures.Inc()
}

// ObserveRun records the outcome of one run.
func (m *RunMetrics) ObserveRun(events []models.SecurityEvent, startedAt time.Time, elapsed time.Duration) {
	for i := range events {
		m.EventsCollected.WithLabelValues(string(events[i].Kind)).Inc()
	}

	m.Runs.Inc()
	m.LastRunEvents.Set(float64(len(events)))
	m.LastRunTimestamp.Set(float64(startedAt.UnixNano()) / float64(time.Second))
	m.LastRunDuration.Set(elapsed.Seconds())
}

// Flush writes the registry to the configured textfile. Errors are only logged.
func (m *RunMetrics) Flush() {
	if m.textfile == "" {
		return
	}

	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		m.log.Warn().Err(err).Str("path", m.textfile).Msg("Failed to write metrics textfile")
		return
	}

	m.log.Debug().Str("path", m.textfile).Msg("Metrics textfile updated")
}
