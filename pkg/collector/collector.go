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

// Package collector runs the probes of one collection pass in order, backs the
// findings up to CSV and reports the run to the aggregator.
package collector

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

// Source is one probe. Collect never fails; problems are logged and yield fewer events.
type Source interface {
	Name() string
	Collect(ctx context.Context) []models.SecurityEvent
}

// Backup persists the events of a run and returns the file path, or "" when nothing
// was written.
type Backup interface {
	Write(events []models.SecurityEvent, startedAt time.Time) (string, error)
}

// Recorder receives run statistics. *metrics.RunMetrics implements it.
type Recorder interface {
	IncEmitFailures()
	IncBackupFailures()
	ObserveRun(events []models.SecurityEvent, startedAt time.Time, elapsed time.Duration)
	Flush()
}

const fieldRunID = "run_id"

// Collector orchestrates a single run. It is not safe for concurrent Run calls.
type Collector struct {
	log      logger.Logger
	emitter  gelf.Emitter
	sources  []Source
	backup   Backup
	recorder Recorder
	now      func() time.Time
	newRunID func() string
}

// New builds a collector. Sources run in the given order. recorder may be nil.
// Sources should send through CountFailures(emitter, recorder) so their failed
// sends are counted as well; New does not wrap an emitter twice.
func New(log logger.Logger, emitter gelf.Emitter, backup Backup, recorder Recorder, sources ...Source) *Collector {
	return &Collector{
		log:      log,
		emitter:  CountFailures(emitter, recorder),
		sources:  sources,
		backup:   backup,
		recorder: recorder,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run executes one collection pass and returns the number of events found.
func (c *Collector) Run(ctx context.Context) int {
	startedAt := c.now()
	runID := c.newRunID()

	ctx = gelf.ContextWithFields(ctx, map[string]any{fieldRunID: runID})

	c.log.Info().Str(fieldRunID, runID).Msg("Starting security collection")

	started := models.NewRunStarted(startedAt)
	_ = c.emitter.Send(ctx, started.Message, gelf.LevelInfo, map[string]any{
		gelf.FieldType: started.Kind.FieldType(),
	})

	var events []models.SecurityEvent

	for _, source := range c.sources {
		found := source.Collect(ctx)

		c.log.Debug().Str("source", source.Name()).Int("events", len(found)).Msg("Source finished")

		events = append(events, found...)
	}

	if len(events) > 0 {
		c.report(ctx, events, startedAt)
	} else {
		_ = c.emitter.Send(ctx, "No security events detected", gelf.LevelInfo, nil)
	}

	elapsed := c.now().Sub(startedAt)

	c.log.Info().
		Str(fieldRunID, runID).
		Int("events", len(events)).
		Dur("elapsed", elapsed).
		Msg("Security collection finished")

	if c.recorder != nil {
		c.recorder.ObserveRun(events, startedAt, elapsed)
		c.recorder.Flush()
	}

	return len(events)
}

func (c *Collector) report(ctx context.Context, events []models.SecurityEvent, startedAt time.Time) {
	path, err := c.backup.Write(events, startedAt)
	if err != nil && c.recorder != nil {
		c.recorder.IncBackupFailures()
	}

	summary := models.NewRunSummary(c.now(), len(events))

	_ = c.emitter.Send(ctx, summary.Message, gelf.LevelInfo, map[string]any{
		gelf.FieldType: summary.Kind.FieldType(),
		"total_events": len(events),
		"backup_file":  path,
	})
}

type countingEmitter struct {
	next     gelf.Emitter
	recorder Recorder
}

// CountFailures wraps emitter so every failed Send increments the recorder's emit
// failure counter. A nil recorder returns emitter unchanged.
func CountFailures(emitter gelf.Emitter, recorder Recorder) gelf.Emitter {
	if recorder == nil {
		return emitter
	}

	if counted, ok := emitter.(*countingEmitter); ok && counted.recorder == recorder {
		return counted
	}

	return &countingEmitter{next: emitter, recorder: recorder}
}

func (e *countingEmitter) Send(ctx context.Context, message string, level gelf.Level, fields map[string]any) error {
	err := e.next.Send(ctx, message, level, fields)
	if err != nil {
		e.recorder.IncEmitFailures()
	}

	return err
}
