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

// Package backup persists the events of a run as a local CSV file.
package backup

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

const (
	filePrefix     = "security_events_"
	fileTimeLayout = "20060102_150405"
	dirMode        = 0o750
	fileMode       = 0o640
)

// Writer writes one CSV file per run into a fixed directory.
type Writer struct {
	dir string
	log logger.Logger
}

func NewWriter(log logger.Logger, dir string) *Writer {
	return &Writer{dir: dir, log: log}
}

// FileName returns the backup file name for a run started at startedAt.
func FileName(startedAt time.Time) string {
	return filePrefix + startedAt.Format(fileTimeLayout) + ".csv"
}

// Write stores events under a name derived from the run start time and returns the
// file path. No file is created for an empty run. Failures are logged and returned;
// a failed write leaves no partial file behind.
func (w *Writer) Write(events []models.SecurityEvent, startedAt time.Time) (string, error) {
	if len(events) == 0 {
		return "", nil
	}

	path := filepath.Join(w.dir, FileName(startedAt))

	if err := w.write(path, events); err != nil {
		w.log.Error().Err(err).Str("path", path).Msg("Failed to write CSV backup")
		return "", err
	}

	w.log.Info().Str("path", path).Int("rows", len(events)).Msg("CSV backup saved")

	return path, nil
}

func (w *Writer) write(path string, events []models.SecurityEvent) (err error) {
	if err = os.MkdirAll(w.dir, dirMode); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".security_events_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	cw := csv.NewWriter(tmp)

	if err = cw.Write(models.CSVHeader); err != nil {
		return err
	}

	for i := range events {
		if err = cw.Write(events[i].Record()); err != nil {
			return err
		}
	}

	cw.Flush()

	if err = cw.Error(); err != nil {
		return err
	}

	if err = tmp.Chmod(fileMode); err != nil {
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
