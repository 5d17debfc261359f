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

// Package fileaudit records the state of a fixed set of configuration files.
package fileaudit

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

// DefaultWatchedPaths are the files audited when none are configured.
func DefaultWatchedPaths() []string {
	return []string{"/etc/passwd", "/etc/hosts", "/etc/ssh/sshd_config"}
}

type Service struct {
	log     logger.Logger
	emitter gelf.Emitter
	paths   []string
	stat    func(string) (os.FileInfo, error)
	now     func() time.Time
}

func NewService(log logger.Logger, emitter gelf.Emitter, paths []string) *Service {
	if len(paths) == 0 {
		paths = DefaultWatchedPaths()
	}

	return &Service{
		log:     log,
		emitter: emitter,
		paths:   append([]string(nil), paths...),
		stat:    os.Stat,
		now:     time.Now,
	}
}

func (*Service) Name() string {
	return "file_audit"
}

// Collect stats every watched path in order. Missing paths are skipped silently;
// any other stat failure is logged and skipped.
func (s *Service) Collect(ctx context.Context) []models.SecurityEvent {
	events := make([]models.SecurityEvent, 0, len(s.paths))

	for _, path := range s.paths {
		info, err := s.stat(path)

		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			s.log.Debug().Str("path", path).Msg("Watched file does not exist")
			continue
		case errors.Is(err, fs.ErrPermission):
			s.log.Warn().Str("path", path).Msg("No permission to access watched file")
			continue
		default:
			s.log.Warn().Err(err).Str("path", path).Msg("Failed to stat watched file")
			continue
		}

		event := models.NewFileChecked(s.now(), path)
		events = append(events, event)

		_ = s.emitter.Send(ctx, "File checked: "+path, gelf.LevelInfo, map[string]any{
			gelf.FieldType: event.Kind.FieldType(),
			"path":         path,
			"size":         info.Size(),
			"modified":     info.ModTime().UTC().Format(time.RFC3339),
		})
	}

	return events
}
