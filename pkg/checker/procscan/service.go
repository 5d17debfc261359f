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

// Package procscan flags known offensive tooling in the process table.
package procscan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

// DefaultSuspiciousNames are matched when none are configured.
func DefaultSuspiciousNames() []string {
	return []string{"nmap", "metasploit", "john", "hashcat"}
}

type Service struct {
	log     logger.Logger
	emitter gelf.Emitter
	names   []string
	lister  func(context.Context) (string, error)
	now     func() time.Time
}

func NewService(log logger.Logger, emitter gelf.Emitter, names []string) *Service {
	if len(names) == 0 {
		names = DefaultSuspiciousNames()
	}

	return &Service{
		log:     log,
		emitter: emitter,
		names:   append([]string(nil), names...),
		lister:  ListProcesses,
		now:     time.Now,
	}
}

func (*Service) Name() string {
	return "process_scan"
}

// Collect reads the process listing once and reports every configured name that
// occurs anywhere in it, case-insensitively. A name inside an unrelated token
// still counts; the scanner trades precision for simplicity.
func (s *Service) Collect(ctx context.Context) []models.SecurityEvent {
	listing, err := s.lister(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list processes")
		return nil
	}

	listing = strings.ToLower(listing)

	var events []models.SecurityEvent

	for _, name := range s.names {
		if name == "" || !strings.Contains(listing, strings.ToLower(name)) {
			continue
		}

		event := models.NewSuspiciousProcess(s.now(), name)
		events = append(events, event)

		_ = s.emitter.Send(ctx, "Suspicious process detected: "+name, gelf.LevelAlert, map[string]any{
			gelf.FieldType: event.Kind.FieldType(),
			"process":      name,
			"severity":     "high",
		})
	}

	s.log.Info().Int("count", len(events)).Msg("Process scan complete")

	return events
}

// ListProcesses renders the process table as text, one "user pid command" line per
// process. Processes that exit while being listed are left out.
func ListProcesses(ctx context.Context) (string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate processes: %w", err)
	}

	var b strings.Builder

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}

		command, err := p.CmdlineWithContext(ctx)
		if err != nil || command == "" {
			command = name
		}

		user, err := p.UsernameWithContext(ctx)
		if err != nil {
			user = "?"
		}

		fmt.Fprintf(&b, "%s %d %s\n", user, p.Pid, command)
	}

	return b.String(), nil
}
