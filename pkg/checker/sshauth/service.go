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

// Package sshauth reports failed SSH password logins found in the auth log.
package sshauth

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/carverauto/hostsentry/pkg/gelf"
	"github.com/carverauto/hostsentry/pkg/logger"
	"github.com/carverauto/hostsentry/pkg/models"
)

const (
	DefaultAuthLogPath = "/var/log/auth.log"
	DefaultMarker      = "Failed password"

	// grep exits 1 when nothing matched. sudo -n also exits 1 when it needs a
	// password, but it says so on stderr.
	grepNoMatchExitCode = 1
)

var (
	errEmptyCommand = errors.New("privileged read command is empty")
	errNoMatch      = errors.New("no matching lines")
)

// DefaultPrivilegedCommand reads the log through non-interactive sudo.
func DefaultPrivilegedCommand() []string {
	return []string{"sudo", "-n"}
}

// Config selects the log file and how it is read.
type Config struct {
	AuthLogPath string
	Marker      string
	// PrivilegedCommand prefixes the grep invocation. Empty runs grep directly.
	PrivilegedCommand []string
}

// Service scans the auth log once per Collect.
type Service struct {
	log     logger.Logger
	emitter gelf.Emitter
	path    string
	marker  string
	prefix  []string
	stat    func(string) (os.FileInfo, error)
	reader  func(ctx context.Context, path, marker string) ([]string, error)
	now     func() time.Time
}

func NewService(log logger.Logger, emitter gelf.Emitter, cfg Config) *Service {
	s := &Service{
		log:     log,
		emitter: emitter,
		path:    cfg.AuthLogPath,
		marker:  cfg.Marker,
		prefix:  cfg.PrivilegedCommand,
		stat:    os.Stat,
		now:     time.Now,
	}

	if s.path == "" {
		s.path = DefaultAuthLogPath
	}

	if s.marker == "" {
		s.marker = DefaultMarker
	}

	s.reader = s.privilegedGrep

	return s
}

func (*Service) Name() string {
	return "ssh_auth"
}

// Collect returns one SSH_FAILED_LOGIN event per matching line. A missing log or a
// failed privileged read yields no events. Each event is emitted as soon as it is
// built; a failed emission does not drop it from the result.
func (s *Service) Collect(ctx context.Context) []models.SecurityEvent {
	if _, err := s.stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Str("path", s.path).Msg("Auth log not found")
		} else {
			s.log.Warn().Err(err).Str("path", s.path).Msg("Auth log is not accessible")
		}

		return nil
	}

	lines, err := s.reader(ctx, s.path, s.marker)
	if err != nil {
		if errors.Is(err, errNoMatch) {
			s.log.Debug().Str("path", s.path).Msg("No failed SSH logins in auth log")
		} else {
			s.log.Warn().Err(err).Str("path", s.path).Msg("Privileged read of auth log failed")
		}

		return nil
	}

	source := filepath.Base(s.path)

	var events []models.SecurityEvent

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || !strings.Contains(line, s.marker) {
			continue
		}

		event := models.NewSSHFailedLogin(s.now(), line)
		events = append(events, event)

		_ = s.emitter.Send(ctx, "Failed SSH login attempt: "+line, gelf.LevelWarning, map[string]any{
			gelf.FieldType: event.Kind.FieldType(),
			"severity":     "high",
			"source":       source,
		})
	}

	s.log.Info().Int("count", len(events)).Msg("Collected failed SSH logins")

	return events
}

// privilegedGrep runs `<prefix...> grep -- <marker> <path>` and returns its output lines.
func (s *Service) privilegedGrep(ctx context.Context, path, marker string) ([]string, error) {
	args := append(append([]string{}, s.prefix...), "grep", "--", marker, path)
	if len(args) == 0 || args[0] == "" {
		return nil, errEmptyCommand
	}

	//nolint:gosec // arguments come from collector configuration, not remote input
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		detail := strings.TrimSpace(stderr.String())

		if errors.As(err, &exitErr) && exitErr.ExitCode() == grepNoMatchExitCode && detail == "" {
			return nil, errNoMatch
		}

		return nil, fmt.Errorf("%s: %w: %s", strings.Join(args[:len(args)-3], " "), err, detail)
	}

	var lines []string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	return lines, scanner.Err()
}
