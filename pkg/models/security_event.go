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

// Package models holds the data types shared by the collector packages.
package models

import (
	"fmt"
	"time"
)

// EventKind is the category of a SecurityEvent.
type EventKind string

const (
	KindSSHFailedLogin    EventKind = "SSH_FAILED_LOGIN"
	KindFileChecked       EventKind = "FILE_CHECKED"
	KindSuspiciousProcess EventKind = "SUSPICIOUS_PROCESS"
	KindRunStarted        EventKind = "RUN_STARTED"
	KindRunSummary        EventKind = "RUN_SUMMARY"
)

// FieldType returns the value sent as the _tipo field of the GELF envelope.
// The aggregator streams are keyed on these names.
func (k EventKind) FieldType() string {
	switch k {
	case KindSSHFailedLogin:
		return "ssh_failed"
	case KindFileChecked:
		return "file_checked"
	case KindSuspiciousProcess:
		return "suspicious_process"
	case KindRunStarted:
		return "run_started"
	case KindRunSummary:
		return "run_summary"
	default:
		return "unknown"
	}
}

// Severity is the ordinal severity of a SecurityEvent. MEDIUM is never produced.
type Severity string

const (
	SeverityLow  Severity = "LOW"
	SeverityHigh Severity = "HIGH"
)

// CSVHeader is the fixed column order of the local backup.
//
//nolint:gochecknoglobals // fixed schema
var CSVHeader = []string{"timestamp", "kind", "message", "severity", "source_path", "process_name"}

// SecurityEvent is a single normalized finding of one collection run.
// Values are built by the New* constructors and never modified afterwards.
type SecurityEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        EventKind `json:"kind"`
	Message     string    `json:"message"`
	Severity    Severity  `json:"severity"`
	SourcePath  string    `json:"source_path,omitempty"`
	ProcessName string    `json:"process_name,omitempty"`
}

// NewSSHFailedLogin records one matching auth log line verbatim.
func NewSSHFailedLogin(ts time.Time, line string) SecurityEvent {
	return SecurityEvent{
		Timestamp: ts,
		Kind:      KindSSHFailedLogin,
		Message:   line,
		Severity:  SeverityHigh,
	}
}

// NewFileChecked records a watched file that exists and could be stat'd.
func NewFileChecked(ts time.Time, path string) SecurityEvent {
	return SecurityEvent{
		Timestamp:  ts,
		Kind:       KindFileChecked,
		Message:    fmt.Sprintf("File %s checked", path),
		Severity:   SeverityLow,
		SourcePath: path,
	}
}

// NewSuspiciousProcess records a suspicious name found in the process listing.
func NewSuspiciousProcess(ts time.Time, name string) SecurityEvent {
	return SecurityEvent{
		Timestamp:   ts,
		Kind:        KindSuspiciousProcess,
		Message:     fmt.Sprintf("Suspicious process: %s", name),
		Severity:    SeverityHigh,
		ProcessName: name,
	}
}

func NewRunStarted(ts time.Time) SecurityEvent {
	return SecurityEvent{
		Timestamp: ts,
		Kind:      KindRunStarted,
		Message:   "Security collection started",
		Severity:  SeverityLow,
	}
}

func NewRunSummary(ts time.Time, total int) SecurityEvent {
	return SecurityEvent{
		Timestamp: ts,
		Kind:      KindRunSummary,
		Message:   fmt.Sprintf("Collection finished: %d events", total),
		Severity:  SeverityLow,
	}
}

// Record returns the event as a backup row in CSVHeader order.
// Columns that do not apply to the event kind are empty strings.
func (e SecurityEvent) Record() []string {
	return []string{
		e.Timestamp.Format(time.RFC3339Nano),
		string(e.Kind),
		e.Message,
		string(e.Severity),
		e.SourcePath,
		e.ProcessName,
	}
}
