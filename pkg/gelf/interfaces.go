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

//go:generate mockgen -destination=mock_emitter.go -package=gelf github.com/carverauto/hostsentry/pkg/gelf Emitter

// Package gelf forwards collector events to a Graylog GELF input.
package gelf

import (
	"context"
	"errors"
	"fmt"
)

// Emitter sends one message to the log aggregator.
//
// Delivery is at-most-once: a nil error means the datagram left the host, not that it
// was received. Callers are free to ignore the returned error.
type Emitter interface {
	Send(ctx context.Context, message string, level Level, fields map[string]any) error
}

// Level is the collector-side severity name of a message.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelAlert   Level = "ALERT"
)

// Syslog returns the GELF (syslog) numeric level. Anything that is neither INFO nor
// WARNING is reported as an error (3).
func (l Level) Syslog() int {
	switch l {
	case LevelInfo:
		return 6
	case LevelWarning:
		return 4
	default:
		return 3
	}
}

var (
	ErrUnsupportedCompression = errors.New("unsupported compression")
	errMissingAddress         = errors.New("aggregator address is required")
)

// TransportError is returned by every failed Send.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gelf %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
