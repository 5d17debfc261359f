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

package gelf

import (
	"context"
	"fmt"
	"os"
	"time"
)

const (
	// Version is the GELF spec version written in every envelope.
	Version = "1.1"
	// DefaultScriptTag identifies this collector in the _script field.
	DefaultScriptTag = "coletor_seguranca"
	// FieldType is the extra field whose value becomes _tipo.
	FieldType = "tipo"

	unknownType = "unknown"
)

// Envelope is a GELF message. Additional fields are stored with their leading
// underscore and are always strings.
type Envelope map[string]interface{}

// Source describes the producer stamped on every envelope.
type Source struct {
	Host      string
	ScriptTag string
}

// NewEnvelope builds the GELF payload for one message. Context fields are merged
// before the explicit ones so that per-call fields win.
func NewEnvelope(ctx context.Context, src Source, message string, level Level, fields map[string]any, ts time.Time) Envelope {
	scriptTag := src.ScriptTag
	if scriptTag == "" {
		scriptTag = DefaultScriptTag
	}

	env := Envelope{
		"version":       Version,
		"host":          src.Host,
		"short_message": message,
		"timestamp":     float64(ts.UnixNano()) / float64(time.Second),
		"level":         level.Syslog(),
		"_script":       scriptTag,
		"_tipo":         unknownType,
	}

	merged := mergeFields(FieldsFromContext(ctx), fields)

	if t, ok := merged[FieldType]; ok {
		env["_tipo"] = fmt.Sprint(t)
	}

	for key, value := range merged {
		env["_"+key] = fmt.Sprint(value)
	}

	return env
}

// Type returns the _tipo value of the envelope.
func (e Envelope) Type() string {
	if t, ok := e["_tipo"].(string); ok && t != "" {
		return t
	}

	return unknownType
}

// Hostname returns the local host name used in the host field.
func Hostname() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}

	return "unknown-host"
}

func mergeFields(layers ...map[string]any) map[string]any {
	size := 0
	for _, layer := range layers {
		size += len(layer)
	}

	merged := make(map[string]any, size)

	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}

	return merged
}
