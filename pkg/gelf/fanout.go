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
	"errors"
)

type fanout []Emitter

// Fanout sends every message to all emitters in order. A failing emitter does not
// stop the others; the failures are joined.
func Fanout(emitters ...Emitter) Emitter {
	out := make(fanout, 0, len(emitters))

	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}

	if len(out) == 1 {
		return out[0]
	}

	return out
}

func (f fanout) Send(ctx context.Context, message string, level Level, fields map[string]any) error {
	var errs []error

	for _, e := range f {
		if err := e.Send(ctx, message, level, fields); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
