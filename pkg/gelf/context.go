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

import "context"

type contextKey string

const fieldsKey contextKey = "gelf_fields"

// ContextWithFields returns a context whose envelopes carry the given extra fields.
// Fields already present in ctx are kept unless overridden.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	return context.WithValue(ctx, fieldsKey, mergeFields(FieldsFromContext(ctx), fields))
}

// FieldsFromContext returns the extra fields attached with ContextWithFields.
func FieldsFromContext(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}

	fields, _ := ctx.Value(fieldsKey).(map[string]any)

	return fields
}
