/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"context"
	"fmt"
	"os"

	"github.com/google/tabula/core/rows"
	"github.com/tidwall/gjson"
)

// rowArrayKeys are tried in order when a JSON document is an object.
var rowArrayKeys = []string{"content", "products", "rows", "items", "data"}

// JSONLoader implements Loader for JSON files holding an array of
// objects, either at the top level or under a well-known key.
//
// Config fields:
//   - path: path to the JSON file (required)
type JSONLoader struct{}

// NewJSONLoader creates a new JSON loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// SourceType returns "json".
func (l *JSONLoader) SourceType() string {
	return TypeJSON
}

// Load reads the JSON file.
func (l *JSONLoader) Load(_ context.Context, src *SourceConfig) ([]rows.Row, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	return ParseJSON(data)
}

// ParseJSON decodes the row array of a JSON document. Elements that are
// not objects are skipped.
func ParseJSON(data []byte) ([]rows.Row, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	doc := gjson.ParseBytes(data)
	arr := doc
	if !doc.IsArray() {
		arr = gjson.Result{}
		for _, k := range rowArrayKeys {
			if v := doc.Get(k); v.IsArray() {
				arr = v
				break
			}
		}
		if !arr.Exists() {
			return nil, fmt.Errorf("no row array found, expected a top-level array or one of %v", rowArrayKeys)
		}
	}

	var out []rows.Row
	arr.ForEach(func(_, item gjson.Result) bool {
		if m, ok := item.Value().(map[string]any); ok {
			out = append(out, rows.Row(m))
		}
		return true
	})
	return out, nil
}
