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

package filtering

import (
	"strings"

	"github.com/google/tabula/core/rows"
)

// Search is a global search term applied across fields, independent of
// column filters. An empty Fields list searches every leaf field of each
// row.
type Search struct {
	Term   string   `json:"term,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// Active reports whether the search restricts anything.
func (s Search) Active() bool {
	return strings.TrimSpace(s.Term) != ""
}

// Matches reports whether any searched field contains the term,
// case-insensitively. Sequence values are joined with spaces; nested
// records only match through their leaves.
func (s Search) Matches(row rows.Row) bool {
	if !s.Active() {
		return true
	}
	return s.matcher()(row)
}

func (s Search) matcher() func(rows.Row) bool {
	term := fold(strings.TrimSpace(s.Term))
	return func(row rows.Row) bool {
		fields := s.Fields
		if len(fields) == 0 {
			fields = rows.LeafPaths(row)
		}
		for _, f := range fields {
			v := rows.Resolve(row, f)
			if rows.IsNull(v) {
				continue
			}
			switch v.(type) {
			case map[string]any, rows.Row:
				continue
			}
			if strings.Contains(fold(v), term) {
				return true
			}
		}
		return false
	}
}
