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

package columns

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/tabula/core/rows"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var headerCaser = cases.Title(language.English)

// Header derives a display name from a field path: "meta.createdAt"
// becomes "Meta CreatedAt".
func Header(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for i, w := range words {
		// Title only the first rune so camelCase survives.
		_, n := utf8.DecodeRuneInString(w)
		words[i] = headerCaser.String(w[:n]) + w[n:]
	}
	return strings.Join(words, " ")
}

// TypeOf returns the column type a value suggests.
func TypeOf(v any) Type {
	switch v.(type) {
	case bool:
		return TypeBoolean
	case time.Time:
		return TypeDate
	}
	if rows.IsNumber(v) {
		return TypeNumber
	}
	return TypeString
}

// Infer builds a column set from the leaf paths of rs. Columns appear in
// the row order they are first seen, sorted by path within a row. A column's type comes from its first non-null value.
func Infer(rs []rows.Row) *Set {
	s := NewSet()
	pending := map[string]bool{}
	for _, r := range rs {
		for _, path := range rows.LeafPaths(r) {
			v := rows.Resolve(r, path)
			d := s.Get(path)
			if d == nil {
				d = NewColumnDef(path, Header(path), TypeOf(v))
				s.Add(d)
				pending[path] = rows.IsNull(v)
				continue
			}
			if pending[path] && !rows.IsNull(v) {
				d.Type = TypeOf(v)
				pending[path] = false
			}
		}
	}
	return s
}
