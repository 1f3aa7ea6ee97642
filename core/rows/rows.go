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

// Package rows defines the opaque record type the grid engine operates on,
// along with dot-path field resolution and the value coercions shared by
// filtering, sorting, grouping and aggregation.
package rows

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// NullKey is the string form of a nil value wherever a value must be
// rendered as a key (group keys, wire parameters).
const NullKey = "(null)"

// Row is an application record. Nested records may be Row or map[string]any.
type Row map[string]any

// Get resolves a dot-addressed field path on the row.
func (r Row) Get(path string) any {
	return Resolve(r, path)
}

// Resolve walks a dot-addressed path through nested maps. A missing or
// non-map intermediate yields nil; resolution never fails.
func Resolve(row Row, path string) any {
	if row == nil || path == "" {
		return nil
	}
	if v, ok := row[path]; ok {
		return v
	}
	var cur any = map[string]any(row)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Row:
		return m, true
	}
	return nil, false
}

// IsNull reports whether v is nil, including typed nil pointers.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// IsNumber reports whether v holds a Go numeric type. Numeric strings are
// not numbers here; see Float.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// Float coerces v to a float64 the way a numeric cast would: numbers convert
// directly, strings are parsed after trimming, bools map to 0 and 1.
// The second result is false when v has no numeric interpretation.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case time.Time:
		return float64(n.UnixMilli()), true
	}
	return 0, false
}

// String returns the canonical string form of a value. Nil becomes the
// empty string, floats use the shortest representation, times use RFC3339
// and sequences are joined with a single space.
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format(time.RFC3339)
	case fmt.Stringer:
		return s.String()
	}
	if seq, ok := Sequence(v); ok {
		parts := make([]string, len(seq))
		for i, e := range seq {
			parts[i] = String(e)
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprint(v)
}

// Key returns the string used for v inside group keys: NullKey for nil,
// String(v) otherwise.
func Key(v any) string {
	if IsNull(v) {
		return NullKey
	}
	return String(v)
}

// Sequence returns the elements of v when v is a slice or array.
func Sequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar.
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// LeafPaths returns the sorted dot paths of every non-map value in the row.
// Sequences are leaves.
func LeafPaths(row Row) []string {
	var paths []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			if nested, ok := asMap(v); ok {
				walk(p, nested)
				continue
			}
			paths = append(paths, p)
		}
	}
	walk("", row)
	sort.Strings(paths)
	return paths
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
