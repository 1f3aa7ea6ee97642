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

package rows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	row := Row{
		"title": "Phone",
		"meta": map[string]any{
			"price": 9.5,
			"dims":  Row{"width": 3},
		},
		"flat.key": "literal",
	}

	tests := []struct {
		path string
		want any
	}{
		{"title", "Phone"},
		{"meta.price", 9.5},
		{"meta.dims.width", 3},
		{"flat.key", "literal"},
		{"missing", nil},
		{"meta.missing.deeper", nil},
		{"title.length", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(row, tt.path))
		})
	}

	assert.Nil(t, Resolve(nil, "title"))
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"int", 4, 4, true},
		{"float", 2.5, 2.5, true},
		{"numeric string", " 12.25 ", 12.25, true},
		{"text", "abc", 0, false},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 1, true},
		{"map", map[string]any{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Float(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringAndKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "4.5", String(4.5))
	assert.Equal(t, "7", String(7))
	assert.Equal(t, "true", String(true))
	assert.Equal(t, "2024-03-01T10:00:00Z", String(ts))
	assert.Equal(t, "a b c", String([]string{"a", "b", "c"}))
	assert.Equal(t, "1 x", String([]any{1, "x"}))
	assert.Equal(t, "", String(nil))

	assert.Equal(t, NullKey, Key(nil))
	var p *int
	assert.Equal(t, NullKey, Key(p))
	assert.Equal(t, "Books", Key("Books"))
}

func TestLeafPaths(t *testing.T) {
	row := Row{
		"id":   1,
		"tags": []string{"a", "b"},
		"meta": map[string]any{"sku": "X", "dims": map[string]any{"w": 1}},
	}
	assert.Equal(t, []string{"id", "meta.dims.w", "meta.sku", "tags"}, LeafPaths(row))
}

func TestSequence(t *testing.T) {
	seq, ok := Sequence([]int{1, 2})
	assert.True(t, ok)
	assert.Equal(t, []any{1, 2}, seq)

	_, ok = Sequence("nope")
	assert.False(t, ok)
	_, ok = Sequence([]byte("raw"))
	assert.False(t, ok)
}
