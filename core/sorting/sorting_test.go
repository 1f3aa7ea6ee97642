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

package sorting

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/rows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []rows.Row {
	return []rows.Row{
		{"id": 1, "category": "b", "price": 10, "meta": map[string]any{"rating": 4.1}},
		{"id": 2, "category": "a", "price": 10},
		{"id": 3, "category": "b", "price": 5, "meta": map[string]any{"rating": 3.0}},
		{"id": 4, "category": "a", "price": 30},
		{"id": 5, "category": nil, "price": 10},
	}
}

func ids(rs []rows.Row) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r["id"].(int)
	}
	return out
}

func TestCompare(t *testing.T) {
	a := rows.Row{"x": 1, "y": "b"}
	b := rows.Row{"x": 1, "y": "a"}

	assert.Equal(t, 1, Compare(a, b, []Config{{"x", Asc}, {"y", Asc}}, nil))
	assert.Equal(t, -1, Compare(a, b, []Config{{"x", Asc}, {"y", Desc}}, nil))
	assert.Equal(t, 0, Compare(a, b, []Config{{"x", Asc}, {"y", None}}, nil))
	assert.Equal(t, 0, Compare(a, b, nil, nil))
}

func TestStable(t *testing.T) {
	tests := []struct {
		name    string
		configs []Config
		want    []int
	}{
		{"no configs keeps order", nil, []int{1, 2, 3, 4, 5}},
		{"single key, ties stable", []Config{{"price", Asc}}, []int{3, 1, 2, 5, 4}},
		{"descending", []Config{{"price", Desc}}, []int{4, 1, 2, 5, 3}},
		{"null category last", []Config{{"category", Asc}}, []int{2, 4, 1, 3, 5}},
		{"multi key", []Config{{"category", Asc}, {"price", Desc}}, []int{4, 2, 1, 3, 5}},
		{"none is skipped", []Config{{"category", None}, {"price", Asc}}, []int{3, 1, 2, 5, 4}},
		{"nested field", []Config{{"meta.rating", Asc}}, []int{3, 1, 2, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := sample()
			got := Stable(rs, tt.configs, nil)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(rs), "input must not be reordered")
		})
	}
}

func TestStableCustomComparator(t *testing.T) {
	def := columns.NewColumnDef("category", "", columns.TypeString)
	def.Comparator = func(a, b any) int {
		// Reverse alphabetical.
		return strings.Compare(rows.String(b), rows.String(a))
	}
	rs := []rows.Row{{"id": 1, "category": "a"}, {"id": 2, "category": "c"}, {"id": 3, "category": "b"}}
	got := Stable(rs, []Config{{"category", Asc}}, columns.NewSet(def))
	assert.Equal(t, []int{2, 3, 1}, ids(got))
}

func TestStabilityProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	rs := make([]rows.Row, 200)
	for i := range rs {
		rs[i] = rows.Row{"id": i, "k": r.Intn(5), "j": r.Intn(3)}
	}
	configs := []Config{{"k", Desc}, {"j", Asc}}
	sorted := Stable(rs, configs, nil)

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		cmp := Compare(prev, cur, configs, nil)
		require.LessOrEqual(t, cmp, 0)
		if cmp == 0 {
			require.Less(t, prev["id"].(int), cur["id"].(int), fmt.Sprintf("rows %v and %v out of input order", prev, cur))
		}
	}
}

func TestTopK(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	rs := make([]rows.Row, 100)
	for i := range rs {
		rs[i] = rows.Row{"id": i, "v": r.Intn(10)}
	}
	configs := []Config{{"v", Desc}}
	full := Stable(rs, configs, nil)

	for _, k := range []int{0, 1, 7, 50, 100, 150} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			want := full
			if k < len(full) {
				want = full[:k]
			}
			assert.Equal(t, ids(want), ids(TopK(rs, configs, nil, k)))
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("Desc")
	require.NoError(t, err)
	assert.Equal(t, Desc, d)
	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Asc, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
