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
	"errors"
	"testing"
	"time"

	"github.com/google/tabula/core/rows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func products() []rows.Row {
	return []rows.Row{
		{"id": 1, "title": "Essence Mascara", "category": "beauty", "price": 9.99, "tags": []any{"beauty", "mascara"}, "meta": map[string]any{"barcode": "9164035109868"}},
		{"id": 2, "title": "Eyeshadow Palette", "category": "beauty", "price": 19.99, "tags": []any{"beauty", "eyeshadow"}},
		{"id": 3, "title": "Chanel Perfume", "category": "fragrances", "price": 79.99, "brand": nil},
		{"id": 4, "title": "Red Lipstick", "category": "beauty", "price": "12.99", "brand": "Chic"},
		{"id": 5, "title": "Annibale Sofa", "category": "furniture", "price": 2499.99, "brand": "Annibale"},
	}
}

func ids(rs []rows.Row) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r["id"].(int)
	}
	return out
}

func TestMatches(t *testing.T) {
	row := rows.Row{
		"title":  "Chanel Perfume",
		"price":  79.99,
		"rating": "4.5",
		"brand":  nil,
		"made":   time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		"meta":   map[string]any{"stock": 12},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals", Condition{Field: "title", Operator: Equals, Value: "Chanel Perfume"}, true},
		{"equals number vs wire string", Condition{Field: "price", Operator: Equals, Value: "79.99"}, true},
		{"equals null", Condition{Field: "brand", Operator: Equals, Value: nil}, true},
		{"notEquals", Condition{Field: "title", Operator: NotEquals, Value: "x"}, true},
		{"contains case-insensitive", Condition{Field: "title", Operator: Contains, Value: "PERF"}, true},
		{"contains on null", Condition{Field: "brand", Operator: Contains, Value: "a"}, false},
		{"notContains", Condition{Field: "title", Operator: NotContains, Value: "sofa"}, true},
		{"notContains on null", Condition{Field: "brand", Operator: NotContains, Value: "a"}, true},
		{"startsWith", Condition{Field: "title", Operator: StartsWith, Value: "chan"}, true},
		{"endsWith", Condition{Field: "title", Operator: EndsWith, Value: "FUME"}, true},
		{"greaterThan", Condition{Field: "price", Operator: GreaterThan, Value: 50}, true},
		{"greaterThan numeric string", Condition{Field: "rating", Operator: GreaterThan, Value: "4"}, true},
		{"greaterThanOrEqual", Condition{Field: "price", Operator: GreaterThanOrEqual, Value: 79.99}, true},
		{"lessThan", Condition{Field: "price", Operator: LessThan, Value: 10}, false},
		{"lessThanOrEqual nested", Condition{Field: "meta.stock", Operator: LessThanOrEqual, Value: 12}, true},
		{"lessThan non-numeric", Condition{Field: "title", Operator: LessThan, Value: 10}, false},
		{"between inclusive low", Condition{Field: "price", Operator: Between, Value: 79.99, Value2: 100}, true},
		{"between inclusive high", Condition{Field: "price", Operator: Between, Value: 0, Value2: 79.99}, true},
		{"between outside", Condition{Field: "price", Operator: Between, Value: 0, Value2: 50}, false},
		{"between dates", Condition{Field: "made", Operator: Between, Value: "2023-01-01", Value2: "2023-12-31T00:00:00Z"}, true},
		{"in", Condition{Field: "title", Operator: In, Value: []any{"a", "Chanel Perfume"}}, true},
		{"in non-sequence", Condition{Field: "title", Operator: In, Value: "Chanel Perfume"}, false},
		{"notIn", Condition{Field: "title", Operator: NotIn, Value: []string{"a"}}, true},
		{"isNull", Condition{Field: "brand", Operator: IsNull}, true},
		{"isNull missing path", Condition{Field: "meta.missing.x", Operator: IsNull}, true},
		{"isNotNull ignores value", Condition{Field: "title", Operator: IsNotNull, Value: "whatever"}, true},
		{"lenient operator spelling", Condition{Field: "title", Operator: "Starts With", Value: "ch"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(row, tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchesOrdersTimesExactly(t *testing.T) {
	base := time.Date(2262, 4, 11, 23, 47, 16, 0, time.UTC)
	later := base.Add(time.Nanosecond)
	row := rows.Row{"at": later, "far": time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"greaterThan by one nanosecond", Condition{Field: "at", Operator: GreaterThan, Value: base}, true},
		{"lessThan by one nanosecond", Condition{Field: "at", Operator: LessThan, Value: base}, false},
		{"lessThanOrEqual by one nanosecond", Condition{Field: "at", Operator: LessThanOrEqual, Value: base}, false},
		{"greaterThanOrEqual same instant", Condition{Field: "at", Operator: GreaterThanOrEqual, Value: later}, true},
		{"between excludes earlier bound pair", Condition{Field: "at", Operator: Between, Value: base.Add(-time.Second), Value2: base}, false},
		{"between includes exact bound", Condition{Field: "at", Operator: Between, Value: base, Value2: later}, true},
		{"beyond int64 nanoseconds", Condition{Field: "far", Operator: GreaterThan, Value: "2300-01-01"}, true},
		{"time against number", Condition{Field: "at", Operator: GreaterThan, Value: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(row, tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchesRejectsUnknownOperator(t *testing.T) {
	got, err := Matches(rows.Row{"x": 1}, Condition{Field: "x", Operator: "bogus", Value: 1})
	require.Error(t, err)
	assert.False(t, got)
	assert.True(t, errors.Is(err, ErrInvalidOperator))

	var opErr *InvalidOperatorError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "bogus", opErr.Operator)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]Condition{{Field: "a", Operator: Equals, Value: 1}}))
	assert.NoError(t, Validate(nil))

	err := Validate([]Condition{
		{Field: "a", Operator: "bogus"},
		{Field: "", Operator: Equals},
		{Field: "p", Operator: Between, Value: 1},
		{Field: "t", Operator: In, Value: "x"},
		{Field: "ok", Operator: IsNull},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOperator))
	assert.Contains(t, err.Error(), "4 errors occurred")
}

func TestApply(t *testing.T) {
	rs := products()

	got, err := Apply(rs, []Condition{
		{Field: "category", Operator: Equals, Value: "beauty"},
		{Field: "price", Operator: LessThan, Value: 15},
	}, Search{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, ids(got))

	got, err = Apply(rs, nil, Search{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(got))

	_, err = Apply(rs, []Condition{{Field: "x", Operator: "bogus"}}, Search{})
	assert.ErrorIs(t, err, ErrInvalidOperator)
}

func TestApplyIsIdempotent(t *testing.T) {
	rs := products()
	filters := []Condition{
		{Field: "price", Operator: GreaterThan, Value: 10},
		{Field: "title", Operator: NotContains, Value: "sofa"},
	}
	search := Search{Term: "e"}

	once, err := Apply(rs, filters, search)
	require.NoError(t, err)
	twice, err := Apply(once, filters, search)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestSearch(t *testing.T) {
	rs := products()

	tests := []struct {
		name   string
		search Search
		want   []int
	}{
		{"blank term matches all", Search{Term: "  "}, []int{1, 2, 3, 4, 5}},
		{"all leaf fields", Search{Term: "MASCARA"}, []int{1}},
		{"array values joined", Search{Term: "beauty eyeshadow"}, []int{2}},
		{"nested leaf", Search{Term: "916403"}, []int{1}},
		{"restricted fields", Search{Term: "beauty", Fields: []string{"title"}}, []int{}},
		{"trimmed term", Search{Term: " chic "}, []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(rs, nil, tt.search)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestParseOperator(t *testing.T) {
	for _, op := range Operators {
		got, err := ParseOperator(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	got, err := ParseOperator("NotEqual")
	require.NoError(t, err)
	assert.Equal(t, NotEquals, got)
	assert.False(t, Operator("bogus").Valid())
}
