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

package grouping

import (
	"math/rand"
	"testing"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func books() []rows.Row {
	return []rows.Row{
		{"id": 1, "category": "Books", "genre": "Novel", "price": 10},
		{"id": 2, "category": "Music", "genre": "Jazz", "price": 20},
		{"id": 3, "category": "Books", "genre": "Poetry", "price": 5},
		{"id": 4, "category": nil, "genre": "Novel", "price": 7},
		{"id": 5, "category": "Books", "genre": "Novel", "price": 1},
		{"id": 6, "category": "Music", "genre": "Books", "price": 2},
	}
}

func TestBuildSingleLevel(t *testing.T) {
	nodes := Build(books(), []Config{{Field: "category"}}, []aggregates.Spec{{Field: "price", Kind: aggregates.Sum}})
	require.Len(t, nodes, 3)

	assert.Equal(t, []string{"(null)", "Books", "Music"}, []string{nodes[0].Key, nodes[1].Key, nodes[2].Key})
	assert.Nil(t, nodes[0].Value)

	books := nodes[1]
	assert.Equal(t, 0, books.Level)
	assert.Equal(t, "category", books.Field)
	assert.Equal(t, "Books", books.Value)
	assert.Equal(t, "", books.ParentKey)
	assert.Equal(t, 3, books.Count)
	assert.Equal(t, 16.0, books.Aggregates["price"])

	// Rows keep input order inside a group.
	var gotIDs []int
	for _, c := range books.Children {
		d := c.(Data)
		assert.Equal(t, 1, d.Level)
		gotIDs = append(gotIDs, d.Row["id"].(int))
	}
	assert.Equal(t, []int{1, 3, 5}, gotIDs)
}

func TestBuildDescending(t *testing.T) {
	nodes := Build(books(), []Config{{Field: "category", Direction: sorting.Desc}}, nil)
	assert.Equal(t, []string{"Music", "Books", "(null)"}, Keys(nodes))
}

func TestBuildNested(t *testing.T) {
	specs := []aggregates.Spec{{Field: "price", Kind: aggregates.Sum}}
	nodes := Build(books(), []Config{{Field: "category"}, {Field: "genre"}}, specs)

	assert.Equal(t, []string{
		"(null)", "(null)|Novel",
		"Books", "Books|Novel", "Books|Poetry",
		"Music", "Music|Books", "Music|Jazz",
	}, Keys(nodes))

	music := nodes[2]
	assert.Equal(t, 2, music.Count)
	assert.Equal(t, 22.0, music.Aggregates["price"])

	musicBooks := music.Children[0].(*Node)
	assert.Equal(t, 1, musicBooks.Level)
	assert.Equal(t, "Music", musicBooks.ParentKey)
	assert.Equal(t, 2.0, musicBooks.Aggregates["price"])

	// A value equal to an outer group's value still gets a distinct key.
	assert.NotEqual(t, nodes[1].Key, musicBooks.Key)
}

func TestBuildNestedOuterAggregates(t *testing.T) {
	specs := []aggregates.Spec{
		{Field: "price", Kind: aggregates.Sum},
		{Field: "genre", Kind: aggregates.Count},
		{Field: "id", Kind: aggregates.Max},
	}
	nodes := Build(books(), []Config{{Field: "category"}, {Field: "genre"}}, specs)

	tests := []struct {
		key  string
		want map[string]any
	}{
		{"(null)", map[string]any{"price": 7.0, "genre": 1, "id": 4.0}},
		{"Books", map[string]any{"price": 16.0, "genre": 3, "id": 5.0}},
		{"Music", map[string]any{"price": 22.0, "genre": 2, "id": 6.0}},
		{"Books|Novel", map[string]any{"price": 11.0, "genre": 2, "id": 5.0}},
	}
	byKey := map[string]*Node{}
	Walk(nodes, func(n *Node) { byKey[n.Key] = n })
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.Contains(t, byKey, tt.key)
			assert.Equal(t, tt.want, byKey[tt.key].Aggregates)
		})
	}

	// Outer levels match aggregating their rows directly.
	for _, n := range nodes {
		var rs []rows.Row
		for _, r := range books() {
			if KeyPart(r["category"]) == n.Key {
				rs = append(rs, r)
			}
		}
		assert.Equal(t, aggregates.Compute(rs, specs), n.Aggregates, n.Key)
	}
}

func TestBuildEmptyStringValue(t *testing.T) {
	rs := []rows.Row{
		{"category": "", "genre": "Novel"},
		{"category": "Novel", "genre": "Jazz"},
		{"category": nil, "genre": ""},
	}
	nodes := Build(rs, []Config{{Field: "category"}, {Field: "genre"}}, nil)
	assert.Equal(t, []string{"", "|Novel", "(null)", "(null)|", "Novel", "Novel|Jazz"}, Keys(nodes))
	assert.Equal(t, []Ancestor{{Field: "category", Value: ""}, {Field: "genre", Value: "Novel"}},
		Ancestors(nodes[0].Children[0].(*Node).Key, []Config{{Field: "category"}, {Field: "genre"}}))
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil, []Config{{Field: "category"}}, nil))
	assert.Empty(t, Build(books(), nil, nil))
}

func TestGroupingCountInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	fields := []string{"a", "b", "c"}
	rs := make([]rows.Row, 500)
	for i := range rs {
		row := rows.Row{"id": i}
		for _, f := range fields {
			if v := r.Intn(5); v > 0 {
				row[f] = v
			}
		}
		rs[i] = row
	}

	for depth := 1; depth <= len(fields); depth++ {
		var configs []Config
		for _, f := range fields[:depth] {
			configs = append(configs, Config{Field: f})
		}
		nodes := Build(rs, configs, nil)

		total := 0
		for _, leaf := range Leaves(nodes) {
			total += leaf.Count
		}
		assert.Equal(t, len(rs), total, "depth %d", depth)

		seen := map[string]bool{}
		for _, k := range Keys(nodes) {
			require.False(t, seen[k], "duplicate key %q", k)
			seen[k] = true
		}
	}
}

func TestFlatten(t *testing.T) {
	nodes := Build(books(), []Config{{Field: "category"}, {Field: "genre"}}, nil)
	flat := Flatten(nodes)

	var shape []string
	for _, r := range flat {
		switch v := r.(type) {
		case *Node:
			shape = append(shape, "G:"+v.Key)
		case Data:
			shape = append(shape, "D")
		default:
			t.Fatalf("unexpected row %T", r)
		}
	}
	assert.Equal(t, []string{
		"G:(null)", "G:(null)|Novel", "D",
		"G:Books", "G:Books|Novel", "D", "D", "G:Books|Poetry", "D",
		"G:Music", "G:Music|Books", "D", "G:Music|Jazz", "D",
	}, shape)
}

func TestAncestors(t *testing.T) {
	configs := []Config{{Field: "category"}, {Field: "genre"}}
	assert.Equal(t, []Ancestor{
		{Field: "category", Value: nil},
		{Field: "genre", Value: "Novel"},
	}, Ancestors("(null)|Novel", configs))
	assert.Len(t, Ancestors("a|b|c", configs), 2)
	assert.Equal(t, []Ancestor{{Field: "category", Value: ""}}, Ancestors("", configs))

	assert.Equal(t, "Books|Novel", JoinKey("Books", "Novel"))
	assert.Equal(t, "|Novel", JoinKey("", "Novel"))
	assert.Equal(t, "Books", NodeKey("", 0, "Books"))
	assert.Equal(t, "Books|Novel", NodeKey("Books", 1, "Novel"))
	assert.Equal(t, 1, KeyDepth(""))
	assert.Equal(t, 2, KeyDepth("|Novel"))
	assert.Equal(t, 2, KeyDepth("Books|Novel"))
}

func TestLoadMoreRemaining(t *testing.T) {
	assert.Equal(t, 5, LoadMore{Loaded: 10, Total: 15}.Remaining())
	assert.Equal(t, 0, LoadMore{Loaded: 20, Total: 15}.Remaining())
}
