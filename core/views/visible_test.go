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

package views

import (
	"testing"

	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/rows"
	"github.com/stretchr/testify/assert"
)

func describe(seq []grouping.Row) []string {
	var out []string
	for _, r := range seq {
		switch v := r.(type) {
		case *grouping.Node:
			out = append(out, "G:"+v.Key)
		case grouping.Data:
			out = append(out, "D:"+rows.String(v.Row["id"]))
		case grouping.LoadMore:
			out = append(out, "M:"+v.GroupKey)
		}
	}
	return out
}

func group(level int, key string) *grouping.Node {
	return &grouping.Node{Level: level, Key: key}
}

func data(level, id int) grouping.Data {
	return grouping.Data{Row: rows.Row{"id": id}, Level: level}
}

func TestProjectCollapsedAndExpanded(t *testing.T) {
	flat := []grouping.Row{
		group(0, "A"), data(1, 1), data(1, 2), data(1, 3),
		group(0, "B"), data(1, 4), data(1, 5),
	}
	got := Project(flat, NewKeySet("B"))
	assert.Equal(t, []string{"G:A", "G:B", "D:4", "D:5"}, describe(got))
}

func TestProjectNested(t *testing.T) {
	flat := []grouping.Row{
		group(0, "A"),
		group(1, "A|x"), data(2, 1),
		group(1, "A|y"), data(2, 2), data(2, 3),
		grouping.LoadMore{GroupKey: "A|y", Level: 2},
		group(0, "B"),
		group(1, "B|x"), data(2, 4),
	}

	tests := []struct {
		name     string
		expanded KeySet
		want     []string
	}{
		{"all collapsed", nil, []string{"G:A", "G:B"}},
		{"outer only", NewKeySet("A"), []string{"G:A", "G:A|x", "G:A|y", "G:B"}},
		{"inner without outer stays hidden", NewKeySet("A|y", "B|x"), []string{"G:A", "G:B"}},
		{"deep", NewKeySet("A", "A|y", "B"), []string{"G:A", "G:A|x", "G:A|y", "D:2", "D:3", "M:A|y", "G:B", "G:B|x"}},
		{"everything", ExpandAll(flat), []string{"G:A", "G:A|x", "D:1", "G:A|y", "D:2", "D:3", "M:A|y", "G:B", "G:B|x", "D:4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(Project(flat, tt.expanded)))
		})
	}
}

func TestProjectUngrouped(t *testing.T) {
	flat := []grouping.Row{data(0, 1), data(0, 2)}
	assert.Equal(t, []string{"D:1", "D:2"}, describe(Project(flat, nil)))
	assert.Empty(t, Project(nil, nil))
}

func TestKeySet(t *testing.T) {
	s := NewKeySet("b", "a")
	s.Add("c")
	s.Remove("b")
	assert.Equal(t, []string{"a", "c"}, s.Sorted())
	c := s.Clone()
	c.Remove("a")
	assert.True(t, s.Has("a"))

	var empty KeySet
	assert.False(t, empty.Has("a"))
}

func TestMarkExpanded(t *testing.T) {
	a, b := group(0, "A"), group(0, "B")
	MarkExpanded([]grouping.Row{a, data(1, 1), b}, NewKeySet("B"))
	assert.False(t, a.Expanded)
	assert.True(t, b.Expanded)
}
