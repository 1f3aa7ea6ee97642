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

// Package sorting orders rows by a prioritized list of fields.
package sorting

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/rows"
)

// Direction is a sort direction.
type Direction string

const (
	None Direction = "none"
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection parses a direction case-insensitively. The empty string is
// Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	case "none":
		return None, nil
	}
	return None, fmt.Errorf("unknown sort direction %q", s)
}

// Config sorts by one field. The first Config in a list is the primary key.
type Config struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Active drops configs whose direction is None.
func Active(configs []Config) []Config {
	out := make([]Config, 0, len(configs))
	for _, c := range configs {
		if c.Direction != None {
			out = append(out, c)
		}
	}
	return out
}

// sortableField holds a resolved column def and its sort direction
type sortableField struct {
	field      string
	def        *columns.ColumnDef
	descending bool
}

func resolve(configs []Config, defs *columns.Set) []sortableField {
	out := make([]sortableField, 0, len(configs))
	for _, c := range configs {
		if c.Direction == None {
			continue
		}
		out = append(out, sortableField{
			field:      c.Field,
			def:        defs.Get(c.Field),
			descending: c.Direction == Desc,
		})
	}
	return out
}

func compareFields(a, b rows.Row, fields []sortableField) int {
	for _, sf := range fields {
		cmp := columns.Compare(sf.def, rows.Resolve(a, sf.field), rows.Resolve(b, sf.field))
		if cmp != 0 {
			if sf.descending {
				return -cmp
			}
			return cmp
		}
	}
	return 0
}

// Compare orders two rows by configs: -1, 0 or 1. Configs with direction
// None never influence the result. defs supplies per-field comparators and
// may be nil.
func Compare(a, b rows.Row, configs []Config, defs *columns.Set) int {
	return compareFields(a, b, resolve(configs, defs))
}

// Stable returns a sorted copy of rs. Rows that compare equal keep their
// relative order.
func Stable(rs []rows.Row, configs []Config, defs *columns.Set) []rows.Row {
	out := make([]rows.Row, len(rs))
	copy(out, rs)
	fields := resolve(configs, defs)
	if len(fields) == 0 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compareFields(out[i], out[j], fields) < 0
	})
	return out
}

// topKHeap implements a max-heap for top-K selection.
// The worst of the K best rows seen so far sits at the top. Ties are broken
// by original position, which keeps the selection stable.
type topKHeap struct {
	rows    []rows.Row
	indices []int
	fields  []sortableField
}

func (h *topKHeap) Len() int { return len(h.indices) }

func (h *topKHeap) Less(i, j int) bool {
	return h.compare(h.indices[i], h.indices[j]) > 0
}

func (h *topKHeap) Swap(i, j int) {
	h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
}

func (h *topKHeap) Push(x any) {
	h.indices = append(h.indices, x.(int))
}

func (h *topKHeap) Pop() any {
	old := h.indices
	n := len(old)
	x := old[n-1]
	h.indices = old[0 : n-1]
	return x
}

func (h *topKHeap) compare(i, j int) int {
	if cmp := compareFields(h.rows[i], h.rows[j], h.fields); cmp != 0 {
		return cmp
	}
	switch {
	case i < j:
		return -1
	case i > j:
		return 1
	}
	return 0
}

// TopK returns the first k rows of the stable sort of rs without sorting
// the whole slice: O(n log k).
func TopK(rs []rows.Row, configs []Config, defs *columns.Set, k int) []rows.Row {
	if k <= 0 || len(rs) == 0 {
		return []rows.Row{}
	}
	fields := resolve(configs, defs)
	if k >= len(rs) || len(fields) == 0 {
		sorted := Stable(rs, configs, defs)
		if k < len(sorted) {
			sorted = sorted[:k]
		}
		return sorted
	}

	h := &topKHeap{
		rows:    rs,
		indices: make([]int, 0, k),
		fields:  fields,
	}
	for i := 0; i < k; i++ {
		h.indices = append(h.indices, i)
	}
	heap.Init(h)

	for i := k; i < len(rs); i++ {
		if h.compare(i, h.indices[0]) < 0 {
			heap.Pop(h)
			heap.Push(h, i)
		}
	}

	indices := h.indices
	sort.Slice(indices, func(a, b int) bool {
		return h.compare(indices[a], indices[b]) < 0
	})
	out := make([]rows.Row, len(indices))
	for i, idx := range indices {
		out[i] = rs[idx]
	}
	return out
}
