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

// Package views turns a flattened group/data sequence into what the grid
// actually shows: the projection through the expanded-group set, and the
// view model handed to the renderer.
package views

import (
	"sort"

	"github.com/google/tabula/core/grouping"
)

// KeySet is a set of group keys.
type KeySet map[string]struct{}

// NewKeySet creates a set holding keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set. A nil set is empty.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

// Remove deletes key.
func (s KeySet) Remove(key string) {
	delete(s, key)
}

// Clone returns a copy of the set.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the keys in ascending order.
func (s KeySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Project returns the rows of flat that are visible given the expanded
// group keys. Every group header reached is emitted; the contiguous block
// after a header (up to the next header at the same or a shallower level)
// is projected recursively when the header is expanded and skipped
// otherwise. Rows outside any group are always visible.
func Project(flat []grouping.Row, expanded KeySet) []grouping.Row {
	out := make([]grouping.Row, 0, len(flat))
	for i := 0; i < len(flat); {
		node, ok := flat[i].(*grouping.Node)
		if !ok {
			out = append(out, flat[i])
			i++
			continue
		}
		out = append(out, node)
		end := blockEnd(flat, i)
		if expanded.Has(node.Key) {
			out = append(out, Project(flat[i+1:end], expanded)...)
		}
		i = end
	}
	return out
}

// blockEnd returns the index just past the children block of the header at
// flat[start].
func blockEnd(flat []grouping.Row, start int) int {
	level := flat[start].Depth()
	for j := start + 1; j < len(flat); j++ {
		if n, ok := flat[j].(*grouping.Node); ok && n.Level <= level {
			return j
		}
	}
	return len(flat)
}

// ExpandAll returns the set of every group key in flat.
func ExpandAll(flat []grouping.Row) KeySet {
	s := make(KeySet)
	for _, r := range flat {
		if n, ok := r.(*grouping.Node); ok {
			s.Add(n.Key)
		}
	}
	return s
}

// MarkExpanded sets Expanded on every header in flat according to
// expanded.
func MarkExpanded(flat []grouping.Row, expanded KeySet) {
	for _, r := range flat {
		if n, ok := r.(*grouping.Node); ok {
			n.Expanded = expanded.Has(n.Key)
		}
	}
}
