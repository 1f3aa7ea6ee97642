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

package query

import (
	"github.com/google/tabula/core/grouping"
)

// PaginateGroups slices a group tree to the data rows in
// [skip, skip+take), numbering data rows in tree order. A header is emitted
// whenever any of its descendant rows falls in the window, so a group split
// across a page boundary shows its header on both pages.
//
// The first pass assigns each node the index of its first descendant row
// and marks the nodes whose range intersects the window; the second pass
// emits marked nodes and in-window rows.
func PaginateGroups(nodes []*grouping.Node, skip, take int) []grouping.Row {
	end := skip + take
	active := make(map[*grouping.Node]bool)
	next := 0
	var mark func(ns []*grouping.Node)
	mark = func(ns []*grouping.Node) {
		for _, n := range ns {
			start := next
			if start < end && start+n.Count > skip {
				active[n] = true
			}
			mark(childNodes(n))
			next = start + n.Count
		}
	}
	mark(nodes)

	var out []grouping.Row
	index := 0
	var emit func(ns []*grouping.Node)
	emit = func(ns []*grouping.Node) {
		for _, n := range ns {
			if !active[n] {
				index += n.Count
				continue
			}
			out = append(out, n)
			start := index
			for _, c := range n.Children {
				switch v := c.(type) {
				case *grouping.Node:
					emit([]*grouping.Node{v})
				case grouping.Data:
					if index >= skip && index < end {
						out = append(out, v)
					}
					index++
				}
			}
			index = start + n.Count
		}
	}
	emit(nodes)
	return out
}

func childNodes(n *grouping.Node) []*grouping.Node {
	var out []*grouping.Node
	for _, c := range n.Children {
		if child, ok := c.(*grouping.Node); ok {
			out = append(out, child)
		}
	}
	return out
}
