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

// Package grouping partitions rows into a tree of group nodes and
// flattens it into the row sequence a grid renders.
//
// Terminology:
//   - a group key is the "|"-joined chain of group values from the
//     outermost level down to the node, which makes it unique in the tree
//   - a nil value appears in keys as rows.NullKey
//   - the children of a node are either nested nodes or, at the last
//     level, data rows
package grouping

import (
	"sort"
	"strings"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
)

// KeySeparator joins ancestor values in group keys.
const KeySeparator = "|"

// Config groups by one field. List order defines nesting.
type Config struct {
	Field     string            `json:"field"`
	Direction sorting.Direction `json:"direction,omitempty"`
}

// Fields returns the grouped fields in nesting order.
func Fields(configs []Config) []string {
	out := make([]string, len(configs))
	for i, c := range configs {
		out[i] = c.Field
	}
	return out
}

// Node is a group header row.
type Node struct {
	Level     int
	Field     string
	Value     any
	Key       string
	ParentKey string
	Expanded  bool
	// Count is the number of descendant data rows.
	Count int
	// Children holds nested nodes, or Data rows at the last level.
	Children []Row
	// Aggregates covers every data row of the group, nested or not.
	Aggregates map[string]any
}

// KeyPart returns the key segment for a group value.
func KeyPart(v any) string {
	return rows.Key(v)
}

// JoinKey appends a segment to a parent key. An empty parent is the key of
// a group whose value is the empty string, so top-level keys are the bare
// segment and never come from JoinKey.
func JoinKey(parent, part string) string {
	return parent + KeySeparator + part
}

// NodeKey returns the key of a node at level below parentKey.
func NodeKey(parentKey string, level int, part string) string {
	if level == 0 {
		return part
	}
	return JoinKey(parentKey, part)
}

// SplitKey returns the segments of a group key. Every key has at least one
// segment; the empty key names a top-level group of empty strings.
func SplitKey(key string) []string {
	return strings.Split(key, KeySeparator)
}

// KeyDepth returns the number of segments in key, i.e. the level of the
// node it names plus one.
func KeyDepth(key string) int {
	return len(SplitKey(key))
}

// Ancestor is an equality constraint contributed by one level of a group
// path.
type Ancestor struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Ancestors returns the equality constraints a group key implies, one per
// segment, using the fields of configs. The null sentinel maps back to nil.
// Segments beyond the configured levels are ignored.
func Ancestors(key string, configs []Config) []Ancestor {
	parts := SplitKey(key)
	if len(parts) > len(configs) {
		parts = parts[:len(configs)]
	}
	out := make([]Ancestor, len(parts))
	for i, p := range parts {
		var v any = p
		if p == rows.NullKey {
			v = nil
		}
		out[i] = Ancestor{Field: configs[i].Field, Value: v}
	}
	return out
}

// Build partitions rs by configs into a tree of nodes. Rows keep their
// input order inside each group, so callers sort before grouping. Groups
// are ordered by key, per the level's direction.
func Build(rs []rows.Row, configs []Config, specs []aggregates.Spec) []*Node {
	nodes, _ := build(rs, configs, specs, 0, "")
	return nodes
}

type partition struct {
	value any
	rows  []rows.Row
}

// build returns the nodes of one level with their aggregate state, so a
// parent merges its children's states instead of rescanning their rows.
func build(rs []rows.Row, configs []Config, specs []aggregates.Spec, level int, parentKey string) ([]*Node, []*aggregates.Accumulator) {
	if len(rs) == 0 || level >= len(configs) {
		return nil, nil
	}
	cfg := configs[level]

	parts := newOrderedMap[string, *partition]()
	for _, r := range rs {
		v := rows.Resolve(r, cfg.Field)
		k := KeyPart(v)
		p, ok := parts.Get(k)
		if !ok {
			p = &partition{value: v}
			parts.Set(k, p)
		}
		p.rows = append(p.rows, r)
	}

	keys := parts.Keys()
	SortKeys(keys, cfg.Direction)

	nodes := make([]*Node, 0, len(keys))
	accs := make([]*aggregates.Accumulator, 0, len(keys))
	for _, k := range keys {
		p, _ := parts.Get(k)
		node := &Node{
			Level:     level,
			Field:     cfg.Field,
			Value:     p.value,
			Key:       NodeKey(parentKey, level, k),
			ParentKey: parentKey,
			Count:     len(p.rows),
		}
		acc := aggregates.NewAccumulator(specs)
		if level+1 < len(configs) {
			children, childAccs := build(p.rows, configs, specs, level+1, node.Key)
			for i, child := range children {
				node.Children = append(node.Children, child)
				acc.Merge(childAccs[i])
			}
		} else {
			node.Children = make([]Row, len(p.rows))
			for i, r := range p.rows {
				node.Children[i] = Data{Row: r, Level: level + 1}
			}
			acc.AddRows(p.rows)
		}
		node.Aggregates = acc.Values(p.rows)
		nodes = append(nodes, node)
		accs = append(accs, acc)
	}
	return nodes, accs
}

// SortKeys orders group key segments byte-wise, reversed for Desc.
func SortKeys(keys []string, dir sorting.Direction) {
	if dir == sorting.Desc {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
		return
	}
	sort.Strings(keys)
}

// Flatten emits each node followed by the flattened sequence of its
// children, depth first.
func Flatten(nodes []*Node) []Row {
	var out []Row
	for _, n := range nodes {
		out = appendFlat(out, n)
	}
	return out
}

func appendFlat(out []Row, n *Node) []Row {
	out = append(out, n)
	for _, c := range n.Children {
		if child, ok := c.(*Node); ok {
			out = appendFlat(out, child)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Leaves returns the nodes with no nested groups, in tree order.
func Leaves(nodes []*Node) []*Node {
	var out []*Node
	Walk(nodes, func(n *Node) {
		for _, c := range n.Children {
			if _, ok := c.(*Node); ok {
				return
			}
		}
		out = append(out, n)
	})
	return out
}

// Walk visits every node depth first, parents before children.
func Walk(nodes []*Node, fn func(*Node)) {
	for _, n := range nodes {
		fn(n)
		var nested []*Node
		for _, c := range n.Children {
			if child, ok := c.(*Node); ok {
				nested = append(nested, child)
			}
		}
		Walk(nested, fn)
	}
}

// Keys returns the keys of every node in the tree.
func Keys(nodes []*Node) []string {
	var out []string
	Walk(nodes, func(n *Node) {
		out = append(out, n.Key)
	})
	return out
}
