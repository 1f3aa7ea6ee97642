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

import "github.com/google/tabula/core/rows"

// Row is one entry of a flattened grid sequence: a Data row, a group
// header (*Node) or a LoadMore marker. The set of variants is closed.
type Row interface {
	isRow()
	// Depth is the nesting level the entry renders at. Group headers sit at
	// their level; data rows and markers sit one level below their group.
	Depth() int
}

// Data wraps an application row.
type Data struct {
	Row   rows.Row
	Level int
}

func (Data) isRow() {}

// Depth returns the level of the enclosing group plus one.
func (d Data) Depth() int { return d.Level }

func (*Node) isRow() {}

// Depth returns the group level.
func (n *Node) Depth() int { return n.Level }

// LoadMore marks a group whose children are only partially loaded.
type LoadMore struct {
	GroupKey   string
	GroupField string
	GroupValue any
	ParentKey  string
	Level      int
	Loaded     int
	Total      int
}

func (LoadMore) isRow() {}

// Depth returns the level the marker renders at, one below its group.
func (m LoadMore) Depth() int { return m.Level }

// Remaining returns how many children have not been loaded yet.
func (m LoadMore) Remaining() int {
	if m.Total <= m.Loaded {
		return 0
	}
	return m.Total - m.Loaded
}
