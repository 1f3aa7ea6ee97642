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

package server

import (
	"context"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/remote"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
)

// Backend answers group API requests over a resident row collection. It
// implements remote.Source, so the orchestrator can also run in-process.
type Backend struct {
	rows []rows.Row
	defs *columns.Set
}

var _ remote.Source = (*Backend)(nil)

// NewBackend returns a backend over rs. defs supplies comparators and
// display metadata; when empty it is inferred from the rows.
func NewBackend(rs []rows.Row, defs *columns.Set) *Backend {
	if defs.Len() == 0 {
		defs = columns.Infer(rs)
	}
	return &Backend{rows: rs, defs: defs}
}

// Rows returns the full collection.
func (b *Backend) Rows() []rows.Row { return b.rows }

// Columns returns the column definitions.
func (b *Backend) Columns() *columns.Set { return b.defs }

// match filters by the query and the ancestor equalities, then sorts.
func (b *Backend) match(q remote.Query, ancestors []grouping.Ancestor) ([]rows.Row, error) {
	conds := q.Filters
	if len(ancestors) > 0 {
		conds = append(append([]filtering.Condition(nil), q.Filters...), query.AncestorConditions(ancestors)...)
	}
	rs, err := filtering.Apply(b.rows, conds, q.Search)
	if err != nil {
		return nil, err
	}
	return sorting.Stable(rs, q.Sort, b.defs), nil
}

func window(n, skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if skip > n {
		skip = n
	}
	end := n
	if take > 0 && skip+take < n {
		end = skip + take
	}
	return skip, end
}

// groupMeta returns distinct values of field with counts, ordered by key.
func groupMeta(rs []rows.Row, field string, dir sorting.Direction) []remote.GroupMeta {
	nodes := grouping.Build(rs, []grouping.Config{{Field: field, Direction: dir}}, nil)
	out := make([]remote.GroupMeta, len(nodes))
	for i, n := range nodes {
		out[i] = remote.GroupMeta{Value: n.Value, Key: n.Key, Count: n.Count}
	}
	return out
}

// FetchPage implements remote.Source.
func (b *Backend) FetchPage(_ context.Context, req remote.PageRequest) (remote.Page, error) {
	rs, err := b.match(req.Query, nil)
	if err != nil {
		return remote.Page{}, err
	}
	lo, hi := window(len(rs), req.Skip, req.Take)
	return remote.Page{Rows: rs[lo:hi], Total: len(rs), Skip: lo, Limit: req.Take}, nil
}

// FetchGroups implements remote.Source.
func (b *Backend) FetchGroups(_ context.Context, req remote.GroupRequest) (remote.GroupPage, error) {
	rs, err := b.match(req.Query, nil)
	if err != nil {
		return remote.GroupPage{}, err
	}
	all := groupMeta(rs, req.Field, req.Direction)
	lo, hi := window(len(all), req.Skip, req.Take)
	return remote.GroupPage{Groups: all[lo:hi], Total: len(all), Skip: lo, Limit: req.Take}, nil
}

// FetchChildren implements remote.Source.
func (b *Backend) FetchChildren(_ context.Context, req remote.ChildrenRequest) (remote.Page, error) {
	rs, err := b.match(req.Query, req.Ancestors)
	if err != nil {
		return remote.Page{}, err
	}
	lo, hi := window(len(rs), req.Skip, req.Take)
	return remote.Page{Rows: rs[lo:hi], Total: len(rs), Skip: lo, Limit: req.Take}, nil
}

// FetchNestedGroups implements remote.Source. The result is not paginated.
func (b *Backend) FetchNestedGroups(_ context.Context, req remote.NestedGroupRequest) (remote.GroupPage, error) {
	rs, err := b.match(req.Query, req.Ancestors)
	if err != nil {
		return remote.GroupPage{}, err
	}
	all := groupMeta(rs, req.Field, req.Direction)
	return remote.GroupPage{Groups: all, Total: len(all)}, nil
}
