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

// Package remote drives a grid whose rows live behind a paged remote API.
// Grouping is resolved against the backend one level at a time: distinct
// group values and counts first, then nested values or the children of a
// group when it is expanded.
package remote

import (
	"context"

	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
)

// Source is the remote group API the orchestrator is built against.
type Source interface {
	// FetchPage returns one page of ungrouped rows.
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
	// FetchGroups returns distinct values and counts of a field, paginated
	// over the groups themselves.
	FetchGroups(ctx context.Context, req GroupRequest) (GroupPage, error)
	// FetchChildren returns one page of the rows of a group.
	FetchChildren(ctx context.Context, req ChildrenRequest) (Page, error)
	// FetchNestedGroups returns the distinct values and counts of a field
	// among the rows of a group.
	FetchNestedGroups(ctx context.Context, req NestedGroupRequest) (GroupPage, error)
}

// Query holds the predicate and ordering shared by every request.
type Query struct {
	Filters []filtering.Condition
	Search  filtering.Search
	Sort    []sorting.Config
}

// PageRequest asks for rows [Skip, Skip+Take).
type PageRequest struct {
	Query
	Skip int
	Take int
}

// GroupRequest asks for groups [Skip, Skip+Take) of Field.
type GroupRequest struct {
	Query
	Field     string
	Direction sorting.Direction
	Skip      int
	Take      int
}

// ChildrenRequest asks for rows of the group identified by Ancestors, whose
// last element is the group itself.
type ChildrenRequest struct {
	Query
	Ancestors []grouping.Ancestor
	Skip      int
	Take      int
}

// NestedGroupRequest asks for the groups of Field inside the group
// identified by Ancestors.
type NestedGroupRequest struct {
	Query
	Ancestors []grouping.Ancestor
	Field     string
	Direction sorting.Direction
}

// Page is a slice of rows and the total they were cut from.
type Page struct {
	Rows  []rows.Row
	Total int
	Skip  int
	Limit int
}

// GroupMeta describes one group. Key is the group's own key segment, not
// the full path.
type GroupMeta struct {
	Value any
	Key   string
	Count int
}

// GroupPage is a slice of groups and the number of distinct groups.
type GroupPage struct {
	Groups []GroupMeta
	Total  int
	Skip   int
	Limit  int
}
