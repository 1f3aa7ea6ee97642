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
	"strings"

	"github.com/google/safehtml"
	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/grouping"
)

// Row kinds in a GridViewModel.
const (
	KindGroup    = "group"
	KindData     = "data"
	KindLoadMore = "loadmore"
)

// GridViewModel contains a visible row sequence formatted for template
// consumption.
type GridViewModel struct {
	Title   string
	Headers []string // Column display names
	Columns []string // Field paths
	Rows    []RowView
	Footer  []string // Footer aggregate per column, "" when none

	// Pagination info
	TotalRows     int // Matching data rows
	DisplayedRows int // Data rows on this page
	Page          int
	PageSize      int
	PrevURL       safehtml.URL
	NextURL       safehtml.URL
	HasPrev       bool
	HasNext       bool

	// Request timing
	Timings []TimingEntry
	TotalMs string
}

// TimingEntry is one measured step of a request.
type TimingEntry struct {
	Operation  string
	DurationMs string
}

// RowView is one rendered row.
type RowView struct {
	Kind   string
	Indent int
	Cells  []string // data rows only

	// group rows
	Label      string
	Count      int
	Expanded   bool
	ToggleURL  safehtml.URL
	Aggregates string

	// load-more rows
	Remaining int
}

// ViewOptions carries page state and link builders.
type ViewOptions struct {
	Title    string
	Total    int
	Page     int
	PageSize int
	Footer   map[string]any
	// ToggleURL returns the link that flips the expansion of a group key.
	ToggleURL func(key string, expanded bool) safehtml.URL
	// PageURL returns the link to a page number.
	PageURL func(page int) safehtml.URL
}

// BuildViewModel formats the visible rows with the column definitions.
func BuildViewModel(visible []grouping.Row, defs *columns.Set, opts ViewOptions) GridViewModel {
	vm := GridViewModel{
		Title:     opts.Title,
		Columns:   defs.Fields(),
		TotalRows: opts.Total,
		Page:      opts.Page,
		PageSize:  opts.PageSize,
	}
	for _, d := range defs.All() {
		vm.Headers = append(vm.Headers, d.Header)
		if v, ok := opts.Footer[d.Field]; ok {
			vm.Footer = append(vm.Footer, aggregates.FormatValue(v))
		} else {
			vm.Footer = append(vm.Footer, "")
		}
	}

	for _, r := range visible {
		switch v := r.(type) {
		case *grouping.Node:
			rv := RowView{
				Kind:       KindGroup,
				Indent:     v.Level,
				Label:      groupLabel(v, defs),
				Count:      v.Count,
				Expanded:   v.Expanded,
				Aggregates: formatAggregates(v.Aggregates, defs),
			}
			if opts.ToggleURL != nil {
				rv.ToggleURL = opts.ToggleURL(v.Key, v.Expanded)
			}
			vm.Rows = append(vm.Rows, rv)
		case grouping.Data:
			cells := make([]string, 0, defs.Len())
			for _, d := range defs.All() {
				cells = append(cells, d.Format(v.Row.Get(d.Field)))
			}
			vm.Rows = append(vm.Rows, RowView{Kind: KindData, Indent: v.Level, Cells: cells})
			vm.DisplayedRows++
		case grouping.LoadMore:
			vm.Rows = append(vm.Rows, RowView{Kind: KindLoadMore, Indent: v.Level, Remaining: v.Remaining()})
		}
	}

	if opts.PageURL != nil && opts.PageSize > 0 {
		if opts.Page > 1 {
			vm.HasPrev = true
			vm.PrevURL = opts.PageURL(opts.Page - 1)
		}
		if opts.Page*opts.PageSize < opts.Total {
			vm.HasNext = true
			vm.NextURL = opts.PageURL(opts.Page + 1)
		}
	}
	return vm
}

func groupLabel(n *grouping.Node, defs *columns.Set) string {
	header := n.Field
	def := defs.Get(n.Field)
	if def != nil {
		header = def.Header
	}
	value := grouping.KeyPart(n.Value)
	if n.Value != nil && def != nil {
		value = def.Format(n.Value)
	}
	return header + ": " + value
}

// formatAggregates renders aggregates in column order as "field=value".
func formatAggregates(aggs map[string]any, defs *columns.Set) string {
	if len(aggs) == 0 {
		return ""
	}
	var parts []string
	for _, d := range defs.All() {
		if v, ok := aggs[d.Field]; ok {
			parts = append(parts, d.Header+" "+string(d.Aggregate)+"="+aggregates.FormatValue(v))
		}
	}
	return strings.Join(parts, ", ")
}
