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

// Package query runs the in-memory grid pipeline: filter, sort, group and
// paginate a resident row collection into one page of grid rows.
package query

import (
	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/sorting"
)

// DefaultLimit is the page size used when a request names none.
const DefaultLimit = 10

// Params is the declarative grid state a page is computed from.
type Params struct {
	Filters []filtering.Condition
	Search  filtering.Search
	Sort    []sorting.Config
	Groups  []grouping.Config
	Skip    int
	// Take is the page size in data rows; zero or less means all rows.
	Take int
}

// Page returns the 1-based page number of Skip.
func (p Params) Page() int {
	if p.Take <= 0 {
		return 1
	}
	return p.Skip/p.Take + 1
}

// WithPage returns a copy positioned at the given 1-based page.
func (p Params) WithPage(page int) Params {
	if page < 1 {
		page = 1
	}
	if p.Take > 0 {
		p.Skip = (page - 1) * p.Take
	}
	return p
}

// PageResult is one page of grid rows.
type PageResult struct {
	Data []grouping.Row
	// Total counts matching data rows, never group headers.
	Total    int
	Page     int
	PageSize int
	// Aggregates are the footer aggregates over all matching rows.
	Aggregates map[string]any
}

// HasMore reports whether rows exist past this page.
func (r PageResult) HasMore() bool {
	return r.PageSize > 0 && r.Page*r.PageSize < r.Total
}
