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
	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
)

// Run computes one page of rs under p. The steps run in a fixed order:
// search and filters establish Total and the footer aggregates, then rows
// are sorted, then grouped, then paginated. Invalid filters fail before any
// row is evaluated. defs may be nil.
func Run(rs []rows.Row, p Params, defs *columns.Set) (PageResult, error) {
	filtered, err := filtering.Apply(rs, p.Filters, p.Search)
	if err != nil {
		return PageResult{}, err
	}

	specs := defs.AggregateSpecs()
	result := PageResult{
		Total:      len(filtered),
		Page:       p.Page(),
		PageSize:   p.Take,
		Aggregates: aggregates.Compute(filtered, specs),
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}

	if len(p.Groups) > 0 {
		sorted := sorting.Stable(filtered, p.Sort, defs)
		nodes := grouping.Build(sorted, p.Groups, specs)
		if p.Take <= 0 {
			result.Data = grouping.Flatten(nodes)
		} else {
			result.Data = PaginateGroups(nodes, skip, p.Take)
		}
		return result, nil
	}

	var page []rows.Row
	if p.Take > 0 {
		top := sorting.TopK(filtered, p.Sort, defs, skip+p.Take)
		if skip < len(top) {
			page = top[skip:]
		}
	} else {
		page = sorting.Stable(filtered, p.Sort, defs)
		if skip < len(page) {
			page = page[skip:]
		} else {
			page = nil
		}
	}
	result.Data = make([]grouping.Row, len(page))
	for i, r := range page {
		result.Data[i] = grouping.Data{Row: r}
	}
	return result, nil
}
