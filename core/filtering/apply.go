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

package filtering

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/tabula/core/rows"
)

// Indices returns the bitmap of row indices that pass the search and every
// condition. Conditions are validated up front, so an invalid operator
// fails before any row is evaluated.
func Indices(rs []rows.Row, conds []Condition, search Search) (*roaring.Bitmap, error) {
	conds, err := NormalizeAll(conds)
	if err != nil {
		return nil, err
	}

	result := roaring.New()
	result.AddRange(0, uint64(len(rs)))

	if search.Active() {
		match := search.matcher()
		result.And(bitmapOf(rs, result, match))
	}

	for _, c := range conds {
		if result.IsEmpty() {
			break
		}
		cond := c
		matched := bitmapOf(rs, result, func(r rows.Row) bool {
			// Operators are normalized, so Matches cannot fail here.
			ok, _ := Matches(r, cond)
			return ok
		})
		result.And(matched)
	}
	return result, nil
}

// bitmapOf evaluates pred over the candidate indices only.
func bitmapOf(rs []rows.Row, candidates *roaring.Bitmap, pred func(rows.Row) bool) *roaring.Bitmap {
	out := roaring.New()
	it := candidates.Iterator()
	for it.HasNext() {
		i := it.Next()
		if pred(rs[i]) {
			out.Add(i)
		}
	}
	return out
}

// Apply returns the rows that pass the search and every condition, in
// their original order.
func Apply(rs []rows.Row, conds []Condition, search Search) ([]rows.Row, error) {
	idx, err := Indices(rs, conds, search)
	if err != nil {
		return nil, err
	}
	out := make([]rows.Row, 0, idx.GetCardinality())
	it := idx.Iterator()
	for it.HasNext() {
		out = append(out, rs[it.Next()])
	}
	return out, nil
}
