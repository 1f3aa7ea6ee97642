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

package columns

import (
	"math"
	"strings"
	"time"

	"github.com/google/tabula/core/rows"
)

// Compare orders two values of the column's field. A column comparator takes
// precedence over natural ordering.
func Compare(def *ColumnDef, a, b any) int {
	if def != nil && def.Comparator != nil {
		return sign(def.Comparator(a, b))
	}
	return CompareValues(a, b)
}

// CompareValues orders two values naturally.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
// Nil sorts after every value, numbers compare numerically, strings
// byte-wise, times chronologically and bools false before true. Values of
// different kinds fall back to their string forms.
func CompareValues(a, b any) int {
	aNull, bNull := rows.IsNull(a), rows.IsNull(b)
	if aNull || bNull {
		return compareNulls(aNull, bNull)
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return compareTimes(av, bv)
		}
	case time.Duration:
		if bv, ok := b.(time.Duration); ok {
			return compareDurations(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return compareBools(av, bv)
		}
	}

	if rows.IsNumber(a) && rows.IsNumber(b) {
		return compareFloat64s(toFloat(a), toFloat(b))
	}

	return strings.Compare(rows.String(a), rows.String(b))
}

// toFloat keeps NaN, which rows.Float rejects.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	}
	f, _ := rows.Float(v)
	return f
}

// compareTimes compares two time.Time values
func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

// compareDurations compares two time.Duration values
func compareDurations(a, b time.Duration) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareBools compares two bool values (false < true)
func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// compareFloat64s compares two float64 values with NaN handling.
// NaN values are considered greater than all other values (sort to end).
func compareFloat64s(a, b float64) int {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)

	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}

	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareNulls orders nil after non-nil values.
func compareNulls(aNull, bNull bool) int {
	if aNull && bNull {
		return 0
	}
	if aNull {
		return 1
	}
	return -1
}

func sign(c int) int {
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}
