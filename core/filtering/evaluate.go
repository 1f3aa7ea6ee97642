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
	"cmp"
	"strings"
	"time"

	"github.com/google/tabula/core/rows"
	"golang.org/x/text/cases"
)

// Matches evaluates one condition against a row. The only error is an
// unknown operator; missing fields and malformed values evaluate to false
// (or true for the negated operators).
func Matches(row rows.Row, c Condition) (bool, error) {
	op, err := ParseOperator(string(c.Operator))
	if err != nil {
		return false, err
	}
	value := rows.Resolve(row, c.Field)

	switch op {
	case Equals:
		return equal(value, c.Value), nil
	case NotEquals:
		return !equal(value, c.Value), nil
	case Contains:
		return !rows.IsNull(value) && strings.Contains(fold(value), fold(c.Value)), nil
	case NotContains:
		return rows.IsNull(value) || !strings.Contains(fold(value), fold(c.Value)), nil
	case StartsWith:
		return !rows.IsNull(value) && strings.HasPrefix(fold(value), fold(c.Value)), nil
	case EndsWith:
		return !rows.IsNull(value) && strings.HasSuffix(fold(value), fold(c.Value)), nil
	case GreaterThan:
		n, ok := order(value, c.Value)
		return ok && n > 0, nil
	case GreaterThanOrEqual:
		n, ok := order(value, c.Value)
		return ok && n >= 0, nil
	case LessThan:
		n, ok := order(value, c.Value)
		return ok && n < 0, nil
	case LessThanOrEqual:
		n, ok := order(value, c.Value)
		return ok && n <= 0, nil
	case Between:
		lo, ok := order(value, c.Value)
		if !ok || lo < 0 {
			return false, nil
		}
		hi, ok := order(value, c.Value2)
		return ok && hi <= 0, nil
	case In:
		seq, ok := rows.Sequence(c.Value)
		return ok && contains(seq, value), nil
	case NotIn:
		seq, ok := rows.Sequence(c.Value)
		return ok && !contains(seq, value), nil
	case IsNull:
		return rows.IsNull(value), nil
	case IsNotNull:
		return !rows.IsNull(value), nil
	}
	return false, &InvalidOperatorError{Operator: string(c.Operator)}
}

// MatchesAll reports whether the row satisfies every condition.
func MatchesAll(row rows.Row, conds []Condition) (bool, error) {
	for _, c := range conds {
		ok, err := Matches(row, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// equal compares a field value with a filter value. Numbers compare
// numerically; everything else by canonical string so that wire values
// like "4.5" match a numeric 4.5.
func equal(a, b any) bool {
	aNull, bNull := rows.IsNull(a), rows.IsNull(b)
	if aNull || bNull {
		return aNull && bNull
	}
	if rows.IsNumber(a) && rows.IsNumber(b) {
		fa, _ := rows.Float(a)
		fb, _ := rows.Float(b)
		return fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := asTime(b); ok {
			return ta.Equal(tb)
		}
	}
	return rows.String(a) == rows.String(b)
}

func contains(seq []any, v any) bool {
	for _, e := range seq {
		if equal(v, e) {
			return true
		}
	}
	return false
}

// order compares a field value with a filter value: numerically, or by
// instant for times, where an RFC3339 or date-only filter string is
// accepted. ok is false when the two cannot be ordered.
func order(value, ref any) (int, bool) {
	if t, ok := value.(time.Time); ok {
		rt, ok := asTime(ref)
		if !ok {
			return 0, false
		}
		return t.Compare(rt), true
	}
	a, ok := rows.Float(value)
	if !ok {
		return 0, false
	}
	b, ok := rows.Float(ref)
	if !ok {
		return 0, false
	}
	return cmp.Compare(a, b), true
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err == nil {
			return parsed, true
		}
		parsed, err = time.Parse(time.DateOnly, strings.TrimSpace(t))
		return parsed, err == nil
	}
	return time.Time{}, false
}

// fold stringifies v and case-folds it for case-insensitive matching.
func fold(v any) string {
	return cases.Fold().String(rows.String(v))
}
