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

// Package aggregates computes column aggregates over row collections.
// Values are accumulated into a NumericState so per-group states can be
// combined into totals without revisiting rows.
package aggregates

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/tabula/core/rows"
)

// Kind names an aggregate function.
type Kind string

const (
	None   Kind = ""
	Sum    Kind = "sum"
	Avg    Kind = "avg"
	Min    Kind = "min"
	Max    Kind = "max"
	Count  Kind = "count"
	Custom Kind = "custom"
)

// ParseKind parses an aggregate name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case None, Sum, Avg, Min, Max, Count, Custom:
		return k, nil
	case "none":
		return None, nil
	}
	return None, fmt.Errorf("unknown aggregate %q", s)
}

// CustomFunc receives the non-nil values of a field.
type CustomFunc func(values []any) any

// Spec requests one aggregate for one field.
type Spec struct {
	Field string
	Kind  Kind
	Fn    CustomFunc
}

// NumericState stores intermediate state for numeric aggregates.
type NumericState struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

// NewNumericState creates an empty state.
func NewNumericState() *NumericState {
	return &NumericState{
		Min: math.Inf(1),
		Max: math.Inf(-1),
	}
}

// Add adds a single value to the state.
func (s *NumericState) Add(value float64) {
	s.Count++
	s.Sum += value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
}

// Combine merges another state into this one.
func (s *NumericState) Combine(o *NumericState) {
	if o == nil || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Avg returns the mean, or NaN for an empty state.
func (s *NumericState) Avg() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.Count)
}

// Value returns the aggregate of the given kind. Min, max and avg of an
// empty state are NaN.
func (s *NumericState) Value(kind Kind) any {
	switch kind {
	case Sum:
		return s.Sum
	case Avg:
		return s.Avg()
	case Min:
		if s.Count == 0 {
			return math.NaN()
		}
		return s.Min
	case Max:
		if s.Count == 0 {
			return math.NaN()
		}
		return s.Max
	case Count:
		return int(s.Count)
	}
	return nil
}

// FormatValue renders an aggregate result. NaN and nil render as "-".
func FormatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "-"
	case float64:
		if math.IsNaN(n) {
			return "-"
		}
		return formatNumber(n)
	case int:
		return strconv.Itoa(n)
	}
	return rows.String(v)
}

// formatNumber formats a float with up to two decimals, dropping zeros.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Aggregate computes one aggregate of field over rows. Nil and
// non-numeric values are excluded from numeric kinds; count counts non-nil
// values; custom receives the non-nil values. A nil fn or unknown kind
// yields nil.
func Aggregate(rs []rows.Row, field string, kind Kind, fn CustomFunc) any {
	switch kind {
	case Sum, Avg, Min, Max:
		return numericState(rs, field).Value(kind)
	case Count:
		n := 0
		for _, r := range rs {
			if !rows.IsNull(rows.Resolve(r, field)) {
				n++
			}
		}
		return n
	case Custom:
		if fn == nil {
			return nil
		}
		return fn(values(rs, field))
	}
	return nil
}

func numericState(rs []rows.Row, field string) *NumericState {
	s := NewNumericState()
	for _, r := range rs {
		if f, ok := rows.Float(rows.Resolve(r, field)); ok {
			s.Add(f)
		}
	}
	return s
}

func values(rs []rows.Row, field string) []any {
	out := make([]any, 0, len(rs))
	for _, r := range rs {
		if v := rows.Resolve(r, field); !rows.IsNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// Compute evaluates every spec over rows, keyed by field.
func Compute(rs []rows.Row, specs []Spec) map[string]any {
	if len(specs) == 0 {
		return nil
	}
	out := make(map[string]any, len(specs))
	for _, spec := range specs {
		out[spec.Field] = Aggregate(rs, spec.Field, spec.Kind, spec.Fn)
	}
	return out
}

// Accumulator holds the partial state of several specs. Accumulators of
// disjoint row sets merge without revisiting rows, which is how outer
// group levels aggregate the rows of their nested groups.
type Accumulator struct {
	specs  []Spec
	states []*NumericState
	counts []int
}

// NewAccumulator creates an empty accumulator for specs.
func NewAccumulator(specs []Spec) *Accumulator {
	a := &Accumulator{
		specs:  specs,
		states: make([]*NumericState, len(specs)),
		counts: make([]int, len(specs)),
	}
	for i := range specs {
		a.states[i] = NewNumericState()
	}
	return a
}

// AddRows folds rs into the accumulator.
func (a *Accumulator) AddRows(rs []rows.Row) {
	for i, spec := range a.specs {
		for _, r := range rs {
			v := rows.Resolve(r, spec.Field)
			if rows.IsNull(v) {
				continue
			}
			a.counts[i]++
			if f, ok := rows.Float(v); ok {
				a.states[i].Add(f)
			}
		}
	}
}

// Merge folds another accumulator built for the same specs into a.
func (a *Accumulator) Merge(o *Accumulator) {
	if o == nil {
		return
	}
	for i := range a.specs {
		a.states[i].Combine(o.states[i])
		a.counts[i] += o.counts[i]
	}
}

// Values returns the aggregates keyed by field, nil without specs. Custom
// functions need the raw values, so they are evaluated over rs, which must
// be the rows the accumulator has seen.
func (a *Accumulator) Values(rs []rows.Row) map[string]any {
	if len(a.specs) == 0 {
		return nil
	}
	out := make(map[string]any, len(a.specs))
	for i, spec := range a.specs {
		switch spec.Kind {
		case Sum, Avg, Min, Max:
			out[spec.Field] = a.states[i].Value(spec.Kind)
		case Count:
			out[spec.Field] = a.counts[i]
		default:
			out[spec.Field] = Aggregate(rs, spec.Field, spec.Kind, spec.Fn)
		}
	}
	return out
}
