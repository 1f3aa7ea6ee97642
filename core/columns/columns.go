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

// Package columns describes grid columns and the natural ordering of
// column values.
package columns

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/rows"
)

// Type is the semantic type of a column.
type Type int

const (
	TypeString Type = iota
	TypeNumber
	TypeDate
	TypeBoolean
	TypeCustom
)

// String returns the string representation of the column type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeBoolean:
		return "boolean"
	case TypeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseType parses a column type name. The empty string is TypeString.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return TypeString, nil
	case "number":
		return TypeNumber, nil
	case "date":
		return TypeDate, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "custom":
		return TypeCustom, nil
	}
	return TypeString, fmt.Errorf("unknown column type %q", s)
}

// Comparator orders two field values: negative, zero or positive.
type Comparator func(a, b any) int

// Formatter renders a field value for display.
type Formatter func(v any) string

// Parser converts user input into a field value.
type Parser func(s string) (any, error)

// ColumnDef declares one grid column. Field may be a dot path into nested
// records.
type ColumnDef struct {
	Field      string
	Header     string
	Type       Type
	Sortable   bool
	Filterable bool
	Groupable  bool

	Aggregate   aggregates.Kind
	AggregateFn aggregates.CustomFunc

	// Comparator, when set, replaces natural ordering for this field.
	Comparator Comparator
	Formatter  Formatter
	Parser     Parser
}

// NewColumnDef creates a sortable, filterable and groupable column.
func NewColumnDef(field, header string, typ Type) *ColumnDef {
	if header == "" {
		header = field
	}
	return &ColumnDef{
		Field:      field,
		Header:     header,
		Type:       typ,
		Sortable:   true,
		Filterable: true,
		Groupable:  true,
	}
}

// Format renders v with the column's formatter, or its canonical string.
func (d *ColumnDef) Format(v any) string {
	if d != nil && d.Formatter != nil {
		return d.Formatter(v)
	}
	if rows.IsNull(v) {
		return ""
	}
	return rows.String(v)
}

// Parse converts s into a value of the column's type.
func (d *ColumnDef) Parse(s string) (any, error) {
	if d != nil && d.Parser != nil {
		return d.Parser(s)
	}
	typ := TypeString
	if d != nil {
		typ = d.Type
	}
	switch typ {
	case TypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("parse number %q: %w", s, err)
		}
		return f, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("parse boolean %q: %w", s, err)
		}
		return b, nil
	case TypeDate:
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", s, err)
		}
		return ts, nil
	}
	return s, nil
}

// Set is an ordered collection of column definitions indexed by field.
// A nil *Set is valid and empty.
type Set struct {
	defs    []*ColumnDef
	byField map[string]*ColumnDef
}

// NewSet creates a Set. Later definitions of a field replace earlier ones.
func NewSet(defs ...*ColumnDef) *Set {
	s := &Set{byField: make(map[string]*ColumnDef)}
	for _, d := range defs {
		s.Add(d)
	}
	return s
}

// Add appends or replaces a definition.
func (s *Set) Add(d *ColumnDef) {
	if d == nil {
		return
	}
	if _, ok := s.byField[d.Field]; ok {
		for i, existing := range s.defs {
			if existing.Field == d.Field {
				s.defs[i] = d
			}
		}
	} else {
		s.defs = append(s.defs, d)
	}
	s.byField[d.Field] = d
}

// Get returns the definition for field, or nil.
func (s *Set) Get(field string) *ColumnDef {
	if s == nil {
		return nil
	}
	return s.byField[field]
}

// All returns the definitions in declaration order.
func (s *Set) All() []*ColumnDef {
	if s == nil {
		return nil
	}
	return s.defs
}

// Fields returns the declared field paths in order.
func (s *Set) Fields() []string {
	if s == nil {
		return nil
	}
	fields := make([]string, len(s.defs))
	for i, d := range s.defs {
		fields[i] = d.Field
	}
	return fields
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.defs)
}

// AggregateSpecs returns one spec per column that declares an aggregate.
func (s *Set) AggregateSpecs() []aggregates.Spec {
	var specs []aggregates.Spec
	for _, d := range s.All() {
		if d.Aggregate == aggregates.None {
			continue
		}
		specs = append(specs, aggregates.Spec{Field: d.Field, Kind: d.Aggregate, Fn: d.AggregateFn})
	}
	return specs
}
