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

// Package filtering evaluates filter conditions and global search terms
// against rows.
package filtering

import (
	"errors"
	"fmt"
	"strings"
)

// Operator is a filter operator. The canonical names are the camelCase
// constants below.
type Operator string

const (
	Equals             Operator = "equals"
	NotEquals          Operator = "notEquals"
	Contains           Operator = "contains"
	NotContains        Operator = "notContains"
	StartsWith         Operator = "startsWith"
	EndsWith           Operator = "endsWith"
	GreaterThan        Operator = "greaterThan"
	GreaterThanOrEqual Operator = "greaterThanOrEqual"
	LessThan           Operator = "lessThan"
	LessThanOrEqual    Operator = "lessThanOrEqual"
	Between            Operator = "between"
	In                 Operator = "in"
	NotIn              Operator = "notIn"
	IsNull             Operator = "isNull"
	IsNotNull          Operator = "isNotNull"
)

// Operators lists every supported operator.
var Operators = []Operator{
	Equals, NotEquals, Contains, NotContains, StartsWith, EndsWith,
	GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual,
	Between, In, NotIn, IsNull, IsNotNull,
}

// ErrInvalidOperator is returned for operators outside Operators.
var ErrInvalidOperator = errors.New("invalid filter operator")

// InvalidOperatorError carries the rejected operator.
type InvalidOperatorError struct {
	Operator string
}

func (e *InvalidOperatorError) Error() string {
	return fmt.Sprintf("%v: %q", ErrInvalidOperator, e.Operator)
}

func (e *InvalidOperatorError) Unwrap() error {
	return ErrInvalidOperator
}

// operatorsByName indexes operators by their normalized name, plus the
// singular spellings older clients send.
var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(Operators)+4)
	for _, op := range Operators {
		m[normalize(string(op))] = op
	}
	m["notequal"] = NotEquals
	m["notcontain"] = NotContains
	m["startwith"] = StartsWith
	m["endwith"] = EndsWith
	return m
}()

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// ParseOperator resolves an operator name, ignoring case and whitespace.
func ParseOperator(s string) (Operator, error) {
	if op, ok := operatorsByName[normalize(s)]; ok {
		return op, nil
	}
	return "", &InvalidOperatorError{Operator: s}
}

// Valid reports whether op is a canonical operator.
func (op Operator) Valid() bool {
	_, err := ParseOperator(string(op))
	return err == nil
}

// UsesValue reports whether the operator reads the condition value.
func (op Operator) UsesValue() bool {
	return op != IsNull && op != IsNotNull
}
