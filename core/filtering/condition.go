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
	"fmt"

	"github.com/google/tabula/core/rows"
	"github.com/hashicorp/go-multierror"
)

// Condition is one filter on one field. Value2 is the upper bound of
// Between.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
	Value2   any      `json:"value2,omitempty"`
}

func (c Condition) String() string {
	if !c.Operator.UsesValue() {
		return fmt.Sprintf("%s %s", c.Field, c.Operator)
	}
	if c.Operator == Between {
		return fmt.Sprintf("%s between %v and %v", c.Field, c.Value, c.Value2)
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
}

// Normalize returns the condition with its operator in canonical form.
func (c Condition) Normalize() (Condition, error) {
	op, err := ParseOperator(string(c.Operator))
	if err != nil {
		return c, err
	}
	c.Operator = op
	return c, nil
}

// Validate checks every condition and reports all problems at once.
func Validate(conds []Condition) error {
	var result *multierror.Error
	for i, c := range conds {
		if err := validateCondition(c); err != nil {
			result = multierror.Append(result, fmt.Errorf("filter %d (%s): %w", i, c.Field, err))
		}
	}
	return result.ErrorOrNil()
}

func validateCondition(c Condition) error {
	op, err := ParseOperator(string(c.Operator))
	if err != nil {
		return err
	}
	if c.Field == "" {
		return fmt.Errorf("missing field")
	}
	switch op {
	case Between:
		if rows.IsNull(c.Value) || rows.IsNull(c.Value2) {
			return fmt.Errorf("between requires value and value2")
		}
	case In, NotIn:
		if _, ok := rows.Sequence(c.Value); !ok {
			return fmt.Errorf("%s requires a list value", op)
		}
	}
	return nil
}

// NormalizeAll validates conds and returns them with canonical operators.
func NormalizeAll(conds []Condition) ([]Condition, error) {
	if err := Validate(conds); err != nil {
		return nil, err
	}
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i], _ = c.Normalize()
	}
	return out, nil
}
