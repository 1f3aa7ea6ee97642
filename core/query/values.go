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
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
)

// Wire parameter names shared by the backend API and its client.
const (
	ParamSkip          = "skip"
	ParamLimit         = "limit"
	ParamSortBy        = "sortBy"
	ParamFilters       = "filters"
	ParamSearch        = "search"
	ParamSearchFields  = "searchFields"
	ParamGroupField    = "groupField"
	ParamGroupValue    = "groupValue"
	ParamParentFilters = "parentFilters"
	ParamChildField    = "childGroupField"
	// ParamGroupDirection orders group metadata when no sort entry
	// targets the group field.
	ParamGroupDirection = "groupDirection"
)

type wireSort struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type wireAncestor struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// ParseValues decodes the paging, sort, filter and search parameters of a
// request. A missing or non-positive limit becomes DefaultLimit. Filter
// operators are validated and normalized; an unknown operator is an error.
func ParseValues(v url.Values) (Params, error) {
	p := Params{Take: DefaultLimit}

	if s := v.Get(ParamSkip); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Skip = n
		}
	}
	if s := v.Get(ParamLimit); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Take = n
		}
	}

	if s := v.Get(ParamSortBy); s != "" {
		var raw []wireSort
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return p, fmt.Errorf("parse %s: %w", ParamSortBy, err)
		}
		for _, r := range raw {
			dir, err := sorting.ParseDirection(r.Direction)
			if err != nil {
				return p, fmt.Errorf("parse %s: %w", ParamSortBy, err)
			}
			p.Sort = append(p.Sort, sorting.Config{Field: r.Field, Direction: dir})
		}
	}

	if s := v.Get(ParamFilters); s != "" {
		var conds []filtering.Condition
		if err := json.Unmarshal([]byte(s), &conds); err != nil {
			return p, fmt.Errorf("parse %s: %w", ParamFilters, err)
		}
		normalized, err := filtering.NormalizeAll(conds)
		if err != nil {
			return p, err
		}
		p.Filters = normalized
	}

	p.Search.Term = v.Get(ParamSearch)
	if s := v.Get(ParamSearchFields); s != "" {
		if err := json.Unmarshal([]byte(s), &p.Search.Fields); err != nil {
			return p, fmt.Errorf("parse %s: %w", ParamSearchFields, err)
		}
	}
	return p, nil
}

// Values encodes p in the wire form ParseValues reads. Groups are not part
// of the wire form.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set(ParamSkip, strconv.Itoa(p.Skip))
	if p.Take > 0 {
		v.Set(ParamLimit, strconv.Itoa(p.Take))
	}
	if active := sorting.Active(p.Sort); len(active) > 0 {
		raw := make([]wireSort, len(active))
		for i, s := range active {
			raw[i] = wireSort{Field: s.Field, Direction: string(s.Direction)}
		}
		v.Set(ParamSortBy, mustJSON(raw))
	}
	if len(p.Filters) > 0 {
		v.Set(ParamFilters, mustJSON(p.Filters))
	}
	if p.Search.Active() {
		v.Set(ParamSearch, p.Search.Term)
		if len(p.Search.Fields) > 0 {
			v.Set(ParamSearchFields, mustJSON(p.Search.Fields))
		}
	}
	return v
}

// ParseAncestors decodes a parentFilters parameter. A value of "(null)"
// stands for null; "" is the empty string.
func ParseAncestors(s string) ([]grouping.Ancestor, error) {
	if s == "" {
		return nil, nil
	}
	var raw []wireAncestor
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ParamParentFilters, err)
	}
	out := make([]grouping.Ancestor, len(raw))
	for i, r := range raw {
		out[i] = grouping.Ancestor{Field: r.Field, Value: NullableValue(r.Value)}
	}
	return out, nil
}

// EncodeAncestors encodes ancestors as a parentFilters parameter, writing
// null values as "(null)".
func EncodeAncestors(ancestors []grouping.Ancestor) string {
	raw := make([]wireAncestor, len(ancestors))
	for i, a := range ancestors {
		raw[i] = wireAncestor{Field: a.Field, Value: grouping.KeyPart(a.Value)}
	}
	return mustJSON(raw)
}

// NullableValue maps the wire spelling of null to nil.
func NullableValue(v any) any {
	if s, ok := v.(string); ok && s == rows.NullKey {
		return nil
	}
	return v
}

// AncestorConditions turns ancestor constraints into equality filters.
func AncestorConditions(ancestors []grouping.Ancestor) []filtering.Condition {
	out := make([]filtering.Condition, len(ancestors))
	for i, a := range ancestors {
		out[i] = filtering.Condition{Field: a.Field, Operator: filtering.Equals, Value: a.Value}
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// splitList splits a comma separated parameter, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
