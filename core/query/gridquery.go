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
	"net/url"
	"strconv"
	"strings"

	"github.com/google/safehtml"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/sorting"
)

// GridQuery is the parsed state of a debug grid page URL: the wire
// parameters plus grouping, expansion and page selection.
type GridQuery struct {
	// Base path (e.g., "/grid")
	Path string

	Params    Params
	Expanded  []string // expanded group keys
	ExpandAll bool     // expanded=all
}

// Debug page parameter names.
const (
	ParamGroupBy  = "groupBy"
	ParamExpanded = "expanded"
	ParamPage     = "page"
)

// NewGridQuery creates a GridQuery from a URL.
// groupBy is a comma list of fields, each optionally suffixed with ":desc".
// expanded is a comma list of group keys, or "all".
func NewGridQuery(u *url.URL) (*GridQuery, error) {
	q := u.Query()
	params, err := ParseValues(q)
	if err != nil {
		return nil, err
	}
	state := &GridQuery{
		Path:   u.Path,
		Params: params,
	}

	for _, part := range splitList(q.Get(ParamGroupBy)) {
		cfg := grouping.Config{Field: part, Direction: sorting.Asc}
		if colonIdx := strings.LastIndex(part, ":"); colonIdx != -1 {
			if dir, err := sorting.ParseDirection(part[colonIdx+1:]); err == nil {
				cfg.Field = part[:colonIdx]
				cfg.Direction = dir
			}
		}
		state.Params.Groups = append(state.Params.Groups, cfg)
	}

	expanded := q.Get(ParamExpanded)
	if expanded == "all" {
		state.ExpandAll = true
	} else {
		state.Expanded = splitList(expanded)
	}

	if s := q.Get(ParamPage); s != "" {
		if page, err := strconv.Atoi(s); err == nil {
			state.Params = state.Params.WithPage(page)
		}
	}
	return state, nil
}

// Clone creates a deep copy of the GridQuery
func (s *GridQuery) Clone() *GridQuery {
	c := *s
	c.Params.Groups = append([]grouping.Config(nil), s.Params.Groups...)
	c.Expanded = append([]string(nil), s.Expanded...)
	return &c
}

// ToURL converts the GridQuery back to a URL string
func (s *GridQuery) ToURL() string {
	u := &url.URL{Path: s.Path}
	q := s.Params.Values()
	q.Del(ParamSkip)
	q.Set(ParamPage, strconv.Itoa(s.Params.Page()))

	if len(s.Params.Groups) > 0 {
		parts := make([]string, len(s.Params.Groups))
		for i, g := range s.Params.Groups {
			parts[i] = g.Field
			if g.Direction == sorting.Desc {
				parts[i] += ":desc"
			}
		}
		q.Set(ParamGroupBy, strings.Join(parts, ","))
	}
	if s.ExpandAll {
		q.Set(ParamExpanded, "all")
	} else if len(s.Expanded) > 0 {
		q.Set(ParamExpanded, strings.Join(s.Expanded, ","))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the GridQuery to a safehtml.URL
func (s *GridQuery) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// IsExpanded checks if a group key is expanded
func (s *GridQuery) IsExpanded(key string) bool {
	if s.ExpandAll {
		return true
	}
	for _, k := range s.Expanded {
		if k == key {
			return true
		}
	}
	return false
}

// WithExpandedToggled returns a URL with the group key toggled. Collapsing
// a key under expanded=all is not representable and leaves the URL as is.
func (s *GridQuery) WithExpandedToggled(key string) safehtml.URL {
	newState := s.Clone()
	if s.ExpandAll {
		return newState.ToSafeURL()
	}
	kept := make([]string, 0, len(s.Expanded))
	found := false
	for _, k := range s.Expanded {
		if k == key {
			found = true
			continue
		}
		kept = append(kept, k)
	}
	if !found {
		kept = append(kept, key)
	}
	newState.Expanded = kept
	return newState.ToSafeURL()
}

// WithPage returns a URL for the given page
func (s *GridQuery) WithPage(page int) safehtml.URL {
	newState := s.Clone()
	newState.Params = newState.Params.WithPage(page)
	return newState.ToSafeURL()
}
