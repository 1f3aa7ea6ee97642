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

package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/remote"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
)

type dataResponse struct {
	Content []rows.Row `json:"content"`
	Total   int        `json:"total"`
	Skip    int        `json:"skip"`
	Limit   int        `json:"limit"`
	HasMore bool       `json:"hasMore"`
}

type childrenResponse struct {
	Content []rows.Row `json:"content"`
	Total   int        `json:"total"`
	Skip    int        `json:"skip"`
	Limit   int        `json:"limit"`
}

type wireGroup struct {
	Value any    `json:"value"`
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type groupsResponse struct {
	Groups []wireGroup `json:"groups"`
	Total  int         `json:"total"`
	Skip   int         `json:"skip"`
	Limit  int         `json:"limit"`
}

type nestedResponse struct {
	Groups          []wireGroup `json:"groups"`
	Total           int         `json:"total"`
	ChildGroupField string      `json:"childGroupField"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Legacy single-parent form of parentFilters on nested-groups.
const (
	paramParentGroupField = "parentGroupField"
	paramParentGroupValue = "parentGroupValue"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// parse decodes the shared parameters, answering 400 on failure.
func (s *Server) parse(w http.ResponseWriter, r *http.Request) (query.Params, bool) {
	p, err := query.ParseValues(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return p, false
	}
	return p, true
}

func remoteQuery(p query.Params) remote.Query {
	return remote.Query{Filters: p.Filters, Search: p.Search, Sort: p.Sort}
}

// wireGroups encodes metadata with the key string as value, null for the
// null group.
func wireGroups(groups []remote.GroupMeta) []wireGroup {
	out := make([]wireGroup, len(groups))
	for i, g := range groups {
		out[i] = wireGroup{Key: g.Key, Count: g.Count}
		if g.Key != rows.NullKey {
			out[i].Value = g.Key
		}
	}
	return out
}

// groupDirection orders the metadata of field. The first sort entry wins
// when it targets field; with anyEntry set, any sort entry for field does.
// Otherwise the explicit groupDirection parameter applies, ascending by
// default.
func groupDirection(sort []sorting.Config, field, param string, anyEntry bool) sorting.Direction {
	for i, c := range sorting.Active(sort) {
		if i > 0 && !anyEntry {
			break
		}
		if c.Field == field {
			return c.Direction
		}
	}
	if d, err := sorting.ParseDirection(param); err == nil && d == sorting.Desc {
		return sorting.Desc
	}
	return sorting.Asc
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	page, err := s.backend.FetchPage(r.Context(), remote.PageRequest{Query: remoteQuery(p), Skip: p.Skip, Take: p.Take})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, dataResponse{
		Content: nonNil(page.Rows),
		Total:   page.Total,
		Skip:    p.Skip,
		Limit:   p.Take,
		HasMore: p.Skip+p.Take < page.Total,
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	v := r.URL.Query()
	field := v.Get(query.ParamGroupField)
	if field == "" {
		s.writeError(w, http.StatusBadRequest, "groupField parameter is required")
		return
	}
	gp, err := s.backend.FetchGroups(r.Context(), remote.GroupRequest{
		Query:     remoteQuery(p),
		Field:     field,
		Direction: groupDirection(p.Sort, field, v.Get(query.ParamGroupDirection), false),
		Skip:      p.Skip,
		Take:      p.Take,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, groupsResponse{
		Groups: wireGroups(gp.Groups),
		Total:  gp.Total,
		Skip:   p.Skip,
		Limit:  p.Take,
	})
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	v := r.URL.Query()
	field := v.Get(query.ParamGroupField)
	if field == "" || !v.Has(query.ParamGroupValue) {
		s.writeError(w, http.StatusBadRequest, "groupField and groupValue parameters are required")
		return
	}
	ancestors, err := query.ParseAncestors(v.Get(query.ParamParentFilters))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ancestors = append(ancestors, grouping.Ancestor{
		Field: field,
		Value: query.NullableValue(v.Get(query.ParamGroupValue)),
	})
	page, err := s.backend.FetchChildren(r.Context(), remote.ChildrenRequest{
		Query:     remoteQuery(p),
		Ancestors: ancestors,
		Skip:      p.Skip,
		Take:      p.Take,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, childrenResponse{
		Content: nonNil(page.Rows),
		Total:   page.Total,
		Skip:    p.Skip,
		Limit:   p.Take,
	})
}

func (s *Server) handleNestedGroups(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parse(w, r)
	if !ok {
		return
	}
	v := r.URL.Query()
	ancestors, err := query.ParseAncestors(v.Get(query.ParamParentFilters))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(ancestors) == 0 && v.Get(paramParentGroupField) != "" && v.Has(paramParentGroupValue) {
		ancestors = []grouping.Ancestor{{
			Field: v.Get(paramParentGroupField),
			Value: query.NullableValue(v.Get(paramParentGroupValue)),
		}}
	}
	child := v.Get(query.ParamChildField)
	if child == "" || len(ancestors) == 0 {
		s.writeError(w, http.StatusBadRequest, "childGroupField and at least one parent filter are required")
		return
	}
	gp, err := s.backend.FetchNestedGroups(r.Context(), remote.NestedGroupRequest{
		Query:     remoteQuery(p),
		Ancestors: ancestors,
		Field:     child,
		Direction: groupDirection(p.Sort, child, v.Get(query.ParamGroupDirection), true),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, nestedResponse{
		Groups:          wireGroups(gp.Groups),
		Total:           gp.Total,
		ChildGroupField: child,
	})
}

// nonNil keeps empty pages encoded as [] rather than null.
func nonNil(rs []rows.Row) []rows.Row {
	if rs == nil {
		return []rows.Row{}
	}
	return rs
}
