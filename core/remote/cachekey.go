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

package remote

import (
	"fmt"

	"github.com/gohugoio/hashstructure"
	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/sorting"
)

// Kind distinguishes the cache layers.
type Kind uint8

const (
	KindPage Kind = iota
	KindGroups
	KindNested
	KindChildren
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindGroups:
		return "groups"
	case KindNested:
		return "nested"
	case KindChildren:
		return "children"
	}
	return "unknown"
}

// CacheKey addresses one cached remote result. Filters and sort are held as
// structural hashes, so equal predicates always produce equal keys whatever
// their encoding.
type CacheKey struct {
	Kind         Kind
	Field        string
	FiltersHash  uint64
	Search       string
	SortHash     uint64
	AncestorPath string
	Page         int
	PageSize     int
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s(%s f=%x q=%q s=%x path=%q page=%d/%d)",
		k.Kind, k.Field, k.FiltersHash, k.Search, k.SortHash, k.AncestorPath, k.Page, k.PageSize)
}

// Signature identifies the context cached results are valid for. Any change
// invalidates every cache layer.
type Signature struct {
	FiltersHash uint64
	Search      string
	SortHash    uint64
	GroupsHash  uint64
}

type filterContext struct {
	Filters      []filtering.Condition
	SearchFields []string
}

// NewSignature hashes the predicate, ordering and grouping of a state.
func NewSignature(filters []filtering.Condition, search filtering.Search, sort []sorting.Config, groups []grouping.Config) (Signature, error) {
	fh, err := hashstructure.Hash(filterContext{Filters: filters, SearchFields: search.Fields}, nil)
	if err != nil {
		return Signature{}, fmt.Errorf("hash filters: %w", err)
	}
	sh, err := hashstructure.Hash(sorting.Active(sort), nil)
	if err != nil {
		return Signature{}, fmt.Errorf("hash sort: %w", err)
	}
	gh, err := hashstructure.Hash(groups, nil)
	if err != nil {
		return Signature{}, fmt.Errorf("hash groups: %w", err)
	}
	return Signature{
		FiltersHash: fh,
		Search:      search.Term,
		SortHash:    sh,
		GroupsHash:  gh,
	}, nil
}

// Key derives a cache key for a result under this signature.
func (s Signature) Key(kind Kind, field, ancestorPath string, page, pageSize int) CacheKey {
	return CacheKey{
		Kind:         kind,
		Field:        field,
		FiltersHash:  s.FiltersHash,
		Search:       s.Search,
		SortHash:     s.SortHash,
		AncestorPath: ancestorPath,
		Page:         page,
		PageSize:     pageSize,
	}
}
