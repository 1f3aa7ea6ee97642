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
	"testing"

	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/sorting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureIsDeterministic(t *testing.T) {
	filters := func() []filtering.Condition {
		return []filtering.Condition{
			{Field: "price", Operator: filtering.Between, Value: 10.0, Value2: 20.0},
			{Field: "tags", Operator: filtering.In, Value: []any{"a", "b"}},
		}
	}
	sort := []sorting.Config{{Field: "price", Direction: sorting.Desc}}
	groups := []grouping.Config{{Field: "category"}}
	search := filtering.Search{Term: "phone", Fields: []string{"title"}}

	a, err := NewSignature(filters(), search, sort, groups)
	require.NoError(t, err)
	b, err := NewSignature(filters(), search, sort, groups)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, a.Key(KindChildren, "", "x|y", 0, 10), b.Key(KindChildren, "", "x|y", 0, 10))

	changed := filters()
	changed[0].Value2 = 25.0
	c, err := NewSignature(changed, search, sort, groups)
	require.NoError(t, err)
	assert.NotEqual(t, a.FiltersHash, c.FiltersHash)
	assert.Equal(t, a.SortHash, c.SortHash)

	d, err := NewSignature(filters(), filtering.Search{Term: "phone"}, sort, groups)
	require.NoError(t, err)
	assert.NotEqual(t, a, d)

	e, err := NewSignature(filters(), search, sort, []grouping.Config{{Field: "brand"}})
	require.NoError(t, err)
	assert.NotEqual(t, a.GroupsHash, e.GroupsHash)
}

func TestSignatureIgnoresInactiveSort(t *testing.T) {
	a, err := NewSignature(nil, filtering.Search{}, nil, nil)
	require.NoError(t, err)
	b, err := NewSignature(nil, filtering.Search{}, []sorting.Config{{Field: "price", Direction: sorting.None}}, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCacheKeyDistinguishesLayers(t *testing.T) {
	sig, err := NewSignature(nil, filtering.Search{}, nil, nil)
	require.NoError(t, err)

	keys := map[CacheKey]bool{
		sig.Key(KindPage, "", "", 1, 10):           true,
		sig.Key(KindGroups, "category", "", 1, 10): true,
		sig.Key(KindNested, "brand", "a", 0, 0):    true,
		sig.Key(KindChildren, "", "a", 0, 10):      true,
		sig.Key(KindChildren, "", "a", 2, 10):      true,
		sig.Key(KindChildren, "", "b", 0, 10):      true,
	}
	assert.Len(t, keys, 6)
	assert.Contains(t, sig.Key(KindNested, "brand", "a", 0, 0).String(), "nested(brand")
}
