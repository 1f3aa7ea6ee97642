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
	"context"
	"fmt"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/grouping"
)

type fetchFunc func(ctx context.Context) (apply func(), err error)

func (o *Orchestrator) topKeyLocked() CacheKey {
	if len(o.state.Groups) == 0 {
		return o.sig.Key(KindPage, "", "", o.state.Page, o.state.PageSize)
	}
	return o.sig.Key(KindGroups, o.state.Groups[0].Field, "", o.state.Page, o.state.PageSize)
}

// nestedKeyLocked addresses the metadata of the level below the group key.
func (o *Orchestrator) nestedKeyLocked(key string) CacheKey {
	depth := grouping.KeyDepth(key)
	return o.sig.Key(KindNested, o.state.Groups[depth].Field, key, 0, 0)
}

// childrenKeyLocked addresses the accumulated children of a group. Pages
// are merged into one entry, so the cache key carries page 0; in-flight
// requests are keyed per page.
func (o *Orchestrator) childrenKeyLocked(key string) CacheKey {
	return o.sig.Key(KindChildren, "", key, 0, o.childPageSize)
}

func (o *Orchestrator) loadTopLocked() *Task {
	key := o.topKeyLocked()
	q := o.state.query()
	skip := (o.state.Page - 1) * o.state.PageSize
	take := o.state.PageSize

	if len(o.state.Groups) == 0 {
		if _, ok := o.pages[key]; ok {
			return doneTask(key, nil)
		}
		return o.launchLocked(key, func(ctx context.Context) (func(), error) {
			page, err := o.source.FetchPage(ctx, PageRequest{Query: q, Skip: skip, Take: take})
			if err != nil {
				return nil, err
			}
			return func() { o.pages[key] = page }, nil
		})
	}

	if _, ok := o.groupMeta[key]; ok {
		return doneTask(key, nil)
	}
	top := o.state.Groups[0]
	return o.launchLocked(key, func(ctx context.Context) (func(), error) {
		gp, err := o.source.FetchGroups(ctx, GroupRequest{
			Query:     q,
			Field:     top.Field,
			Direction: top.Direction,
			Skip:      skip,
			Take:      take,
		})
		if err != nil {
			return nil, err
		}
		return func() { o.groupMeta[key] = gp }, nil
	})
}

// loadExpansionLocked loads what an expanded group reveals, unless cached.
func (o *Orchestrator) loadExpansionLocked(key string) *Task {
	depth := grouping.KeyDepth(key)
	if depth < len(o.state.Groups) {
		nk := o.nestedKeyLocked(key)
		if _, ok := o.nested[nk]; ok {
			return doneTask(nk, nil)
		}
		req := NestedGroupRequest{
			Query:     o.state.query(),
			Ancestors: grouping.Ancestors(key, o.state.Groups),
			Field:     o.state.Groups[depth].Field,
			Direction: o.state.Groups[depth].Direction,
		}
		return o.launchLocked(nk, func(ctx context.Context) (func(), error) {
			gp, err := o.source.FetchNestedGroups(ctx, req)
			if err != nil {
				return nil, err
			}
			return func() { o.nested[nk] = gp }, nil
		})
	}
	ck := o.childrenKeyLocked(key)
	if _, ok := o.children[ck]; ok {
		return doneTask(ck, nil)
	}
	return o.fetchChildrenLocked(key, 1)
}

// fetchChildrenLocked requests page n (1-based) of a group's children.
// Page 1 replaces the entry; later pages are appended only when they
// directly follow the pages already merged.
func (o *Orchestrator) fetchChildrenLocked(key string, page int) *Task {
	ck := o.childrenKeyLocked(key)
	pk := ck
	pk.Page = page
	size := o.childPageSize
	req := ChildrenRequest{
		Query:     o.state.query(),
		Ancestors: grouping.Ancestors(key, o.state.Groups),
		Skip:      (page - 1) * size,
		Take:      size,
	}
	return o.launchLocked(pk, func(ctx context.Context) (func(), error) {
		res, err := o.source.FetchChildren(ctx, req)
		if err != nil {
			return nil, err
		}
		return func() {
			state := PageState{Page: page, PageSize: size, Total: res.Total, HasMore: page*size < res.Total}
			entry, ok := o.children[ck]
			switch {
			case page == 1:
				o.children[ck] = &childrenEntry{rows: res.Rows, state: state}
			case ok && entry.state.Page+1 == page:
				entry.rows = append(entry.rows, res.Rows...)
				entry.state = state
			default:
				o.logger.Debug("children page out of sequence, dropped", "key", pk)
			}
		}, nil
	})
}

// launchLocked starts fetch on its own goroutine unless a request for key
// is already in flight, in which case that request's task is returned.
func (o *Orchestrator) launchLocked(key CacheKey, fetch fetchFunc) *Task {
	if t, ok := o.pending[key]; ok {
		return t
	}
	if o.closed {
		return doneTask(key, fmt.Errorf("%w: %s: orchestrator closed", ErrFetchFailed, key))
	}
	t := newTask(key)
	o.pending[key] = t
	gen := o.generation
	o.logger.Debug("fetch started", "key", key, "generation", gen)
	o.wg.Go(func() {
		apply, err := fetch(o.ctx)
		o.complete(t, gen, apply, err)
	})
	return t
}

func (o *Orchestrator) complete(t *Task, gen uint64, apply func(), err error) {
	o.mu.Lock()
	if o.pending[t.key] == t {
		delete(o.pending, t.key)
	}
	if gen != o.generation {
		o.mu.Unlock()
		o.logger.Debug("stale response discarded", "key", t.key, "generation", gen)
		t.finish(ErrStale)
		return
	}
	if err != nil {
		o.mu.Unlock()
		err = fmt.Errorf("%w: %s: %w", ErrFetchFailed, t.key, err)
		o.logger.Warn("fetch failed", "key", t.key, "error", err)
		t.finish(err)
		return
	}
	apply()
	notify := o.rebuildLocked()
	o.mu.Unlock()
	o.logger.Debug("fetch applied", "key", t.key)
	notify()
	t.finish(nil)
}

// rebuildLocked regenerates the flat sequence from the caches and returns
// a function that notifies listeners, to be called without the lock.
func (o *Orchestrator) rebuildLocked() func() {
	if len(o.state.Groups) == 0 {
		o.flat = nil
		if page, ok := o.pages[o.topKeyLocked()]; ok {
			o.flat = make([]grouping.Row, len(page.Rows))
			for i, r := range page.Rows {
				o.flat[i] = grouping.Data{Row: r, Level: 0}
			}
		}
	} else {
		o.flat = o.flat[:0:0]
		if gp, ok := o.groupMeta[o.topKeyLocked()]; ok {
			o.flat = o.appendGroupsLocked(o.flat, gp.Groups, 0, "")
		}
	}

	if len(o.listeners) == 0 {
		return func() {}
	}
	snap := o.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// appendGroupsLocked emits each group header and, for expanded groups, the
// loaded contents below it.
func (o *Orchestrator) appendGroupsLocked(out []grouping.Row, metas []GroupMeta, level int, parentKey string) []grouping.Row {
	cfg := o.state.Groups[level]
	for _, m := range metas {
		node := &grouping.Node{
			Level:      level,
			Field:      cfg.Field,
			Value:      m.Value,
			Key:        grouping.NodeKey(parentKey, level, m.Key),
			ParentKey:  parentKey,
			Count:      m.Count,
			Aggregates: map[string]any{},
		}
		node.Expanded = o.expanded.Has(node.Key)
		leaf := level+1 == len(o.state.Groups)
		var entry *childrenEntry
		if leaf {
			entry = o.children[o.childrenKeyLocked(node.Key)]
			if entry != nil {
				if agg := aggregates.Compute(entry.rows, o.specs); agg != nil {
					node.Aggregates = agg
				}
			}
		}
		out = append(out, node)
		if !node.Expanded {
			continue
		}
		if !leaf {
			if gp, ok := o.nested[o.nestedKeyLocked(node.Key)]; ok {
				out = o.appendGroupsLocked(out, gp.Groups, level+1, node.Key)
			}
			continue
		}
		if entry == nil {
			continue
		}
		for _, r := range entry.rows {
			out = append(out, grouping.Data{Row: r, Level: level + 1})
		}
		if entry.state.HasMore {
			out = append(out, grouping.LoadMore{
				GroupKey:   node.Key,
				GroupField: node.Field,
				GroupValue: node.Value,
				ParentKey:  parentKey,
				Level:      level + 1,
				Loaded:     entry.state.Loaded(),
				Total:      entry.state.Total,
			})
		}
	}
	return out
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		Rows:       append([]grouping.Row(nil), o.flat...),
		Page:       o.state.Page,
		PageSize:   o.state.PageSize,
		Pending:    len(o.pending),
		Generation: o.generation,
	}
	if len(o.state.Groups) == 0 {
		if page, ok := o.pages[o.topKeyLocked()]; ok {
			s.Total = page.Total
		}
		return s
	}
	if gp, ok := o.groupMeta[o.topKeyLocked()]; ok {
		s.Groups = gp.Total
		for _, g := range gp.Groups {
			s.Total += g.Count
		}
	}
	return s
}
