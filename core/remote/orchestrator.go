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
	"log/slog"
	"sync"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/filtering"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/logging"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/views"
	"github.com/sourcegraph/conc"
)

// DefaultPageSize is used when a state or option names no page size.
const DefaultPageSize = 10

// State is the grid state the orchestrator resolves against the source.
type State struct {
	Filters  []filtering.Condition
	Search   filtering.Search
	Sort     []sorting.Config
	Groups   []grouping.Config
	Page     int // 1-based
	PageSize int
}

func (s State) query() Query {
	return Query{Filters: s.Filters, Search: s.Search, Sort: s.Sort}
}

// PageState is the children pagination of one group.
type PageState struct {
	Page     int
	PageSize int
	Total    int
	HasMore  bool
}

// Loaded returns the number of children loaded so far.
func (p PageState) Loaded() int {
	n := p.Page * p.PageSize
	if n > p.Total {
		return p.Total
	}
	return n
}

type childrenEntry struct {
	rows  []rows.Row
	state PageState
}

// Snapshot is the orchestrator's output after a rebuild.
type Snapshot struct {
	// Rows is the visible sequence.
	Rows []grouping.Row
	// Total counts data rows: the page total when ungrouped, the sum of
	// the current top-level groups' counts when grouped.
	Total int
	// Groups is the number of distinct top-level groups when grouped.
	Groups     int
	Page       int
	PageSize   int
	Pending    int
	Generation uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Fetch lifecycle is logged at debug level and
// failures at warn.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(l) }
}

// WithChildPageSize sets how many children a group loads per request.
func WithChildPageSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.childPageSize = n
		}
	}
}

// WithAggregates computes group aggregates over each group's loaded
// children.
func WithAggregates(specs []aggregates.Spec) Option {
	return func(o *Orchestrator) { o.specs = specs }
}

// Orchestrator resolves grid state against a Source. It keeps three cache
// layers (top-level group metadata, nested group metadata, group children)
// plus ungrouped pages, tracks expanded groups, and rebuilds the row
// sequence whenever a response lands.
//
// Public methods never wait for the network: each fetch runs on its own
// goroutine and is represented by a Task. At most one request is in flight
// per cache key, and a response issued under a context that has since been
// replaced is dropped.
type Orchestrator struct {
	source        Source
	logger        *slog.Logger
	childPageSize int
	specs         []aggregates.Spec

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu         sync.Mutex
	state      State
	sig        Signature
	generation uint64
	pages      map[CacheKey]Page
	groupMeta  map[CacheKey]GroupPage
	nested     map[CacheKey]GroupPage
	children   map[CacheKey]*childrenEntry
	expanded   views.KeySet
	pending    map[CacheKey]*Task
	flat       []grouping.Row
	listeners  map[int]func(Snapshot)
	nextID     int
	closed     bool
}

// New creates an orchestrator over source. Call SetState to start loading.
func New(source Source, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		source:        source,
		logger:        logging.Nop(),
		childPageSize: DefaultPageSize,
		ctx:           ctx,
		cancel:        cancel,
		listeners:     make(map[int]func(Snapshot)),
		state:         State{Page: 1, PageSize: DefaultPageSize},
	}
	o.resetLocked()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// resetLocked drops every cache layer, the expanded set and the pending
// set, and starts a new generation.
func (o *Orchestrator) resetLocked() {
	o.pages = make(map[CacheKey]Page)
	o.groupMeta = make(map[CacheKey]GroupPage)
	o.nested = make(map[CacheKey]GroupPage)
	o.children = make(map[CacheKey]*childrenEntry)
	o.expanded = views.NewKeySet()
	o.pending = make(map[CacheKey]*Task)
	o.flat = nil
	o.generation++
}

// OnChange registers fn to receive a snapshot after every rebuild. The
// returned function unregisters it. fn runs outside the orchestrator lock.
func (o *Orchestrator) OnChange(fn func(Snapshot)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
	}
}

// SetState replaces the grid state. When filters, search, sort or groups
// differ from the current state, every cache layer and the expanded set are
// invalidated and the page returns to 1 unless the caller also moved it.
// The returned task loads the top level: a page of rows when ungrouped,
// the top-level group metadata otherwise.
func (o *Orchestrator) SetState(s State) (*Task, error) {
	filters, err := filtering.NormalizeAll(s.Filters)
	if err != nil {
		return nil, err
	}
	s.Filters = filters
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Page < 1 {
		s.Page = 1
	}
	sig, err := NewSignature(s.Filters, s.Search, s.Sort, s.Groups)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: orchestrator closed", ErrFetchFailed)
	}
	if sig != o.sig {
		if s.Page == o.state.Page {
			s.Page = 1
		}
		o.logger.Debug("grid context changed, invalidating caches",
			"generation", o.generation+1, "groups", len(s.Groups), "filters", len(s.Filters))
		o.resetLocked()
		o.sig = sig
	}
	o.state = s
	task := o.loadTopLocked()
	notify := o.rebuildLocked()
	o.mu.Unlock()
	notify()
	return task, nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SetFilters replaces the column filters.
func (o *Orchestrator) SetFilters(filters []filtering.Condition) (*Task, error) {
	s := o.State()
	s.Filters = filters
	return o.SetState(s)
}

// SetSearch replaces the global search.
func (o *Orchestrator) SetSearch(search filtering.Search) (*Task, error) {
	s := o.State()
	s.Search = search
	return o.SetState(s)
}

// SetSort replaces the sort configuration.
func (o *Orchestrator) SetSort(sort []sorting.Config) (*Task, error) {
	s := o.State()
	s.Sort = sort
	return o.SetState(s)
}

// SetGroups replaces the grouping configuration.
func (o *Orchestrator) SetGroups(groups []grouping.Config) (*Task, error) {
	s := o.State()
	s.Groups = groups
	return o.SetState(s)
}

// SetPage moves the top level to another page. Caches stay valid.
func (o *Orchestrator) SetPage(page, pageSize int) (*Task, error) {
	s := o.State()
	s.Page = page
	if pageSize > 0 {
		s.PageSize = pageSize
	}
	return o.SetState(s)
}

// Expand marks a group expanded and loads what it reveals: the next level's
// group metadata when deeper grouping levels exist, the first page of its
// children otherwise. Cached data is reused without a request.
func (o *Orchestrator) Expand(key string) *Task {
	o.mu.Lock()
	task, notify := o.expandLocked(key)
	o.mu.Unlock()
	notify()
	return task
}

func (o *Orchestrator) expandLocked(key string) (*Task, func()) {
	if depth := grouping.KeyDepth(key); depth > len(o.state.Groups) {
		return doneTask(CacheKey{AncestorPath: key}, fmt.Errorf("no group level for key %q", key)), func() {}
	}
	o.expanded.Add(key)
	task := o.loadExpansionLocked(key)
	return task, o.rebuildLocked()
}

// Collapse hides a group's children. Nothing is evicted, so expanding it
// again needs no request.
func (o *Orchestrator) Collapse(key string) {
	o.mu.Lock()
	notify := o.collapseLocked(key)
	o.mu.Unlock()
	notify()
}

func (o *Orchestrator) collapseLocked(key string) func() {
	o.expanded.Remove(key)
	return o.rebuildLocked()
}

// Toggle expands a collapsed group or collapses an expanded one. It
// returns nil when collapsing. Concurrent toggles of one key alternate.
func (o *Orchestrator) Toggle(key string) *Task {
	o.mu.Lock()
	var task *Task
	var notify func()
	if o.expanded.Has(key) {
		notify = o.collapseLocked(key)
	} else {
		task, notify = o.expandLocked(key)
	}
	o.mu.Unlock()
	notify()
	return task
}

// IsExpanded reports whether key is in the expanded set.
func (o *Orchestrator) IsExpanded(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.expanded.Has(key)
}

// LoadMore fetches the next page of a group's children and appends it.
func (o *Orchestrator) LoadMore(key string) *Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	ck := o.childrenKeyLocked(key)
	entry, ok := o.children[ck]
	if !ok || !entry.state.HasMore {
		return doneTask(ck, nil)
	}
	return o.fetchChildrenLocked(key, entry.state.Page+1)
}

// Rows returns the flat sequence built from the caches. Only expanded
// groups contribute children, so it equals the visible sequence.
func (o *Orchestrator) Rows() []grouping.Row {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]grouping.Row(nil), o.flat...)
}

// Visible projects the flat sequence through the expanded set.
func (o *Orchestrator) Visible() []grouping.Row {
	o.mu.Lock()
	defer o.mu.Unlock()
	return views.Project(o.flat, o.expanded)
}

// ChildrenState returns the children pagination of a group.
func (o *Orchestrator) ChildrenState(key string) (PageState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.children[o.childrenKeyLocked(key)]
	if !ok {
		return PageState{}, false
	}
	return entry.state, true
}

// Snapshot returns the current output.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Close cancels in-flight requests and waits for their goroutines.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
	o.wg.Wait()
}

// Wait blocks until no fetch is in flight. Fetches started by responses
// landing meanwhile are waited for too.
func (o *Orchestrator) Wait(ctx context.Context) error {
	for {
		o.mu.Lock()
		var task *Task
		for _, t := range o.pending {
			task = t
			break
		}
		o.mu.Unlock()
		if task == nil {
			return nil
		}
		select {
		case <-task.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Total returns the data-row total: the page total when ungrouped, the sum
// of the current top-level groups' counts when grouped. groups is the
// number of distinct top-level groups, zero when ungrouped.
func (o *Orchestrator) Total() (total, groups int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.snapshotLocked()
	return s.Total, s.Groups
}
