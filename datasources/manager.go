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

package datasources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/logging"
	"github.com/google/tabula/core/rows"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnknownSource is returned for a source name not in the config.
	ErrUnknownSource = errors.New("unknown source")
	// ErrNoLoader is returned when no loader handles a source's type.
	ErrNoLoader = errors.New("no loader registered")
)

// Manager handles loading and caching of data sources.
// Source metadata and column definitions are registered eagerly; data is
// loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	// Source metadata indexed by name, and the definition order.
	sources map[string]*SourceConfig
	order   []string

	// Configured column definitions indexed by source name.
	columns map[string]*columns.Set

	// Cached rows indexed by source name - populated lazily
	data map[string][]rows.Row

	// Registered loaders indexed by source type
	loaders map[string]Loader

	// Base directory for resolving relative paths
	baseDir string

	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used to report loads.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// WithLoaders registers loaders at construction.
func WithLoaders(loaders ...Loader) ManagerOption {
	return func(m *Manager) {
		for _, l := range loaders {
			m.loaders[l.SourceType()] = l
		}
	}
}

// NewManager creates a new data source manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sources: make(map[string]*SourceConfig),
		columns: make(map[string]*columns.Set),
		data:    make(map[string][]rows.Row),
		loaders: make(map[string]Loader),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterLoader registers a loader for its source type, replacing any
// loader already registered for that type.
func (m *Manager) RegisterLoader(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// LoadConfig reads a YAML config file and registers its sources. Relative
// paths resolve against the file's directory.
func (m *Manager) LoadConfig(configPath string) error {
	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	m.SetBaseDir(filepath.Dir(configPath))
	return m.ApplyConfig(cfg)
}

// ApplyConfig registers the sources and column definitions of cfg.
func (m *Manager) ApplyConfig(cfg *Config) error {
	sets := make(map[string]*columns.Set, len(cfg.Columns))
	for name, cols := range cfg.Columns {
		s, err := columnSet(cols)
		if err != nil {
			return fmt.Errorf("columns of %q: %w", name, err)
		}
		sets[name] = s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, src := range cfg.Sources {
		m.addSourceLocked(src)
	}
	for name, s := range sets {
		m.columns[name] = s
	}
	return nil
}

// SetBaseDir sets the base directory for resolving relative paths in config.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// AddSource adds a source to the manager.
func (m *Manager) AddSource(src *SourceConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addSourceLocked(src)
}

func (m *Manager) addSourceLocked(src *SourceConfig) {
	if _, ok := m.sources[src.Name]; !ok {
		m.order = append(m.order, src.Name)
	}
	m.sources[src.Name] = src
	delete(m.data, src.Name)
}

// SetColumns sets the column definitions of a source.
func (m *Manager) SetColumns(name string, defs *columns.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columns[name] = defs
}

// SourceNames returns all registered source names in definition order.
func (m *Manager) SourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Source returns the source metadata for a given name, nil if unknown.
func (m *Manager) Source(name string) *SourceConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sources[name]
}

// Columns returns the column definitions of a source: the configured ones,
// or ones inferred from its rows once loaded. It is nil for a source that
// has neither.
func (m *Manager) Columns(name string) *columns.Set {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.columns[name]; ok {
		return s
	}
	if rs, ok := m.data[name]; ok {
		return columns.Infer(rs)
	}
	return nil
}

// LoadData loads the rows of a source by name.
// Returns cached data if already loaded; otherwise loads from the source.
func (m *Manager) LoadData(ctx context.Context, name string) ([]rows.Row, error) {
	// Check cache first (with read lock)
	m.mu.RLock()
	if rs, ok := m.data[name]; ok {
		m.mu.RUnlock()
		return rs, nil
	}
	src, ok := m.sources[name]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	loader, hasLoader := m.loaders[src.Type]
	resolved := m.resolvePaths(src)
	m.mu.RUnlock()

	if !hasLoader {
		return nil, fmt.Errorf("%w for source type %q", ErrNoLoader, src.Type)
	}

	start := time.Now()
	rs, err := loader.Load(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", name, err)
	}
	m.logger.Info("source loaded", "source", name, "type", src.Type, "rows", len(rs), "duration", time.Since(start))

	// Cache the result
	m.mu.Lock()
	m.data[name] = rs
	m.mu.Unlock()
	return rs, nil
}

// LoadAll loads every registered source in parallel. The first failure
// cancels the remaining loads.
func (m *Manager) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range m.SourceNames() {
		g.Go(func() error {
			_, err := m.LoadData(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// resolvePaths returns a copy of src with a relative path resolved
// against the base directory.
func (m *Manager) resolvePaths(src *SourceConfig) *SourceConfig {
	out := *src
	if m.baseDir != "" && out.Path != "" && !filepath.IsAbs(out.Path) {
		out.Path = filepath.Join(m.baseDir, out.Path)
	}
	return &out
}

// InvalidateCache removes a source from the cache, forcing reload on next access.
func (m *Manager) InvalidateCache(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
}

// InvalidateAllCaches removes all sources from the cache.
func (m *Manager) InvalidateAllCaches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]rows.Row)
}

// IsLoaded returns whether data for a source is currently cached.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[name]
	return ok
}

// LoadedSources returns names of all currently loaded sources, in
// definition order.
func (m *Manager) LoadedSources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for _, name := range m.order {
		if _, ok := m.data[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
