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
	"fmt"
	"os"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"gopkg.in/yaml.v3"
)

// Config is the top-level datasource configuration.
type Config struct {
	Sources []*SourceConfig `yaml:"sources"`
	// Columns holds column definitions per source name.
	Columns map[string][]ColumnConfig `yaml:"columns"`
}

// SourceConfig describes one source. Which fields apply depends on Type.
type SourceConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// csv, json
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
	NoHeader  bool   `yaml:"no_header"`

	// sql
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Query  string `yaml:"query"`

	// s3
	Bucket string `yaml:"bucket"`
	Key    string `yaml:"key"`
	Format string `yaml:"format"`

	// dynamodb
	Table string `yaml:"table"`

	// s3, dynamodb
	Region string `yaml:"region"`
}

// ColumnConfig describes one column.
type ColumnConfig struct {
	Field      string `yaml:"field"`
	Header     string `yaml:"header"`
	Type       string `yaml:"type"`
	Aggregate  string `yaml:"aggregate"`
	Sortable   *bool  `yaml:"sortable"`
	Filterable *bool  `yaml:"filterable"`
	Groupable  *bool  `yaml:"groupable"`
}

// LoadConfigFile reads and validates a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML config.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src == nil || src.Name == "" {
			return nil, fmt.Errorf("source %d: name is required", i)
		}
		if src.Type == "" {
			return nil, fmt.Errorf("source %q: type is required", src.Name)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("source %q: defined twice", src.Name)
		}
		seen[src.Name] = true
	}
	for name, cols := range cfg.Columns {
		if _, err := columnSet(cols); err != nil {
			return nil, fmt.Errorf("columns of %q: %w", name, err)
		}
	}
	return cfg, nil
}

// Def builds the column definition.
func (c ColumnConfig) Def() (*columns.ColumnDef, error) {
	if c.Field == "" {
		return nil, fmt.Errorf("column field is required")
	}
	typ, err := columns.ParseType(c.Type)
	if err != nil {
		return nil, err
	}
	kind, err := aggregates.ParseKind(c.Aggregate)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", c.Field, err)
	}
	header := c.Header
	if header == "" {
		header = columns.Header(c.Field)
	}
	d := columns.NewColumnDef(c.Field, header, typ)
	d.Aggregate = kind
	if c.Sortable != nil {
		d.Sortable = *c.Sortable
	}
	if c.Filterable != nil {
		d.Filterable = *c.Filterable
	}
	if c.Groupable != nil {
		d.Groupable = *c.Groupable
	}
	return d, nil
}

func columnSet(cols []ColumnConfig) (*columns.Set, error) {
	s := columns.NewSet()
	for _, c := range cols {
		d, err := c.Def()
		if err != nil {
			return nil, err
		}
		s.Add(d)
	}
	return s, nil
}
