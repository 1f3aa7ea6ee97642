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

// Package datasources loads row collections from files, databases and
// cloud stores described by a YAML config, with reusable column
// definitions.
package datasources

import (
	"context"
	"path/filepath"

	"github.com/google/tabula/core/rows"
)

// Source types understood by the built-in loaders.
const (
	TypeCSV      = "csv"
	TypeJSON     = "json"
	TypeSQL      = "sql"
	TypeS3       = "s3"
	TypeDynamoDB = "dynamodb"
)

// Loader is the interface that all data source loaders must implement.
// Tabula provides built-in loaders for csv, json, sql, s3 and dynamodb.
// Users can register additional loaders for other stores or formats.
type Loader interface {
	// SourceType returns the type identifier used in config (e.g. "csv").
	SourceType() string

	// Load retrieves every row of the source.
	Load(ctx context.Context, src *SourceConfig) ([]rows.Row, error)
}

// DefaultLoaders returns the built-in loaders. The cloud loaders create
// their clients from the default AWS configuration on first use.
func DefaultLoaders() []Loader {
	return []Loader{
		NewCSVLoader(),
		NewJSONLoader(),
		NewSQLLoader(),
		NewS3Loader(),
		NewDynamoDBLoader(),
	}
}

// formatOf returns the explicit format, or the one a file name suggests.
func formatOf(format, name string) string {
	if format != "" {
		return format
	}
	if filepath.Ext(name) == ".csv" {
		return TypeCSV
	}
	return TypeJSON
}
