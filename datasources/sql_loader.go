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
	"database/sql"
	"fmt"

	"github.com/google/tabula/core/rows"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// DefaultSQLDriver is used when a sql source names no driver.
const DefaultSQLDriver = "pgx"

// SQLLoader implements Loader for database/sql queries. Each row of the
// query result becomes a row keyed by column name.
//
// Config fields:
//   - driver: database/sql driver name (default: "pgx")
//   - dsn: data source name (required unless DB is set)
//   - query: SELECT statement (required)
type SQLLoader struct {
	// DB, when set, is used instead of opening driver/dsn and is not
	// closed after loading.
	DB *sql.DB
}

// NewSQLLoader creates a new SQL loader.
func NewSQLLoader() *SQLLoader {
	return &SQLLoader{}
}

// SourceType returns "sql".
func (l *SQLLoader) SourceType() string {
	return TypeSQL
}

// Load runs the configured query.
func (l *SQLLoader) Load(ctx context.Context, src *SourceConfig) ([]rows.Row, error) {
	if src.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	db := l.DB
	if db == nil {
		if src.DSN == "" {
			return nil, fmt.Errorf("dsn is required")
		}
		driver := src.Driver
		if driver == "" {
			driver = DefaultSQLDriver
		}
		var err error
		db, err = sql.Open(driver, src.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
		}
		defer db.Close()
	}

	rs, err := db.QueryContext(ctx, src.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rs.Close()

	names, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []rows.Row
	for rs.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(rows.Row, len(names))
		for i, name := range names {
			row[name] = sqlValue(values[i])
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}

// sqlValue maps driver values onto row values: byte slices become strings.
func sqlValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
