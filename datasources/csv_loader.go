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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/tabula/core/rows"
)

// CSVLoader implements Loader for CSV files. Cell types are inferred.
//
// Config fields:
//   - path: path to the CSV file (required)
//   - no_header: the first line is data; columns are named col_0, col_1...
//   - delimiter: field delimiter (default: ",")
type CSVLoader struct{}

// NewCSVLoader creates a new CSV loader.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

// SourceType returns "csv".
func (l *CSVLoader) SourceType() string {
	return TypeCSV
}

// Load reads the CSV file.
func (l *CSVLoader) Load(_ context.Context, src *SourceConfig) ([]rows.Row, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	file, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return ParseCSV(file, src)
}

// ParseCSV reads CSV records from r into rows, using the header, delimiter
// and no_header settings of src.
func ParseCSV(r io.Reader, src *SourceConfig) ([]rows.Row, error) {
	reader := csv.NewReader(r)
	if d := src.Delimiter; d != "" {
		reader.Comma = rune(d[0])
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var names []string
	if src.NoHeader {
		for i := range records[0] {
			names = append(names, fmt.Sprintf("col_%d", i))
		}
	} else {
		names = records[0]
		records = records[1:]
	}

	out := make([]rows.Row, 0, len(records))
	for _, rec := range records {
		row := make(rows.Row, len(names))
		for i, name := range names {
			if i < len(rec) {
				row[name] = InferValue(rec[i])
			} else {
				row[name] = nil
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// InferValue converts a CSV cell: numbers become float64, true and false
// become bools, RFC3339 timestamps become time.Time, the empty cell is
// nil and anything else stays a string.
func InferValue(s string) any {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch t {
	case "true":
		return true
	case "false":
		return false
	}
	if ts, err := time.Parse(time.RFC3339, t); err == nil {
		return ts
	}
	return s
}
