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

// Package demo provides a product catalog for trying the grid without a
// configured data source.
package demo

import (
	_ "embed"
	"fmt"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/datasources"
)

// SourceName is the name the demo dataset is served under.
const SourceName = "products"

//go:embed data/products.json
var productsJSON []byte

// Products returns a fresh copy of the demo catalog. Some products have
// no category or brand, so null groups show up when grouping by them.
func Products() []rows.Row {
	rs, err := datasources.ParseJSON(productsJSON)
	if err != nil {
		panic(fmt.Sprintf("failed to parse demo products: %v", err))
	}
	return rs
}

// Columns returns the column definitions of the demo catalog.
func Columns() *columns.Set {
	id := columns.NewColumnDef("id", "ID", columns.TypeNumber)
	id.Groupable = false

	title := columns.NewColumnDef("title", "Title", columns.TypeString)
	title.Groupable = false
	title.Aggregate = aggregates.Count

	price := columns.NewColumnDef("price", "Price", columns.TypeNumber)
	price.Aggregate = aggregates.Sum
	price.Formatter = func(v any) string {
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("$%.2f", f)
		}
		return aggregates.FormatValue(v)
	}

	rating := columns.NewColumnDef("rating", "Rating", columns.TypeNumber)
	rating.Aggregate = aggregates.Avg

	stock := columns.NewColumnDef("stock", "Stock", columns.TypeNumber)
	stock.Aggregate = aggregates.Sum

	tags := columns.NewColumnDef("tags", "Tags", columns.TypeString)
	tags.Sortable = false
	tags.Groupable = false

	barcode := columns.NewColumnDef("meta.barcode", "Barcode", columns.TypeString)
	barcode.Groupable = false

	return columns.NewSet(
		id,
		title,
		columns.NewColumnDef("category", "Category", columns.TypeString),
		columns.NewColumnDef("brand", "Brand", columns.TypeString),
		price,
		rating,
		stock,
		columns.NewColumnDef("availabilityStatus", "Availability", columns.TypeString),
		tags,
		barcode,
	)
}
