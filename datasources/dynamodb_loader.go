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
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/tabula/core/rows"
)

// DynamoDBClient defines the interface needed for scanning.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBLoader implements Loader by scanning a DynamoDB table.
//
// Config fields:
//   - table: table name (required)
//   - region: AWS region for the default client
type DynamoDBLoader struct {
	// Client, when set, is used for every request.
	Client DynamoDBClient

	mu      sync.Mutex
	clients map[string]DynamoDBClient
}

// NewDynamoDBLoader creates a new DynamoDB loader.
func NewDynamoDBLoader() *DynamoDBLoader {
	return &DynamoDBLoader{clients: make(map[string]DynamoDBClient)}
}

// SourceType returns "dynamodb".
func (l *DynamoDBLoader) SourceType() string {
	return TypeDynamoDB
}

func (l *DynamoDBLoader) client(ctx context.Context, region string) (DynamoDBClient, error) {
	if l.Client != nil {
		return l.Client, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.clients[region]; ok {
		return c, nil
	}
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	c := dynamodb.NewFromConfig(cfg)
	if l.clients == nil {
		l.clients = make(map[string]DynamoDBClient)
	}
	l.clients[region] = c
	return c, nil
}

// Load scans every page of the table.
func (l *DynamoDBLoader) Load(ctx context.Context, src *SourceConfig) ([]rows.Row, error) {
	if src.Table == "" {
		return nil, fmt.Errorf("table is required")
	}
	c, err := l.client(ctx, src.Region)
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewScanPaginator(c, &dynamodb.ScanInput{
		TableName: aws.String(src.Table),
	})
	var out []rows.Row
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", src.Table, err)
		}
		var items []map[string]any
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		for _, item := range items {
			out = append(out, rows.Row(item))
		}
	}
	return out, nil
}
