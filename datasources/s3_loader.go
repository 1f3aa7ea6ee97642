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
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/tabula/core/rows"
)

// S3Client defines the interface needed for reading objects.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader implements Loader for CSV or JSON objects in S3.
//
// Config fields:
//   - bucket, key: object location (required)
//   - format: "csv" or "json" (default: from the key's extension)
//   - region: AWS region for the default client
//   - delimiter, no_header: as for csv sources
type S3Loader struct {
	// Client, when set, is used for every request.
	Client S3Client

	mu      sync.Mutex
	clients map[string]S3Client
}

// NewS3Loader creates a new S3 loader.
func NewS3Loader() *S3Loader {
	return &S3Loader{clients: make(map[string]S3Client)}
}

// SourceType returns "s3".
func (l *S3Loader) SourceType() string {
	return TypeS3
}

// client returns the configured client, or one built from the default
// AWS configuration for region.
func (l *S3Loader) client(ctx context.Context, region string) (S3Client, error) {
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
	c := s3.NewFromConfig(cfg)
	if l.clients == nil {
		l.clients = make(map[string]S3Client)
	}
	l.clients[region] = c
	return c, nil
}

// Load fetches and parses the object.
func (l *S3Loader) Load(ctx context.Context, src *SourceConfig) ([]rows.Row, error) {
	if src.Bucket == "" || src.Key == "" {
		return nil, fmt.Errorf("bucket and key are required")
	}
	c, err := l.client(ctx, src.Region)
	if err != nil {
		return nil, err
	}
	resp, err := c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(src.Bucket),
		Key:    aws.String(src.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", src.Bucket, src.Key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", src.Bucket, src.Key, err)
	}

	switch f := formatOf(src.Format, src.Key); f {
	case TypeCSV:
		return ParseCSV(bytes.NewReader(data), src)
	case TypeJSON:
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
}
