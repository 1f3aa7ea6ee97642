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
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/tabula/core/rows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInferValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"  ", nil},
		{"42", 42.0},
		{"-3.5", -3.5},
		{"true", true},
		{"false", false},
		{"2024-03-01T12:00:00Z", ts},
		{"NaN", "NaN"},
		{"Phone", "Phone"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, InferValue(tt.in))
		})
	}
}

func TestCSVLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "products.csv", "id,title,price,inStock\n1,Phone,9.5,true\n2,Lamp,,false\n")

	rs, err := NewCSVLoader().Load(context.Background(), &SourceConfig{Path: path})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, rows.Row{"id": 1.0, "title": "Phone", "price": 9.5, "inStock": true}, rs[0])
	assert.Nil(t, rs[1]["price"])

	t.Run("no header and delimiter", func(t *testing.T) {
		rs, err := ParseCSV(strings.NewReader("a;1\nb;2\n"), &SourceConfig{NoHeader: true, Delimiter: ";"})
		require.NoError(t, err)
		require.Len(t, rs, 2)
		assert.Equal(t, rows.Row{"col_0": "b", "col_1": 2.0}, rs[1])
	})

	t.Run("short records", func(t *testing.T) {
		rs, err := ParseCSV(strings.NewReader("a,b\n1\n"), &SourceConfig{})
		require.NoError(t, err)
		assert.Equal(t, rows.Row{"a": 1.0, "b": nil}, rs[0])
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := NewCSVLoader().Load(context.Background(), &SourceConfig{})
		assert.Error(t, err)
	})
}

func TestParseJSON(t *testing.T) {
	rs, err := ParseJSON([]byte(`[{"id":1,"meta":{"sku":"A"}},2,{"id":2}]`))
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "A", rows.Resolve(rs[0], "meta.sku"))

	rs, err = ParseJSON([]byte(`{"products":[{"id":1}],"total":1}`))
	require.NoError(t, err)
	assert.Len(t, rs, 1)

	_, err = ParseJSON([]byte(`{"total":1}`))
	assert.Error(t, err)
	_, err = ParseJSON([]byte(`{"broken`))
	assert.Error(t, err)
}

func TestSQLLoader(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, title, price FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price"}).
			AddRow(int64(1), []byte("Phone"), 9.5).
			AddRow(int64(2), "Lamp", nil))

	l := &SQLLoader{DB: db}
	rs, err := l.Load(context.Background(), &SourceConfig{Query: "SELECT id, title, price FROM products"})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, rows.Row{"id": int64(1), "title": "Phone", "price": 9.5}, rs[0])
	assert.Nil(t, rs[1]["price"])
	assert.NoError(t, mock.ExpectationsWereMet())

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))
		_, err := l.Load(context.Background(), &SourceConfig{Query: "SELECT * FROM nope"})
		assert.ErrorContains(t, err, "relation does not exist")
	})

	t.Run("missing query", func(t *testing.T) {
		_, err := NewSQLLoader().Load(context.Background(), &SourceConfig{DSN: "postgres://x"})
		assert.Error(t, err)
	})
}

type fakeS3 struct {
	objects map[string]string
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func TestS3Loader(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"b/products.json": `{"products":[{"id":1,"title":"Phone"}]}`,
		"b/products.csv":  "id,title\n1,Phone\n2,Lamp\n",
		"b/raw":           "id|title\n3|Desk\n",
	}}
	l := NewS3Loader()
	l.Client = client
	ctx := context.Background()

	rs, err := l.Load(ctx, &SourceConfig{Bucket: "b", Key: "products.json"})
	require.NoError(t, err)
	assert.Equal(t, []rows.Row{{"id": 1.0, "title": "Phone"}}, rs)
	assert.Equal(t, "products.json", *client.input.Key)

	rs, err = l.Load(ctx, &SourceConfig{Bucket: "b", Key: "products.csv"})
	require.NoError(t, err)
	assert.Len(t, rs, 2)

	rs, err = l.Load(ctx, &SourceConfig{Bucket: "b", Key: "raw", Format: "csv", Delimiter: "|"})
	require.NoError(t, err)
	assert.Equal(t, []rows.Row{{"id": 3.0, "title": "Desk"}}, rs)

	_, err = l.Load(ctx, &SourceConfig{Bucket: "b", Key: "missing.json"})
	assert.ErrorContains(t, err, "NoSuchKey")

	_, err = l.Load(ctx, &SourceConfig{Bucket: "b", Key: "raw", Format: "xml"})
	assert.ErrorContains(t, err, "unsupported format")

	_, err = l.Load(ctx, &SourceConfig{Key: "raw"})
	assert.Error(t, err)
}

type fakeDynamoDB struct {
	pages [][]map[string]types.AttributeValue
	calls int
}

func (f *fakeDynamoDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if *in.TableName != "Products" {
		return nil, errors.New("ResourceNotFoundException")
	}
	i := f.calls
	f.calls++
	out := &dynamodb.ScanOutput{Items: f.pages[i]}
	if i+1 < len(f.pages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberN{Value: "cursor"},
		}
	}
	return out, nil
}

func TestDynamoDBLoader(t *testing.T) {
	client := &fakeDynamoDB{pages: [][]map[string]types.AttributeValue{
		{
			{
				"id":    &types.AttributeValueMemberN{Value: "1"},
				"title": &types.AttributeValueMemberS{Value: "Phone"},
				"meta": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
					"sku": &types.AttributeValueMemberS{Value: "A1"},
				}},
			},
		},
		{
			{
				"id":    &types.AttributeValueMemberN{Value: "2"},
				"title": &types.AttributeValueMemberS{Value: "Lamp"},
				"tags": &types.AttributeValueMemberL{Value: []types.AttributeValue{
					&types.AttributeValueMemberS{Value: "home"},
				}},
			},
		},
	}}
	l := NewDynamoDBLoader()
	l.Client = client

	rs, err := l.Load(context.Background(), &SourceConfig{Table: "Products"})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 1.0, rs[0]["id"])
	assert.Equal(t, "A1", rows.Resolve(rs[0], "meta.sku"))
	assert.Equal(t, []any{"home"}, rs[1]["tags"])

	_, err = l.Load(context.Background(), &SourceConfig{Table: "Other"})
	assert.ErrorContains(t, err, "ResourceNotFoundException")

	_, err = l.Load(context.Background(), &SourceConfig{})
	assert.Error(t, err)
}
