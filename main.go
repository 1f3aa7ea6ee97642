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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/logging"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/server"
	"github.com/google/tabula/datasources"
	"github.com/google/tabula/demo"
)

// options defines command line options.
type options struct {
	Addr      string `short:"a" long:"addr" description:"address to listen on" default:":8080"`
	Config    string `short:"c" long:"config" description:"datasource YAML config; the demo catalog is served without it"`
	Source    string `short:"s" long:"source" description:"name of the source to serve" default:"products"`
	LogLevel  string `long:"log-level" description:"debug, info, warn or error" default:"info"`
	LogFormat string `long:"log-format" description:"log encoding" choice:"text" choice:"json" default:"text"`
}

func main() {
	opts := &options{}
	parser := flags.NewParser(opts, flags.Default)
	parser.Name = "tabula"
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{
		Level:  opts.LogLevel,
		Format: logging.Format(opts.LogFormat),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("tabula stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, logger *slog.Logger) error {
	rs, defs, err := loadSource(ctx, opts, logger)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(
		server.NewBackend(rs, defs),
		server.WithLogger(logger),
		server.WithTitle(fmt.Sprintf("Tabula - %s", opts.Source)),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "addr", opts.Addr, "source", opts.Source, "rows", len(rs), "columns", defs.Len())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadSource returns the rows and columns to serve: the demo catalog, or
// the named source of the config file.
func loadSource(ctx context.Context, opts *options, logger *slog.Logger) ([]rows.Row, *columns.Set, error) {
	if opts.Config == "" {
		if opts.Source != demo.SourceName {
			return nil, nil, fmt.Errorf("source %q needs --config", opts.Source)
		}
		return demo.Products(), demo.Columns(), nil
	}

	manager := datasources.NewManager(
		datasources.WithManagerLogger(logger),
		datasources.WithLoaders(datasources.DefaultLoaders()...),
	)
	if err := manager.LoadConfig(opts.Config); err != nil {
		return nil, nil, err
	}
	rs, err := manager.LoadData(ctx, opts.Source)
	if err != nil {
		return nil, nil, err
	}
	return rs, manager.Columns(opts.Source), nil
}
