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

// Package server exposes a resident dataset through the group API and a
// debug grid page.
package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/safehtml"
	"github.com/google/tabula/core/logging"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/rendering"
	"github.com/google/tabula/core/views"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
)

// Server represents the application server with all its dependencies
type Server struct {
	backend  *Backend
	renderer *rendering.GridRenderer
	logger   *slog.Logger
	title    string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// WithTitle sets the debug page title.
func WithTitle(title string) Option {
	return func(s *Server) { s.title = title }
}

// NewServer creates a server over backend.
func NewServer(backend *Backend, opts ...Option) (*Server, error) {
	renderer, err := rendering.NewGridRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	s := &Server{
		backend:  backend,
		renderer: renderer,
		logger:   logging.Nop(),
		title:    "Tabula",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed, logged and gzip-compressed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data", s.handleData)
	mux.HandleFunc("GET /api/data/groups", s.handleGroups)
	mux.HandleFunc("GET /api/data/children", s.handleChildren)
	mux.HandleFunc("GET /api/data/nested-groups", s.handleNestedGroups)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /grid", s.handleGrid)
	return gzhttp.GzipHandler(s.logRequests(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests stamps each request with an id, echoed in the response, and
// logs it once served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id)
	})
}

// HandlerResult represents the result of handling a page request
type HandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	entries []views.TimingEntry
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, views.TimingEntry{
		Operation:  operation,
		DurationMs: fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

// GetEntries returns all timing entries
func (tc *TimingCollector) GetEntries() []views.TimingEntry {
	return tc.entries
}

// TotalMs returns total elapsed time in milliseconds as formatted string
func (tc *TimingCollector) TotalMs() string {
	return fmt.Sprintf("%.2f", float64(time.Since(tc.start).Microseconds())/1000.0)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	setHeader := func(key, value string) { w.Header().Set(key, value) }
	if res := s.HandleGridRequest(w, r.URL, setHeader); res != nil {
		http.Error(w, res.Message, res.StatusCode)
	}
}

// HandleGridRequest runs the in-memory pipeline for the grid state in
// requestURL and writes the rendered page. It returns a result only when
// nothing has been written yet.
func (s *Server) HandleGridRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *HandlerResult {
	timing := NewTimingCollector()

	parseStart := time.Now()
	gq, err := query.NewGridQuery(requestURL)
	if err != nil {
		return &HandlerResult{Error: err, StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	timing.Record("Parse Query", time.Since(parseStart))

	defs := s.backend.Columns()
	runStart := time.Now()
	result, err := query.Run(s.backend.Rows(), gq.Params, defs)
	if err != nil {
		return &HandlerResult{Error: err, StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	timing.Record("Filter, Sort and Group", time.Since(runStart))

	projectStart := time.Now()
	expanded := views.NewKeySet(gq.Expanded...)
	if gq.ExpandAll {
		expanded = views.ExpandAll(result.Data)
	}
	views.MarkExpanded(result.Data, expanded)
	visible := views.Project(result.Data, expanded)
	timing.Record("Project", time.Since(projectStart))

	vm := views.BuildViewModel(visible, defs, views.ViewOptions{
		Title:    s.title,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		Footer:   result.Aggregates,
		ToggleURL: func(key string, _ bool) safehtml.URL {
			return gq.WithExpandedToggled(key)
		},
		PageURL: gq.WithPage,
	})
	vm.Timings = timing.GetEntries()
	vm.TotalMs = timing.TotalMs()

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, vm); err != nil {
		// The page may be partially written, so only log.
		s.logger.Error("template rendering error", "error", err)
	}
	return nil
}
