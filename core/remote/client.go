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

package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/logging"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/rows"
	"github.com/google/tabula/core/sorting"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the id stamped on every outgoing request.
const RequestIDHeader = "X-Request-Id"

// Endpoint paths of the group API.
const (
	PathData         = "/api/data"
	PathGroups       = "/api/data/groups"
	PathChildren     = "/api/data/children"
	PathNestedGroups = "/api/data/nested-groups"
)

// rowKeys are the body keys a row array may be found under.
var rowKeys = []string{"content", "products"}

// HTTPClient is a Source backed by the group API over HTTP.
type HTTPClient struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.client = c }
}

// WithRateLimit caps outgoing requests at rps per second with the given
// burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(h *HTTPClient) { h.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithClientLogger sets the logger used for request tracing.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(h *HTTPClient) { h.logger = logging.OrNop(l) }
}

// NewHTTPClient returns a client for the group API rooted at baseURL.
// Responses are transparently gunzipped.
func NewHTTPClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	h := &HTTPClient{
		base:   base,
		client: &http.Client{Transport: gzhttp.Transport(http.DefaultTransport)},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

var _ Source = (*HTTPClient)(nil)

func queryValues(q Query, skip, take int) url.Values {
	return query.Params{
		Filters: q.Filters,
		Search:  q.Search,
		Sort:    q.Sort,
		Skip:    skip,
		Take:    take,
	}.Values()
}

// FetchPage implements Source.
func (h *HTTPClient) FetchPage(ctx context.Context, req PageRequest) (Page, error) {
	res, err := h.get(ctx, PathData, queryValues(req.Query, req.Skip, req.Take))
	if err != nil {
		return Page{}, err
	}
	return decodePage(res, req.Skip, req.Take), nil
}

// FetchGroups implements Source.
func (h *HTTPClient) FetchGroups(ctx context.Context, req GroupRequest) (GroupPage, error) {
	v := queryValues(req.Query, req.Skip, req.Take)
	v.Set(query.ParamGroupField, req.Field)
	setDirection(v, req.Direction)
	res, err := h.get(ctx, PathGroups, v)
	if err != nil {
		return GroupPage{}, err
	}
	return decodeGroups(res), nil
}

// FetchChildren implements Source. The last ancestor is sent as the group
// field and value, the others as parent filters.
func (h *HTTPClient) FetchChildren(ctx context.Context, req ChildrenRequest) (Page, error) {
	if len(req.Ancestors) == 0 {
		return Page{}, errors.New("children request without a group")
	}
	v := queryValues(req.Query, req.Skip, req.Take)
	last := req.Ancestors[len(req.Ancestors)-1]
	v.Set(query.ParamGroupField, last.Field)
	v.Set(query.ParamGroupValue, grouping.KeyPart(last.Value))
	if parents := req.Ancestors[:len(req.Ancestors)-1]; len(parents) > 0 {
		v.Set(query.ParamParentFilters, query.EncodeAncestors(parents))
	}
	res, err := h.get(ctx, PathChildren, v)
	if err != nil {
		return Page{}, err
	}
	return decodePage(res, req.Skip, req.Take), nil
}

// FetchNestedGroups implements Source.
func (h *HTTPClient) FetchNestedGroups(ctx context.Context, req NestedGroupRequest) (GroupPage, error) {
	v := queryValues(req.Query, 0, 0)
	v.Set(query.ParamParentFilters, query.EncodeAncestors(req.Ancestors))
	v.Set(query.ParamChildField, req.Field)
	setDirection(v, req.Direction)
	res, err := h.get(ctx, PathNestedGroups, v)
	if err != nil {
		return GroupPage{}, err
	}
	return decodeGroups(res), nil
}

func setDirection(v url.Values, dir sorting.Direction) {
	if dir != "" && dir != sorting.None {
		v.Set(query.ParamGroupDirection, string(dir))
	}
}

func (h *HTTPClient) get(ctx context.Context, path string, v url.Values) (gjson.Result, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return gjson.Result{}, errors.Wrap(err, "rate limit")
		}
	}
	u := *h.base
	u.Path += path
	u.RawQuery = v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "build request %s", path)
	}
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")

	h.logger.Debug("remote request", "path", path, "request_id", id)
	resp, err := h.client.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "read %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, errors.Errorf("GET %s: status %d: %s", path, resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.Errorf("GET %s: invalid JSON body", path)
	}
	return gjson.ParseBytes(body), nil
}

func decodePage(res gjson.Result, skip, take int) Page {
	p := Page{
		Rows:  decodeRows(res),
		Total: int(res.Get("total").Int()),
		Skip:  skip,
		Limit: take,
	}
	if s := res.Get("skip"); s.Exists() {
		p.Skip = int(s.Int())
	}
	if l := res.Get("limit"); l.Exists() {
		p.Limit = int(l.Int())
	}
	return p
}

func decodeRows(res gjson.Result) []rows.Row {
	for _, k := range rowKeys {
		arr := res.Get(k)
		if !arr.IsArray() {
			continue
		}
		out := make([]rows.Row, 0, len(arr.Array()))
		arr.ForEach(func(_, item gjson.Result) bool {
			if m, ok := item.Value().(map[string]any); ok {
				out = append(out, rows.Row(m))
			}
			return true
		})
		return out
	}
	return nil
}

func decodeGroups(res gjson.Result) GroupPage {
	gp := GroupPage{
		Total: int(res.Get("total").Int()),
		Skip:  int(res.Get("skip").Int()),
		Limit: int(res.Get("limit").Int()),
	}
	res.Get("groups").ForEach(func(_, g gjson.Result) bool {
		value := g.Get("value").Value()
		key := g.Get("key")
		meta := GroupMeta{
			Value: value,
			Key:   grouping.KeyPart(value),
			Count: int(g.Get("count").Int()),
		}
		if key.Exists() {
			meta.Key = key.String()
		}
		gp.Groups = append(gp.Groups, meta)
		return true
	})
	return gp
}
