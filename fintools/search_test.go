// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fintools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results []SearchResult
	err     error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, query string, _ int) ([]SearchResult, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func newSerperServer(t *testing.T, status int, body string) (*httptest.Server, *serperRequest) {
	t.Helper()
	var got serperRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "serper-test", r.Header.Get("X-API-KEY"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestSearchClient_Search(t *testing.T) {
	srv, got := newSerperServer(t, http.StatusOK, `{"organic":[
		{"title":"Tesla Q2 deliveries","link":"https://example.com/a","snippet":"<b>Deliveries</b> fell 13% &amp; margins shrank"}
	]}`)
	client := NewSearchClient(
		WithEndpoint(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
		WithRateLimit(100),
		WithAPIKey(func() string { return "serper-test" }),
	)

	results, err := client.Search(t.Context(), "Tesla outlook", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tesla Q2 deliveries", results[0].Title)
	assert.Equal(t, serperRequest{Q: "Tesla outlook", Num: 3}, *got)
}

func TestSearchClient_APIError(t *testing.T) {
	srv, _ := newSerperServer(t, http.StatusForbidden, `{"message":"Unauthorized."}`)
	client := NewSearchClient(WithEndpoint(srv.URL), WithAPIKey(func() string { return "serper-test" }))

	_, err := client.Search(t.Context(), "q", 1)
	var apiErr *SearchAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "/search", apiErr.Endpoint)
	assert.Contains(t, apiErr.Message, "Unauthorized")
}

func TestSearchClient_MissingKey(t *testing.T) {
	t.Setenv(SearchKeyEnvVar, "")
	_, err := NewSearchClient().Search(t.Context(), "q", 1)
	assert.ErrorIs(t, err, ErrMissingSearchKey)

	res := NewSearchTool(NewSearchClient(), 0).Search(t.Context(), "q")
	assert.Equal(t, "ERROR: SERPER_API_KEY not set in environment.", res.String())
}

func TestSearchTool_Run(t *testing.T) {
	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "<i>Tesla</i> Q2", Link: " https://example.com/a ", Snippet: "Deliveries <b>fell</b>\n 13% &amp; more"},
		{Title: "Outlook", Link: "https://example.com/b", Snippet: "Guidance kept"},
	}}
	tool := NewSearchTool(searcher, 2)

	res := tool.Run(t.Context(), tools.Input{
		Query:        "investment outlook",
		DocumentText: "--- PAGE 1 ---\n\nTesla Q2 2025 Update\nRevenue 22.5e9",
	})
	require.False(t, res.Failed())
	assert.Equal(t, "Tesla Q2 | https://example.com/a | Deliveries fell 13% & more\nOutlook | https://example.com/b | Guidance kept", res.Text)
	assert.Equal(t, []string{"Tesla Q2 2025 Update investment outlook"}, searcher.queries)
	assert.True(t, tools.UsesNetwork(tool))
}

func TestSearchTool_Failures(t *testing.T) {
	tool := NewSearchTool(&fakeSearcher{err: errors.New("dial tcp: timeout")}, 1)
	assert.Equal(t, "ERROR: search failed: dial tcp: timeout", tool.Search(t.Context(), "q").String())
	assert.True(t, tool.Search(t.Context(), "  ").Failed())

	empty := NewSearchTool(&fakeSearcher{}, 1)
	assert.Equal(t, "No search results found for: q", empty.Search(t.Context(), "q").Text)

	fn := tool.Function()
	assert.Equal(t, "market_search", fn.Name)
	assert.True(t, fn.Invoke(t.Context(), `{"query": null}`).Failed())
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "Acme 10-K revenue", SearchTerm("--- PAGE 1 ---\nAcme 10-K\nbody", "revenue"))
	assert.Equal(t, "revenue", SearchTerm("", " revenue "))
	assert.Equal(t, "Acme 10-K", SearchTerm("Acme 10-K", ""))
}
