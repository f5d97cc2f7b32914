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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
	"golang.org/x/time/rate"
)

const (
	SearchToolName = "market_search"

	// DefaultSearchEndpoint is the base URL of the Serper API.
	DefaultSearchEndpoint = "https://google.serper.dev"

	SearchKeyEnvVar = "SERPER_API_KEY"

	DefaultSearchTimeout   = 30 * time.Second
	DefaultSearchRateLimit = 5
	DefaultSearchResults   = 5

	maxTitleRunes = 120
)

// ErrMissingSearchKey is returned when SERPER_API_KEY is not set.
var ErrMissingSearchKey = errors.New(SearchKeyEnvVar + " not set in environment.")

// SearchAPIError is a non-2xx response from the search API.
type SearchAPIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *SearchAPIError) Error() string {
	return fmt.Sprintf("search API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]SearchResult, error)
}

// SearchClient is a Serper API client.
type SearchClient struct {
	endpoint   string
	apiKey     func() string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// SearchClientOption configures the SearchClient.
type SearchClientOption func(*SearchClient)

// WithEndpoint sets a custom base URL.
func WithEndpoint(endpoint string) SearchClientOption {
	return func(c *SearchClient) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) SearchClientOption {
	return func(c *SearchClient) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets a custom rate limit, in requests per second.
func WithRateLimit(requestsPerSecond int) SearchClientOption {
	return func(c *SearchClient) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithAPIKey replaces the environment lookup of the API key.
func WithAPIKey(apiKey func() string) SearchClientOption {
	return func(c *SearchClient) {
		c.apiKey = apiKey
	}
}

func WithSearchLogger(logger *slog.Logger) SearchClientOption {
	return func(c *SearchClient) {
		c.logger = logger
	}
}

func NewSearchClient(opts ...SearchClientOption) *SearchClient {
	c := &SearchClient{
		endpoint:   DefaultSearchEndpoint,
		apiKey:     func() string { return os.Getenv(SearchKeyEnvVar) },
		httpClient: &http.Client{Timeout: DefaultSearchTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultSearchRateLimit), DefaultSearchRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []SearchResult `json:"organic"`
}

// Search queries the /search endpoint and returns the organic results.
func (c *SearchClient) Search(ctx context.Context, query string, num int) ([]SearchResult, error) {
	apiKey := c.apiKey()
	if apiKey == "" {
		return nil, ErrMissingSearchKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limiter: %w", err)
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	const path = "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	logging.OrDefault(c.logger).Debug("search API request", slog.String("query", query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &SearchAPIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			Endpoint:   path,
		}
	}

	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Organic, nil
}

// SearchTool looks up market context for the document being analyzed.
type SearchTool struct {
	Client  Searcher
	Results int
}

// snippetPolicy strips all markup from search results before they reach a
// prompt.
var snippetPolicy = bluemonday.StrictPolicy()

func NewSearchTool(client Searcher, results int) *SearchTool {
	if results <= 0 {
		results = DefaultSearchResults
	}
	return &SearchTool{Client: client, Results: results}
}

func (t *SearchTool) ToolName() string { return SearchToolName }

func (t *SearchTool) Description() string {
	return "Search the web for recent market news and context about the company in the document."
}

func (t *SearchTool) UsesNetwork() bool { return true }

// Run searches for the document title combined with the user query.
func (t *SearchTool) Run(ctx context.Context, in tools.Input) tools.Result {
	return t.Search(ctx, SearchTerm(in.DocumentText, in.Query))
}

func (t *SearchTool) Search(ctx context.Context, query string) tools.Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return tools.Failure("search query must be a non-empty string.")
	}
	if t.Client == nil {
		return tools.Failure("search client not available.")
	}

	results, err := t.Client.Search(ctx, query, t.Results)
	if err != nil {
		if errors.Is(err, ErrMissingSearchKey) {
			return tools.Failure(ErrMissingSearchKey.Error())
		}
		return tools.Failuref("search failed: %v", err)
	}
	if len(results) == 0 {
		return tools.Success("No search results found for: " + query)
	}
	return tools.Success(t.render(results))
}

func (t *SearchTool) render(results []SearchResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, strings.Join([]string{
			cleanSnippet(r.Title),
			strings.TrimSpace(r.Link),
			cleanSnippet(r.Snippet),
		}, " | "))
	}
	return strings.Join(lines, "\n")
}

func cleanSnippet(s string) string {
	s = html.UnescapeString(snippetPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

type searchArgs struct {
	Query *string `json:"query" jsonschema:"description=Search terms"`
}

func (t *SearchTool) Function() tools.Function {
	return tools.NewFunctionTool(SearchToolName, t.Description(),
		func(ctx context.Context, args searchArgs) tools.Result {
			if args.Query == nil {
				return tools.Failure("search query must be a non-empty string.")
			}
			return t.Search(ctx, *args.Query)
		})
}

// SearchTerm combines the first meaningful line of the document (usually
// its title) with the query.
func SearchTerm(documentText, query string) string {
	title := documentTitle(documentText)
	query = strings.TrimSpace(query)
	switch {
	case title == "":
		return query
	case query == "":
		return title
	default:
		return title + " " + query
	}
}

func documentTitle(text string) string {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--- PAGE ") {
			continue
		}
		return Truncate(line, maxTitleRunes)
	}
	return ""
}
