package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tactus-ai/tactus/pkg/httpclient"
)

const defaultSearchEndpoint = "https://api.bochaai.com/v1/web-search"

// WebSearchTool queries the web search API and returns result summaries
// with links. With no API key configured it degrades to a canned response
// so offline development keeps working.
type WebSearchTool struct {
	endpoint string
	apiKey   string
	client   *httpclient.Client
}

var _ Tool = (*WebSearchTool)(nil)

func NewWebSearchTool(endpoint, apiKey string) *WebSearchTool {
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	return &WebSearchTool{
		endpoint: endpoint,
		apiKey:   apiKey,
		// Internal timeout sits below the registry's 15s fail-safe.
		client: httpclient.New(httpclient.WithTimeout(10 * time.Second)),
	}
}

type webSearchArgs struct {
	Query string `json:"query" jsonschema:"required,description=Search keywords"`
	Count int    `json:"count,omitempty" jsonschema:"description=Number of results to return (default 5)"`
}

func (t *WebSearchTool) Descriptor() Descriptor {
	return Descriptor{
		Name: "web_search",
		Description: "Search the web and return page summaries with links. " +
			"Use for current events, news, market data, and anything time-sensitive.",
		Parameters: SchemaFor(&webSearchArgs{}),
		Tiers:      []Tier{TierL1, TierL3},
		Timeout:    15 * time.Second,
		Risk:       RiskRead,
	}
}

type searchRequest struct {
	Query   string `json:"query"`
	Summary bool   `json:"summary"`
	Count   int    `json:"count"`
}

type searchResponse struct {
	Data struct {
		Summary  string `json:"summary"`
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	} `json:"data"`
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return Fail("query is required"), nil
	}
	count := 5
	if c, ok := args["count"].(float64); ok && c > 0 {
		count = int(c)
	}

	if t.apiKey == "" {
		slog.Warn("Search API key not configured, returning placeholder results")
		return t.placeholder(query), nil
	}

	body, _ := json.Marshal(searchRequest{Query: query, Summary: true, Count: count})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Failf("search request build failed: %v", err), nil
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return ToolResult{}, ctx.Err()
		}
		slog.Warn("Search API failed, returning placeholder results", "error", err)
		return t.placeholder(query), nil
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failf("search response read failed: %v", err), nil
	}
	var parsed searchResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Failf("search response malformed: %v", err), nil
	}

	results := make([]map[string]string, 0, count)
	for i, item := range parsed.Data.WebPages.Value {
		if i >= count {
			break
		}
		results = append(results, map[string]string{
			"title":   item.Name,
			"url":     item.URL,
			"snippet": item.Snippet,
		})
	}

	return Success(map[string]any{
		"query":   query,
		"summary": parsed.Data.Summary,
		"results": results,
	}), nil
}

func (t *WebSearchTool) placeholder(query string) ToolResult {
	return Success(map[string]any{
		"query":   query,
		"summary": fmt.Sprintf("Search is not configured; no live results for %q.", query),
		"results": []map[string]string{},
	})
}
