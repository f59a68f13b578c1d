package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const defaultSerpTimeout = 10 * time.Second

// Compile-time check that SerpClient implements Client.
var _ Client = (*SerpClient)(nil)

// SerpClient queries a SerpAPI-compatible endpoint for Google organic
// results. Snippets occasionally carry markup from the provider; they are
// flattened to plain text before use.
type SerpClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSerpClient creates a SerpClient. baseURL is optional and defaults to
// the hosted SerpAPI endpoint; override it in tests or for a self-hosted
// compatible service.
func NewSerpClient(apiKey, baseURL string) *SerpClient {
	if baseURL == "" {
		baseURL = "https://serpapi.com"
	}
	return &SerpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultSerpTimeout},
	}
}

// searchResponse mirrors the subset of the SerpAPI payload we consume.
type searchResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// Search returns ranked organic results for query.
func (c *SerpClient) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if sr.Error != "" {
		return nil, fmt.Errorf("search provider: %s", sr.Error)
	}

	results := make([]Result, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		snippet := stripHTML(r.Snippet)
		if snippet == "" {
			continue
		}
		results = append(results, Result{
			Title:   stripHTML(r.Title),
			Snippet: snippet,
			Link:    r.Link,
		})
	}
	return results, nil
}

// stripHTML flattens any markup in s to its text content.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(tokenizer.Text())
		}
	}
	return strings.TrimSpace(sb.String())
}
