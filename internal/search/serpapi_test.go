package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSerpSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "go concurrency" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q", q.Get("api_key"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]string{
				{"title": "First", "snippet": "goroutines are cheap", "link": "https://a"},
				{"title": "Second", "snippet": "channels <b>synchronize</b>", "link": "https://b"},
			},
		})
	}))
	defer srv.Close()

	c := NewSerpClient("test-key", srv.URL)
	results, err := c.Search(context.Background(), "go concurrency")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Snippet != "goroutines are cheap" {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
	// Markup must be flattened to text.
	if results[1].Snippet != "channels synchronize" {
		t.Errorf("snippet = %q, want stripped text", results[1].Snippet)
	}
}

func TestSerpSearch_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid API key"})
	}))
	defer srv.Close()

	c := NewSerpClient("bad", srv.URL)
	if _, err := c.Search(context.Background(), "q"); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestSerpSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewSerpClient("k", srv.URL)
	if _, err := c.Search(context.Background(), "q"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestSerpSearch_EmptySnippetsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]string{
				{"title": "No snippet", "snippet": "", "link": "https://a"},
				{"title": "Has one", "snippet": "useful text", "link": "https://b"},
			},
		})
	}))
	defer srv.Close()

	c := NewSerpClient("k", srv.URL)
	results, err := c.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Snippet != "useful text" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<em>nested</em> tags", "nested tags"},
		{"  padded  ", "padded"},
	}
	for _, c := range cases {
		if got := stripHTML(c.in); got != c.want {
			t.Errorf("stripHTML(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
