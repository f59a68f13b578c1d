// Package search provides web search augmentation for workflow runs.
// Search failures never fail a request; the engine downgrades them to an
// inline note in the assembled context.
package search

import "context"

// Result is one ranked search hit.
type Result struct {
	Title   string
	Snippet string
	Link    string
}

// Client is the web search interface consumed by the engine.
type Client interface {
	// Search returns ranked results for the query.
	Search(ctx context.Context, query string) ([]Result, error)
}
