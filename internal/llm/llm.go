// Package llm abstracts text generation and embedding providers.
// Two implementations exist: a local Ollama server and an OpenAI-compatible
// cloud API. Both are process-wide, constructed once at startup, and safe
// for concurrent use.
package llm

import "context"

// Client is the provider interface consumed by the engine and the ingestion
// pipeline. Model names are fixed per client at construction time so that
// the embedding model used at query time always matches the one used at
// ingestion time.
type Client interface {
	// Generate returns a completion for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// IsRunning reports whether the provider is reachable.
	IsRunning(ctx context.Context) bool
}
