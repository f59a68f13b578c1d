package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jmarchuk/weft/internal/llm"
)

// ErrDimensionMismatch reports an embedding whose dimensionality differs
// from vectors produced earlier in the process lifetime. Mixing
// dimensionalities would silently corrupt similarity ranking, so the write
// and query paths both refuse it.
var ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")

// Embedder wraps an llm.Client to generate embeddings with a consistent
// dimensionality. Safe for concurrent use.
type Embedder struct {
	client llm.Client

	mu   sync.Mutex
	dims int // 0 until the first successful embed
}

// NewEmbedder creates an Embedder. dims pins the expected dimensionality;
// pass 0 to adopt the dimensionality of the first embedding produced.
func NewEmbedder(client llm.Client, dims int) *Embedder {
	return &Embedder{client: client, dims: dims}
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if err := e.checkDims(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch returns embedding vectors for multiple texts concurrently.
// Returns nil (not error) for empty input.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(texts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4) // Bound concurrency to avoid overwhelming the provider.

	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.client.Embed(gCtx, text)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			if err := e.checkDims(len(vec)); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Dims returns the pinned dimensionality, or 0 if nothing was embedded yet.
func (e *Embedder) Dims() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

func (e *Embedder) checkDims(got int) error {
	if got == 0 {
		return fmt.Errorf("provider returned empty embedding")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims == 0 {
		e.dims = got
		return nil
	}
	if got != e.dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, got, e.dims)
	}
	return nil
}
