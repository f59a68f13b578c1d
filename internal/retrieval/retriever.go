package retrieval

import (
	"context"
)

// Chunk is a retrieved context fragment with its distance from the query.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	Distance   float32
}

// Retriever combines embedding and vector search to find relevant context.
type Retriever struct {
	embedder *Embedder
	store    VectorStore
}

// NewRetriever creates a Retriever backed by the given Embedder and VectorStore.
func NewRetriever(embedder *Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds the query and returns the topK nearest chunks in
// ascending distance order.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Chunk, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	scored, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = Chunk{
			ID:         s.ID,
			DocumentID: s.DocumentID,
			Text:       s.Text,
			Distance:   s.Distance,
		}
	}
	return chunks, nil
}
