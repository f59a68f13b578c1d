package retrieval

import (
	"context"
	"time"
)

// VectorStore is the interface for vector storage and nearest-neighbor
// search backends. Two implementations exist: a SQLite store with
// brute-force L2 scan (the default, zero-infrastructure deployment) and a
// Postgres store using the pgvector extension.
//
// Results are ordered by ascending L2 distance; a smaller distance means a
// closer match. Every stored vector must have the same dimensionality as
// the query vector or similarity is undefined — the Embedder enforces this
// on the write path.
type VectorStore interface {
	// Insert adds chunk records to the store.
	Insert(ctx context.Context, records []Record) error

	// Search returns up to topK records nearest to vector, ascending by distance.
	Search(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error)

	// DeleteByDocument removes all records belonging to the given document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// Record is one stored chunk with its embedding.
type Record struct {
	ID         string
	DocumentID string
	Seq        int
	Text       string
	Embedding  []float32
	CreatedAt  time.Time
}

// ScoredRecord is a Record with its L2 distance from the query vector.
type ScoredRecord struct {
	Record
	Distance float32
}
