package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// Compile-time check that PGVectorStore implements VectorStore.
var _ VectorStore = (*PGVectorStore)(nil)

// PGVectorStore backs vector storage with Postgres and the pgvector
// extension. Nearest-neighbor search uses the native L2 operator, so large
// corpora can add an ivfflat/hnsw index without touching this code.
type PGVectorStore struct {
	pool *pgxpool.Pool
}

// NewPGVectorStore connects to databaseURL, enables the vector extension,
// and ensures the chunk_vectors table exists. dims fixes the embedding
// column dimensionality and must match the configured embedding model.
func NewPGVectorStore(ctx context.Context, databaseURL string, dims int) (*PGVectorStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("embedding dimensionality must be positive, got %d", dims)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("enabling vector extension: %w", err)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_vectors (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		text_chunk TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, dims)
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating chunk_vectors table: %w", err)
	}

	return &PGVectorStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGVectorStore) Close() {
	s.pool.Close()
}

// Insert adds records to the chunk_vectors table in one transaction.
func (s *PGVectorStore) Insert(ctx context.Context, records []Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO chunk_vectors (id, document_id, seq, text_chunk, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.DocumentID, r.Seq, r.Text, pgvector.NewVector(r.Embedding), createdAt)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// Search returns the topK records nearest to vector by L2 distance.
func (s *PGVectorStore) Search(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, seq, text_chunk, embedding, created_at, embedding <-> $1 AS distance
		 FROM chunk_vectors
		 ORDER BY embedding <-> $1
		 LIMIT $2`,
		pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []ScoredRecord
	for rows.Next() {
		var r Record
		var emb pgvector.Vector
		var distance float64
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Seq, &r.Text, &emb, &r.CreatedAt, &distance); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Embedding = emb.Slice()
		results = append(results, ScoredRecord{Record: r, Distance: float32(distance)})
	}
	return results, rows.Err()
}

// DeleteByDocument removes all records belonging to documentID.
func (s *PGVectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM chunk_vectors WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("deleting vectors for document %s: %w", documentID, err)
	}
	return nil
}

// Count returns the number of records in the chunk_vectors table.
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM chunk_vectors").Scan(&count)
	return count, err
}
