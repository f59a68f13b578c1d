package retrieval

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database with the chunk_vectors table.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	_, err = db.Exec(`
		CREATE TABLE chunk_vectors (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			text_chunk TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		t.Fatalf("creating table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertChunk(t *testing.T, s *SQLiteStore, id, docID, text string, emb []float32) {
	t.Helper()
	err := s.Insert(context.Background(), []Record{{
		ID:         id,
		DocumentID: docID,
		Seq:        0,
		Text:       text,
		Embedding:  emb,
		CreatedAt:  time.Now().UTC(),
	}})
	if err != nil {
		t.Fatalf("Insert %s: %v", id, err)
	}
}

func TestSQLiteSearch_AscendingDistance(t *testing.T) {
	s := NewSQLiteStore(openTestDB(t))

	insertChunk(t, s, "far", "d1", "far away", []float32{10, 10, 10})
	insertChunk(t, s, "near", "d1", "close match", []float32{1, 0, 0})
	insertChunk(t, s, "mid", "d2", "somewhere between", []float32{3, 0, 0})

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "near" || results[1].ID != "mid" {
		t.Errorf("wrong order: %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Distance > results[1].Distance {
		t.Errorf("distances not ascending: %f > %f", results[0].Distance, results[1].Distance)
	}
	if results[0].Distance != 0 {
		t.Errorf("exact match distance = %f, want 0", results[0].Distance)
	}
}

func TestSQLiteSearch_TopKLargerThanCorpus(t *testing.T) {
	s := NewSQLiteStore(openTestDB(t))
	insertChunk(t, s, "only", "d1", "lone chunk", []float32{1, 2, 3})

	results, err := s.Search(context.Background(), []float32{1, 2, 3}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestSQLiteSearch_Empty(t *testing.T) {
	s := NewSQLiteStore(openTestDB(t))

	results, err := s.Search(context.Background(), []float32{1, 2, 3}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestSQLiteSearch_MismatchedDimsRankLast(t *testing.T) {
	s := NewSQLiteStore(openTestDB(t))
	insertChunk(t, s, "good", "d1", "right dims", []float32{1, 0, 0})
	insertChunk(t, s, "bad", "d1", "wrong dims", []float32{1, 0})

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].ID != "good" {
		t.Errorf("mismatched-dim record ranked first")
	}
}

func TestSQLiteDeleteByDocument(t *testing.T) {
	s := NewSQLiteStore(openTestDB(t))
	insertChunk(t, s, "a", "doc1", "one", []float32{1})
	insertChunk(t, s, "b", "doc1", "two", []float32{2})
	insertChunk(t, s, "c", "doc2", "three", []float32{3})

	if err := s.DeleteByDocument(context.Background(), "doc1"); err != nil {
		t.Fatalf("DeleteByDocument: %v", err)
	}

	count, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestFloat32Codec(t *testing.T) {
	in := []float32{0.1, -2.5, 3.75, 0}
	out, err := decodeFloat32s(encodeFloat32s(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestDecodeFloat32s_Corrupt(t *testing.T) {
	if _, err := decodeFloat32s([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error on truncated blob")
	}
}
