package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetDocument(t *testing.T) {
	s := openTestStore(t)

	doc := Document{
		ID:         "doc-1",
		Filename:   "report.pdf",
		SizeBytes:  2048,
		ChunkCount: 3,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	got, err := s.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Filename != "report.pdf" || got.ChunkCount != 3 || got.SizeBytes != 2048 {
		t.Errorf("unexpected document: %+v", got)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, doc.CreatedAt)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetDocument("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDocuments_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"old", "mid", "new"} {
		err := s.SaveDocument(Document{
			ID:        id,
			Filename:  id + ".pdf",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveDocument %s: %v", id, err)
		}
	}

	docs, err := s.ListDocuments(10)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	if docs[0].ID != "new" || docs[2].ID != "old" {
		t.Errorf("wrong order: %s, %s, %s", docs[0].ID, docs[1].ID, docs[2].ID)
	}
}

func TestSaveDocument_NoDedup(t *testing.T) {
	s := openTestStore(t)

	// Same filename twice is two independent records.
	for _, id := range []string{"a", "b"} {
		if err := s.SaveDocument(Document{ID: id, Filename: "same.pdf"}); err != nil {
			t.Fatalf("SaveDocument: %v", err)
		}
	}

	count, err := s.CountDocuments()
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveDocument(Document{ID: "d1", Filename: "f.pdf"}); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if err := s.DeleteDocument("d1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := s.DeleteDocument("d1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	s := openTestStore(t)

	// Re-running migrations against an already-migrated database is a no-op.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
