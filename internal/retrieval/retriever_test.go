package retrieval

import (
	"context"
	"errors"
	"testing"
)

// fakeLLM implements llm.Client for tests.
type fakeLLM struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.embedFn(ctx, text)
}

func (f *fakeLLM) IsRunning(ctx context.Context) bool { return true }

// fakeStore implements VectorStore for tests.
type fakeStore struct {
	searchFn func(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error)
	inserted []Record
}

func (f *fakeStore) Insert(ctx context.Context, records []Record) error {
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error) {
	return f.searchFn(ctx, vector, topK)
}

func (f *fakeStore) DeleteByDocument(ctx context.Context, documentID string) error { return nil }

func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.inserted), nil }

func TestRetrieve(t *testing.T) {
	client := &fakeLLM{embedFn: func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 2, 3}, nil
	}}
	store := &fakeStore{searchFn: func(ctx context.Context, vector []float32, topK int) ([]ScoredRecord, error) {
		if topK != 2 {
			t.Errorf("topK = %d, want 2", topK)
		}
		return []ScoredRecord{
			{Record: Record{ID: "c1", DocumentID: "d1", Text: "a"}, Distance: 0.1},
			{Record: Record{ID: "c2", DocumentID: "d1", Text: "b"}, Distance: 0.2},
		}, nil
	}}

	r := NewRetriever(NewEmbedder(client, 0), store)
	chunks, err := r.Retrieve(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Text != "a" || chunks[1].Text != "b" {
		t.Errorf("unexpected chunk order: %+v", chunks)
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	client := &fakeLLM{embedFn: func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}}
	store := &fakeStore{}

	r := NewRetriever(NewEmbedder(client, 0), store)
	if _, err := r.Retrieve(context.Background(), "query", 2); err == nil {
		t.Fatal("expected error when embedding fails")
	}
}

func TestEmbedder_DimensionPinned(t *testing.T) {
	dims := 3
	client := &fakeLLM{embedFn: func(ctx context.Context, text string) ([]float32, error) {
		v := make([]float32, dims)
		return v, nil
	}}

	e := NewEmbedder(client, 0)
	if _, err := e.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if e.Dims() != 3 {
		t.Errorf("Dims() = %d, want 3", e.Dims())
	}

	dims = 5
	_, err := e.Embed(context.Background(), "second")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestEmbedBatch(t *testing.T) {
	client := &fakeLLM{embedFn: func(ctx context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text))}, nil
	}}

	e := NewEmbedder(client, 1)
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	// Results must line up with input order despite concurrent execution.
	for i, want := range []float32{1, 2, 3} {
		if vecs[i][0] != want {
			t.Errorf("vecs[%d] = %f, want %f", i, vecs[i][0], want)
		}
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	e := NewEmbedder(&fakeLLM{}, 0)
	vecs, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil, got %v", vecs)
	}
}
