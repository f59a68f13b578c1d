package ingest

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/jmarchuk/weft/internal/retrieval"
	"github.com/jmarchuk/weft/internal/storage"
)

// keywordClient produces deterministic embeddings from keyword presence so
// that nearest-neighbour ranking is predictable.
type keywordClient struct {
	keywords []string
}

func (c *keywordClient) Generate(context.Context, string) (string, error) { return "", nil }
func (c *keywordClient) IsRunning(context.Context) bool                   { return true }

func (c *keywordClient) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(c.keywords))
	lower := strings.ToLower(text)
	for i, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

// TestIngestThenRetrieve drives the full upload-to-query path: chunks stored
// through the Ingestor into the SQLite vector store must come back top-ranked
// for a query about their content, attributed to the right document.
func TestIngestThenRetrieve(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	client := &keywordClient{keywords: []string{"reactor", "coolant", "manifest"}}
	embedder := retrieval.NewEmbedder(client, 0)
	vectors := retrieval.NewSQLiteStore(store.DB())
	in := NewIngestor(embedder, vectors, store, slog.New(slog.DiscardHandler))

	ctx := context.Background()
	texts := map[string]string{
		"reactor.pdf":  "The reactor overheats when coolant pressure drops below the rated threshold.",
		"shipping.pdf": "Shipping manifests are archived quarterly and indexed by port of origin.",
	}
	docIDs := map[string]string{}
	for name, text := range texts {
		in.extract = func([]byte) (string, error) { return text, nil }
		doc, err := in.Ingest(ctx, name, "application/pdf", []byte("%PDF-"))
		if err != nil {
			t.Fatalf("ingest %s: %v", name, err)
		}
		docIDs[name] = doc.ID
	}

	retriever := retrieval.NewRetriever(embedder, vectors)
	chunks, err := retriever.Retrieve(ctx, "why does the reactor overheat when coolant drops?", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	top := chunks[0]
	if !strings.Contains(top.Text, "reactor overheats") {
		t.Errorf("top chunk = %q, want the reactor paragraph", top.Text)
	}
	if top.DocumentID != docIDs["reactor.pdf"] {
		t.Errorf("top chunk document = %s, want %s", top.DocumentID, docIDs["reactor.pdf"])
	}
	if chunks[1].Distance < top.Distance {
		t.Errorf("results not in ascending distance order: %v then %v", top.Distance, chunks[1].Distance)
	}
}
