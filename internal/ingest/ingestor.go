package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmarchuk/weft/internal/retrieval"
	"github.com/jmarchuk/weft/internal/storage"
)

// Client-fault errors. The API layer maps these to 400 responses.
var (
	ErrUnsupportedMedia = errors.New("only PDF files are supported")
	ErrNoText           = errors.New("no extractable text in document")
)

// ChunkEmbedder turns text chunks into embedding vectors.
type ChunkEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorInserter persists embedded chunks for later retrieval.
type VectorInserter interface {
	Insert(ctx context.Context, records []retrieval.Record) error
}

// DocumentSaver records document metadata once its chunks are stored.
type DocumentSaver interface {
	SaveDocument(doc storage.Document) error
}

// Ingestor runs the upload pipeline: extract text from a PDF, chunk it,
// embed the chunks and persist them alongside a document record. Repeated
// uploads of the same file produce independent documents.
type Ingestor struct {
	embedder ChunkEmbedder
	vectors  VectorInserter
	docs     DocumentSaver
	logger   *slog.Logger

	// extract is swappable in tests; defaults to ExtractText.
	extract func(data []byte) (string, error)
}

func NewIngestor(embedder ChunkEmbedder, vectors VectorInserter, docs DocumentSaver, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		vectors:  vectors,
		docs:     docs,
		logger:   logger,
		extract:  ExtractText,
	}
}

// Ingest processes one uploaded file and returns the stored document record.
func (in *Ingestor) Ingest(ctx context.Context, filename, contentType string, data []byte) (storage.Document, error) {
	if !isPDF(filename, contentType) {
		return storage.Document{}, ErrUnsupportedMedia
	}

	text, err := in.extract(data)
	if err != nil {
		return storage.Document{}, fmt.Errorf("%w: %v", ErrNoText, err)
	}
	if text == "" {
		return storage.Document{}, ErrNoText
	}

	chunks := SplitChunks(text)
	vectors, err := in.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return storage.Document{}, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	docID := uuid.NewString()
	now := time.Now().UTC()
	records := make([]retrieval.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = retrieval.Record{
			ID:         uuid.NewString(),
			DocumentID: docID,
			Seq:        i,
			Text:       chunk,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	if err := in.vectors.Insert(ctx, records); err != nil {
		return storage.Document{}, fmt.Errorf("storing vectors for %s: %w", filename, err)
	}

	doc := storage.Document{
		ID:         docID,
		Filename:   filename,
		SizeBytes:  int64(len(data)),
		ChunkCount: len(chunks),
		CreatedAt:  now,
	}
	if err := in.docs.SaveDocument(doc); err != nil {
		return storage.Document{}, fmt.Errorf("saving document %s: %w", filename, err)
	}

	in.logger.Info("document ingested",
		"document_id", docID,
		"filename", filename,
		"chunks", len(chunks),
		"bytes", len(data))

	return doc, nil
}

func isPDF(filename, contentType string) bool {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch mediaType {
			case "application/pdf":
				return true
			case "application/octet-stream":
				// Browsers often send octet-stream; trust the extension.
			default:
				return false
			}
		}
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
