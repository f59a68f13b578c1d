package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/jmarchuk/weft/internal/engine"
	"github.com/jmarchuk/weft/internal/ingest"
	"github.com/jmarchuk/weft/internal/storage"
	"github.com/jmarchuk/weft/internal/workflow"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxUploadSize = 25 << 20     // 25MB

// WorkflowRunner abstracts the engine for the HTTP layer.
type WorkflowRunner interface {
	Run(ctx context.Context, g workflow.Graph) (engine.Result, error)
}

// DocumentIngestor abstracts the upload pipeline.
type DocumentIngestor interface {
	Ingest(ctx context.Context, filename, contentType string, data []byte) (storage.Document, error)
}

// DocumentStore is the subset of document metadata operations the API needs.
type DocumentStore interface {
	GetDocument(id string) (storage.Document, error)
	ListDocuments(limit int) ([]storage.Document, error)
	DeleteDocument(id string) error
}

// VectorCleaner removes a document's chunks from the vector store.
type VectorCleaner interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

type Deps struct {
	Engine    WorkflowRunner
	Ingestor  DocumentIngestor
	Documents DocumentStore
	Vectors   VectorCleaner // optional; if nil, vector cleanup is skipped on delete
	Origins   []string
	Logger    *slog.Logger
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Post("/workflow/run", handleRunWorkflow(deps))
	r.Post("/documents/upload", handleUpload(deps))
	r.Get("/documents", handleListDocuments(deps))
	r.Get("/documents/{id}", handleGetDocument(deps))
	r.Delete("/documents/{id}", handleDeleteDocument(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runResponse struct {
	Answer        string `json:"answer"`
	ChunksUsed    int    `json:"chunks_used"`
	WebSearchUsed bool   `json:"web_search_used"`
	DurationMS    int64  `json:"duration_ms"`
}

func handleRunWorkflow(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var g workflow.Graph
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		result, err := deps.Engine.Run(r.Context(), g)
		if err != nil {
			var cfgErr *workflow.ConfigurationError
			if errors.As(err, &cfgErr) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			deps.Logger.Error("workflow run failed", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}

		writeJSON(w, http.StatusOK, runResponse{
			Answer:        result.Answer,
			ChunksUsed:    result.ChunksUsed,
			WebSearchUsed: result.WebSearchUsed,
			DurationMS:    result.Duration.Milliseconds(),
		})
	}
}

func handleUpload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "missing file field: %v", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}

		doc, err := deps.Ingestor.Ingest(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
		if err != nil {
			if errors.Is(err, ingest.ErrUnsupportedMedia) || errors.Is(err, ingest.ErrNoText) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			deps.Logger.Error("ingestion failed", "filename", header.Filename, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"id":          doc.ID,
			"filename":    doc.Filename,
			"chunk_count": doc.ChunkCount,
			"message":     "document ingested",
		})
	}
}

func handleListDocuments(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)

		docs, err := deps.Documents.ListDocuments(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list documents: %v", err)
			return
		}
		if docs == nil {
			docs = []storage.Document{}
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func handleGetDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		doc, err := deps.Documents.GetDocument(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get document: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func handleDeleteDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := deps.Documents.GetDocument(id); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get document: %v", err)
			return
		}

		// Vectors go first so a failed metadata delete leaves no orphaned
		// chunks ranked into future retrievals.
		if deps.Vectors != nil {
			if err := deps.Vectors.DeleteByDocument(r.Context(), id); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to delete document vectors: %v", err)
				return
			}
		}

		if err := deps.Documents.DeleteDocument(id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete document: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
