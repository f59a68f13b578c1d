package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmarchuk/weft/internal/retrieval"
	"github.com/jmarchuk/weft/internal/search"
	"github.com/jmarchuk/weft/internal/workflow"
)

// maxSearchSnippets caps how many web results make it into the context.
const maxSearchSnippets = 3

// ContextRetriever finds stored chunks relevant to a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.Chunk, error)
}

// WebSearcher performs a live web search for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Generator produces a completion for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options tune per-deployment engine behavior.
type Options struct {
	// TopK is how many chunks retrieval contributes to the context.
	TopK int
	// FailClosed aborts the request on retrieval errors instead of
	// continuing with an empty context.
	FailClosed bool
}

// Result is the outcome of one workflow execution.
type Result struct {
	Answer        string        `json:"answer"`
	ChunksUsed    int           `json:"chunks_used"`
	WebSearchUsed bool          `json:"web_search_used"`
	Duration      time.Duration `json:"-"`
}

// Engine executes resolved workflow plans. It holds no per-request state;
// a single Engine serves concurrent requests.
type Engine struct {
	retriever ContextRetriever
	searcher  WebSearcher
	generator Generator
	opts      Options
	logger    *slog.Logger
}

func New(retriever ContextRetriever, searcher WebSearcher, generator Generator, opts Options, logger *slog.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = 2
	}
	return &Engine{
		retriever: retriever,
		searcher:  searcher,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Run resolves the graph and executes the pipeline: retrieval and web search
// (independent, issued concurrently), then prompt assembly, then generation.
// Edges influence nothing beyond validation; the execution order is fixed.
func (e *Engine) Run(ctx context.Context, g workflow.Graph) (Result, error) {
	start := time.Now()

	plan, err := workflow.Resolve(g)
	if err != nil {
		return Result{}, err
	}

	var (
		chunks    []retrieval.Chunk
		snippets  []search.Result
		searchErr error
	)

	eg, egCtx := errgroup.WithContext(ctx)

	if plan.KnowledgeBase != nil {
		eg.Go(func() error {
			retrieved, err := e.retriever.Retrieve(egCtx, plan.Query, e.opts.TopK)
			if err != nil {
				if e.opts.FailClosed {
					return &workflow.RetrievalError{Err: err}
				}
				e.logger.Warn("retrieval failed, continuing with empty context", "error", err)
				return nil
			}
			chunks = retrieved
			return nil
		})
	}

	if plan.LLM.WebSearch {
		eg.Go(func() error {
			if e.searcher == nil {
				searchErr = errors.New("web search is not configured")
				return nil
			}
			results, err := e.searcher.Search(egCtx, plan.Query)
			if err != nil {
				// Search is enrichment, never a request failure.
				searchErr = err
				return nil
			}
			snippets = results
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	buffer := assembleContext(chunks, snippets, searchErr, plan.LLM.WebSearch)
	prompt := BuildPrompt(buffer, plan.LLM.Prompt, plan.Query)

	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return Result{}, &workflow.GenerationError{Err: err}
	}

	result := Result{
		Answer:        answer,
		ChunksUsed:    len(chunks),
		WebSearchUsed: plan.LLM.WebSearch && searchErr == nil,
		Duration:      time.Since(start),
	}

	e.logger.Info("workflow executed",
		"chunks_used", result.ChunksUsed,
		"web_search", plan.LLM.WebSearch,
		"duration", result.Duration)

	return result, nil
}

// assembleContext builds the context buffer. Chunks arrive in ascending
// distance order and are joined with newlines; web snippets (at most
// maxSearchSnippets) follow under their own heading. A failed search leaves
// an inline note instead of failing the request.
func assembleContext(chunks []retrieval.Chunk, snippets []search.Result, searchErr error, searchRequested bool) string {
	var b strings.Builder

	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Text)
	}

	if searchRequested {
		if searchErr != nil {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Web Search failed: %v", searchErr)
		} else if len(snippets) > 0 {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString("Web Search Results:\n")
			n := len(snippets)
			if n > maxSearchSnippets {
				n = maxSearchSnippets
			}
			for i := 0; i < n; i++ {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(snippets[i].Snippet)
			}
		}
	}

	return b.String()
}
