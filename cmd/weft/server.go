package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jmarchuk/weft/internal/api"
	"github.com/jmarchuk/weft/internal/config"
	"github.com/jmarchuk/weft/internal/engine"
	"github.com/jmarchuk/weft/internal/ingest"
	"github.com/jmarchuk/weft/internal/llm"
	"github.com/jmarchuk/weft/internal/retrieval"
	"github.com/jmarchuk/weft/internal/search"
	"github.com/jmarchuk/weft/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the weft server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running weft server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show weft system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "weft.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLLMClient(cfg config.Config) llm.Client {
	if cfg.LLM.Provider == "openai" {
		return llm.NewOpenAI(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIBaseURL, cfg.LLM.GenModel, cfg.LLM.EmbedModel)
	}
	return llm.NewOllama(cfg.LLM.OllamaBaseURL, cfg.LLM.GenModel, cfg.LLM.EmbedModel)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "weft version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	// Refuse to start twice. The health endpoint is authoritative; the PID
	// file just names the culprit.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("weft is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("weft is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := newLLMClient(cfg)
	if !client.IsRunning(ctx) {
		printWarning("LLM provider %q is not reachable; workflow runs will fail until it is", cfg.LLM.Provider)
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Vector backend: embedded SQLite by default, pgvector when a database
	// URL is configured.
	var vectorStore retrieval.VectorStore
	if cfg.Storage.DatabaseURL != "" {
		pgStore, err := retrieval.NewPGVectorStore(ctx, cfg.Storage.DatabaseURL, cfg.LLM.EmbedDims)
		if err != nil {
			return fmt.Errorf("connecting to pgvector: %w", err)
		}
		defer pgStore.Close()
		vectorStore = pgStore
		logger.Info("vector store: pgvector")
	} else {
		vectorStore = retrieval.NewSQLiteStore(store.DB())
		logger.Info("vector store: sqlite", "data_dir", cfg.Storage.DataDir)
	}

	embedder := retrieval.NewEmbedder(client, cfg.LLM.EmbedDims)
	retriever := retrieval.NewRetriever(embedder, vectorStore)
	ingestor := ingest.NewIngestor(embedder, vectorStore, store, logger)

	var searcher engine.WebSearcher
	if cfg.Search.SerpAPIKey != "" {
		searcher = search.NewSerpClient(cfg.Search.SerpAPIKey, "")
	} else {
		logger.Info("web search disabled: no SerpAPI key configured")
	}

	eng := engine.New(retriever, searcher, client, engine.Options{
		TopK:       cfg.Retrieval.TopK,
		FailClosed: cfg.Retrieval.FailClosed,
	}, logger)

	handler := api.NewHandler(api.Deps{
		Engine:    eng,
		Ingestor:  ingestor,
		Documents: store,
		Vectors:   vectorStore,
		Origins:   strings.Split(cfg.Server.CORSOrigins, ","),
		Logger:    logger,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server over stdio, so MCP-capable clients can use the knowledge
	// base while the HTTP server runs.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Engine:    eng,
		Retriever: retriever,
		Documents: store,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("MCP stdio server error", "error", err)
		}
	}()
	logger.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "weft listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("weft is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop weft (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to weft (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	httpClient := &http.Client{Timeout: 2 * time.Second}

	resp, err := httpClient.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	client := newLLMClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if client.IsRunning(ctx) {
		printStatus("LLM provider", "%s (reachable)", cfg.LLM.Provider)
	} else {
		printStatus("LLM provider", "%s (not reachable)", cfg.LLM.Provider)
	}

	printStatus("Generation model", "%s", cfg.LLM.GenModel)
	printStatus("Embedding model", "%s (%d dims)", cfg.LLM.EmbedModel, cfg.LLM.EmbedDims)
	if cfg.Storage.DatabaseURL != "" {
		printStatus("Vector store", "pgvector")
	} else {
		printStatus("Vector store", "sqlite")
	}
	if cfg.Search.SerpAPIKey != "" {
		printStatus("Web search", "enabled")
	} else {
		printStatus("Web search", "disabled (no API key)")
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
