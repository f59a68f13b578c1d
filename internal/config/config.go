package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Storage   StorageConfig
	Retrieval RetrievalConfig
	Search    SearchConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string
}

// LLMConfig selects and configures the generation/embedding provider.
// Provider is "ollama" (default, local) or "openai".
type LLMConfig struct {
	Provider      string
	OllamaBaseURL string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GenModel      string
	EmbedModel    string
	// EmbedDims pins the embedding dimensionality; ingestion and query
	// embeddings must agree or retrieval silently degrades.
	EmbedDims int
}

type StorageConfig struct {
	DataDir string
	// DatabaseURL, when set, switches the vector store from the embedded
	// SQLite database to Postgres with pgvector.
	DatabaseURL string
}

type RetrievalConfig struct {
	TopK int
	// FailClosed aborts workflow runs when the vector store errors,
	// instead of continuing with an empty context.
	FailClosed bool
}

type SearchConfig struct {
	SerpAPIKey string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: "http://localhost:3000",
		},
		LLM: LLMConfig{
			Provider:      "ollama",
			OllamaBaseURL: "http://localhost:11434",
			GenModel:      "mistral-nemo",
			EmbedModel:    "nomic-embed-text",
			EmbedDims:     768,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Retrieval: RetrievalConfig{
			TopK: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".weft")
}

// Load builds the configuration from defaults, an optional .env file in the
// working directory, and WEFT_* environment variables, in that order.
// Environment variables win.
func Load() (Config, error) {
	// A missing .env is not an error; explicit env vars are enough.
	_ = godotenv.Load()

	cfg := defaults()
	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LLM.Provider {
	case "ollama":
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("missing required config: OpenAI API key. Set it via environment variable WEFT_OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown llm provider %q (want \"ollama\" or \"openai\")", c.LLM.Provider)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.LLM.EmbedDims <= 0 {
		return fmt.Errorf("embedding dimensionality must be positive, got %d", c.LLM.EmbedDims)
	}
	return nil
}
