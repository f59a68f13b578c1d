package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	env   string
	typ   keyType
	apply func(cfg *Config, v any)
}

var specs = []keySpec{
	{
		env: "WEFT_SERVER_PORT", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
	},
	{
		env: "WEFT_SERVER_CORS_ORIGINS", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Server.CORSOrigins = v.(string) },
	},
	{
		env: "WEFT_LLM_PROVIDER", typ: kString,
		apply: func(cfg *Config, v any) { cfg.LLM.Provider = v.(string) },
	},
	{
		env: "WEFT_OLLAMA_BASE_URL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.LLM.OllamaBaseURL = v.(string) },
	},
	{
		env: "WEFT_OPENAI_API_KEY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.LLM.OpenAIAPIKey = v.(string) },
	},
	{
		env: "WEFT_OPENAI_BASE_URL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.LLM.OpenAIBaseURL = v.(string) },
	},
	{
		env: "WEFT_LLM_GEN_MODEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.LLM.GenModel = v.(string) },
	},
	{
		env: "WEFT_LLM_EMBED_MODEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.LLM.EmbedModel = v.(string) },
	},
	{
		env: "WEFT_LLM_EMBED_DIMS", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.LLM.EmbedDims = v.(int) },
	},
	{
		env: "WEFT_STORAGE_DATA_DIR", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
	},
	{
		env: "WEFT_DATABASE_URL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Storage.DatabaseURL = v.(string) },
	},
	{
		env: "WEFT_RETRIEVAL_TOP_K", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Retrieval.TopK = v.(int) },
	},
	{
		env: "WEFT_RETRIEVAL_FAIL_CLOSED", typ: kBool,
		apply: func(cfg *Config, v any) { cfg.Retrieval.FailClosed = v.(bool) },
	},
	{
		env: "WEFT_SERPAPI_KEY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Search.SerpAPIKey = v.(string) },
	},
	{
		env: "WEFT_LOG_LEVEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
