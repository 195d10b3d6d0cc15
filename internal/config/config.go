package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	IndexDir    string
	CatalogPath string

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string
	EmbedBackend     string
	EmbedCachePath   string

	GenerativeEnabled bool
	GenerativeBackend string
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIEmbedModel  string

	GenMaxNewTokens   int
	GenTemperature    float64
	GenTopP           float64
	GenRepeatPenalty  float64
	GenTimeout        time.Duration
	RAGRetrieveK      int
	RAGContextTopN    int
	RecommendTopK     int
	CompareTopK       int
	CompareLimit      int
	IndexBatchSize    int
	IndexWorkers      int
	ChunkMaxRunes     int
	ResilienceRetries int
	BreakerEnabled    bool

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int

	WorkerMetricsPort string
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv_load_failed", "error", err)
	}

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		IndexDir:    mustEnv("INDEX_DIR", "./data/index"),
		CatalogPath: mustEnv("CATALOG_PATH", "./data/programs.json"),

		VectorBackend:    mustEnv("VECTOR_BACKEND", "flat"),
		QdrantURL:        mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", "masters_programs"),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "qwen2.5:1.5b-instruct"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		EmbedBackend:     mustEnv("EMBED_BACKEND", "ollama"),
		EmbedCachePath:   mustEnv("EMBED_CACHE_PATH", ""),

		GenerativeEnabled: mustEnvBool("GENERATIVE_ENABLED", false),
		GenerativeBackend: mustEnv("GENERATIVE_BACKEND", "ollama"),
		OpenAIBaseURL:     mustEnv("OPENAI_BASE_URL", "http://localhost:8000/v1"),
		OpenAIAPIKey:      mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       mustEnv("OPENAI_MODEL", "Qwen/Qwen2.5-1.5B-Instruct"),
		OpenAIEmbedModel:  mustEnv("OPENAI_EMBED_MODEL", "intfloat/multilingual-e5-small"),

		GenMaxNewTokens:   mustEnvInt("GEN_MAX_NEW_TOKENS", 120),
		GenTemperature:    mustEnvFloat("GEN_TEMPERATURE", 0.3),
		GenTopP:           mustEnvFloat("GEN_TOP_P", 0.9),
		GenRepeatPenalty:  mustEnvFloat("GEN_REPEAT_PENALTY", 1.1),
		GenTimeout:        mustEnvDuration("GEN_TIMEOUT", 20*time.Second),
		RAGRetrieveK:      mustEnvInt("RAG_RETRIEVE_K", 8),
		RAGContextTopN:    mustEnvInt("RAG_CONTEXT_TOP_N", 5),
		RecommendTopK:     mustEnvInt("RECOMMEND_TOP_K", 7),
		CompareTopK:       mustEnvInt("COMPARE_TOP_K", 5),
		CompareLimit:      mustEnvInt("COMPARE_LIMIT", 2),
		IndexBatchSize:    mustEnvInt("INDEX_BATCH_SIZE", 32),
		IndexWorkers:      mustEnvInt("INDEX_WORKERS", 4),
		ChunkMaxRunes:     mustEnvInt("CHUNK_MAX_RUNES", 800),
		ResilienceRetries: mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		BreakerEnabled:    mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "advisor.ask"),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 16),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
