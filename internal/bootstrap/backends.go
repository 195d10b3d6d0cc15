package bootstrap

import (
	"fmt"
	"strings"

	"github.com/kirillkom/masters-advisor/internal/config"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/cache/badger"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/resilience"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

func openAIConfig(cfg config.Config) openaicompat.Config {
	return openaicompat.Config{
		BaseURL:    cfg.OpenAIBaseURL,
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		EmbedModel: cfg.OpenAIEmbedModel,
	}
}

// NewEmbedder returns the configured embedder, its model name and a closer.
// With EMBED_CACHE_PATH set the embedder is wrapped in the Badger cache.
func NewEmbedder(cfg config.Config, executor *resilience.Executor) (ports.Embedder, string, func(), error) {
	var (
		embedder ports.Embedder
		model    string
	)
	switch strings.ToLower(strings.TrimSpace(cfg.EmbedBackend)) {
	case "", BackendOllama:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
		embedder = ollama.NewEmbedder(client)
		model = client.EmbedModel()
	case BackendOpenAI:
		e, err := openaicompat.NewEmbedder(openAIConfig(cfg), executor)
		if err != nil {
			return nil, "", nil, err
		}
		embedder = e
		model = cfg.OpenAIEmbedModel
	default:
		return nil, "", nil, fmt.Errorf("unknown EMBED_BACKEND %q", cfg.EmbedBackend)
	}

	if strings.TrimSpace(cfg.EmbedCachePath) == "" {
		return embedder, model, func() {}, nil
	}
	cache, err := badger.Open(cfg.EmbedCachePath, embedder, model)
	if err != nil {
		return nil, "", nil, err
	}
	return cache, model, func() { _ = cache.Close() }, nil
}

func NewGenerator(cfg config.Config, executor *resilience.Executor) (ports.AnswerGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.GenerativeBackend)) {
	case "", BackendOllama:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
		return ollama.NewGenerator(client), nil
	case BackendOpenAI:
		generator, err := openaicompat.NewGenerator(openAIConfig(cfg), executor)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unknown GENERATIVE_BACKEND %q", cfg.GenerativeBackend)
	}
}
