// Package openaicompat talks to OpenAI-compatible servers (vLLM, llama.cpp,
// LM Studio, hosted APIs) through langchaingo.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	EmbedModel string
}

func (c Config) token() string {
	// local servers ignore the token but the client requires one
	if strings.TrimSpace(c.APIKey) == "" {
		return "none"
	}
	return c.APIKey
}

type Generator struct {
	model    llms.Model
	executor *resilience.Executor
}

func NewGenerator(cfg Config, executor *resilience.Executor) (*Generator, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai-compatible model is required")
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.token()),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai-compatible client: %w", err)
	}
	return NewGeneratorWithModel(client, executor), nil
}

func NewGeneratorWithModel(model llms.Model, executor *resilience.Executor) *Generator {
	return &Generator{model: model, executor: executor}
}

func (g *Generator) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	callOpts := callOptions(opts)

	text, err := resilience.Call(ctx, g.executor, "openai.generate", func(ctx context.Context) (string, error) {
		resp, err := g.model.GenerateContent(ctx, content, callOpts...)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai-compatible generate returned no choices")
		}
		return resp.Choices[0].Content, nil
	}, resilience.ClassifyUpstream)
	if err != nil {
		return "", resilience.WrapTemporary("openai generate", err, resilience.ClassifyUpstream)
	}
	return strings.TrimSpace(text), nil
}

func callOptions(opts domain.GenerationOptions) []llms.CallOption {
	var out []llms.CallOption
	if opts.MaxNewTokens > 0 {
		out = append(out, llms.WithMaxTokens(opts.MaxNewTokens))
	}
	if opts.Temperature > 0 {
		out = append(out, llms.WithTemperature(opts.Temperature))
	}
	if opts.TopP > 0 {
		out = append(out, llms.WithTopP(opts.TopP))
	}
	if opts.RepetitionPenalty > 0 {
		out = append(out, llms.WithRepetitionPenalty(opts.RepetitionPenalty))
	}
	return out
}

// Embedder produces embeddings through the /embeddings endpoint.
type Embedder struct {
	embedder embeddings.Embedder
	executor *resilience.Executor
}

func NewEmbedder(cfg Config, executor *resilience.Executor) (*Embedder, error) {
	if strings.TrimSpace(cfg.EmbedModel) == "" {
		return nil, errors.New("openai-compatible embedding model is required")
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.token()),
		openai.WithEmbeddingModel(cfg.EmbedModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai-compatible client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &Embedder{embedder: embedder, executor: executor}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := resilience.Call(ctx, e.executor, "openai.embed", func(ctx context.Context) ([][]float32, error) {
		return e.embedder.EmbedDocuments(ctx, texts)
	}, resilience.ClassifyUpstream)
	if err != nil {
		return nil, resilience.WrapTemporary("openai embed", err, resilience.ClassifyUpstream)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := resilience.Call(ctx, e.executor, "openai.embed", func(ctx context.Context) ([]float32, error) {
		return e.embedder.EmbedQuery(ctx, text)
	}, resilience.ClassifyUpstream)
	if err != nil {
		return nil, resilience.WrapTemporary("openai embed", err, resilience.ClassifyUpstream)
	}
	if len(vector) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vector, nil
}
