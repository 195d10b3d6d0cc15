package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
)

const (
	NoAnswerSentence = "В материалах нет точного ответа."
	answerMarker     = "Ответ:"

	maxGenerativeContexts  = 5
	defaultMaxNewTokens    = 120
	defaultGenerateTimeout = 20 * time.Second
)

var errGeneratorNotConfigured = errors.New("generator not configured")

func DefaultGenerationOptions() domain.GenerationOptions {
	return domain.GenerationOptions{
		MaxNewTokens:      defaultMaxNewTokens,
		Temperature:       0.3,
		TopP:              0.9,
		RepetitionPenalty: 1.1,
	}
}

type GenerativeFallback struct {
	generator ports.AnswerGenerator
	opts      domain.GenerationOptions
	timeout   time.Duration
}

func NewGenerativeFallback(generator ports.AnswerGenerator, opts domain.GenerationOptions, timeout time.Duration) *GenerativeFallback {
	def := DefaultGenerationOptions()
	if opts.MaxNewTokens <= 0 {
		opts.MaxNewTokens = def.MaxNewTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = def.Temperature
	}
	if opts.TopP <= 0 || opts.TopP > 1 {
		opts.TopP = def.TopP
	}
	if opts.RepetitionPenalty <= 0 {
		opts.RepetitionPenalty = def.RepetitionPenalty
	}
	if timeout <= 0 {
		timeout = defaultGenerateTimeout
	}
	return &GenerativeFallback{
		generator: generator,
		opts:      opts,
		timeout:   timeout,
	}
}

// Generate asks the model for a short grounded answer. Any failure is
// reported as an unavailable result, never as an error.
func (g *GenerativeFallback) Generate(ctx context.Context, question string, contexts []string, maxNewTokens int) domain.Generation {
	if g == nil || g.generator == nil {
		return unavailable(errGeneratorNotConfigured)
	}

	opts := g.opts
	if maxNewTokens > 0 {
		opts.MaxNewTokens = maxNewTokens
	}
	if len(contexts) > maxGenerativeContexts {
		contexts = contexts[:maxGenerativeContexts]
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.generator.Generate(ctx, BuildPrompt(question, contexts), opts)
	if err != nil {
		slog.Warn("generative_fallback_unavailable", "error", err)
		return unavailable(err)
	}

	text := postProcessGeneration(raw)
	if text == NoAnswerSentence {
		return domain.Generation{Status: domain.GenerationNoAnswer, Text: text}
	}
	return domain.Generation{Status: domain.GenerationOK, Text: text}
}

func unavailable(err error) domain.Generation {
	return domain.Generation{Status: domain.GenerationUnavailable, Reason: err.Error()}
}

// BuildPrompt renders the instruction, bulleted context and question.
func BuildPrompt(question string, contexts []string) string {
	bullets := make([]string, 0, len(contexts))
	for _, c := range contexts {
		if c = strings.TrimSpace(c); c != "" {
			bullets = append(bullets, "- "+c)
		}
	}

	var b strings.Builder
	b.WriteString("Задача: Ответь на русском кратко (1-2 предложения). Используй только информацию из Контекста. ")
	fmt.Fprintf(&b, "Если в контексте нет ответа — напиши: '%s'\n\n", NoAnswerSentence)
	b.WriteString("Контекст:\n")
	b.WriteString(strings.Join(bullets, "\n\n"))
	b.WriteString("\n\nВопрос: ")
	b.WriteString(question)
	b.WriteString("\n")
	b.WriteString(answerMarker)
	return b.String()
}

// postProcessGeneration keeps the text after the last answer marker,
// limited to two sentences.
func postProcessGeneration(raw string) string {
	answer := raw
	if idx := strings.LastIndex(answer, answerMarker); idx >= 0 {
		answer = answer[idx+len(answerMarker):]
	}
	answer = strings.TrimSpace(answer)

	parts := strings.Split(answer, ".")
	if len(parts) > 2 {
		answer = strings.TrimSpace(strings.Join(parts[:2], "."))
		if !strings.HasSuffix(answer, ".") {
			answer += "."
		}
	}
	if answer == "" {
		return NoAnswerSentence
	}
	return answer
}
