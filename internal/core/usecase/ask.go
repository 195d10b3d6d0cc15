package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
)

const (
	OutOfScopeAnswer = "Я отвечаю только на вопросы по магистерским программам ИТМО (ИИ и AI Product). Уточните вопрос."

	defaultRetrieveK   = 8
	defaultContextTopN = 5
)

type documentSearcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error)
}

type AskConfig struct {
	RetrieveK    int
	ContextTopN  int
	MaxNewTokens int
}

type AskUseCase struct {
	retriever  documentSearcher
	docs       ports.DocumentStore
	generative *GenerativeFallback
	log        ports.InteractionLog
	cfg        AskConfig
}

// NewAskUseCase wires the answering pipeline. generative and log may be nil.
func NewAskUseCase(
	retriever documentSearcher,
	docs ports.DocumentStore,
	generative *GenerativeFallback,
	log ports.InteractionLog,
	cfg AskConfig,
) *AskUseCase {
	if cfg.RetrieveK <= 0 {
		cfg.RetrieveK = defaultRetrieveK
	}
	if cfg.ContextTopN <= 0 {
		cfg.ContextTopN = defaultContextTopN
	}
	return &AskUseCase{
		retriever:  retriever,
		docs:       docs,
		generative: generative,
		log:        log,
		cfg:        cfg,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("question is empty"))
	}

	answer := uc.answer(ctx, question, req.Program)
	uc.record(ctx, question, req.Program, answer)
	return answer, nil
}

func (uc *AskUseCase) answer(ctx context.Context, question, program string) *domain.Answer {
	ranked, err := uc.retriever.Search(ctx, question, uc.cfg.RetrieveK)
	if err != nil {
		slog.Warn("retrieval_failed", "error", err)
		ranked = nil
	}
	ranked = rerankByProgram(ranked, program)

	if program != "" && looksLikeCostQuestion(question) && uc.docs != nil {
		if facts, ok := uc.docs.Facts(program); ok {
			ranked = injectFacts(ranked, facts)
		}
	}
	ranked = truncateDocuments(ranked, uc.cfg.ContextTopN)

	if !IsRelevant(question, ranked) {
		return &domain.Answer{
			Text:      OutOfScopeAnswer,
			Source:    domain.SourceGate,
			Relevant:  false,
			Documents: ranked,
		}
	}

	if looksLikePreferenceQuestion(question) {
		text, intent := synthesize(question, ranked)
		return &domain.Answer{
			Text:      text,
			Intent:    intent,
			Source:    domain.SourceShortcut,
			Relevant:  true,
			Documents: ranked,
		}
	}

	var fallbackReason string
	if uc.generative != nil {
		gen := uc.generative.Generate(ctx, question, contextTexts(ranked), uc.cfg.MaxNewTokens)
		if gen.OK() {
			return &domain.Answer{
				Text:      gen.Text,
				Intent:    classifyQuestion(question),
				Source:    domain.SourceGenerative,
				Relevant:  true,
				Documents: ranked,
			}
		}
		fallbackReason = string(gen.Status)
	}

	text, intent := synthesize(question, ranked)
	return &domain.Answer{
		Text:           text,
		Intent:         intent,
		Source:         domain.SourceDeterministic,
		Relevant:       true,
		Documents:      ranked,
		FallbackReason: fallbackReason,
	}
}

func (uc *AskUseCase) record(ctx context.Context, question, program string, answer *domain.Answer) {
	if uc.log == nil {
		return
	}
	item := domain.Interaction{
		ID:        uuid.NewString(),
		Question:  question,
		Program:   program,
		Intent:    answer.Intent,
		Source:    answer.Source,
		Relevant:  answer.Relevant,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.log.Record(ctx, item); err != nil {
		slog.Warn("interaction_log_failed", "interaction_id", item.ID, "error", err)
	}
}

func contextTexts(ranked []domain.ScoredDocument) []string {
	out := make([]string, 0, maxGenerativeContexts)
	for _, d := range ranked {
		if d.Document.Text == "" {
			continue
		}
		out = append(out, d.Document.Text)
		if len(out) == maxGenerativeContexts {
			break
		}
	}
	return out
}
