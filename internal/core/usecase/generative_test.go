package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Сколько длится обучение?", []string{" два года ", "", "очно"})

	for _, part := range []string{
		"Ответь на русском кратко (1-2 предложения)",
		"'В материалах нет точного ответа.'",
		"Контекст:\n- два года\n\n- очно\n\nВопрос: Сколько длится обучение?\nОтвет:",
	} {
		if !strings.Contains(prompt, part) {
			t.Fatalf("prompt misses %q:\n%s", part, prompt)
		}
	}
	if !strings.HasSuffix(prompt, answerMarker) {
		t.Fatalf("prompt must end with answer marker")
	}
}

func TestPostProcessGeneration(t *testing.T) {
	cases := map[string]string{
		"Ответ: Два года. Очно. И ещё что-то.":       "Два года. Очно.",
		"Вопрос: x\nОтвет: первое\nОтвет: Один ответ": "Один ответ",
		"Просто текст":                                "Просто текст",
		"Ответ:   ":                                   NoAnswerSentence,
		"":                                            NoAnswerSentence,
	}
	for raw, want := range cases {
		if got := postProcessGeneration(raw); got != want {
			t.Fatalf("postProcessGeneration(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestGenerativeFallbackStatuses(t *testing.T) {
	ctx := context.Background()

	ok := NewGenerativeFallback(&generatorFake{text: "Обучение длится два года."}, domain.GenerationOptions{}, time.Second)
	if gen := ok.Generate(ctx, "q", []string{"c"}, 0); gen.Status != domain.GenerationOK || !gen.OK() {
		t.Fatalf("expected ok generation, got %+v", gen)
	}

	noAnswer := NewGenerativeFallback(&generatorFake{text: ""}, domain.GenerationOptions{}, time.Second)
	if gen := noAnswer.Generate(ctx, "q", nil, 0); gen.Status != domain.GenerationNoAnswer || gen.OK() {
		t.Fatalf("expected no_answer generation, got %+v", gen)
	}

	failing := NewGenerativeFallback(&generatorFake{err: errors.New("model down")}, domain.GenerationOptions{}, time.Second)
	if gen := failing.Generate(ctx, "q", nil, 0); gen.Status != domain.GenerationUnavailable || gen.Reason == "" {
		t.Fatalf("expected unavailable generation, got %+v", gen)
	}

	var missing *GenerativeFallback
	if gen := missing.Generate(ctx, "q", nil, 0); gen.Status != domain.GenerationUnavailable {
		t.Fatalf("expected unavailable for nil fallback, got %+v", gen)
	}
}

func TestGenerativeFallbackTimeout(t *testing.T) {
	g := NewGenerativeFallback(&generatorFake{block: true}, domain.GenerationOptions{}, 10*time.Millisecond)
	gen := g.Generate(context.Background(), "q", nil, 0)
	if gen.Status != domain.GenerationUnavailable {
		t.Fatalf("expected timeout to be unavailable, got %+v", gen)
	}
}

func TestGenerativeFallbackOptionsAndContextCap(t *testing.T) {
	fake := &generatorFake{text: "ok"}
	g := NewGenerativeFallback(fake, domain.GenerationOptions{}, time.Second)

	contexts := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	g.Generate(context.Background(), "q", contexts, 64)

	if fake.opts.MaxNewTokens != 64 {
		t.Fatalf("expected token budget override 64, got %d", fake.opts.MaxNewTokens)
	}
	if fake.opts.Temperature != 0.3 || fake.opts.TopP != 0.9 || fake.opts.RepetitionPenalty != 1.1 {
		t.Fatalf("unexpected default sampling options %+v", fake.opts)
	}
	if strings.Contains(fake.prompts[0], "c6") {
		t.Fatalf("contexts beyond the first five must be dropped")
	}
}
