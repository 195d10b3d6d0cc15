package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

const aiTitle = "Искусственный интеллект"

func askFixture(searcher *searcherFake, gen *generatorFake, log *interactionLogFake) *AskUseCase {
	store := &docStoreFake{docs: []domain.Document{
		{ID: "ai:facts", Text: "Стоимость: 599 000 ₽; Срок обучения: 2 года", Meta: aiMeta(domain.SectionFacts)},
	}}
	var fallback *GenerativeFallback
	if gen != nil {
		fallback = NewGenerativeFallback(gen, domain.GenerationOptions{}, time.Second)
	}
	uc := NewAskUseCase(searcher, store, fallback, nil, AskConfig{})
	if log != nil {
		uc.log = log
	}
	return uc
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	uc := askFixture(&searcherFake{}, nil, nil)
	_, err := uc.Ask(context.Background(), domain.AskRequest{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAskGateRejectsOffTopic(t *testing.T) {
	searcher := &searcherFake{docs: []domain.ScoredDocument{scored("d", "x", aiMeta(domain.SectionDescription), 0.05)}}
	gen := &generatorFake{text: "не должно вызываться"}
	uc := askFixture(searcher, gen, nil)

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "какая погода завтра"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Source != domain.SourceGate || answer.Relevant || answer.Text != OutOfScopeAnswer {
		t.Fatalf("expected gate rejection, got %+v", answer)
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("generator must not run for rejected questions")
	}
	if searcher.lastK != defaultRetrieveK {
		t.Fatalf("expected retrieve k=%d, got %d", defaultRetrieveK, searcher.lastK)
	}
}

func TestAskCostQuestionInjectsFacts(t *testing.T) {
	searcher := &searcherFake{docs: []domain.ScoredDocument{
		scored("other", "Описание другой программы", domain.DocumentMeta{ProgramTitle: "AI Product", Section: domain.SectionDescription}, 0.9),
	}}
	uc := askFixture(searcher, nil, nil)

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "Сколько стоит обучение?", Program: aiTitle})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	want := "Стоимость обучения по программе «Искусственный интеллект»: 599 000 ₽. Подробнее — https://abit.itmo.ru/program/master/ai."
	if answer.Text != want {
		t.Fatalf("unexpected answer %q", answer.Text)
	}
	if answer.Source != domain.SourceDeterministic || answer.Intent != domain.IntentCost {
		t.Fatalf("unexpected source/intent %s/%s", answer.Source, answer.Intent)
	}
	if answer.Documents[0].Document.ID != "ai:facts" {
		t.Fatalf("expected facts first, got %s", answer.Documents[0].Document.ID)
	}
}

func TestAskPreferenceShortcutSkipsGenerator(t *testing.T) {
	searcher := &searcherFake{docs: []domain.ScoredDocument{
		scored("c1", "Машинное обучение | семестр: 1", aiMeta(domain.SectionCourse), 0.6),
	}}
	gen := &generatorFake{text: "Сгенерированный ответ."}
	uc := askFixture(searcher, gen, nil)

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "Какие самые интересные предметы?", Program: aiTitle})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Source != domain.SourceShortcut {
		t.Fatalf("expected shortcut source, got %s", answer.Source)
	}
	if !strings.Contains(answer.Text, "Машинное обучение") {
		t.Fatalf("unexpected shortcut answer %q", answer.Text)
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("generator must not run for preference questions")
	}
}

func TestAskUsesGenerativeAnswer(t *testing.T) {
	searcher := &searcherFake{docs: []domain.ScoredDocument{
		scored("d", "Обучение длится два года", aiMeta(domain.SectionDescription), 0.7),
	}}
	gen := &generatorFake{text: "Обучение длится два года."}
	log := &interactionLogFake{}
	uc := askFixture(searcher, gen, log)

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "Сколько длится программа?", Program: aiTitle})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Source != domain.SourceGenerative || answer.Text != "Обучение длится два года." {
		t.Fatalf("expected generative answer, got %+v", answer)
	}
	if !strings.Contains(gen.prompts[0], "- Обучение длится два года") {
		t.Fatalf("prompt misses context: %s", gen.prompts[0])
	}
	if len(log.items) != 1 || log.items[0].Source != domain.SourceGenerative || log.items[0].ID == "" {
		t.Fatalf("expected recorded interaction, got %+v", log.items)
	}
}

func TestAskFallsBackWhenGenerationFails(t *testing.T) {
	docs := []domain.ScoredDocument{scored("d", "Обучение очное", aiMeta(domain.SectionDescription), 0.7)}

	for name, gen := range map[string]*generatorFake{
		"unavailable": {err: errors.New("model down")},
		"no answer":   {text: "Ответ: " + NoAnswerSentence},
	} {
		t.Run(name, func(t *testing.T) {
			uc := askFixture(&searcherFake{docs: docs}, gen, nil)
			answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "Какой формат программы?", Program: aiTitle})
			if err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if answer.Source != domain.SourceDeterministic || answer.FallbackReason == "" {
				t.Fatalf("expected deterministic fallback, got %+v", answer)
			}
			if !strings.HasPrefix(answer.Text, "По материалам программы «Искусственный интеллект»: Обучение очное.") {
				t.Fatalf("unexpected fallback text %q", answer.Text)
			}
		})
	}
}

func TestAskRetrievalFailureStillAnswers(t *testing.T) {
	log := &interactionLogFake{err: errors.New("db down")}
	uc := askFixture(&searcherFake{err: errors.New("index down")}, nil, log)

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "Расскажи про учебный план"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != noCandidatesAnswer || answer.Source != domain.SourceDeterministic {
		t.Fatalf("unexpected answer %+v", answer)
	}
	if len(log.items) != 1 {
		t.Fatalf("interaction log failures must not fail the request")
	}
}

func TestAskTruncatesToContextTopN(t *testing.T) {
	var docs []domain.ScoredDocument
	for i := 0; i < 8; i++ {
		docs = append(docs, scored(string(rune('a'+i)), "текст", aiMeta(domain.SectionDescription), 0.5))
	}
	uc := askFixture(&searcherFake{docs: docs}, nil, nil)

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "программа"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(answer.Documents) != defaultContextTopN {
		t.Fatalf("expected %d documents, got %d", defaultContextTopN, len(answer.Documents))
	}
}
