package usecase

import (
	"testing"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

func TestRerankByProgramPrefersSelectedProgram(t *testing.T) {
	docs := []domain.ScoredDocument{
		scored("other", "x", domain.DocumentMeta{ProgramTitle: "AI Product"}, 0.9),
		scored("mine", "y", domain.DocumentMeta{ProgramTitle: "Искусственный интеллект"}, 0.4),
	}

	out := rerankByProgram(docs, "Искусственный интеллект")
	if out[0].Document.ID != "mine" || out[1].Document.ID != "other" {
		t.Fatalf("expected selected program first, got %s, %s", out[0].Document.ID, out[1].Document.ID)
	}
	if docs[0].Document.ID != "other" {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestRerankByProgramMatchesTitleVariants(t *testing.T) {
	docs := []domain.ScoredDocument{
		scored("other", "x", domain.DocumentMeta{ProgramTitle: "AI Product"}, 0.9),
		scored("mine", "y", domain.DocumentMeta{ProgramTitle: "Искусственный интеллект"}, 0.4),
	}

	out := rerankByProgram(docs, "  искусственный   интеллект ")
	if out[0].Document.ID != "mine" {
		t.Fatalf("expected selected program first for a case variant, got %s", out[0].Document.ID)
	}
}

func TestRerankByProgramKeepsSimilarityOrderWithinGroups(t *testing.T) {
	docs := []domain.ScoredDocument{
		scored("a", "x", domain.DocumentMeta{ProgramTitle: "P"}, 0.2),
		scored("b", "x", domain.DocumentMeta{ProgramTitle: "Q"}, 0.8),
		scored("c", "x", domain.DocumentMeta{ProgramTitle: "P"}, 0.6),
	}
	out := rerankByProgram(docs, "P")
	got := []string{out[0].Document.ID, out[1].Document.ID, out[2].Document.ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order %v, want %v", got, want)
		}
	}
}

func TestInjectFacts(t *testing.T) {
	facts := domain.Document{ID: "P:facts", Text: "Стоимость: 1 ₽"}
	docs := []domain.ScoredDocument{scored("d", "x", domain.DocumentMeta{}, 0.3)}

	out := injectFacts(docs, facts)
	if len(out) != 2 || out[0].Document.ID != "P:facts" || out[0].Similarity != 1.0 {
		t.Fatalf("expected facts prepended with similarity 1, got %+v", out)
	}

	again := injectFacts(out, facts)
	if len(again) != 2 {
		t.Fatalf("facts must not be injected twice, got %d docs", len(again))
	}
}

func TestTruncateDocuments(t *testing.T) {
	docs := make([]domain.ScoredDocument, 7)
	if got := truncateDocuments(docs, 5); len(got) != 5 {
		t.Fatalf("expected 5 docs, got %d", len(got))
	}
	if got := truncateDocuments(docs[:3], 5); len(got) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(got))
	}
}
