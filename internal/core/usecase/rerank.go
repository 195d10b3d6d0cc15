package usecase

import (
	"sort"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

// rerankByProgram moves documents of the selected program ahead of the
// rest, keeping similarity order inside each group.
func rerankByProgram(docs []domain.ScoredDocument, program string) []domain.ScoredDocument {
	out := make([]domain.ScoredDocument, len(docs))
	copy(out, docs)
	key := domain.ProgramKey(program)
	if key == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		mi := domain.ProgramKey(out[i].Document.Meta.ProgramTitle) == key
		mj := domain.ProgramKey(out[j].Document.Meta.ProgramTitle) == key
		if mi != mj {
			return mi
		}
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

// injectFacts prepends the facts document with full similarity unless the
// list already holds it.
func injectFacts(docs []domain.ScoredDocument, facts domain.Document) []domain.ScoredDocument {
	for _, d := range docs {
		if d.Document.ID == facts.ID {
			return docs
		}
	}
	out := make([]domain.ScoredDocument, 0, len(docs)+1)
	out = append(out, domain.ScoredDocument{Document: facts, Similarity: 1.0})
	out = append(out, docs...)
	return out
}

func truncateDocuments(docs []domain.ScoredDocument, n int) []domain.ScoredDocument {
	if n <= 0 || len(docs) <= n {
		return docs
	}
	return docs[:n]
}
