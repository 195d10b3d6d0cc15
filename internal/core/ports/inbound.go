package ports

import (
	"context"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

// QuestionAnswerer answers one question against the indexed corpus.
type QuestionAnswerer interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}

// ElectiveRecommender ranks curriculum entries against a free-text background.
type ElectiveRecommender interface {
	RecommendElectives(background string, program domain.Program, topK int) []domain.Elective
	ScoreProgram(background string, program domain.Program, topK int) (float64, []domain.Elective)
	ComparePrograms(background string, programs []domain.Program, topK, limit int) []domain.ProgramFit
}

// ProgramCatalog is the read model over the configured programs.
type ProgramCatalog interface {
	List() []domain.Program
	Get(title string) (domain.Program, error)
}
