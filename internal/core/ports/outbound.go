package ports

import (
	"context"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

// Embedder builds vectors for documents and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex performs nearest-neighbour search over normalized document vectors.
type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.VectorHit, error)
	Len() int
}

// DocumentStore maps index positions back to documents.
type DocumentStore interface {
	All() []domain.Document
	ByPosition(position int) (domain.Document, bool)
	Facts(programTitle string) (domain.Document, bool)
}

// AnswerGenerator produces free text from a prompt.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error)
}

// InteractionLog records answered questions.
type InteractionLog interface {
	Record(ctx context.Context, item domain.Interaction) error
}

// AskTransport carries ask requests to a remote answering worker.
type AskTransport interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}

// Chunker splits text into passages.
type Chunker interface {
	Split(text string) []string
}

// IndexWriter persists a built index.
type IndexWriter interface {
	Write(ctx context.Context, docs []domain.Document, vectors [][]float32, model string) error
}
