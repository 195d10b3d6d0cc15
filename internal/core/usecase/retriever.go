package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
)

type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	docs     ports.DocumentStore
}

func NewRetriever(embedder ports.Embedder, index ports.VectorIndex, docs ports.DocumentStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		docs:     docs,
	}
}

// Search embeds the query and returns at most k documents ordered by
// similarity, ties broken by document position.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVector = Normalize(queryVector)

	hits, err := r.index.Search(ctx, queryVector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})

	out := make([]domain.ScoredDocument, 0, min(k, len(hits)))
	for _, hit := range hits {
		if len(out) == k {
			break
		}
		doc, ok := r.docs.ByPosition(hit.Position)
		if !ok {
			continue
		}
		out = append(out, domain.ScoredDocument{
			Document:   doc,
			Similarity: clampSimilarity(hit.Score),
		})
	}
	return out, nil
}

// Normalize returns v scaled to unit L2 length. Zero vectors are returned as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func clampSimilarity(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
