package usecase

import (
	"context"
	"sync"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

type embedderFake struct {
	mu      sync.Mutex
	vector  []float32
	err     error
	queries []string
	batches [][]string
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type indexFake struct {
	hits      []domain.VectorHit
	err       error
	lastQuery []float32
	lastLimit int
}

func (f *indexFake) Search(_ context.Context, query []float32, limit int) ([]domain.VectorHit, error) {
	f.lastQuery = query
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.VectorHit, len(f.hits))
	copy(out, f.hits)
	return out, nil
}

func (f *indexFake) Len() int { return len(f.hits) }

type docStoreFake struct {
	docs []domain.Document
}

func (f *docStoreFake) All() []domain.Document { return f.docs }

func (f *docStoreFake) ByPosition(position int) (domain.Document, bool) {
	if position < 0 || position >= len(f.docs) {
		return domain.Document{}, false
	}
	return f.docs[position], true
}

func (f *docStoreFake) Facts(program string) (domain.Document, bool) {
	for _, d := range f.docs {
		if d.Meta.ProgramTitle == program && d.Meta.Section == domain.SectionFacts {
			return d, true
		}
	}
	return domain.Document{}, false
}

type searcherFake struct {
	docs  []domain.ScoredDocument
	err   error
	lastK int
}

func (f *searcherFake) Search(_ context.Context, _ string, k int) ([]domain.ScoredDocument, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type generatorFake struct {
	text    string
	err     error
	block   bool
	prompts []string
	opts    domain.GenerationOptions
}

func (f *generatorFake) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.opts = opts
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type interactionLogFake struct {
	items []domain.Interaction
	err   error
}

func (f *interactionLogFake) Record(_ context.Context, item domain.Interaction) error {
	f.items = append(f.items, item)
	return f.err
}

func scored(id, text string, meta domain.DocumentMeta, sim float64) domain.ScoredDocument {
	return domain.ScoredDocument{
		Document:   domain.Document{ID: id, Text: text, Meta: meta},
		Similarity: sim,
	}
}

func aiMeta(section domain.Section) domain.DocumentMeta {
	return domain.DocumentMeta{
		ProgramTitle: "Искусственный интеллект",
		ProgramURL:   "https://abit.itmo.ru/program/master/ai",
		Section:      section,
	}
}
