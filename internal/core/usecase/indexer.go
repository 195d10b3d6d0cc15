package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
)

const (
	defaultEmbedBatchSize = 32
	defaultIndexWorkers   = 4
)

type IndexerConfig struct {
	Model     string
	BatchSize int
	Workers   int
}

// IndexCorpusUseCase embeds documents and hands the normalized vectors to
// every configured writer.
type IndexCorpusUseCase struct {
	embedder ports.Embedder
	writers  []ports.IndexWriter
	cfg      IndexerConfig
}

func NewIndexCorpusUseCase(embedder ports.Embedder, cfg IndexerConfig, writers ...ports.IndexWriter) *IndexCorpusUseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultEmbedBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultIndexWorkers
	}
	return &IndexCorpusUseCase{
		embedder: embedder,
		writers:  writers,
		cfg:      cfg,
	}
}

func (uc *IndexCorpusUseCase) IndexCorpus(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "index corpus", errors.New("no documents"))
	}
	if err := checkUniqueIDs(docs); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "index corpus", err)
	}

	vectors, err := uc.embedAll(ctx, docs)
	if err != nil {
		return err
	}
	if err := checkDimensions(vectors); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "index corpus", err)
	}

	for _, w := range uc.writers {
		if err := w.Write(ctx, docs, vectors, uc.cfg.Model); err != nil {
			return fmt.Errorf("write index: %w", err)
		}
	}
	slog.Info("corpus_indexed", "documents", len(docs), "dimension", len(vectors[0]), "model", uc.cfg.Model)
	return nil
}

func (uc *IndexCorpusUseCase) embedAll(ctx context.Context, docs []domain.Document) ([][]float32, error) {
	pool, err := ants.NewPool(uc.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(docs))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(docs); start += uc.cfg.BatchSize {
		end := min(start+uc.cfg.BatchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}

		wg.Add(1)
		batchStart := start
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			out, err := uc.embedder.Embed(ctx, texts)
			if err != nil {
				fail(fmt.Errorf("embed batch at %d: %w", batchStart, err))
				return
			}
			if len(out) != len(texts) {
				fail(domain.WrapError(domain.ErrInvalidInput, "embed batch",
					fmt.Errorf("vectors/texts mismatch: %d/%d", len(out), len(texts))))
				return
			}
			for i, v := range out {
				vectors[batchStart+i] = Normalize(v)
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

func checkUniqueIDs(docs []domain.Document) error {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate document id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

func checkDimensions(vectors [][]float32) error {
	dim := len(vectors[0])
	if dim == 0 {
		return errors.New("empty embedding")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return nil
}
