package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kirillkom/masters-advisor/internal/config"
	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
	"github.com/kirillkom/masters-advisor/internal/core/usecase"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/catalog"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/docstore/jsonl"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/resilience"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/vector/flat"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/vector/qdrant"
)

const (
	VectorBackendFlat   = "flat"
	VectorBackendQdrant = "qdrant"
)

// App holds the read-only serving graph shared by every transport.
type App struct {
	Config config.Config

	Catalog     *catalog.Catalog
	Docs        *jsonl.Store
	AskUC       *usecase.AskUseCase
	Recommender *usecase.Recommender

	closeFns []func()
}

// New loads the artifacts and wires the answering pipeline. Missing or
// inconsistent artifacts are fatal.
func New(ctx context.Context, cfg config.Config, observer resilience.StateObserver) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	programs, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	app.Catalog = programs

	docs, err := jsonl.Load(filepath.Join(cfg.IndexDir, jsonl.FileName))
	if err != nil {
		return nil, fmt.Errorf("load document store: %w", err)
	}
	app.Docs = docs

	executor := NewExecutor(cfg, observer)

	embedder, embedModel, closeEmbedder, err := NewEmbedder(cfg, executor)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	app.closeFns = append(app.closeFns, closeEmbedder)

	index, err := openVectorIndex(ctx, cfg, docs.Len(), embedModel)
	if err != nil {
		return nil, err
	}

	var generative *usecase.GenerativeFallback
	if cfg.GenerativeEnabled {
		generator, err := NewGenerator(cfg, executor)
		if err != nil {
			return nil, fmt.Errorf("init generator: %w", err)
		}
		generative = usecase.NewGenerativeFallback(generator, domain.GenerationOptions{
			MaxNewTokens:      cfg.GenMaxNewTokens,
			Temperature:       cfg.GenTemperature,
			TopP:              cfg.GenTopP,
			RepetitionPenalty: cfg.GenRepeatPenalty,
		}, cfg.GenTimeout)
	}

	var interactions ports.InteractionLog
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = db.Close() })
		repo := postgres.NewInteractionRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		interactions = repo
	}

	retriever := usecase.NewRetriever(embedder, index, docs)
	app.AskUC = usecase.NewAskUseCase(retriever, docs, generative, interactions, usecase.AskConfig{
		RetrieveK:    cfg.RAGRetrieveK,
		ContextTopN:  cfg.RAGContextTopN,
		MaxNewTokens: cfg.GenMaxNewTokens,
	})
	app.Recommender = usecase.NewRecommender()

	slog.Info("advisor_ready",
		"programs", len(programs.List()),
		"documents", docs.Len(),
		"vector_backend", cfg.VectorBackend,
		"embed_model", embedModel,
		"generative", cfg.GenerativeEnabled,
		"interaction_log", interactions != nil,
	)
	ok = true
	return app, nil
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

func NewExecutor(cfg config.Config, observer resilience.StateObserver) *resilience.Executor {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.ResilienceRetries
	rc.BreakerEnabled = cfg.BreakerEnabled
	executor := resilience.NewExecutor(rc)
	if observer != nil {
		executor.WithObserver(observer)
	}
	return executor
}

func openVectorIndex(ctx context.Context, cfg config.Config, docCount int, embedModel string) (ports.VectorIndex, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.VectorBackend)) {
	case "", VectorBackendFlat:
		index, err := flat.Open(filepath.Join(cfg.IndexDir, flat.FileName))
		if err != nil {
			return nil, fmt.Errorf("load vector index: %w", err)
		}
		if err := checkCounts(index.Len(), docCount); err != nil {
			return nil, err
		}
		if index.Model() != "" && index.Model() != embedModel {
			slog.Warn("embedding_model_mismatch", "index_model", index.Model(), "embed_model", embedModel)
		}
		return index, nil
	case VectorBackendQdrant:
		client := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
		n, err := client.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count qdrant points: %w", domain.WrapError(domain.ErrArtifact, "bootstrap.qdrant", err))
		}
		if err := checkCounts(n, docCount); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}

func checkCounts(vectors, docs int) error {
	if vectors != docs {
		return domain.WrapError(domain.ErrArtifact, "bootstrap.index",
			fmt.Errorf("vector count %d does not match document count %d", vectors, docs))
	}
	return nil
}
