package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kirillkom/masters-advisor/internal/bootstrap"
	"github.com/kirillkom/masters-advisor/internal/config"
	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
	"github.com/kirillkom/masters-advisor/internal/core/usecase"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/catalog"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/chunking"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/docstore/jsonl"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/vector/flat"
	"github.com/kirillkom/masters-advisor/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/masters-advisor/internal/observability/logging"
)

const serviceName = "advisor-indexer"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(config.Load()).RunContext(ctx, os.Args); err != nil {
		slog.Error("indexer_failed", "error", err)
		os.Exit(1)
	}
}

func newApp(cfg config.Config) *cli.App {
	return &cli.App{
		Name:  "indexer",
		Usage: "Build the advisor's passage corpus and vector index and inspect its interaction log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   cfg.LogLevel,
			},
			&cli.StringFlag{
				Name:  "index-dir",
				Usage: "Directory holding docs.jsonl and vectors.bin",
				Value: cfg.IndexDir,
			},
		},
		Before: func(c *cli.Context) error {
			slog.SetDefault(logging.NewLogger(os.Stderr, serviceName, c.String("log-level"), "text"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "build-corpus",
				Usage: "Split the program catalog into indexable passages",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "catalog",
						Usage: "Path to the program catalog (JSON or YAML)",
						Value: cfg.CatalogPath,
					},
					&cli.IntFlag{
						Name:  "chunk-max-runes",
						Usage: "Maximum description chunk length",
						Value: cfg.ChunkMaxRunes,
					},
				},
				Action: func(c *cli.Context) error {
					return buildCorpus(c.String("catalog"), c.String("index-dir"), c.Int("chunk-max-runes"))
				},
			},
			{
				Name:  "build-index",
				Usage: "Embed the corpus and write the vector index",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "qdrant",
						Usage: "Also upsert vectors into the configured Qdrant collection",
						Value: cfg.VectorBackend == bootstrap.VectorBackendQdrant,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages per embedding request",
						Value: cfg.IndexBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding requests",
						Value: cfg.IndexWorkers,
					},
				},
				Action: func(c *cli.Context) error {
					cfg.IndexBatchSize = c.Int("batch-size")
					cfg.IndexWorkers = c.Int("workers")
					return buildIndex(c.Context, cfg, c.String("index-dir"), c.Bool("qdrant"))
				},
			},
			{
				Name:  "stats",
				Usage: "Print answered questions by answer source from the interaction log",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "since",
						Usage: "Look back window",
						Value: 24 * time.Hour,
					},
					&cli.StringFlag{
						Name:  "program",
						Usage: "Only count questions about this program",
					},
				},
				Action: func(c *cli.Context) error {
					return printStats(c.Context, c.App.Writer, cfg.PostgresDSN, c.Duration("since"), c.String("program"))
				},
			},
		},
	}
}

func buildCorpus(catalogPath, indexDir string, maxRunes int) error {
	programs, err := catalog.ReadPrograms(catalogPath)
	if err != nil {
		return err
	}
	programs = catalog.NewPlanImporter(usecase.IsHeading).Enrich(programs, filepath.Dir(catalogPath))

	docs := usecase.NewCorpusBuilder(chunking.NewSplitter(maxRunes)).BuildDocuments(programs)
	if len(docs) == 0 {
		return fmt.Errorf("catalog %s produced no documents", catalogPath)
	}
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	path := filepath.Join(indexDir, jsonl.FileName)
	if err := jsonl.WriteFile(path, docs); err != nil {
		return err
	}
	slog.Info("corpus_built", "programs", len(programs), "documents", len(docs), "path", path)
	return nil
}

func buildIndex(ctx context.Context, cfg config.Config, indexDir string, withQdrant bool) error {
	store, err := jsonl.Load(filepath.Join(indexDir, jsonl.FileName))
	if err != nil {
		return err
	}

	embedder, model, closeEmbedder, err := bootstrap.NewEmbedder(cfg, bootstrap.NewExecutor(cfg, nil))
	if err != nil {
		return err
	}
	defer closeEmbedder()

	writers := []ports.IndexWriter{flat.NewWriter(indexDir), jsonl.NewWriter(indexDir)}
	if withQdrant {
		writers = append(writers, qdrant.New(cfg.QdrantURL, cfg.QdrantCollection))
	}

	uc := usecase.NewIndexCorpusUseCase(embedder, usecase.IndexerConfig{
		Model:     model,
		BatchSize: cfg.IndexBatchSize,
		Workers:   cfg.IndexWorkers,
	}, writers...)
	if err := uc.IndexCorpus(ctx, store.All()); err != nil {
		return err
	}
	slog.Info("index_built", "documents", store.Len(), "model", model, "qdrant", withQdrant)
	return nil
}

func printStats(ctx context.Context, w io.Writer, dsn string, since time.Duration, program string) error {
	if dsn == "" {
		return fmt.Errorf("POSTGRES_DSN is not set")
	}
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := postgres.NewInteractionRepository(db).CountBySource(ctx, time.Now().UTC().Add(-since), program)
	if err != nil {
		return err
	}
	writeStats(w, counts)
	return nil
}

func writeStats(w io.Writer, counts map[domain.AnswerSource]int) {
	sources := make([]string, 0, len(counts))
	total := 0
	for source, n := range counts {
		sources = append(sources, string(source))
		total += n
	}
	sort.Strings(sources)
	for _, source := range sources {
		fmt.Fprintf(w, "%-14s %d\n", source, counts[domain.AnswerSource(source)])
	}
	fmt.Fprintf(w, "%-14s %d\n", "total", total)
}
