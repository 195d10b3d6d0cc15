package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/masters-advisor/internal/adapters/mcp"
	"github.com/kirillkom/masters-advisor/internal/bootstrap"
	"github.com/kirillkom/masters-advisor/internal/config"
	"github.com/kirillkom/masters-advisor/internal/observability/logging"
)

const serviceName = "advisor-mcp"

func main() {
	cfg := config.Load()
	// stdout carries the protocol; logs go to stderr.
	slog.SetDefault(logging.NewLogger(os.Stderr, serviceName, cfg.LogLevel, "json"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	server, err := mcpadapter.NewServer(&mcpadapter.Ports{
		Answerer:    app.AskUC,
		Recommender: app.Recommender,
		Catalog:     app.Catalog,
	}, mcpadapter.Defaults{
		RecommendTopK: cfg.RecommendTopK,
		CompareTopK:   cfg.CompareTopK,
		CompareLimit:  cfg.CompareLimit,
	}, nil)
	if err != nil {
		return err
	}
	return server.ServeStdio()
}
