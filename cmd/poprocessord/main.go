// Command poprocessord runs the purchase-order intake daemon: the mailbox
// poller and the operational HTTP surface in one process.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/classify"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/erp"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/export"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/extract"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/llm"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/mail"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/notify"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/pipeline"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/poller"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/repository"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/server"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, pool); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}
	store := repository.NewStore(db)

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	notifier := notify.New(store, rdb, cfg.Redis.Stream, logger)
	registry := erp.NewRegistry(cfg.ERP)
	textExtractor := extract.NewExtractor(extract.Config{}, logger)
	llmExtractor := llm.NewExtractor(cfg.LLM, logger)
	classifier := classify.NewClassifier(cfg.LLM, logger)

	orchestrator := pipeline.NewOrchestrator(store, store, store, store, registry, notifier, logger)
	intake := pipeline.NewAttachmentProcessor(classifier, textExtractor, llmExtractor, store, store, store, orchestrator, logger)

	providers := mail.NewProviders(cfg.OAuth, logger)
	mailPoller := poller.New(cfg.Poller, store, store, providers, intake, logger)

	srv := server.New(server.Deps{
		Store:        store,
		Orchestrator: orchestrator,
		Poller:       mailPoller,
		Registry:     registry,
		LLMExtractor: llmExtractor,
		Exporter:     export.NewService(store, logger),
		Logger:       logger,
	})

	go mailPoller.Run(ctx)
	go func() {
		if err := srv.Start(cfg.Server.Addr); err != nil {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
