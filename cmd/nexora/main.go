// Command nexora runs the course synthesis service: the HTTP API, the
// background synthesis workers and the stuck-course sweep.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nexora-ai/nexora/pkg/agent"
	"github.com/nexora-ai/nexora/pkg/api"
	"github.com/nexora-ai/nexora/pkg/cleanup"
	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/database"
	"github.com/nexora-ai/nexora/pkg/orchestrator"
	"github.com/nexora-ai/nexora/pkg/queue"
	"github.com/nexora-ai/nexora/pkg/retrieval"
	"github.com/nexora-ai/nexora/pkg/services"
	"github.com/nexora-ai/nexora/pkg/state"
	"github.com/nexora-ai/nexora/pkg/store"
	"github.com/nexora-ai/nexora/pkg/tasks"
	"github.com/nexora-ai/nexora/pkg/validator"
	"github.com/nexora-ai/nexora/pkg/vector"
	"github.com/nexora-ai/nexora/pkg/version"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger.Info("starting", "version", version.Full())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := database.NewClient(ctx, cfg.Database)
	cancel()
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	st := store.New(dbClient.DB())

	index, err := vector.Open(cfg.Vector.Path, cfg.Vector.Dimensions)
	if err != nil {
		logger.Error("vector index unavailable", "error", err)
		os.Exit(1)
	}
	defer index.Close()

	embedder := vector.NewEmbedder(cfg.Vector.EmbeddingAPIKey, cfg.Vector.EmbeddingBaseURL,
		cfg.Vector.EmbeddingModel, cfg.Vector.Dimensions)
	retrievalSvc := retrieval.NewService(index, embedder, cfg.Vector.CollectionPrefix, logger)

	check := validator.New(cfg.Validator.Command, cfg.Validator.ConfigDir, cfg.Validator.Timeout, logger)
	llm := agent.NewClient(cfg.LLM, logger)
	imageSearch := agent.NewImageSearchTool(cfg.LLM.ImageSearchAPIKey)
	pipeline := agent.NewPipeline(llm, check, imageSearch, cfg.LLM.ImageFallbackURL, cfg.Queue.QuestionConcurrency, logger)

	states := state.NewService()
	registry := tasks.NewRegistry()
	orch := orchestrator.New(st, states, retrievalSvc, pipeline, registry, cfg.Queue.ChapterConcurrency, logger)

	pool := queue.NewPool(cfg.Queue.WorkerCount, cfg.Queue.QueueSize,
		cfg.Queue.TaskTimeout, cfg.Queue.GracefulShutdownTimeout,
		registry, orch.Run, logger)
	pool.Start()
	defer pool.Stop()

	sweep := cleanup.NewService(st, cfg.Sweep.Interval, cfg.Sweep.StuckThreshold, logger)
	sweep.Start()
	defer sweep.Stop()

	tokens, err := services.NewTokenService(cfg.Auth)
	if err != nil {
		logger.Error("token service unavailable", "error", err)
		os.Exit(1)
	}
	userSvc := services.NewUserService(st, cfg.Password, logger)
	courseSvc := services.NewCourseService(st, cfg.Quota, registry, pool, retrievalSvc, logger)
	questionSvc := services.NewQuestionService(st, courseSvc, orch, logger)
	chatSvc := services.NewChatService(st, courseSvc, agent.NewChatAgent(llm, llm.FastModel()), cfg.Quota, logger)

	server := api.NewServer(api.Deps{
		Config:    cfg,
		Tokens:    tokens,
		Users:     userSvc,
		OAuth:     services.NewOAuthService(cfg.OAuth),
		Courses:   courseSvc,
		Questions: questionSvc,
		Chat:      chatSvc,
		Search:    services.NewSearchService(st, logger),
		Notes:     services.NewNoteService(st, courseSvc),
		Stats:     services.NewStatisticsService(st, logger),
		Files:     services.NewFileService(st, cfg.Upload, logger),
		Registry:  registry,
		DB:        dbClient,
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Queue.GracefulShutdownTimeout)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}
