// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitness-ai-planner/internal/config"
	"fitness-ai-planner/internal/domain/ports/adapter"
	aiAdapters "fitness-ai-planner/internal/infra/adapters/ai"
	pg "fitness-ai-planner/internal/infra/db/postgres"
	"fitness-ai-planner/internal/infra/logging"
	"fitness-ai-planner/internal/infra/metrics"
	red "fitness-ai-planner/internal/infra/redis"
	"fitness-ai-planner/internal/infra/sched"
	"fitness-ai-planner/internal/infra/web"
	"fitness-ai-planner/internal/infra/worker"
	"fitness-ai-planner/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI adapter, relaxed auth checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	jobQueue := red.NewJobQueue(redisClient, cfg.Jobs.QueueKey)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	jobRepo := pg.NewJobRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepo(pool, tm)

	// ---- AI adapter (dev noop -> Gemini -> OpenAI) ----
	var ai adapter.CompletionAdapter
	switch {
	case cfg.Runtime.Dev && cfg.AI.OpenAIKey == "" && cfg.AI.GeminiKey == "":
		ai = aiAdapters.NewNoopAdapter()
		logger.Info().Msg("AI adapter: noop (dev)")
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("AI adapter: Gemini")
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("AI adapter: OpenAI")
	default:
		logger.Fatal().Msgf("no AI provider configured: set ai.openai_key or ai.gemini_key in %s", *cfgPath)
	}
	ai = aiAdapters.NewLimitedAdapter(ai, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	jobUC := usecase.NewJobUseCase(jobRepo, planRepo, jobQueue, rateLimiter, usecase.JobPolicy{
		MaxRetries:    cfg.Jobs.MaxRetries,
		RetentionDays: cfg.Jobs.RetentionDays,
		SubmitLimit:   cfg.Jobs.SubmitLimit,
		SubmitWindow:  cfg.Jobs.SubmitWindow,
		RequeueAfter:  cfg.Jobs.RequeueAfter,
	}, logger)

	// ---- Processor ----
	workerPool := worker.NewPool(cfg.Jobs.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	processor := worker.NewProcessor(jobRepo, userRepo, planRepo, jobQueue, ai, worker.Options{
		Temperature:       cfg.AI.Temperature,
		MaxOutputTokens:   cfg.AI.MaxOutputTokens,
		PromptTokenBudget: cfg.AI.PromptTokenBudget,
		DequeueTimeout:    cfg.Jobs.DequeueTimeout,
	}, logger)
	go processor.Start(ctx, workerPool)

	// ---- Sweeps ----
	go func() { _ = sched.NewRetryWorker(cfg.Jobs.RetrySweepInterval, cfg.Jobs.RetrySweepLimit, jobUC, logger).Run(ctx) }()
	go func() { _ = sched.NewCleanupWorker(cfg.Jobs.CleanupInterval, jobUC, logger).Run(ctx) }()
	go func() { _ = sched.NewRequeueWorker(cfg.Jobs.RequeueAfter, cfg.Jobs.RetrySweepLimit, jobUC, logger).Run(ctx) }()

	// ---- HTTP ----
	srv := web.NewServer(jobUC, cfg.Server.JWTSecret, cfg.Server.AdminAPIKey, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
