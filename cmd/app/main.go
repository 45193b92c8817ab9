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

	"golang.org/x/time/rate"

	"travel-ai-planner/internal/config"
	"travel-ai-planner/internal/domain/ports/adapter"
	aiAdapters "travel-ai-planner/internal/infra/adapters/ai"
	respcache "travel-ai-planner/internal/infra/cache"
	pg "travel-ai-planner/internal/infra/db/postgres"
	"travel-ai-planner/internal/infra/logging"
	"travel-ai-planner/internal/infra/metrics"
	red "travel-ai-planner/internal/infra/redis"
	"travel-ai-planner/internal/infra/resilience"
	"travel-ai-planner/internal/infra/sched"
	"travel-ai-planner/internal/infra/web"
	"travel-ai-planner/internal/infra/worker"
	"travel-ai-planner/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop generator allowed, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	planRepo := pg.NewPlanRepo(pool)

	// ---- Redis (optional, submission rate limiting) ----
	var rateLimiter web.SubmissionLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; submission rate limiting disabled")
	}

	// ---- Generator adapter ----
	var gen adapter.ItineraryGenerator
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.OpenAIKey == "" && cfg.Runtime.Dev {
			gen = aiAdapters.NewNoopGenerator()
			logger.Warn().Msg("no openai key in dev mode; using noop generator")
			break
		}
		gen, err = aiAdapters.NewOpenAIGenerator(cfg.AI.OpenAIKey, cfg.AI.Model, cfg.AI.OpenAIBaseURL)
		if err != nil {
			log.Fatalf("openai generator: %v", err)
		}
	case "gemini":
		gen, err = aiAdapters.NewGeminiGenerator(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiBaseURL, cfg.AI.Model, cfg.AI.MaxOutputTokens)
		if err != nil {
			log.Fatalf("gemini generator: %v", err)
		}
	case "noop":
		gen = aiAdapters.NewNoopGenerator()
	}
	logger.Info().Str("provider", gen.Name()).Str("model", cfg.AI.Model).Msg("generator configured")

	var callLimiter *rate.Limiter
	if cfg.AI.CallsPerMinute > 0 {
		callLimiter = rate.NewLimiter(rate.Limit(float64(cfg.AI.CallsPerMinute)/60.0), 1)
	}
	gen = aiAdapters.NewLimitedGenerator(gen, cfg.AI.ConcurrentLimit, callLimiter)

	// ---- Resilience around the generator ----
	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             gen.Name(),
		FailureThreshold: cfg.Resilience.FailureThreshold,
		RecoveryTimeout:  cfg.Resilience.RecoveryTimeout,
		CallTimeout:      cfg.Resilience.ExecuteTimeout,
	}, logger)

	responseCache := respcache.NewResponseCache(respcache.Config{
		TTL:           cfg.Cache.TTL,
		SweepInterval: cfg.Cache.SweepInterval,
		MaxEntries:    cfg.Cache.MaxEntries,
	}, logger)

	client := aiAdapters.NewResilientClient(gen, breaker, responseCache, aiAdapters.ResilientConfig{
		MaxRetries:           cfg.Resilience.MaxRetries,
		RetryInitialInterval: cfg.Resilience.RetryInitialInterval,
		CallTimeout:          cfg.AI.CallTimeout,
	}, logger)

	// ---- Job queue ----
	queue := worker.NewQueue(planRepo, client, worker.Config{MaxPending: cfg.Queue.MaxPending}, logger)
	queue.Start(ctx)

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(planRepo, queue, cfg.Queue.EstimationWindow, logger)

	// ---- Watchdog for plans stranded in processing ----
	watchdog := sched.NewStaleJobWatchdog(cfg.Watchdog.Interval, cfg.Watchdog.StaleAfter, planRepo, logger)
	go func() { _ = watchdog.Run(ctx) }()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.AdminSecret, !cfg.Runtime.Dev, 30*time.Minute)
	srv := web.NewServer(planUC, client, queue, rateLimiter, cfg.RateLimit.SubmissionsPerHour, auth, cfg.Server.AdminSecret, logger)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	cancel()
	queue.Stop()
}
