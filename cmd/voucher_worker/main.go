package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SscSPs/voucher_posting_service/internal/core/services"
	"github.com/SscSPs/voucher_posting_service/internal/platform/config"
	"github.com/SscSPs/voucher_posting_service/internal/repositories/cache"
	"github.com/SscSPs/voucher_posting_service/internal/repositories/database/pgsql"
	"github.com/SscSPs/voucher_posting_service/internal/worker"
	"github.com/SscSPs/voucher_posting_service/pkg/database"
	"github.com/hibiken/asynq"
)

// staleSweepSpec is how often attempts stuck in PROCESSING are swept.
const staleSweepSpec = "@every 5m"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("component", "voucher_worker"))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("Failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	serviceContainer := services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(dbPool),
		services.WithConfigCache(cache.NewVoucherConfigCache(redisClient, cfg.ConfigCacheTTL)))

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      worker.Queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			taskID, _ := asynq.GetTaskID(ctx)
			logger.Error("Task failed",
				slog.String("task_type", task.Type()),
				slog.String("task_id", taskID),
				slog.String("error", err.Error()))
		}),
	})

	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, worker.NewVoucherTaskHandler(serviceContainer.Voucher, logger, cfg.StaleProcessAfter))

	scheduler := asynq.NewScheduler(redisOpt, nil)
	sweep, err := worker.NewExpireStaleTask(cfg.StaleProcessAfter)
	if err != nil {
		logger.Error("Failed to build stale sweep task", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if _, err := scheduler.Register(staleSweepSpec, sweep); err != nil {
		logger.Error("Failed to schedule stale sweep", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(mux); err != nil {
		logger.Error("Failed to start worker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Worker started", slog.Int("concurrency", cfg.WorkerConcurrency))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Gracefully shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info("Worker exited")
}
