package main

import (
	"context"
	"log/slog"
	"os"

	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/core/services"
	"github.com/SscSPs/voucher_posting_service/internal/handlers"
	"github.com/SscSPs/voucher_posting_service/internal/middleware"
	"github.com/SscSPs/voucher_posting_service/internal/platform/config"
	"github.com/SscSPs/voucher_posting_service/internal/repositories/cache"
	"github.com/SscSPs/voucher_posting_service/internal/repositories/database/pgsql"
	"github.com/SscSPs/voucher_posting_service/internal/worker"
	"github.com/SscSPs/voucher_posting_service/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/ulule/limiter/v3"
)

// @title Voucher Posting API
// @version 1.0
// @description Voucher lifecycle, posting and general ledger reads.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
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
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, "file://migrations"); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	var containerOpts []services.ContainerOption
	var rateLimiter *limiter.Limiter
	var enqueuer portssvc.VoucherTaskEnqueuer

	// Redis is optional: without it configs are read from the database on
	// every request, limits are per instance and async processing is off.
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache and task queue", slog.String("error", err.Error()))
		rateLimiter, err = middleware.NewInMemoryLimiter(cfg.RateLimit)
	} else {
		defer redisClient.Close()
		containerOpts = append(containerOpts, services.WithConfigCache(cache.NewVoucherConfigCache(redisClient, cfg.ConfigCacheTTL)))
		rateLimiter, err = middleware.NewRedisLimiter(redisClient, cfg.RateLimit)

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer asynqClient.Close()
		enqueuer = worker.NewTaskEnqueuer(asynqClient)
	}
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	serviceContainer := services.NewServiceContainer(cfg, repos, containerOpts...)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AddAllowHeaders("Authorization", handlers.IdempotencyKeyHeader, middleware.RequestIDHeader)
	corsConfig.AddExposeHeaders(middleware.RequestIDHeader)
	r.Use(cors.New(corsConfig))

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, enqueuer, rateLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
