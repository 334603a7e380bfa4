package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/config"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/interfaces"
	repoPostgres "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository/postgres"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/events/kafka"
	httpHandler "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/handler/http"
	infraPostgres "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/infrastructure/database/postgres"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/infrastructure/notifier"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/infrastructure/queue"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/infrastructure/security"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/service"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/utils/telemetry"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/worker"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/migrations"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		logger.Info("Running database migrations")
		if err := migrations.Up(cfg.Database, logger); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	dbPool, err := infraPostgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize PostgreSQL connection pool", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient, err := queue.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	taskQueue := queue.NewRedisQueue(redisClient, cfg.Redis.QueueKey)

	var publisher interfaces.EventPublisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, "licensebot", logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		publisher = producer
	}
	defer publisher.Close()

	userRepo := repoPostgres.NewUserRepositoryPostgres(dbPool)
	licenseRepo := repoPostgres.NewLicenseRepositoryPostgres(dbPool)
	ticketRepo := repoPostgres.NewTicketRepositoryPostgres(dbPool)
	activityRepo := repoPostgres.NewActivityRepositoryPostgres(dbPool)
	executionRepo := repoPostgres.NewExecutionRepositoryPostgres(dbPool)

	keygen := security.NewKeyGenerator(licenseRepo.KeyExists)

	tgNotifier, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
	}
	if cfg.Telegram.WebhookURL != "" {
		if err := tgNotifier.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
			logger.Error("Failed to register Telegram webhook", zap.Error(err))
		}
	}

	licenseService := service.NewLicenseService(userRepo, licenseRepo, executionRepo, publisher, logger)
	adminService := service.NewAdminService(
		userRepo, licenseRepo, ticketRepo, activityRepo, executionRepo,
		keygen, tgNotifier, publisher, logger,
	)
	botService := service.NewBotService(
		userRepo, ticketRepo, activityRepo, licenseService,
		tgNotifier, publisher, logger,
	)

	pool := worker.NewPool(taskQueue, botService, cfg.Worker.Concurrency, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		pool.Run(ctx)
	}()

	router := httpHandler.SetupRouter(
		cfg,
		httpHandler.NewWebhookHandler(logger, taskQueue),
		httpHandler.NewAdminHandler(logger, adminService),
		httpHandler.NewListHandler(logger, adminService),
		httpHandler.NewHealthHandler(dbPool),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = telemetry.NewMetricsServer(cfg.Metrics.Port)
		go func() {
			logger.Info("Starting metrics server", zap.Int("port", cfg.Metrics.Port))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Worker pool did not drain before deadline")
	}

	logger.Info("Shutdown complete")
}
