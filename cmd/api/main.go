// Package main is the entry point for the chat-coordination-service API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"chat-coordination-service/internal/app/service"
	"chat-coordination-service/internal/config"
	"chat-coordination-service/internal/domain"
	infraredis "chat-coordination-service/internal/infra/redis"
	"chat-coordination-service/internal/job"
	"chat-coordination-service/internal/logger"
	"chat-coordination-service/internal/transport/httpserver"
	"chat-coordination-service/internal/validator"
	"chat-coordination-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting chat-coordination-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.Int("sentinels", len(cfg.Redis.Sentinels)),
	)

	// Resolve the store connection: direct, or through Sentinel when
	// discovery endpoints are configured.
	ctx := context.Background()
	redisClient, err := infraredis.NewConnection(ctx, cfg.Redis.URL, cfg.Redis.Sentinels)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis")

	// Remote-backed pools
	sessions := infraredis.NewDict[domain.Session](redisClient, cfg.Pools.Sessions, log.Logger)
	users := infraredis.NewDict[[]string](redisClient, cfg.Pools.Users, log.Logger)
	usage := infraredis.NewDict[domain.ModelUsage](redisClient, cfg.Pools.Usage, log.Logger)

	// Keyed guard for per-user pool updates
	guard := locker.NewRedsyncLocker(redisClient, log.Logger)

	// Presence service
	presenceSvc := service.NewPresenceService(sessions, users, usage, guard, log.Logger)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: 1024 * 1024, // 1MB
			Debug:     cfg.App.Debug,
		},
		presenceSvc,
		redisClient,
		v,
		log.Logger,
	)

	// Start usage cleanup with distributed locking
	cleanupLock := locker.NewRedisLock(redisClient, cfg.Cleanup.LockName, cfg.Cleanup.LockTTL, log.Logger)
	scheduler := job.NewCleanupScheduler(
		presenceSvc,
		cleanupLock,
		job.CleanupConfig{
			Interval: cfg.Cleanup.Interval,
			Timeout:  cfg.Cleanup.Timeout,
			MaxAge:   cfg.Cleanup.MaxAge,
		},
		log.Logger,
	)
	scheduler.Start(cfg.Cleanup.OnStartup)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		scheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
