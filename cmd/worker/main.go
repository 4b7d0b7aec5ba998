package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/benvon/coffee-match/internal/cache"
	"github.com/benvon/coffee-match/internal/config"
	"github.com/benvon/coffee-match/internal/database"
	"github.com/benvon/coffee-match/internal/logger"
	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/queue"
	"github.com/benvon/coffee-match/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_required_for_worker")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	jobQueue, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, queue.ProfileRefreshQueueName, 10, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.String("queue", queue.ProfileRefreshQueueName))

	stores := database.Stores(db)
	userCache := cache.NewUserCache(stores.Users, redisClient, cfg.ProfileCacheTTL, zapLogger)
	prefs := matching.NewPreferenceService(stores.Preferences, userCache, matching.NewTokenVectorizer(), logger.Named(zapLogger, "preferences"))

	refresher := workers.NewProfileRefresher(prefs, userCache, jobQueue, logger.Named(zapLogger, "profile_refresher"))

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			zapLogger.Info("worker_stopped")
			return
		case msg, ok := <-msgChan:
			if !ok {
				zapLogger.Info("message_channel_closed")
				return
			}
			if err := refresher.ProcessJob(ctx, msg); err != nil {
				zapLogger.Error("failed_to_process_job",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
				)
			}
		}
	}
}
