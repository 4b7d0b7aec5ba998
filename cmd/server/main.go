package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/coffee-match/internal/cache"
	"github.com/benvon/coffee-match/internal/config"
	"github.com/benvon/coffee-match/internal/database"
	"github.com/benvon/coffee-match/internal/handlers"
	"github.com/benvon/coffee-match/internal/logger"
	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/metrics"
	"github.com/benvon/coffee-match/internal/middleware"
	"github.com/benvon/coffee-match/internal/notify"
	"github.com/benvon/coffee-match/internal/queue"
	"github.com/benvon/coffee-match/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "coffee-match-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Strings("allowed_origins", cfg.AllowedOrigins()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Int("candidate_pool_limit", cfg.Engine.CandidatePoolLimit),
		zap.Int("scoring_workers", cfg.Engine.ScoringWorkers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:     cfg.OTELEnabled && cfg.OTELEndpoint != "",
		ServiceName: serviceName,
		Endpoint:    cfg.OTELEndpoint,
	})
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
			}
		}()
	}

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
	zapLogger.Info("connected_to_redis")

	checks := map[string]handlers.CheckFunc{
		"database": db.HealthCheck,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	var notifier matching.Notifier = notify.NewLogNotifier(zapLogger)
	if cfg.RabbitMQURL != "" {
		notificationQueue, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, queue.NotificationQueueName, 10, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		defer func() {
			if err := notificationQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		notifier = notify.NewQueueNotifier(notificationQueue, zapLogger)
		checks["rabbitmq"] = notificationQueue.HealthCheck
		zapLogger.Info("connected_to_rabbitmq")
	} else {
		zapLogger.Warn("rabbitmq_not_configured_notifications_dropped")
	}

	stores := database.Stores(db)
	stores.Users = cache.NewUserCache(stores.Users, redisClient, cfg.ProfileCacheTTL, zapLogger)

	engine := matching.NewEngine(stores, notifier, matching.Config{
		CandidatePoolLimit: cfg.Engine.CandidatePoolLimit,
		DefaultMatchCount:  cfg.Engine.DefaultMatchCount,
		ScoringWorkers:     cfg.Engine.ScoringWorkers,
		ParallelThreshold:  cfg.Engine.ParallelThreshold,
	}, logger.Named(zapLogger, "engine"))

	matchHandler := handlers.NewMatchHandler(engine, engine.Preferences, engine.Ledger, zapLogger)
	healthChecker := handlers.NewHealthChecker(checks)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// gorilla/mux runs middleware in registration order, outermost first
	r := mux.NewRouter()
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequireActor(zapLogger))
	api.Use(rateLimitMW)
	api.Use(middleware.JSONBody(middleware.DefaultMaxBodySize))
	matchHandler.RegisterRoutes(api)

	// Preflight requests are answered by the CORS middleware; this only gives them a route to match
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	// Let in-flight notifications reach the broker before it is closed
	engine.Wait()

	zapLogger.Info("server_exited")
	os.Exit(0)
}
