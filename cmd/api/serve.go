package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timetrack/timeentries/internal/cache"
	"github.com/timetrack/timeentries/internal/config"
	"github.com/timetrack/timeentries/internal/handler"
	"github.com/timetrack/timeentries/internal/metrics"
	"github.com/timetrack/timeentries/internal/middleware"
	"github.com/timetrack/timeentries/internal/repository"
	"github.com/timetrack/timeentries/internal/server"
	"github.com/timetrack/timeentries/internal/service"
)

// entryStore is a storage backend the server can run on.
type entryStore interface {
	service.Store
	Ping(ctx context.Context) error
}

// openStore connects the backend named in cfg. The returned close func is never nil.
// With autoMigrate a missing DynamoDB table is created.
func openStore(ctx context.Context, cfg *config.Config, autoMigrate bool, logger *slog.Logger) (entryStore, func(context.Context) error, error) {
	noClose := func(context.Context) error { return nil }

	switch cfg.StorageBackend {
	case config.StoragePostgres:
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noClose, fmt.Errorf("failed to connect to database: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))
		return repo, func(context.Context) error { repo.Close(); return nil }, nil

	case config.StorageSQLite:
		store, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noClose, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("opened sqlite store", slog.String("path", cfg.SQLitePath))
		return store, func(context.Context) error { return store.Close() }, nil

	case config.StorageDynamoDB:
		client, err := repository.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, noClose, err
		}
		store := repository.NewDynamoStore(client, cfg.DynamoTable)
		if autoMigrate {
			created, err := store.EnsureTable(ctx, time.Minute)
			if err != nil {
				return nil, noClose, fmt.Errorf("failed to ensure dynamodb table: %w", err)
			}
			if created {
				logger.Info("created dynamodb table", slog.String("table", cfg.DynamoTable))
			}
		}
		logger.Info("using dynamodb store",
			slog.String("table", cfg.DynamoTable),
			slog.String("region", cfg.AWSRegion),
			slog.String("endpoint", cfg.DynamoEndpoint),
		)
		return store, noClose, nil

	case config.StorageMemory:
		logger.Warn("using in-memory store; entries are lost on restart")
		return repository.NewMemoryStore(), noClose, nil

	default:
		return nil, noClose, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func runServe(ctx context.Context, autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)

	if autoMigrate && cfg.StorageBackend == config.StoragePostgres {
		if err := runMigrations(ctx, cfg.DatabaseURL, repository.Up, logger); err != nil {
			return err
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	// Storage
	store, closeStore, err := openStore(ctx, cfg, autoMigrate, logger)
	if err != nil {
		return err
	}

	var (
		svcStore     service.Store = store
		cacheClient  *cache.Cache
		cacheChecker handler.HealthChecker
	)
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			_ = closeStore(ctx)
			return fmt.Errorf("failed to connect to Redis: %s", sanitizeError(err, cfg.RedisURL))
		}
		logger.Info("connected to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))

		svcStore = cache.NewCachedStore(store, cacheClient, cfg.ListCacheTTL, logger, recorder)
		cacheChecker = cacheClient
	}

	// Services and handlers
	ids, err := service.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		_ = closeStore(ctx)
		return err
	}
	entryService := service.NewEntryService(svcStore, ids, recorder)

	rateLimit := middleware.RateLimitConfig{
		Logger:  logger,
		Enabled: cfg.RateLimitEnabled && cacheClient != nil,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}
	if cacheClient != nil {
		rateLimit.Limiter = cacheClient
	} else if cfg.RateLimitEnabled {
		logger.Warn("rate limiting requires REDIS_URL; disabled")
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigin = cfg.CORSAllowOrigin

	router := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Entries:            handler.NewEntryHandler(entryService, logger, cfg.EntryLookupEnabled),
		Config:             handler.NewConfigHandler(cfg.APIEndpoint),
		CORS:               cors,
		Security:           middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		RateLimit:          rateLimit,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(
		router,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	if cfg.AdminPort > 0 {
		health := handler.NewHealthHandler(store, cacheChecker)
		metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
		srv.AddListener("admin", handler.NewAdminRouter(health, metricsHandler, logger), cfg.AdminPort)
	}

	// Registered first, closed last.
	srv.OnShutdown("store", closeStore)
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"admin_port", cfg.AdminPort,
		"storage_backend", cfg.StorageBackend,
		"id_strategy", cfg.IDStrategy,
		"list_cache", cacheClient != nil,
		"version", version,
	)

	start := time.Now()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("server exited", "uptime", time.Since(start).String())

	return nil
}
