// The apiserver binary serves the substance matching HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medcodelab/substance-mapper/internal/application/substancematch"
	"github.com/medcodelab/substance-mapper/internal/config"
	"github.com/medcodelab/substance-mapper/internal/domain/matching"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/database/postgres"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/database/redis"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/messaging/kafka"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/prometheus"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/vocabulary/httpcsv"
	httpserver "github.com/medcodelab/substance-mapper/internal/interfaces/http"
	"github.com/medcodelab/substance-mapper/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var version = "dev"

const refreshLockTTL = 2 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("apiserver")
	logger.Info("Starting apiserver", logging.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
		EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build metrics collector", logging.Err(err))
	}
	metrics := prometheus.NewAppMetrics(collector)

	// PostgreSQL: vocabulary snapshots
	pool, err := postgres.NewPool(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.DBName,
		Username:        cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", logging.Err(err))
	}
	defer pool.Close()

	repo := postgres.NewVocabularyRepository(pool.Pool(), logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure vocabulary schema", logging.Err(err))
	}

	// Redis: result cache and refresh lock
	redisClient, err := redis.NewClient(&redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to redis", logging.Err(err))
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix+":"),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
	)

	// Kafka: asynchronous match jobs
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:    cfg.Kafka.Brokers,
		MaxRetries: cfg.Kafka.ProducerRetries,
		BatchSize:  cfg.Kafka.BatchSize,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build kafka producer", logging.Err(err))
	}
	defer producer.Close()

	// Matching pipeline
	matcher, err := matching.NewMatcher(matcherOptions(cfg), nil)
	if err != nil {
		logger.Fatal("Invalid matcher configuration", logging.Err(err))
	}
	provider, err := httpcsv.NewProvider(httpcsv.Config{
		URL:          cfg.Vocabulary.URL,
		IDColumn:     cfg.Vocabulary.IDColumn,
		TextColumn:   cfg.Vocabulary.TextColumn,
		Separator:    cfg.Vocabulary.Separator,
		FetchTimeout: cfg.Vocabulary.FetchTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Invalid vocabulary configuration", logging.Err(err))
	}

	svc, err := substancematch.NewService(substancematch.Dependencies{
		Matcher:    matcher,
		Provider:   provider,
		Repository: repo,
		Cache:      cache,
		CacheTTL:   cfg.Redis.DefaultTTL,
		Publisher:  producer,
		Metrics:    metrics,
		Logger:     logger,
		Source:     "api",
	})
	if err != nil {
		logger.Fatal("Failed to build matching service", logging.Err(err))
	}

	loadVocabulary(ctx, cfg, svc, logger)

	if cfg.Vocabulary.RefreshInterval > 0 {
		locker := redis.NewMutex(redisClient, logger, "vocabulary-refresh", refreshLockTTL)
		svc.StartRefreshLoop(ctx, cfg.Vocabulary.RefreshInterval, locker)
	}

	// HTTP
	router := httpserver.NewRouter(httpserver.RouterConfig{
		MatchHandler:      handlers.NewMatchHandler(svc),
		VocabularyHandler: handlers.NewVocabularyHandler(svc),
		HealthHandler: handlers.NewHealthHandler(version,
			handlers.HealthCheckerFunc{ComponentName: "postgres", CheckFunc: pool.HealthCheck},
			handlers.HealthCheckerFunc{ComponentName: "redis", CheckFunc: redisClient.Ping},
		),
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
	})
	server := httpserver.NewServer(cfg.Server.Port, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", logging.Err(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", logging.Err(err))
	}
	cancel()
	logger.Info("apiserver stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func matcherOptions(cfg *config.Config) matching.Options {
	return matching.Options{
		Threshold:      cfg.Matcher.Threshold,
		OnlyFirstMatch: cfg.Matcher.OnlyFirstMatch,
		MaxPerMatchID:  cfg.Matcher.MaxPerMatchID,
		SplitPattern:   cfg.Matcher.SplitPattern,
		JoinDelimiter:  cfg.Matcher.JoinDelimiter,
		Preprocess:     cfg.Matcher.Preprocess,
		Workers:        cfg.Matcher.Workers,
	}
}

// loadVocabulary installs the initial vocabulary.  The remote source is
// preferred; when it is unreachable the persisted snapshot keeps the API
// serving until the next successful refresh.
func loadVocabulary(ctx context.Context, cfg *config.Config, svc *substancematch.Service, logger logging.Logger) {
	if cfg.Vocabulary.Source == "postgres" {
		if err := svc.LoadFromRepository(ctx); err != nil {
			logger.Fatal("Failed to load vocabulary snapshot", logging.Err(err))
		}
		return
	}

	if err := svc.RefreshVocabulary(ctx); err != nil {
		logger.Warn("Initial vocabulary fetch failed, falling back to snapshot", logging.Err(err))
		if err := svc.LoadFromRepository(ctx); err != nil {
			logger.Fatal("No vocabulary available", logging.Err(err))
		}
	}
}
