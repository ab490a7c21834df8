// The worker binary consumes match jobs from Kafka, runs them through the
// matching pipeline, and publishes aligned results.
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
)

var version = "dev"

const refreshLockTTL = 2 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("worker")
	logger.Info("Starting worker", logging.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
		EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build metrics collector", logging.Err(err))
	}
	metrics := prometheus.NewAppMetrics(collector)

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

	redisClient, err := redis.NewClient(&redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to redis", logging.Err(err))
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix+":"),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
	)

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:    cfg.Kafka.Brokers,
		MaxRetries: cfg.Kafka.ProducerRetries,
		BatchSize:  cfg.Kafka.BatchSize,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build kafka producer", logging.Err(err))
	}
	defer producer.Close()

	matcher, err := matching.NewMatcher(matching.Options{
		Threshold:      cfg.Matcher.Threshold,
		OnlyFirstMatch: cfg.Matcher.OnlyFirstMatch,
		MaxPerMatchID:  cfg.Matcher.MaxPerMatchID,
		SplitPattern:   cfg.Matcher.SplitPattern,
		JoinDelimiter:  cfg.Matcher.JoinDelimiter,
		Preprocess:     cfg.Matcher.Preprocess,
		Workers:        cfg.Matcher.Workers,
	}, nil)
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
		Source:     "worker",
	})
	if err != nil {
		logger.Fatal("Failed to build matching service", logging.Err(err))
	}

	if err := svc.RefreshVocabulary(ctx); err != nil {
		logger.Warn("Initial vocabulary fetch failed, falling back to snapshot", logging.Err(err))
		if err := svc.LoadFromRepository(ctx); err != nil {
			logger.Fatal("No vocabulary available", logging.Err(err))
		}
	}
	if cfg.Vocabulary.RefreshInterval > 0 {
		locker := redis.NewMutex(redisClient, logger, "vocabulary-refresh", refreshLockTTL)
		svc.StartRefreshLoop(ctx, cfg.Vocabulary.RefreshInterval, locker)
	}

	// Make sure the job topics exist before consuming.
	topicManager, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Warn("Topic manager unavailable, assuming topics exist", logging.Err(err))
	} else {
		if err := topicManager.EnsureDefaultTopics(ctx); err != nil {
			logger.Warn("Failed to ensure topics", logging.Err(err))
		}
		topicManager.Close()
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		Topics:          []string{kafka.TopicMatchJobs},
		AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
		Retry: kafka.RetryConfig{
			MaxRetries:      cfg.Worker.MaxRetries,
			RetryBackoff:    cfg.Worker.RetryBackoffMS,
			DeadLetterTopic: kafka.TopicMatchDeadLetter,
		},
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build kafka consumer", logging.Err(err))
	}

	consumer.Subscribe(kafka.TopicMatchJobs, svc.ProcessJobMessage)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("Failed to start consumer", logging.Err(err))
	}
	logger.Info("Worker consuming match jobs",
		logging.String("topic", kafka.TopicMatchJobs),
		logging.String("group", cfg.Kafka.GroupID))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received shutdown signal", logging.String("signal", sig.String()))

	cancel()
	if err := consumer.Close(); err != nil {
		logger.Error("Consumer close failed", logging.Err(err))
	}
	logger.Info("worker stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
