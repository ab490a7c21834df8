// Package config defines all configuration structures for the substance-mapper
// service.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// VocabularyConfig holds reference vocabulary source parameters.
type VocabularyConfig struct {
	// Source selects where the vocabulary is loaded from: "http" fetches the
	// reference CSV from URL on startup, "postgres" reads the pinned snapshot
	// from the database.
	Source string `mapstructure:"source"`

	// URL is the location of the reference classification CSV.
	URL string `mapstructure:"url"`

	// FetchTimeout bounds the HTTP fetch of the reference CSV.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// IDColumn and TextColumn are the CSV header names of the entry
	// identifier and canonical text columns.
	IDColumn   string `mapstructure:"id_column"`
	TextColumn string `mapstructure:"text_column"`

	// Separator is the CSV field separator; the reference list uses ";".
	Separator string `mapstructure:"separator"`

	// RefreshInterval triggers periodic re-fetching when > 0.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// MatcherConfig holds the matching pipeline tunables.  These mirror the
// options of matching.Options and are validated with the same rules, so an
// invalid file or environment value is rejected at startup rather than when
// the first batch arrives.
type MatcherConfig struct {
	// Threshold is the minimum similarity score in (0, 1] a vocabulary entry
	// must reach to become a candidate.
	Threshold float64 `mapstructure:"threshold"`

	// OnlyFirstMatch stops fragment processing after the first selected match
	// per record.
	OnlyFirstMatch bool `mapstructure:"only_first_match"`

	// MaxPerMatchID caps how many times a single vocabulary entry may be
	// selected within one record.  Must be ≥ 1.
	MaxPerMatchID int `mapstructure:"max_per_match_id"`

	// SplitPattern is the regular expression used to split free text into
	// fragments.  Empty selects the built-in default.
	SplitPattern string `mapstructure:"split_pattern"`

	// JoinDelimiter separates selected canonical texts in the output value.
	JoinDelimiter string `mapstructure:"join_delimiter"`

	// Preprocess enables the domain-specific text normalisation rules applied
	// before splitting.
	Preprocess bool `mapstructure:"preprocess"`

	// Workers bounds the number of records matched concurrently per batch.
	Workers int `mapstructure:"workers"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoffMS time.Duration `mapstructure:"retry_backoff_ms"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Namespace            string `mapstructure:"namespace"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
}

// Config is the root configuration structure for the entire service.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Matcher    MatcherConfig    `mapstructure:"matcher"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("server.port %d is out of range [1, 65535]", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("server.mode %q is invalid; expected debug|release|test", c.Server.Mode))
	}

	// Database
	if c.Database.Host == "" {
		return errors.Configuration(errors.ErrCodeConfigInvalid, "database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("database.port %d is out of range [1, 65535]", c.Database.Port))
	}
	if c.Database.MaxConns < 1 {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("database.max_conns must be at least 1, got %d", c.Database.MaxConns))
	}

	// Redis
	if c.Redis.Addr == "" {
		return errors.Configuration(errors.ErrCodeConfigInvalid, "redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("redis.db must be non-negative, got %d", c.Redis.DB))
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			"kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return errors.Configuration(errors.ErrCodeConfigInvalid, "kafka.group_id is required")
	}

	// Vocabulary
	switch c.Vocabulary.Source {
	case "http", "postgres":
	default:
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("vocabulary.source %q is invalid; expected http|postgres", c.Vocabulary.Source))
	}
	if c.Vocabulary.Source == "http" && c.Vocabulary.URL == "" {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			"vocabulary.url is required when vocabulary.source is http")
	}

	// Matcher
	if err := c.Matcher.Validate(); err != nil {
		return err
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("worker.concurrency must be at least 1, got %d", c.Worker.Concurrency))
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("log.format %q is invalid; expected json|console", c.Log.Format))
	}

	return nil
}

// Validate checks the matcher tunables.  The rules match the ones applied by
// the matching pipeline itself so that a bad value is caught at startup.
func (m *MatcherConfig) Validate() error {
	if m.Threshold <= 0 || m.Threshold > 1 {
		return errors.Configuration(errors.ErrCodeThresholdInvalid,
			fmt.Sprintf("matcher.threshold %g outside (0, 1]", m.Threshold))
	}
	if m.MaxPerMatchID < 1 {
		return errors.Configuration(errors.ErrCodeMaxPerMatchIDInvalid,
			fmt.Sprintf("matcher.max_per_match_id must be at least 1, got %d", m.MaxPerMatchID))
	}
	if m.SplitPattern != "" {
		if _, err := regexp.Compile(m.SplitPattern); err != nil {
			return errors.Configuration(errors.ErrCodeSplitPatternInvalid,
				fmt.Sprintf("matcher.split_pattern %q does not compile: %v", m.SplitPattern, err))
		}
	}
	if m.Workers < 1 {
		return errors.Configuration(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("matcher.workers must be at least 1, got %d", m.Workers))
	}
	return nil
}
