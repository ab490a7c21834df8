package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "submap"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "submap-workers"

	// DefaultVocabularyURL points at the published reference classification
	// list of oncology substances.
	DefaultVocabularyURL = "https://gitlab.opencode.de/robert-koch-institut/zentrum-fuer-krebsregisterdaten/cancerdataref/-/raw/master/reference_values/substanz.csv"

	DefaultVocabularyIDColumn   = "Code"
	DefaultVocabularyTextColumn = "Substanz"
	DefaultVocabularySeparator  = ";"

	DefaultMatchThreshold    = 0.8
	DefaultMaxPerMatchID     = 2
	DefaultJoinDelimiter     = "; "
	DefaultMatcherWorkers    = 8
	DefaultWorkerConcurrency = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "submap"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = time.Hour
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "submap"
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// Vocabulary
	if cfg.Vocabulary.Source == "" {
		cfg.Vocabulary.Source = "http"
	}
	if cfg.Vocabulary.URL == "" {
		cfg.Vocabulary.URL = DefaultVocabularyURL
	}
	if cfg.Vocabulary.FetchTimeout == 0 {
		cfg.Vocabulary.FetchTimeout = 30 * time.Second
	}
	if cfg.Vocabulary.IDColumn == "" {
		cfg.Vocabulary.IDColumn = DefaultVocabularyIDColumn
	}
	if cfg.Vocabulary.TextColumn == "" {
		cfg.Vocabulary.TextColumn = DefaultVocabularyTextColumn
	}
	if cfg.Vocabulary.Separator == "" {
		cfg.Vocabulary.Separator = DefaultVocabularySeparator
	}

	// Matcher
	if cfg.Matcher.Threshold == 0 {
		cfg.Matcher.Threshold = DefaultMatchThreshold
	}
	if cfg.Matcher.MaxPerMatchID == 0 {
		cfg.Matcher.MaxPerMatchID = DefaultMaxPerMatchID
	}
	if cfg.Matcher.JoinDelimiter == "" {
		cfg.Matcher.JoinDelimiter = DefaultJoinDelimiter
	}
	if cfg.Matcher.Workers == 0 {
		cfg.Matcher.Workers = DefaultMatcherWorkers
	}

	// Worker
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoffMS == 0 {
		cfg.Worker.RetryBackoffMS = 500 * time.Millisecond
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// Metrics
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.  It is
// used by cmd/*/main.go when no config file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
