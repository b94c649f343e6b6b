package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultSourceNamespace = "http://www.aopkb.org/aop-xml"

	DefaultBridgeDbBaseURL       = "https://webservice.bridgedb.org/Human/"
	DefaultBridgeDbChunkSize     = 100
	DefaultBridgeDbTimeout       = 30 * time.Second
	DefaultBridgeDbMaxRetries    = 3
	DefaultBridgeDbConcurrency   = 8
	DefaultBridgeDbRetryWaitMin  = 1 * time.Second
	DefaultBridgeDbRetryWaitMax  = 30 * time.Second
	DefaultBridgeDbRatePerSecond = 10.0
	DefaultBridgeDbBurst         = 8
	DefaultBridgeDbUserAgent     = "aopwiki-graph/1.0"

	DefaultOutputDir = "./out"

	DefaultNeo4jDatabase    = "neo4j"
	DefaultNeo4jPoolSize    = 50
	DefaultNeo4jConnTimeout = 30 * time.Second
	DefaultNeo4jBatchSize   = 500

	DefaultRedisPoolSize  = 10
	DefaultRedisXrefTTL   = 7 * 24 * time.Hour
	DefaultRedisKeyPrefix = "aopgraph:"
	DefaultRedisTimeout   = 3 * time.Second

	DefaultPostgresPort     = 5432
	DefaultPostgresSSLMode  = "disable"
	DefaultPostgresMaxConns = 5

	DefaultKafkaGroupID         = "aopgraph-worker"
	DefaultKafkaExportTopic     = "aopwiki.export.published"
	DefaultKafkaConvertedTopic  = "aopwiki.graph.converted"
	DefaultKafkaDeadLetterTopic = "aopwiki.export.dlq"
	DefaultKafkaWriteTimeout    = 10 * time.Second
	DefaultKafkaMaxAttempts     = 3

	DefaultMetricsNamespace = "aopgraph"

	DefaultWorkerHTTPAddr        = ":9091"
	DefaultWorkerRunTimeout      = 2 * time.Hour
	DefaultWorkerShutdownTimeout = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields that have already been set are left unchanged so that explicit
// configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Source ────────────────────────────────────────────────────────────────
	if cfg.Source.Namespace == "" {
		cfg.Source.Namespace = DefaultSourceNamespace
	}

	// ── BridgeDb ──────────────────────────────────────────────────────────────
	b := &cfg.BridgeDb
	if b.BaseURL == "" {
		b.BaseURL = DefaultBridgeDbBaseURL
	}
	if b.ChunkSize == 0 {
		b.ChunkSize = DefaultBridgeDbChunkSize
	}
	if b.Timeout == 0 {
		b.Timeout = DefaultBridgeDbTimeout
	}
	if b.MaxRetries == 0 {
		b.MaxRetries = DefaultBridgeDbMaxRetries
	}
	if b.Concurrency == 0 {
		b.Concurrency = DefaultBridgeDbConcurrency
	}
	if b.RetryWaitMin == 0 {
		b.RetryWaitMin = DefaultBridgeDbRetryWaitMin
	}
	if b.RetryWaitMax == 0 {
		b.RetryWaitMax = DefaultBridgeDbRetryWaitMax
	}
	if b.RatePerSecond == 0 {
		b.RatePerSecond = DefaultBridgeDbRatePerSecond
	}
	if b.Burst == 0 {
		b.Burst = DefaultBridgeDbBurst
	}
	if b.UserAgent == "" {
		b.UserAgent = DefaultBridgeDbUserAgent
	}

	// ── Output ────────────────────────────────────────────────────────────────
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if len(cfg.Output.Sinks) == 0 {
		cfg.Output.Sinks = []string{SinkNTriples}
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = DefaultNeo4jPoolSize
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = DefaultNeo4jConnTimeout
	}
	if cfg.Neo4j.BatchSize == 0 {
		cfg.Neo4j.BatchSize = DefaultNeo4jBatchSize
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.XrefTTL == 0 {
		cfg.Redis.XrefTTL = DefaultRedisXrefTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = DefaultRedisTimeout
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = DefaultPostgresMaxConns
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.ExportTopic == "" {
		cfg.Kafka.ExportTopic = DefaultKafkaExportTopic
	}
	if cfg.Kafka.ConvertedTopic == "" {
		cfg.Kafka.ConvertedTopic = DefaultKafkaConvertedTopic
	}
	if cfg.Kafka.DeadLetterTopic == "" {
		cfg.Kafka.DeadLetterTopic = DefaultKafkaDeadLetterTopic
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = DefaultKafkaWriteTimeout
	}
	if cfg.Kafka.MaxAttempts == 0 {
		cfg.Kafka.MaxAttempts = DefaultKafkaMaxAttempts
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.HTTPAddr == "" {
		cfg.Worker.HTTPAddr = DefaultWorkerHTTPAddr
	}
	if cfg.Worker.RunTimeout == 0 {
		cfg.Worker.RunTimeout = DefaultWorkerRunTimeout
	}
	if cfg.Worker.ShutdownTimeout == 0 {
		cfg.Worker.ShutdownTimeout = DefaultWorkerShutdownTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Default returns a fully defaulted Config with no file or environment input.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
