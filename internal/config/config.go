// Package config defines all configuration structures for the AOP-Wiki graph
// converter.  Plain data types and validation live here; loading is in
// loader.go and defaults in defaults.go.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Sink names accepted in OutputConfig.Sinks.
const (
	SinkNTriples = "ntriples"
	SinkNeo4j    = "neo4j"
	SinkMinIO    = "minio"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// SourceConfig locates the AOP-Wiki XML export.  Either XMLPath or
// Bucket/Object is used; a conversion request may override both.
type SourceConfig struct {
	XMLPath   string `mapstructure:"xml_path"`
	Bucket    string `mapstructure:"bucket"`
	Object    string `mapstructure:"object"`
	Namespace string `mapstructure:"namespace"`
}

// LexiconConfig locates the HGNC gene nomenclature table and the
// false-positive exception table.
type LexiconConfig struct {
	HGNCPath       string `mapstructure:"hgnc_path"`
	Bucket         string `mapstructure:"bucket"`
	Object         string `mapstructure:"object"`
	ExceptionsPath string `mapstructure:"exceptions_path"`
}

// BridgeDbConfig holds the identifier mapping service tunables.
type BridgeDbConfig struct {
	Disabled      bool          `mapstructure:"disabled"`
	BaseURL       string        `mapstructure:"base_url"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	Concurrency   int           `mapstructure:"concurrency"`
	RetryWaitMin  time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax  time.Duration `mapstructure:"retry_wait_max"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// OutputConfig selects where the assembled graph goes.
type OutputConfig struct {
	Dir          string   `mapstructure:"dir"`
	Sinks        []string `mapstructure:"sinks"`
	ObjectPrefix string   `mapstructure:"object_prefix"`
}

// Neo4jConfig holds graph sink connection parameters.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	BatchSize             int           `mapstructure:"batch_size"`
}

// RedisConfig holds the cross-reference cache parameters.  An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	XrefTTL      time.Duration `mapstructure:"xref_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// PostgresConfig holds the run ledger connection parameters.  An empty Host
// disables the ledger.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// MigrationPath is a migrate source URL such as "file://migrations";
	// empty uses the migrations compiled into the binary.
	MigrationPath string `mapstructure:"migration_path"`
}

// KafkaConfig holds event producer/consumer parameters.  Empty Brokers
// disables event publishing.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	ExportTopic     string        `mapstructure:"export_topic"`
	ConvertedTopic  string        `mapstructure:"converted_topic"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// MinIOConfig holds object storage connection parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// WorkerConfig holds the event-driven worker tunables.
type WorkerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	RunTimeout      time.Duration `mapstructure:"run_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Lexicon  LexiconConfig  `mapstructure:"lexicon"`
	BridgeDb BridgeDbConfig `mapstructure:"bridgedb"`
	Output   OutputConfig   `mapstructure:"output"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

// HasSink reports whether name is one of the configured output sinks.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Output.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// PostgresDSN renders the run ledger connection string.
func (c *Config) PostgresDSN() string {
	p := c.Postgres
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=" + p.SSLMode,
	}
	return u.String()
}

// Validate checks the configuration for values that would make a run
// misbehave.  It is called after ApplyDefaults.
func (c *Config) Validate() error {
	// BridgeDb
	if !c.BridgeDb.Disabled {
		u, err := url.Parse(c.BridgeDb.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: bridgedb.base_url %q is not an absolute URL", c.BridgeDb.BaseURL)
		}
	}
	if c.BridgeDb.ChunkSize < 1 {
		return fmt.Errorf("config: bridgedb.chunk_size must be ≥ 1, got %d", c.BridgeDb.ChunkSize)
	}
	if c.BridgeDb.MaxRetries < 0 {
		return fmt.Errorf("config: bridgedb.max_retries must be ≥ 0, got %d", c.BridgeDb.MaxRetries)
	}
	if c.BridgeDb.Concurrency < 1 {
		return fmt.Errorf("config: bridgedb.concurrency must be ≥ 1, got %d", c.BridgeDb.Concurrency)
	}
	if c.BridgeDb.Timeout <= 0 {
		return fmt.Errorf("config: bridgedb.timeout must be positive, got %s", c.BridgeDb.Timeout)
	}
	if c.BridgeDb.RetryWaitMax < c.BridgeDb.RetryWaitMin {
		return fmt.Errorf("config: bridgedb.retry_wait_max %s is below retry_wait_min %s",
			c.BridgeDb.RetryWaitMax, c.BridgeDb.RetryWaitMin)
	}

	// Output
	for _, s := range c.Output.Sinks {
		switch s {
		case SinkNTriples, SinkNeo4j, SinkMinIO:
		default:
			return fmt.Errorf("config: output.sinks entry %q is invalid; expected ntriples|neo4j|minio", s)
		}
	}
	if c.HasSink(SinkNeo4j) && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required when the neo4j sink is enabled")
	}
	if c.HasSink(SinkMinIO) && (c.MinIO.Endpoint == "" || c.MinIO.Bucket == "") {
		return fmt.Errorf("config: minio.endpoint and minio.bucket are required when the minio sink is enabled")
	}

	// Postgres
	if c.Postgres.Host != "" {
		if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
			return fmt.Errorf("config: postgres.port %d is out of range [1, 65535]", c.Postgres.Port)
		}
		if c.Postgres.DBName == "" {
			return fmt.Errorf("config: postgres.db_name is required")
		}
	}

	// Redis
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) > 0 && c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required when brokers are set")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
