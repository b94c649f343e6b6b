// Package bootstrap opens the backing services named in the configuration
// and wires them into a conversion service.  Every service is optional: an
// empty address leaves the matching field nil.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/turtacn/aopwiki-graph/internal/application/conversion"
	"github.com/turtacn/aopwiki-graph/internal/application/resolution"
	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/domain/run"
	neo4jdriver "github.com/turtacn/aopwiki-graph/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/aopwiki-graph/internal/infrastructure/database/neo4j/repositories"
	pgconn "github.com/turtacn/aopwiki-graph/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/aopwiki-graph/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/aopwiki-graph/internal/infrastructure/database/redis"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/mapping/bridgedb"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/storage/minio"
)

// Options select the optional parts of Open.
type Options struct {
	// Metrics registers the pipeline metrics on a private registry.
	Metrics bool
	// Migrate applies the run ledger migrations after connecting.
	Migrate bool
}

// Infrastructure holds the opened clients.  Close releases all of them.
type Infrastructure struct {
	Config    *config.Config
	Logger    logging.Logger
	Postgres  *pgconn.Connection
	Neo4j     *neo4jdriver.Driver
	Redis     *redisclient.Client
	Store     *minio.ArtifactStore
	Producer  *kafka.Producer
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.PipelineMetrics
}

// Open connects to every configured backing service.  On failure the
// services opened so far are closed.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger, opts Options) (*Infrastructure, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	infra := &Infrastructure{Config: cfg, Logger: log}

	if opts.Metrics || cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, log.Named("metrics"))
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		infra.Collector = collector
		infra.Metrics = prometheus.NewPipelineMetrics(collector)
	}

	if cfg.Postgres.Host != "" {
		conn, err := pgconn.NewConnection(ctx, cfg.Postgres, log.Named("postgres"))
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		infra.Postgres = conn
		if opts.Migrate {
			if err := pgconn.RunMigrations(cfg.PostgresDSN(), cfg.Postgres.MigrationPath); err != nil {
				infra.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
	}

	if cfg.Neo4j.URI != "" && cfg.HasSink(config.SinkNeo4j) {
		drv, err := neo4jdriver.NewDriver(cfg.Neo4j, log.Named("neo4j"))
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("neo4j: %w", err)
		}
		infra.Neo4j = drv
	}

	if cfg.Redis.Addr != "" {
		rc, err := redisclient.NewClient(cfg.Redis, log.Named("redis"))
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Redis = rc
	}

	if cfg.MinIO.Endpoint != "" {
		api, err := minio.NewClient(cfg.MinIO, log.Named("minio"))
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("minio: %w", err)
		}
		infra.Store = minio.NewArtifactStore(api, cfg.MinIO, cfg.Output.ObjectPrefix, log.Named("minio"))
		if cfg.HasSink(config.SinkMinIO) {
			if err := infra.Store.EnsureBucket(ctx); err != nil {
				infra.Close()
				return nil, fmt.Errorf("minio: %w", err)
			}
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		p, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), log.Named("kafka"))
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		infra.Producer = p
	}

	log.Info("infrastructure initialized",
		logging.Bool("ledger", infra.Postgres != nil),
		logging.Bool("graph_sink", infra.Neo4j != nil),
		logging.Bool("xref_cache", infra.Redis != nil),
		logging.Bool("object_store", infra.Store != nil),
		logging.Bool("events", infra.Producer != nil),
		logging.Bool("metrics", infra.Metrics != nil))
	return infra, nil
}

// Close releases every opened client.  It is safe on a partially opened
// Infrastructure.
func (i *Infrastructure) Close() {
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.Logger.Warn("closing kafka producer", logging.Err(err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			i.Logger.Warn("closing redis", logging.Err(err))
		}
	}
	if i.Neo4j != nil {
		if err := i.Neo4j.Close(context.Background()); err != nil {
			i.Logger.Warn("closing neo4j", logging.Err(err))
		}
	}
	if i.Postgres != nil {
		i.Postgres.Close()
	}
}

// Ledger returns the run ledger, or nil when Postgres is not configured.
func (i *Infrastructure) Ledger() run.Repository {
	if i.Postgres == nil {
		return nil
	}
	return pgrepo.NewPostgresRunRepo(i.Postgres.Pool(), i.Logger.Named("ledger"))
}

// MappingClient returns the BridgeDb client, or nil when the mapping
// service is disabled.
func (i *Infrastructure) MappingClient() (*bridgedb.Client, error) {
	b := i.Config.BridgeDb
	if b.Disabled {
		return nil, nil
	}
	opts := []bridgedb.Option{
		bridgedb.WithLogger(i.Logger.Named("bridgedb")),
		bridgedb.WithTimeout(b.Timeout),
		bridgedb.WithRetryMax(b.MaxRetries),
		bridgedb.WithRetryWait(b.RetryWaitMin, b.RetryWaitMax),
		bridgedb.WithRateLimit(b.RatePerSecond, b.Burst),
		bridgedb.WithUserAgent(b.UserAgent),
	}
	if i.Metrics != nil {
		opts = append(opts, bridgedb.WithObserver(i.Metrics))
	}
	return bridgedb.NewClient(b.BaseURL, opts...)
}

// Resolver builds the batch resolver over client, with the Redis cache and
// metrics when they are available.  A nil client yields a resolver that
// resolves every key to an empty set.
func (i *Infrastructure) Resolver(client *bridgedb.Client) resolution.Service {
	var extra []resolution.Option
	if i.Redis != nil {
		extra = append(extra, resolution.WithCache(redisclient.NewXrefCache(i.Redis, i.Logger.Named("xref_cache"),
			redisclient.WithPrefix(i.Config.Redis.KeyPrefix),
			redisclient.WithTTL(i.Config.Redis.XrefTTL))))
	}
	if i.Metrics != nil {
		extra = append(extra, resolution.WithRecorder(i.Metrics))
	}
	var mc resolution.MappingClient
	if client != nil {
		mc = client
	}
	return resolution.NewService(mc, resolution.Options{
		ChunkSize:   i.Config.BridgeDb.ChunkSize,
		Concurrency: i.Config.BridgeDb.Concurrency,
	}, i.Logger.Named("resolution"), extra...)
}

// ConversionService wires a conversion service over the opened clients.
func (i *Infrastructure) ConversionService() (*conversion.Service, error) {
	client, err := i.MappingClient()
	if err != nil {
		return nil, err
	}
	deps := conversion.Dependencies{
		Resolver: i.Resolver(client),
		Logger:   i.Logger,
	}
	if client != nil {
		deps.Properties = client
	}
	if i.Store != nil {
		deps.Store = i.Store
	}
	if i.Neo4j != nil {
		deps.Graph = neo4jrepo.NewNeo4jGraphRepo(i.Neo4j, i.Config.Neo4j.BatchSize, i.Logger.Named("graph_sink"))
	}
	if ledger := i.Ledger(); ledger != nil {
		deps.Ledger = ledger
	}
	if i.Producer != nil {
		deps.Publisher = i.Producer
	}
	if i.Metrics != nil {
		deps.Metrics = i.Metrics
	}
	return conversion.NewService(deps, conversion.OptionsFromConfig(i.Config))
}
