// Command worker converts AOP-Wiki exports announced on Kafka.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/aopwiki-graph/internal/bootstrap"
	"github.com/turtacn/aopwiki-graph/internal/config"
	redisclient "github.com/turtacn/aopwiki-graph/internal/infrastructure/database/redis"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	apphttp "github.com/turtacn/aopwiki-graph/internal/interfaces/http"
	"github.com/turtacn/aopwiki-graph/internal/interfaces/http/handlers"
)

const defaultWorkerConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}

	logger, level, err := logging.NewLeveledLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	logging.SetDefault(logger)

	current := cfg.Log.Level
	config.Watch(configPath, func(next *config.Config) {
		if next.Log.Level != current {
			current = next.Log.Level
			level.SetLevel(logging.ParseLevel(next.Log.Level))
			logger.Info("log level changed", logging.String("level", next.Log.Level))
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, logger, bootstrap.Options{Metrics: true, Migrate: true})
	if err != nil {
		return fmt.Errorf("initializing infrastructure: %w", err)
	}
	defer infra.Close()

	svc, err := infra.ConversionService()
	if err != nil {
		return err
	}

	var newLock func(string) locker
	if infra.Redis != nil {
		newLock = func(name string) locker {
			return redisclient.NewRunLock(infra.Redis, name, cfg.Worker.RunTimeout, logger.Named("run_lock"))
		}
	}
	handler := newExportHandler(svc, cfg, newLock, logger.Named("export_handler"))

	if err := ensureTopics(ctx, cfg, logger); err != nil {
		return err
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka), logger.Named("consumer"))
	if err != nil {
		return fmt.Errorf("creating kafka consumer: %w", err)
	}
	defer consumer.Close()
	consumer.Subscribe(cfg.Kafka.ExportTopic, handler.Handle)

	srv := apphttp.NewServer(cfg.Worker.HTTPAddr, apphttp.NewRouter(routerConfig(infra, logger)), logger.Named("http"))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("http server stopped", logging.Err(err))
			stop()
		}
	}()

	logger.Info("worker started",
		logging.String("topic", cfg.Kafka.ExportTopic),
		logging.String("http_addr", cfg.Worker.HTTPAddr))

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("starting kafka consumer: %w", err)
	}
	<-ctx.Done()
	logger.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", logging.Err(err))
	}
	return nil
}

func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger.Named("topics"))
	if err != nil {
		return fmt.Errorf("connecting to kafka: %w", err)
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Kafka.ExportTopic, cfg.Kafka.ConvertedTopic, cfg.Kafka.DeadLetterTopic))
}

func routerConfig(infra *bootstrap.Infrastructure, logger logging.Logger) apphttp.RouterConfig {
	var checks []handlers.HealthChecker
	if infra.Postgres != nil {
		checks = append(checks, handlers.CheckFunc{Component: "postgres", Fn: infra.Postgres.HealthCheck})
	}
	if infra.Redis != nil {
		checks = append(checks, handlers.CheckFunc{Component: "redis", Fn: infra.Redis.Ping})
	}
	if infra.Neo4j != nil {
		checks = append(checks, handlers.CheckFunc{Component: "neo4j", Fn: infra.Neo4j.HealthCheck})
	}
	if infra.Store != nil {
		checks = append(checks, handlers.CheckFunc{Component: "minio", Fn: infra.Store.HealthCheck})
	}

	rc := apphttp.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version, checks...),
		Logger:        logger.Named("http"),
	}
	if ledger := infra.Ledger(); ledger != nil {
		rc.RunHandler = handlers.NewRunHandler(ledger)
	}
	if infra.Collector != nil {
		rc.MetricsHandler = infra.Collector.Handler()
	}
	return rc
}
