package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prashantkr001/items-crud/internal/config"
	"github.com/prashantkr001/items-crud/internal/pkg/apm"
	"github.com/prashantkr001/items-crud/internal/pkg/kafka"
	"github.com/prashantkr001/items-crud/internal/pkg/logger"
	"github.com/prashantkr001/items-crud/internal/pkg/postgres"
)

type ctxKey string

const (
	CtxKeyEnv ctxKey = "env"
)

func initLogger(cfg *config.Config) {
	ctxKeys := []any{CtxKeyEnv}
	if slices.Contains([]string{config.EnvDevelopment, config.EnvCI}, cfg.Environment) {
		lh, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
		logger.SetGlobal(lh)
	}

	logger.SetContextFieldsSetter(func(ctx context.Context) []zap.Field {
		fields := make([]zap.Field, 0, 1)
		for _, key := range ctxKeys {
			fields = append(
				fields,
				zap.Any(fmt.Sprintf("%v", key), ctx.Value(key)),
			)
		}

		traceID := trace.SpanContextFromContext(ctx).TraceID()
		if traceID.IsValid() {
			fields = append(fields, zap.String("trace_id", traceID.String()))
		}

		return fields
	})
}

func initAPM(ctx context.Context, cfg *config.Config) error {
	ins, err := apm.New(ctx, &apm.Options{
		Environment:          cfg.Environment,
		Debug:                cfg.APM.Debug,
		ServiceName:          cfg.AppName,
		ServiceVersion:       cfg.Version,
		TracesSampleRate:     cfg.APM.TracesSampleRate,
		CollectorURL:         cfg.APM.TracesCollectorURL,
		PrometheusScrapePort: cfg.APM.MetricScrapePort,
		UseStdOut:            slices.Contains([]string{config.EnvDevelopment, config.EnvCI}, cfg.Environment),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize APM")
	}
	apm.SetGlobal(ins)
	return nil
}

// dependencies are the external systems the app connects to. The Kafka clients are nil
// when Kafka is disabled.
type dependencies struct {
	pool          *pgxpool.Pool
	kafkaProducer *kafka.Kafka
	kafkaConsumer *kafka.Kafka
}

func initPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pgCfg := cfg.Postgres
	pool, err := postgres.New(ctx, &postgres.Config{
		Host:            pgCfg.Host,
		Port:            pgCfg.Port,
		Username:        pgCfg.Username,
		Password:        pgCfg.Password,
		Database:        pgCfg.Database,
		SSLMode:         pgCfg.SSLMode,
		AppName:         cfg.AppFullname(),
		MaxConns:        pgCfg.MaxConns,
		MinConns:        pgCfg.MinConns,
		MaxConnIdleTime: pgCfg.MaxConnIdleTime,
		MaxConnLifetime: pgCfg.MaxConnLifetime,
		PingTimeout:     pgCfg.PingTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Postgres")
	}

	return pool, nil
}

func kafkaConfig(cfg *config.Config) *kafka.Config {
	kcfg := cfg.Kafka
	if kcfg.ConsumerGroup == "" {
		kcfg.ConsumerGroup = cfg.AppFullname()
	}

	return &kafka.Config{
		LogLevel:               kcfg.LogLevel,
		Seeds:                  kcfg.Seeds,
		Topics:                 kcfg.Topics,
		ConsumerGroup:          kcfg.ConsumerGroup,
		IdleTimeout:            kcfg.IdleTimeout,
		RequestTimeoutOverhead: kcfg.RequestTimeoutOverhead,
		RetryTimeout:           kcfg.RetryTimeout,
		TxnTimeout:             kcfg.TxnTimeout,
		RecordTimeout:          kcfg.RecordTimeout,
		SessionTimeout:         kcfg.SessionTimeout,
		CommitTimeout:          kcfg.CommitTimeout,
		AuthMechanism:          kcfg.AuthMechanism,
		SASLUsername:           kcfg.SASLUsername,
		SASLPassword:           kcfg.SASLPassword,
		CACertificate:          kcfg.CACertificate,
		FetchMaxBytes:          kcfg.FetchMaxBytes,
		EnableAutoCommit:       kcfg.EnableAutoCommit,
		EnableTLSDialer:        kcfg.EnableTLSDialer,
	}
}

// initKafka returns separate clients for producing and consuming, so that flushing &
// closing the consumer on shutdown does not affect events still being published.
func initKafka(ctx context.Context, cfg *config.Config) (producer, consumer *kafka.Kafka, err error) {
	if !cfg.Kafka.Enabled {
		return nil, nil, nil
	}

	consumerCfg := kafkaConfig(cfg)
	producerCfg := *consumerCfg
	producerCfg.Topics = nil

	producer, err = kafka.New(ctx, &producerCfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize kafka producer")
	}

	if len(consumerCfg.Topics) == 0 {
		return producer, nil, nil
	}

	consumer, err = kafka.New(ctx, consumerCfg)
	if err != nil {
		producer.Client().Close()
		return nil, nil, errors.Wrap(err, "failed to initialize kafka consumer")
	}

	return producer, consumer, nil
}

func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	pool, err := initPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}

	producer, consumer, err := initKafka(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &dependencies{
		pool:          pool,
		kafkaProducer: producer,
		kafkaConsumer: consumer,
	}, nil
}
