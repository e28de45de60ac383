// Package kafka is a thin wrapper over franz-go, with tracing, metrics & structured logging enabled.
// It's used for publishing item events as well as consuming item commands.
package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/naughtygopher/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/prashantkr001/items-crud/internal/pkg/logger"
)

type Config struct {
	LogLevel int8

	Seeds []string
	// Topics are the topics consumed. If empty, the client is used only for producing
	Topics        []string
	ConsumerGroup string

	IdleTimeout            time.Duration
	RequestTimeoutOverhead time.Duration
	RetryTimeout           time.Duration
	TxnTimeout             time.Duration
	RecordTimeout          time.Duration
	SessionTimeout         time.Duration
	CommitTimeout          time.Duration

	AuthMechanism string
	SASLUsername  string
	SASLPassword  string
	CACertificate string

	FetchMaxBytes int32

	EnableAutoCommit bool
	EnableTLSDialer  bool
}

type Handler func(ctx context.Context, payload []byte) error

type Kafka struct {
	cfg               *Config
	client            *kgo.Client
	tracer            *kotel.Tracer
	commitTimeout     time.Duration
	latencyInstrument metric.Int64Histogram
}

func (kfk *Kafka) Ping(ctx context.Context) error {
	err := kfk.client.Ping(ctx)
	if err != nil {
		return errors.Wrap(err, "kafka ping failed")
	}
	return nil
}

func (kfk *Kafka) Flush(ctx context.Context) error {
	err := kfk.client.Flush(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to flush Kafka client")
	}
	return nil
}

func (kfk *Kafka) Shutdown(ctx context.Context) error {
	err := kfk.Flush(ctx)
	if err != nil {
		return err
	}

	if len(kfk.cfg.Topics) > 0 {
		kfk.client.PauseFetchTopics(kfk.cfg.Topics...)
	}
	kfk.client.Close()

	return nil
}

func (kfk *Kafka) PollFetches(ctx context.Context) kgo.Fetches {
	return kfk.client.PollFetches(ctx)
}

func (kfk *Kafka) CommitRecords(ctx context.Context, records ...*kgo.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, kfk.commitTimeout)
	defer cancel()
	err := kfk.client.CommitRecords(ctx, records...)
	if err != nil {
		return errors.Wrap(err, "kafka commit failed")
	}

	return nil
}

func (kfk *Kafka) ProduceSync(ctx context.Context, rec *kgo.Record) error {
	results := kfk.client.ProduceSync(ctx, rec)
	err := results.FirstErr()
	if err != nil {
		return errors.Wrap(err, "kafka produce sync failed")
	}
	return nil
}

// HandleTopic calls fn for the record within a process span, and records the time taken.
// The record is appended to commitRecords only if fn succeeds.
func (kfk *Kafka) HandleTopic(
	ctx context.Context,
	commitRecords *[]*kgo.Record,
	record *kgo.Record,
	fn Handler,
) {
	childCtx, span := kfk.tracer.WithProcessSpan(record)

	if deadLine, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		childCtx, cancel = context.WithDeadline(childCtx, deadLine)
		defer cancel()
	}

	attr := []attribute.KeyValue{
		{Key: semconv.MessagingKafkaConsumerGroupKey, Value: attribute.StringValue(kfk.cfg.ConsumerGroup)},
		{Key: "kafka.topic", Value: attribute.StringValue(record.Topic)},
	}
	defer func(t time.Time) {
		span.SetAttributes(attr...)
		kfk.latencyInstrument.Record(childCtx, time.Since(t).Milliseconds(), metric.WithAttributes(attr...))
		span.End()
	}(time.Now())

	err := fn(childCtx, record.Value)
	if err != nil {
		logger.ErrorCtx(
			childCtx,
			fmt.Sprintf("%+v", err),
			zap.String("topic", record.Topic),
			zap.Int32("partition", record.Partition),
			zap.Int64("offset", record.Offset),
		)
		return
	}
	*commitRecords = append(*commitRecords, record)
}

func (kfk *Kafka) Client() *kgo.Client {
	return kfk.client
}

func kgoDialer(cfg *Config) (*tls.Dialer, error) {
	tlsDialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: cfg.RetryTimeout},
	}

	if cfg.CACertificate == "" {
		return tlsDialer, nil
	}

	cACert, err := base64.StdEncoding.DecodeString(cfg.CACertificate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64 ca certificate")
	}

	caCertPool := x509.NewCertPool()
	ok := caCertPool.AppendCertsFromPEM(cACert)
	if !ok {
		return nil, errors.New("invalid ca certificate provided")
	}

	tlsDialer.Config = &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}

	return tlsDialer, nil
}

func kgoOptsFromCfg(cfg *Config, extra ...kgo.Opt) ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Seeds...),
		kgo.ConnIdleTimeout(cfg.IdleTimeout),
		kgo.RetryTimeout(cfg.RetryTimeout),
		kgo.RequestTimeoutOverhead(cfg.RequestTimeoutOverhead),
		kgo.TransactionTimeout(cfg.TxnTimeout),
		kgo.RecordDeliveryTimeout(cfg.RecordTimeout),
		kgo.WithLogger(kzap.New(logger.Handler(), kzap.Level(kgo.LogLevel(cfg.LogLevel)))),
	}

	if len(cfg.Topics) > 0 {
		opts = append(
			opts,
			kgo.ConsumeTopics(cfg.Topics...),
			kgo.ConsumerGroup(cfg.ConsumerGroup),
			kgo.SessionTimeout(cfg.SessionTimeout),
		)
		if !cfg.EnableAutoCommit {
			// DisableAutoCommit is required to handle usecases where we have to NACK a message
			// if the processing fails.
			opts = append(opts, kgo.DisableAutoCommit())
		}
	}

	if cfg.FetchMaxBytes > 0 {
		const maxSizeMultiplier = 2
		opts = append(
			opts,
			kgo.FetchMaxBytes(cfg.FetchMaxBytes),
			kgo.BrokerMaxReadBytes(maxSizeMultiplier*cfg.FetchMaxBytes),
		)
	}

	if strings.EqualFold(cfg.AuthMechanism, "SASL") {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.SASLUsername,
			Pass: cfg.SASLPassword,
		}.AsMechanism()))
	}

	if cfg.EnableTLSDialer {
		tlsDialer, err := kgoDialer(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	opts = append(opts, extra...)

	return opts, nil
}

func newCli(ctx context.Context, cfg *Config, opts ...kgo.Opt) (*kgo.Client, error) {
	kgoOpts, err := kgoOptsFromCfg(cfg, opts...)
	if err != nil {
		return nil, err
	}

	cli, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "kafka client initialization failed")
	}

	const (
		pingTimeout = time.Second * 3
		sleepTime   = time.Second * 3
		maxTries    = 3
	)
	for failure := 0; ; failure++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = cli.Ping(pingCtx)
		cancel()
		if err == nil {
			break
		}
		if failure >= maxTries {
			cli.Close()
			return nil, errors.Wrap(err, "kafka ping failed")
		}
		logger.WarnCtx(ctx, "kafka ping failed, retrying", zap.Int("attempt", failure+1), zap.Error(err))
		time.Sleep(sleepTime)
	}

	return cli, nil
}

func New(ctx context.Context, cfg *Config, opts ...kgo.Opt) (*Kafka, error) {
	return withOTEL(ctx, cfg, opts...)
}
