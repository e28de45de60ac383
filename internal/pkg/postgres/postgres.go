// Package postgres initializes the PostgreSQL connection pool, with tracing & pool metrics enabled.
package postgres

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/prashantkr001/items-crud/internal/pkg/apm"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
	// AppName is set as application_name of every connection, it's visible in pg_stat_activity
	AppName string

	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	PingTimeout     time.Duration
}

// ConnString builds a URL encoded connection string, so that credentials with special
// characters need not be escaped by the user.
func (cfg *Config) ConnString() string {
	dsn := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}

	query := dsn.Query()
	if cfg.SSLMode != "" {
		query.Set("sslmode", cfg.SSLMode)
	}
	if cfg.AppName != "" {
		query.Set("application_name", cfg.AppName)
	}
	dsn.RawQuery = query.Encode()

	return dsn.String()
}

func poolConfig(cfg *Config) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, errors.Wrap(err, "invalid postgres configuration")
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pcfg.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithTracerProvider(apm.Global().GetTracerProvider()),
	)

	return pcfg, nil
}

func New(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	pcfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = time.Second * 3
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err = pool.Ping(pctx)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	err = instrumentPool(pool, cfg.Database)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// instrumentPool exports the pool statistics as metrics, they're collected only when scraped/exported.
func instrumentPool(pool *pgxpool.Pool, database string) error {
	meter := apm.Global().AppMeter()

	acquired, err := meter.Int64ObservableGauge(
		"db.pool.connections.acquired",
		metric.WithDescription("number of connections currently in use"),
	)
	if err != nil {
		return errors.Wrap(err, "meter.Int64ObservableGauge")
	}

	idle, err := meter.Int64ObservableGauge(
		"db.pool.connections.idle",
		metric.WithDescription("number of idle connections in the pool"),
	)
	if err != nil {
		return errors.Wrap(err, "meter.Int64ObservableGauge")
	}

	maxConns, err := meter.Int64ObservableGauge(
		"db.pool.connections.max",
		metric.WithDescription("maximum size of the pool"),
	)
	if err != nil {
		return errors.Wrap(err, "meter.Int64ObservableGauge")
	}

	acquires, err := meter.Int64ObservableCounter(
		"db.pool.acquires",
		metric.WithDescription("cumulative count of successful acquires from the pool"),
	)
	if err != nil {
		return errors.Wrap(err, "meter.Int64ObservableCounter")
	}

	attrs := metric.WithAttributes(attribute.String("db.name", database))
	_, err = meter.RegisterCallback(
		func(_ context.Context, obs metric.Observer) error {
			stat := pool.Stat()
			obs.ObserveInt64(acquired, int64(stat.AcquiredConns()), attrs)
			obs.ObserveInt64(idle, int64(stat.IdleConns()), attrs)
			obs.ObserveInt64(maxConns, int64(stat.MaxConns()), attrs)
			obs.ObserveInt64(acquires, stat.AcquireCount(), attrs)
			return nil
		},
		acquired,
		idle,
		maxConns,
		acquires,
	)
	if err != nil {
		return errors.Wrap(err, "meter.RegisterCallback")
	}

	return nil
}
