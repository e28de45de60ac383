// Package config reads config required for the entire application
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLive        = "live"
	EnvDevelopment = "development"
	EnvCI          = "ci"
)

/*
Config holds all the configurations required for the application to function.
Most drivers like Redis, SQL etc. have optional "client name" field. Make use of the
`cfg.AppFullname()` to set these. It helps us easily identify which version of the app is
communicating with the respective dependency. Especially when we have multiple versions of
deployed, connected to the same dependencies. It would also help us forcefully remove connections
from dependencies if required.
*/
type Config struct {
	AppName      string `json:"appName,omitempty" env:"APP_NAME" envDefault:"items-crud"`
	Version      string `json:"version,omitempty" env:"APP_VERSION" envDefault:"v0.0.0"`
	AppBuildDate string `json:"appBuild,omitempty" env:"APP_BUILT_AT" envDefault:"0000-00-00"`
	Environment  string `json:"environment,omitempty" env:"ENVIRONMENT" envDefault:""`
	// HealthPort is where the probe responder (liveness, readiness etc.) listens
	HealthPort uint16 `json:"healthPort,omitempty" env:"HEALTH_PORT" envDefault:"2000"`
	// ShutdownDelay should be longer than the readiness probe interval
	ShutdownDelay time.Duration `json:"shutdownDelay,omitempty" env:"SHUTDOWN_DELAY" envDefault:"3s"`

	HTTP struct {
		Host              string        `json:"host,omitempty" env:"APP_HTTP_HOST" envDefault:""`
		Port              int           `json:"port,omitempty" env:"APP_HTTP_PORT" envDefault:"5000"`
		ReadHeaderTimeout time.Duration `json:"readHeaderTimeout,omitempty" env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
		ReadTimeout       time.Duration `json:"readTimeout,omitempty" env:"HTTP_READ_TIMEOUT" envDefault:"60s"`
		WriteTimeout      time.Duration `json:"writeTimeout,omitempty" env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout       time.Duration `json:"idleTimeout,omitempty" env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
		// CORSOrigins are the allowed origins, the default allows all
		CORSOrigins     []string `json:"corsOrigins,omitempty" env:"HTTP_CORS_ORIGINS" envDefault:"*"`
		EnableAccesslog bool
	} `json:"http,omitempty"`

	Postgres struct {
		Host     string `json:"host,omitempty" env:"POSTGRES_HOST" envDefault:"localhost"`
		Port     int    `json:"port,omitempty" env:"POSTGRES_PORT" envDefault:"5432"`
		Username string `json:"username,omitempty" env:"POSTGRES_USER" envDefault:"root"`
		Password string `json:"password,omitempty" env:"POSTGRES_PASSWORD" envDefault:""`
		Database string `json:"database,omitempty" env:"POSTGRES_DATABASE" envDefault:"flask_test"`
		// SSLMode should be one of "disable", "allow", "prefer", "require", "verify-ca", "verify-full"
		SSLMode         string        `json:"sslMode,omitempty" env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxConns        int32         `json:"maxConns,omitempty" env:"POSTGRES_MAX_CONNS" envDefault:"10"`
		MinConns        int32         `json:"minConns,omitempty" env:"POSTGRES_MIN_CONNS" envDefault:"0"`
		MaxConnIdleTime time.Duration `json:"maxIdleTimeout,omitempty" env:"POSTGRES_IDLE_TIMEOUT" envDefault:"4m"`
		MaxConnLifetime time.Duration `json:"maxConnLifetime,omitempty" env:"POSTGRES_CONN_LIFETIME" envDefault:"30m"`
		PingTimeout     time.Duration `json:"pingTimeout,omitempty" env:"POSTGRES_PING_TIMEOUT" envDefault:"3s"`
	} `json:"postgres,omitempty"`

	Kafka struct {
		// Enabled decides if item events are published & the item_create topic is subscribed to
		Enabled  bool `json:"enabled,omitempty" env:"KAFKA_ENABLED" envDefault:"false"`
		LogLevel int8 `json:"logLevel,omitempty" env:"KAFKA_LOG_LEVEL" envDefault:"1"` // loglevel 1 is >= error

		Seeds         []string `json:"seeds,omitempty" env:"KAFKA_SEEDS" envDefault:"localhost:9092"`
		Topics        []string `json:"topics,omitempty" env:"KAFKA_TOPICS" envDefault:"item_create"`
		PublishTopic  string   `json:"publishTopic,omitempty" env:"KAFKA_PUBLISH_TOPIC" envDefault:"item_events"`
		ConsumerGroup string   `json:"consumerGroup,omitempty" env:"KAFKA_CONSUMERGROUP" envDefault:""`

		IdleTimeout            time.Duration `json:"idleTimeout,omitempty" env:"KAFKA_IDLETIMEOUT" envDefault:"3s"`
		RequestTimeoutOverhead time.Duration `json:"requestTimeoutOverhead,omitempty" env:"KAFKA_REQTIMEOUT" envDefault:"3s"`
		RetryTimeout           time.Duration `json:"retryTimeout,omitempty" env:"KAFKA_RETTIMEOUT" envDefault:"3s"`
		TxnTimeout             time.Duration `json:"txnTimeout,omitempty" env:"KAFKA_TXNTIMEOUT" envDefault:"3s"`
		RecordTimeout          time.Duration `json:"recordTimeout,omitempty" env:"KAFKA_RECTIMEOUT" envDefault:"3s"`
		SessionTimeout         time.Duration `json:"sessionTimeout,omitempty" env:"KAFKA_SESSTIMEOUT" envDefault:"60s"`
		CommitTimeout          time.Duration `json:"CommitTimeout,omitempty" env:"KAFKA_COMMTIMEOUT" envDefault:"5s"`

		AuthMechanism string `json:"authMechanism,omitempty" env:"KAFKA_AUTH_MECHANISM" envDefault:""`
		SASLUsername  string `json:"saslUsername,omitempty" env:"KAFKA_SASL_USERNAME" envDefault:""`
		SASLPassword  string `json:"saslPassword,omitempty" env:"KAFKA_SASL_PASSWORD" envDefault:""`
		CACertificate string `json:"caCertificate,omitempty" env:"KAFKA_CA_CERT" envDefault:""`

		FetchMaxBytes int32 `json:"fetchMaxBytes,omitempty" env:"KAFKA_FETCH_MAXBYTES" envDefault:"1048576"` // 1MiB

		EnableAutoCommit bool `json:"enableAutoCommit,omitempty" env:"KAFKA_AUTO_COMMIT" envDefault:"false"`
		EnableTLSDialer  bool `json:"enableTLSDialer,omitempty" env:"KAFKA_ENABLE_TLSDIALER" envDefault:"false"`
	} `json:"kafka,omitempty"`

	APM struct {
		Debug              bool    `json:"debug" env:"TRACES_DEBUG"`
		TracesSampleRate   float64 `json:"tracesSampleRate" env:"TRACES_SAMPLE_RATE"`
		TracesCollectorURL string  `json:"collectorUrl" env:"TRACES_COLLECTOR_URL"`
		MetricScrapePort   uint16  `json:"metricScrapePort" env:"METRIC_SCRAPE_PORT" envDefault:"2223"`
	} `json:"apm"`
}

func (cfg *Config) AppFullname() string {
	return fmt.Sprintf("%s%s", cfg.AppName, cfg.Version)
}

// Load reads the configuration from the yaml file at path/fileName if available. Otherwise
// it's read from the environment (a .env file in the working directory, if present, is
// loaded into the environment first).
func Load(path, fileName string) (*Config, error) {
	configs := Config{}

	// .env is optional, only meant for local development
	_ = godotenv.Load()

	vpr := viper.New()
	vpr.AddConfigPath(path)
	vpr.SetConfigName(fileName)
	vpr.SetConfigType("yaml")
	vpr.AutomaticEnv()

	err := vpr.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed reading config file: %w", err)
		}

		err = env.Parse(&configs)
		if err != nil {
			return nil, fmt.Errorf("failed reading config from environment: %w", err)
		}
		return &configs, nil
	}

	err = vpr.Unmarshal(&configs)
	if err != nil {
		return nil, fmt.Errorf("fatal error when unmarshaling config file: %w", err)
	}

	return &configs, nil
}
