package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)

	t.Setenv("ENVIRONMENT", EnvCI)
	t.Setenv("APP_VERSION", "v1.2.3")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_IDLE_TIMEOUT", "90s")
	t.Setenv("KAFKA_SEEDS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load(t.TempDir(), "missing")
	requirer.NoError(err)

	asserter.Equal(EnvCI, cfg.Environment)
	asserter.Equal("items-crudv1.2.3", cfg.AppFullname())
	asserter.Equal("db.internal", cfg.Postgres.Host)
	asserter.Equal("secret", cfg.Postgres.Password)
	asserter.Equal(90*time.Second, cfg.Postgres.MaxConnIdleTime)
	asserter.Equal([]string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Seeds)

	// defaults
	asserter.Equal(5432, cfg.Postgres.Port)
	asserter.Equal("flask_test", cfg.Postgres.Database)
	asserter.Equal(5000, cfg.HTTP.Port)
	asserter.Equal(uint16(2000), cfg.HealthPort)
	asserter.Equal(3*time.Second, cfg.ShutdownDelay)
	asserter.Equal([]string{"*"}, cfg.HTTP.CORSOrigins)
	asserter.False(cfg.Kafka.Enabled)
	asserter.Equal([]string{"item_create"}, cfg.Kafka.Topics)
}

func TestLoadFromFile(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)

	dir := t.TempDir()
	content := []byte(`
appName: items
environment: live
postgres:
  host: pg.live
  database: inventory
`)
	requirer.NoError(os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir, "config")
	requirer.NoError(err)
	asserter.Equal("items", cfg.AppName)
	asserter.Equal(EnvLive, cfg.Environment)
	asserter.Equal("pg.live", cfg.Postgres.Host)
	asserter.Equal("inventory", cfg.Postgres.Database)
}
