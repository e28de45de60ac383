package postgres

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)

	cfg := &Config{
		Host:     "db.internal",
		Port:     5432,
		Username: "items",
		Password: "p@ss/word",
		Database: "flask_test",
		SSLMode:  "disable",
		AppName:  "items-crudv1.0.0",
	}

	parsed, err := url.Parse(cfg.ConnString())
	requirer.NoError(err)
	asserter.Equal("postgres", parsed.Scheme)
	asserter.Equal("db.internal:5432", parsed.Host)
	asserter.Equal("/flask_test", parsed.Path)
	asserter.Equal("items", parsed.User.Username())
	pass, _ := parsed.User.Password()
	asserter.Equal("p@ss/word", pass)
	asserter.Equal("disable", parsed.Query().Get("sslmode"))
	asserter.Equal("items-crudv1.0.0", parsed.Query().Get("application_name"))
}

func TestPoolConfig(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)

	pcfg, err := poolConfig(&Config{
		Host:            "localhost",
		Port:            5432,
		Username:        "root",
		Database:        "flask_test",
		SSLMode:         "disable",
		MaxConns:        8,
		MinConns:        1,
		MaxConnIdleTime: time.Minute,
	})
	requirer.NoError(err)
	asserter.EqualValues(8, pcfg.MaxConns)
	asserter.EqualValues(1, pcfg.MinConns)
	asserter.Equal(time.Minute, pcfg.MaxConnIdleTime)
	asserter.Equal("flask_test", pcfg.ConnConfig.Database)
	asserter.NotNil(pcfg.ConnConfig.Tracer)
}
