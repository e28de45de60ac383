package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type ctxKey string

func TestContextFields(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)

	previous := logHandler
	t.Cleanup(func() {
		SetGlobal(previous)
		SetContextFieldsSetter(nil)
	})

	core, logs := observer.New(zapcore.DebugLevel)
	SetGlobal(zap.New(core))

	key := ctxKey("env")
	SetContextFieldsSetter(func(ctx context.Context) []zap.Field {
		return []zap.Field{zap.Any(string(key), ctx.Value(key))}
	})

	ctx := context.WithValue(t.Context(), key, "ci")
	InfoCtx(ctx, "listening", zap.Int("port", 5001))
	WarnCtx(ctx, "item not found")
	Info("no context")

	entries := logs.All()
	requirer.Len(entries, 3)
	asserter.Equal("listening", entries[0].Message)
	asserter.Equal("ci", entries[0].ContextMap()["env"])
	asserter.EqualValues(5001, entries[0].ContextMap()["port"])
	asserter.Equal(zapcore.WarnLevel, entries[1].Level)
	asserter.Equal("ci", entries[1].ContextMap()["env"])
	asserter.NotContains(entries[2].ContextMap(), "env")
}

func TestColorize(t *testing.T) {
	asserter := assert.New(t)
	asserter.Equal("\033[0;32mok\033[0m", Green("ok"))
	asserter.Equal("\033[1;31m500\033[0m", Red(500))
}

func TestByStatus(t *testing.T) {
	asserter := assert.New(t)
	asserter.Equal(Green(200), ByStatus(200, 200))
	asserter.Equal(Green(302), ByStatus(302, 302))
	asserter.Equal(Yellow(404), ByStatus(404, 404))
	asserter.Equal(Red(500), ByStatus(500, 500))
}
