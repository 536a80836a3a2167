package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	previous := globalLogger
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(previous) })
	return logs
}

func TestWithFieldsCarriesLoggerInContext(t *testing.T) {
	logs := observe(t)

	ctx := WithFields(context.Background(), RequestID("req-1"))
	Info(ctx, "hello", Collection("users"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	assert.Equal(t, "users", entry.ContextMap()["collection"])
}

func TestLogDBOperation(t *testing.T) {
	logs := observe(t)
	ctx := context.Background()

	LogDBOperation(ctx, "create_one", "users", 3, nil)
	LogDBOperation(ctx, "create_one", "users", 5, errors.New("duplicate key"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
	assert.Equal(t, "duplicate key", logs.All()[1].ContextMap()["error"])
}

func TestInitDevelopment(t *testing.T) {
	previous := globalLogger
	t.Cleanup(func() { SetLogger(previous) })

	err := Init(Config{Environment: "development", Level: "debug", ServiceName: "docstore"})
	require.NoError(t, err)
	assert.NotNil(t, GetLogger(context.Background()))
}
