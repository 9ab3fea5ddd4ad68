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

func TestContextWithCorrelationID(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "test-id")
	assert.Equal(t, "test-id", CorrelationIDFromContext(ctx))
	assert.Empty(t, SessionIDFromContext(ctx))
}

func TestWithContextAddsIDFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	ctx := ContextWithCorrelationID(context.Background(), "context-id")
	ctx = ContextWithSessionID(ctx, "session-1")

	WithContext(ctx).Info("test message")

	entries := recorded.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "context-id", fields["correlation_id"])
	assert.Equal(t, "session-1", fields["session_id"])
}

func TestWithContextNilContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	//nolint:staticcheck // nil context is handled explicitly
	WithContext(nil).Info("plain")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ContextMap())
}

func TestInitLevels(t *testing.T) {
	restore := Replace(nil)
	defer restore()

	require.NoError(t, Init("production", ""))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Get().Core().Enabled(zapcore.InfoLevel))

	require.NoError(t, Init("development", "warn"))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))

	assert.Error(t, Init("development", "verbose"))
}
