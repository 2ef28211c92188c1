package logger_test

import (
	"context"
	"testing"

	"github.com/loxconnect/connect-api/internal/config"
	"github.com/loxconnect/connect-api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		level string
		env   string
		want  zapcore.Level
	}{
		{"debug in development", "debug", "development", zapcore.DebugLevel},
		{"warn in production", "warn", "production", zapcore.WarnLevel},
		{"invalid level falls back to info", "loud", "development", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := logger.NewLogger(
				&config.LoggingConfig{Level: tt.level, Format: "console"},
				&config.AppConfig{Name: "test", Environment: tt.env},
			)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	t.Run("falls back outside a request", func(t *testing.T) {
		assert.Same(t, base, logger.FromContext(context.Background(), base))
		logger.AddUser(context.Background(), "ignored@example.com", "user")
	})

	t.Run("carries request and user fields", func(t *testing.T) {
		ctx := logger.NewContext(context.Background(), logger.WithRequest(base, "GET", "/api/v1/labels", "req-1"))
		logger.AddUser(ctx, "kari@example.com", "admin")

		logger.FromContext(ctx, zap.NewNop()).Info("done")

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/api/v1/labels", fields["path"])
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "kari@example.com", fields["user_email"])
		assert.Equal(t, "admin", fields["user_role"])
	})
}
