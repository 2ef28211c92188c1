package logger

import (
	"context"
	"fmt"
	"sync"

	"github.com/loxconnect/connect-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON in production or when
// logging.format is "json", colored console output otherwise.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithUser adds the authenticated user to logger
func WithUser(logger *zap.Logger, email, role string) *zap.Logger {
	return logger.With(
		zap.String("user_email", email),
		zap.String("user_role", role),
	)
}

type requestLoggerKey struct{}

// requestLogger is the logger of one request. Middleware further down the
// chain enriches it in place, so the request log line sees their fields.
type requestLogger struct {
	mu     sync.Mutex
	logger *zap.Logger
}

// NewContext stores a request-scoped logger in ctx
func NewContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, &requestLogger{logger: logger})
}

// FromContext returns the request-scoped logger, or fallback outside a request
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	rl, ok := ctx.Value(requestLoggerKey{}).(*requestLogger)
	if !ok {
		return fallback
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.logger
}

// AddUser attaches the authenticated user to the request-scoped logger
func AddUser(ctx context.Context, email, role string) {
	rl, ok := ctx.Value(requestLoggerKey{}).(*requestLogger)
	if !ok {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.logger = WithUser(rl.logger, email, role)
}
