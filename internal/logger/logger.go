package logger

import (
	"fmt"

	"github.com/montecristo/sales-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. Production and json format use the
// JSON encoder with ISO8601 timestamps; everything else logs to a colored
// console. Every entry carries the app name and environment.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if useJSON(cfg, appCfg) {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
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

	log, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func useJSON(cfg *config.LoggingConfig, appCfg *config.AppConfig) bool {
	return cfg.Format == "json" || appCfg.Environment == "production" || appCfg.Environment == "staging"
}

// WithRequest scopes a logger to one HTTP request
func WithRequest(log *zap.Logger, method, path, requestID string) *zap.Logger {
	return log.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithUser scopes a logger to the authenticated user
func WithUser(log *zap.Logger, userID, displayName, role string) *zap.Logger {
	return log.With(
		zap.String("user_id", userID),
		zap.String("user_name", displayName),
		zap.String("user_role", role),
	)
}

// WithQuotation scopes a logger to one quotation
func WithQuotation(log *zap.Logger, id, number string) *zap.Logger {
	return log.With(
		zap.String("quotationID", id),
		zap.String("number", number),
	)
}
