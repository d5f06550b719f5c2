package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"instancecat/internal/app/config"
	"instancecat/internal/infra/telemetry"
)

// LoggingConfig configures logging wiring. A non-nil Logger is used as is
// and the level and format from the config file are ignored.
type LoggingConfig struct {
	Logger *zap.Logger
}

// Logging bundles the root logger.
type Logging struct {
	Logger *zap.Logger
}

// NewLogging constructs logging dependencies.
func NewLogging(cfg config.Config, logging LoggingConfig) (Logging, error) {
	logger := logging.Logger
	if logger == nil {
		built, err := BuildLogger(cfg.Logging)
		if err != nil {
			return Logging{}, err
		}
		logger = built
	}
	logger = logger.With(zap.String(telemetry.FieldComponent, telemetry.ComponentDaemon)).Named("app")
	return Logging{Logger: logger}, nil
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}

// BuildLogger creates a production zap logger writing to stderr.
func BuildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console":
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zapCfg.Sampling = nil
	default:
		zapCfg.Encoding = "json"
	}
	return zapCfg.Build()
}
