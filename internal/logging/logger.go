package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inkfolio/internal/config"
)

// logger is the shared application logger.
var logger *zap.Logger

// Init builds the application logger from configuration. Text format uses
// the development console encoder, anything else falls back to production
// JSON output.
func Init(cfg config.LoggingConfig) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if cfg.Format == "text" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	built, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	logger = built
	return nil
}

// L returns the shared logger, falling back to a production logger when
// Init has not run (tests, scripts).
func L() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// Sync flushes buffered log entries. Safe to call on shutdown.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
