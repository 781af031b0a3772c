// Package logger owns the process-wide zap logger and the gin middleware that
// writes access logs through it.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"testhub/internal/config"
)

// L is the global logger. It is a no-op until Init runs so packages can log
// from tests and init paths without a nil check.
var L *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the global logger from cfg.
func Init(cfg config.LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.JSON {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zl, err := zc.Build()
	if err != nil {
		return err
	}
	L = zl.Sugar()
	return nil
}

// Sync flushes buffered entries; errors from syncing a terminal are ignored.
func Sync() {
	_ = L.Sync()
}
