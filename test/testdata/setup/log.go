package setup

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewTestLogger builds a development logger whose level comes from TEST_LOG_LEVEL.
// An unset or unknown level logs everything.
func NewTestLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(os.Getenv("TEST_LOG_LEVEL"))
	if err != nil || os.Getenv("TEST_LOG_LEVEL") == "" {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = ""

	return cfg.Build()
}
