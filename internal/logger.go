package internal

import (
	"context"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.uber.org/zap"
)

// WithContext adds the trace fields and, when present, the chat session id to the logger
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	logger = logutil.WithContext(ctx, logger)
	if ctx == nil {
		return logger
	}

	if sessionID, ok := GetSessionIDFromContext(ctx); ok {
		logger = logger.With(zap.String("session_id", sessionID))
	}

	return logger
}
