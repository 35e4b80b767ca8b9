package internal

import (
	"context"
)

type contextKey string

var (
	SessionIDContextKey contextKey = "chat-session-id"
)

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDContextKey, sessionID)
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDContextKey).(string)
	return sessionID, ok && sessionID != ""
}
