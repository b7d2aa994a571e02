package middleware

import (
	"context"

	"github.com/angelmondragon/moodjournal-backend/internal/entitlements"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxSessionID contextKey = "session_id"
	ctxAccess    contextKey = "access"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// AccessFromContext returns the entitlement resolved by RequireEntryAccess.
func AccessFromContext(ctx context.Context) (entitlements.Access, bool) {
	if ctx == nil {
		return entitlements.Access{}, false
	}
	v, ok := ctx.Value(ctxAccess).(entitlements.Access)
	return v, ok
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

func withAccess(ctx context.Context, access entitlements.Access) context.Context {
	return context.WithValue(ctx, ctxAccess, access)
}
