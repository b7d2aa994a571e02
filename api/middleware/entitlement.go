package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/moodjournal-backend/api/responses"
	"github.com/angelmondragon/moodjournal-backend/internal/entitlements"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

// AccessResolver resolves a user's entitlement tier.
type AccessResolver interface {
	Resolve(ctx context.Context, userID string) (entitlements.Access, error)
}

// RequireEntryAccess blocks the entry-creation workflow for expired users.
// The resolved access is stored on the context for downstream handlers.
func RequireEntryAccess(resolver AccessResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if resolver == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement resolver unavailable"))
				return
			}

			userID := UserIDFromContext(ctx)
			if userID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
				return
			}

			access, err := resolver.Resolve(ctx, userID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !access.CanCreateEntries {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSubscriptionRequired, "your free trial has ended, subscribe to keep journaling").
					WithDetails(map[string]any{"tier": access.Tier}))
				return
			}

			next.ServeHTTP(w, r.WithContext(withAccess(ctx, access)))
		})
	}
}
