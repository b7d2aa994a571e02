package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/moodjournal-backend/api/responses"
	"github.com/angelmondragon/moodjournal-backend/api/validators"
	pkgAuth "github.com/angelmondragon/moodjournal-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

// SessionVerifier validates identity provider session tokens.
type SessionVerifier interface {
	Verify(token string) (*pkgAuth.SessionClaims, error)
}

// Auth validates a bearer session token and seeds the request context with the user id.
func Auth(verifier SessionVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session verifier unavailable"))
				return
			}

			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID())
			if claims.SessionID != "" {
				ctx = context.WithValue(ctx, ctxSessionID, claims.SessionID)
			}
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
