package billing

import (
	"context"
	"net/http"

	"github.com/angelmondragon/moodjournal-backend/api/middleware"
	"github.com/angelmondragon/moodjournal-backend/api/responses"
	billingsvc "github.com/angelmondragon/moodjournal-backend/internal/billing"
	"github.com/angelmondragon/moodjournal-backend/internal/entitlements"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

// Service describes the billing methods used by the HTTP controllers.
type Service interface {
	Subscription(ctx context.Context, userID string) (*billingsvc.SubscriptionView, error)
	CreateCheckoutSession(ctx context.Context, userID string) (*billingsvc.SessionURL, error)
	CreatePortalSession(ctx context.Context, userID string) (*billingsvc.SessionURL, error)
}

type accessResolver interface {
	Resolve(ctx context.Context, userID string) (entitlements.Access, error)
}

type subscriptionResponse struct {
	Subscription *billingsvc.SubscriptionView `json:"subscription"`
	Access       entitlements.Access          `json:"access"`
}

// Subscription returns the caller's stored subscription alongside the resolved tier.
func Subscription(svc Service, resolver accessResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || resolver == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		view, err := svc.Subscription(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		access, err := resolver.Resolve(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscriptionResponse{Subscription: view, Access: access})
	}
}

// Checkout starts a hosted checkout and returns its redirect URL.
func Checkout(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, svc, func(ctx context.Context, userID string) (*billingsvc.SessionURL, error) {
		return svc.CreateCheckoutSession(ctx, userID)
	})
}

// Portal opens the customer billing portal and returns its redirect URL.
func Portal(svc Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(logg, svc, func(ctx context.Context, userID string) (*billingsvc.SessionURL, error) {
		return svc.CreatePortalSession(ctx, userID)
	})
}

func sessionHandler(logg *logger.Logger, svc Service, create func(ctx context.Context, userID string) (*billingsvc.SessionURL, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		session, err := create(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
		return "", false
	}
	return userID, true
}
