package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/moodjournal-backend/api/middleware"
	"github.com/angelmondragon/moodjournal-backend/api/responses"
	"github.com/angelmondragon/moodjournal-backend/api/validators"
	"github.com/angelmondragon/moodjournal-backend/internal/dashboard"
	"github.com/angelmondragon/moodjournal-backend/internal/entitlements"
	"github.com/angelmondragon/moodjournal-backend/internal/reflection"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

const maxFilterLength = 64

// ReflectionService produces the daily affirmation and question.
type ReflectionService interface {
	Reflect(ctx context.Context, date string, entries []reflection.EntrySummary) (*reflection.Reflection, error)
	ReflectToday(ctx context.Context, userID string, loc *time.Location) (*reflection.Reflection, error)
}

// DashboardService builds the caller's dashboard view.
type DashboardService interface {
	View(ctx context.Context, userID string, filters dashboard.Filters, limit int, loc *time.Location) (*dashboard.View, error)
}

// EntitlementService resolves the caller's tier.
type EntitlementService interface {
	Resolve(ctx context.Context, userID string) (entitlements.Access, error)
}

type reflectionRequest struct {
	Date    string                    `json:"date" validate:"required,notblank"`
	Entries []reflection.EntrySummary `json:"entries" validate:"required,min=1,dive"`
}

// Reflect answers a reflection for client-supplied entry summaries.
func Reflect(svc ReflectionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reflection service unavailable"))
			return
		}

		var req reflectionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.Reflect(ctx, strings.TrimSpace(req.Date), req.Entries)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ReflectToday answers a reflection over the caller's entries from today in ?tz=.
func ReflectToday(svc ReflectionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reflection service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		loc, err := parseTimezone(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.ReflectToday(ctx, userID, loc)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// Dashboard returns the entry list plus advanced aggregates for Pro users.
func Dashboard(svc DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		rawRange, err := validators.ParseQueryEnum(r, "range", string(enums.DateRangeAll), enums.DateRangeValues()...)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dateRange, err := enums.ParseDateRange(rawRange)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid range"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", dashboard.DefaultLimit, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		loc, err := parseTimezone(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		filters := dashboard.Filters{
			DateRange: dateRange,
			Mood:      validators.SanitizeString(query.Get("mood"), maxFilterLength),
			Topic:     validators.SanitizeString(query.Get("topic"), maxFilterLength),
		}

		view, err := svc.View(ctx, userID, filters, limit, loc)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Entitlement reports the caller's tier and feature flags.
func Entitlement(svc EntitlementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		access, err := svc.Resolve(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, access)
	}
}

// parseTimezone reads the IANA ?tz= parameter, defaulting to UTC.
func parseTimezone(r *http.Request) (*time.Location, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("tz"))
	if raw == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timezone").WithDetails(map[string]any{"field": "tz"})
	}
	return loc, nil
}
