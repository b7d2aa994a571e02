package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/moodjournal-backend/api/middleware"
	"github.com/angelmondragon/moodjournal-backend/api/responses"
	"github.com/angelmondragon/moodjournal-backend/api/validators"
	"github.com/angelmondragon/moodjournal-backend/internal/analysis"
	"github.com/angelmondragon/moodjournal-backend/internal/journal"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

// Analyzer classifies journal text without persisting it.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analysis.Result, error)
}

// JournalService describes the entry operations used by the HTTP controllers.
type JournalService interface {
	Save(ctx context.Context, userID, text string, result analysis.Accepted) (*journal.SavedEntry, error)
	Submit(ctx context.Context, userID, text string) (*journal.SubmitResult, error)
	List(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)
}

type textRequest struct {
	Text string `json:"text" validate:"required,notblank"`
}

type saveEntryRequest struct {
	Text     string             `json:"text" validate:"required,notblank"`
	Analysis *analysis.Accepted `json:"analysis" validate:"required"`
}

type saveEntryResponse struct {
	Success bool                `json:"success"`
	Data    *journal.SavedEntry `json:"data"`
}

type entryListResponse struct {
	Entries []journal.EntryDTO `json:"entries"`
}

// Analyze classifies the posted text and returns the status-tagged result.
func Analyze(svc Analyzer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analysis service unavailable"))
			return
		}

		var req textRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Analyze(ctx, req.Text)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SaveEntry persists a previously accepted analysis.
func SaveEntry(svc JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "journal service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		var req saveEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		saved, err := svc.Save(ctx, userID, req.Text, *req.Analysis)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, saveEntryResponse{Success: true, Data: saved})
	}
}

// SubmitEntry analyzes and, when accepted, saves the text in one call.
func SubmitEntry(svc JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "journal service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		var req textRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Submit(ctx, userID, req.Text)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Entry != nil {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// ListEntries returns the caller's most recent entries, newest first.
func ListEntries(svc JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "journal service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", journal.DefaultListLimit, 1, journal.MaxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries, err := svc.List(ctx, userID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entryListResponse{Entries: journal.FromModels(entries)})
	}
}
