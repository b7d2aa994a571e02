package journal

import (
	"context"
	"strings"

	"github.com/angelmondragon/moodjournal-backend/internal/analysis"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

type analyzer interface {
	Analyze(ctx context.Context, text string) (analysis.Result, error)
}

type ServiceParams struct {
	Repo     Repository
	Analyzer analyzer
	Logger   *logger.Logger
}

// Service runs the journal workflows on top of the repository and analyzer.
// Entitlement gating happens before these calls.
type Service struct {
	repo     Repository
	analyzer analyzer
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "journal repo required")
	}
	if params.Analyzer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analyzer required")
	}
	return &Service{
		repo:     params.Repo,
		analyzer: params.Analyzer,
		logg:     params.Logger,
	}, nil
}

// Save persists a previously accepted analysis for the user.
func (s *Service) Save(ctx context.Context, userID, text string, result analysis.Accepted) (*SavedEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "text is required").
			WithDetails(map[string]string{"text": "is required"})
	}
	if err := analysis.ValidateAccepted(result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "analysis is invalid")
	}

	entry := &models.JournalEntry{
		ClerkUserID: userID,
		EntryText:   text,
		Mood:        result.Mood,
		StressLevel: result.StressLevel,
		Topic:       result.Topic,
		Summary:     result.Summary,
		Advice:      result.Advice,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "save journal entry")
	}
	return &SavedEntry{ID: entry.ID, CreatedAt: entry.CreatedAt}, nil
}

// List returns the user's newest entries, capped at limit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit must be between 1 and 100").
			WithDetails(map[string]any{"limit": limit})
	}
	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list journal entries")
	}
	return entries, nil
}

// Submit analyzes the text and saves it when accepted. A failed save after a
// successful analysis returns ENTRY_NOT_SAVED carrying the analysis so the
// client can keep its draft.
func (s *Service) Submit(ctx context.Context, userID, text string) (*SubmitResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}

	result, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	if result.Status != analysis.StatusOK || result.Accepted == nil {
		return &SubmitResult{Analysis: result}, nil
	}

	saved, err := s.Save(ctx, userID, text, *result.Accepted)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "journal.submit.save_failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeEntryNotSaved, err, "entry analyzed but not saved").
			WithDetails(map[string]any{"analysis": result})
	}
	return &SubmitResult{Analysis: result, Entry: saved}, nil
}
