package profiles

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

type entryDeleter interface {
	DeleteByUserWithTx(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UpsertInput carries the identity fields mirrored from the identity provider.
type UpsertInput struct {
	ID       string
	Email    *string
	FullName *string
}

type ServiceParams struct {
	Repo              Repository
	Entries           entryDeleter
	TransactionRunner txRunner
	TrialPeriod       time.Duration
	Now               func() time.Time
}

// Service owns profile lifecycle: creation with a trial window and account deletion.
type Service struct {
	repo        Repository
	entries     entryDeleter
	txRunner    txRunner
	trialPeriod time.Duration
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profiles repo required")
	}
	if params.Entries == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "journal entry deleter required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.TrialPeriod < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "trial period must be non-negative")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        params.Repo,
		entries:     params.Entries,
		txRunner:    params.TransactionRunner,
		trialPeriod: params.TrialPeriod,
		now:         now,
	}, nil
}

// Upsert creates or refreshes a profile. A trial is stamped for new profiles
// when a trial period is configured; existing trial windows are kept.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (*models.Profile, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}

	profile := &models.Profile{
		ID:       id,
		Email:    input.Email,
		FullName: input.FullName,
	}
	if s.trialPeriod > 0 {
		start := s.now().UTC()
		end := start.Add(s.trialPeriod)
		profile.TrialStart = &start
		profile.TrialEnd = &end
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "upsert profile")
	}
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "reload profile")
	}
	if stored == nil {
		return profile, nil
	}
	return stored, nil
}

// Delete removes the profile and every journal entry owned by the user in one transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.entries.DeleteByUserWithTx(ctx, tx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete journal entries")
		}
		if _, err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete profile")
		}
		return nil
	})
}
