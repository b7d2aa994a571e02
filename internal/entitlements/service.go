package entitlements

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

type subscriptionReader interface {
	FindByUser(ctx context.Context, userID string) (*models.Subscription, error)
}

type profileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type ServiceParams struct {
	Subscriptions subscriptionReader
	Profiles      profileReader
	// TrialPeriod of zero means the free plan replaces the trial.
	TrialPeriod time.Duration
	Now         func() time.Time
}

type Service struct {
	subscriptions subscriptionReader
	profiles      profileReader
	trialEnabled  bool
	now           func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription reader required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile reader required")
	}
	if params.TrialPeriod < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "trial period must be non-negative")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		subscriptions: params.Subscriptions,
		profiles:      params.Profiles,
		trialEnabled:  params.TrialPeriod > 0,
		now:           now,
	}, nil
}

// Resolve computes the user's tier. Read failures are returned, never mapped to access.
func (s *Service) Resolve(ctx context.Context, userID string) (Access, error) {
	if strings.TrimSpace(userID) == "" {
		return Access{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}

	sub, err := s.subscriptions.FindByUser(ctx, userID)
	if err != nil {
		return Access{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load subscription")
	}
	if sub != nil && sub.Status.IsActiveEquivalent() {
		return accessFor(enums.EntitlementTierPro), nil
	}

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return Access{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load profile")
	}
	if profile == nil {
		return accessFor(enums.EntitlementTierExpired), nil
	}
	if !s.trialEnabled {
		return accessFor(enums.EntitlementTierFree), nil
	}

	now := s.now()
	if profile.TrialEnd != nil && !now.After(*profile.TrialEnd) {
		access := accessFor(enums.EntitlementTierTrial)
		end := profile.TrialEnd.UTC()
		access.TrialEndsAt = &end
		access.TrialRemaining = end.Sub(now)
		access.TrialRemainingSeconds = int64(access.TrialRemaining / time.Second)
		return access, nil
	}

	expired := accessFor(enums.EntitlementTierExpired)
	if profile.TrialEnd != nil {
		end := profile.TrialEnd.UTC()
		expired.TrialEndsAt = &end
	}
	return expired, nil
}
