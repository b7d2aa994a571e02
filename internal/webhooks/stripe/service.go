package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/moodjournal-backend/internal/billing"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

type subscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	BillingRepo       billing.Repository
	StripeClient      subscriptionFetcher
	TransactionRunner txRunner
	Logger            *logger.Logger
	Now               func() time.Time
}

type Service struct {
	billingRepo billing.Repository
	stripe      subscriptionFetcher
	txRunner    txRunner
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		billingRepo: params.BillingRepo,
		stripe:      params.StripeClient,
		txRunner:    params.TransactionRunner,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// HandleEvent applies a verified Stripe event to the subscription table.
// Unhandled event types are acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		return s.checkoutCompleted(ctx, &session)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.subscriptionUpdated(ctx, &sub)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.subscriptionDeleted(ctx, &sub)
	default:
		s.debug(ctx, "stripe.event_ignored", map[string]any{"event_type": string(event.Type)})
		return nil
	}
}

func (s *Service) checkoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	userID := billing.UserIDFromMetadata(session.Metadata)
	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	if userID == "" || subscriptionID == "" {
		s.warn(ctx, "stripe.checkout_missing_fields", map[string]any{
			"checkout_session_id": session.ID,
			"has_user":            userID != "",
			"has_subscription":    subscriptionID != "",
		})
		return nil
	}

	stripeSub, err := s.stripe.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
	}

	record := &models.Subscription{ClerkUserID: userID}
	if err := billing.ApplyStripeSubscription(record, stripeSub); err != nil {
		return err
	}
	if record.StripeCustomerID == nil && session.Customer != nil && session.Customer.ID != "" {
		customerID := session.Customer.ID
		record.StripeCustomerID = &customerID
	}

	if err := s.billingRepo.UpsertByUser(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "upsert subscription")
	}
	s.debug(ctx, "stripe.subscription_upserted", map[string]any{
		"user_id":                userID,
		"stripe_subscription_id": subscriptionID,
		"status":                 string(record.Status),
	})
	return nil
}

func (s *Service) subscriptionUpdated(ctx context.Context, stripeSub *stripe.Subscription) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindByStripeID(ctx, stripeSub.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load subscription")
		}

		if stored == nil {
			userID := billing.UserIDFromMetadata(stripeSub.Metadata)
			if userID == "" {
				s.warn(ctx, "stripe.subscription_unknown", map[string]any{"stripe_subscription_id": stripeSub.ID})
				return nil
			}
			record := &models.Subscription{ClerkUserID: userID}
			if err := billing.ApplyStripeSubscription(record, stripeSub); err != nil {
				return err
			}
			if err := repo.UpsertByUser(ctx, record); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create subscription")
			}
			return nil
		}

		if err := billing.ApplyStripeSubscription(stored, stripeSub); err != nil {
			return err
		}
		if err := repo.Update(ctx, stored); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update subscription")
		}
		return nil
	})
}

func (s *Service) subscriptionDeleted(ctx context.Context, stripeSub *stripe.Subscription) error {
	if stripeSub.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
	}
	affected, err := s.billingRepo.MarkCanceled(ctx, stripeSub.ID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "cancel subscription")
	}
	if affected == 0 {
		s.warn(ctx, "stripe.subscription_unknown", map[string]any{"stripe_subscription_id": stripeSub.ID})
	}
	return nil
}

func (s *Service) warn(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

func (s *Service) debug(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(s.logg.WithFields(ctx, fields), msg)
}
