package billing

import (
	"context"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

// StripeClient exposes the subset of Stripe operations billing needs.
type StripeClient interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	NewPortalSession(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error)
}

type profileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

// ServiceParams groups dependencies for the billing service. Stripe may be nil
// when billing is not configured; session endpoints then report a dependency error.
type ServiceParams struct {
	Repo             Repository
	Profiles         profileReader
	Stripe           StripeClient
	PriceID          string
	PublicURL        string
	SuccessPath      string
	CancelPath       string
	PortalReturnPath string
}

type Service struct {
	repo             Repository
	profiles         profileReader
	stripe           StripeClient
	priceID          string
	publicURL        string
	successPath      string
	cancelPath       string
	portalReturnPath string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profiles repo required")
	}
	publicURL := strings.TrimRight(strings.TrimSpace(params.PublicURL), "/")
	if _, err := url.ParseRequestURI(publicURL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "public url must be absolute")
	}
	return &Service{
		repo:             params.Repo,
		profiles:         params.Profiles,
		stripe:           params.Stripe,
		priceID:          strings.TrimSpace(params.PriceID),
		publicURL:        publicURL,
		successPath:      params.SuccessPath,
		cancelPath:       params.CancelPath,
		portalReturnPath: params.PortalReturnPath,
	}, nil
}

// Subscription returns the caller's subscription view, or nil when none exists.
func (s *Service) Subscription(ctx context.Context, userID string) (*SubscriptionView, error) {
	sub, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load subscription")
	}
	return FromModel(sub), nil
}

// CreateCheckoutSession starts a hosted subscription checkout for the user.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID string) (*SessionURL, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}
	if s.stripe == nil || s.priceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "billing is not configured")
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Price:    stripe.String(s.priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(s.publicURL + s.successPath),
		CancelURL:  stripe.String(s.publicURL + s.cancelPath),
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserIDKey: userID},
		},
	}
	params.AddMetadata(MetadataUserIDKey, userID)

	existing, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load subscription")
	}
	if existing != nil && existing.StripeCustomerID != nil && *existing.StripeCustomerID != "" {
		params.Customer = stripe.String(*existing.StripeCustomerID)
	} else {
		profile, err := s.profiles.FindByID(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load profile")
		}
		if profile != nil && profile.Email != nil && *profile.Email != "" {
			params.CustomerEmail = stripe.String(*profile.Email)
		}
	}

	session, err := s.stripe.NewCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &SessionURL{URL: session.URL}, nil
}

// CreatePortalSession opens the Stripe billing portal for an existing customer.
func (s *Service) CreatePortalSession(ctx context.Context, userID string) (*SessionURL, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "billing is not configured")
	}

	sub, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load subscription")
	}
	if sub == nil || sub.StripeCustomerID == nil || *sub.StripeCustomerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user has no stripe customer")
	}

	session, err := s.stripe.NewPortalSession(ctx, &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(*sub.StripeCustomerID),
		ReturnURL: stripe.String(s.publicURL + s.portalReturnPath),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create portal session")
	}
	return &SessionURL{URL: session.URL}, nil
}
