package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

type stubRepo struct {
	Repository
	sub *models.Subscription
	err error
}

func (s *stubRepo) FindByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.sub, s.err
}

type stubProfiles struct {
	profile *models.Profile
}

func (s *stubProfiles) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	return s.profile, nil
}

type stubStripe struct {
	checkoutParams *stripe.CheckoutSessionCreateParams
	portalParams   *stripe.BillingPortalSessionCreateParams
	err            error
}

func (s *stubStripe) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	return nil, errors.New("not used")
}

func (s *stubStripe) NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	s.checkoutParams = params
	if s.err != nil {
		return nil, s.err
	}
	return &stripe.CheckoutSession{URL: "https://checkout.stripe.test/c/1"}, nil
}

func (s *stubStripe) NewPortalSession(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error) {
	s.portalParams = params
	if s.err != nil {
		return nil, s.err
	}
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.test/p/1"}, nil
}

func newBillingService(t *testing.T, repo Repository, profiles profileReader, client StripeClient) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:             repo,
		Profiles:         profiles,
		Stripe:           client,
		PriceID:          "price_pro",
		PublicURL:        "https://journal.test/",
		SuccessPath:      "/success",
		CancelPath:       "/failed",
		PortalReturnPath: "/pricing",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func strPtr(v string) *string { return &v }

func TestCreateCheckoutSessionUsesProfileEmail(t *testing.T) {
	client := &stubStripe{}
	svc := newBillingService(t, &stubRepo{}, &stubProfiles{profile: &models.Profile{ID: "u1", Email: strPtr("a@example.com")}}, client)

	out, err := svc.CreateCheckoutSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if out.URL != "https://checkout.stripe.test/c/1" {
		t.Fatalf("unexpected url %q", out.URL)
	}
	p := client.checkoutParams
	if p.Metadata[MetadataUserIDKey] != "u1" {
		t.Fatalf("expected session metadata, got %v", p.Metadata)
	}
	if p.SubscriptionData == nil || p.SubscriptionData.Metadata[MetadataUserIDKey] != "u1" {
		t.Fatalf("expected subscription metadata")
	}
	if *p.SuccessURL != "https://journal.test/success" || *p.CancelURL != "https://journal.test/failed" {
		t.Fatalf("unexpected redirect urls %s %s", *p.SuccessURL, *p.CancelURL)
	}
	if p.CustomerEmail == nil || *p.CustomerEmail != "a@example.com" {
		t.Fatalf("expected customer email")
	}
	if *p.LineItems[0].Price != "price_pro" {
		t.Fatalf("unexpected price")
	}
}

func TestCreateCheckoutSessionReusesCustomer(t *testing.T) {
	client := &stubStripe{}
	repo := &stubRepo{sub: &models.Subscription{ClerkUserID: "u1", StripeCustomerID: strPtr("cus_1")}}
	svc := newBillingService(t, repo, &stubProfiles{}, client)

	if _, err := svc.CreateCheckoutSession(context.Background(), "u1"); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if client.checkoutParams.Customer == nil || *client.checkoutParams.Customer != "cus_1" {
		t.Fatalf("expected existing customer")
	}
	if client.checkoutParams.CustomerEmail != nil {
		t.Fatalf("customer and email are mutually exclusive")
	}
}

func TestCreateCheckoutSessionWithoutStripe(t *testing.T) {
	svc := newBillingService(t, &stubRepo{}, &stubProfiles{}, nil)
	_, err := svc.CreateCheckoutSession(context.Background(), "u1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCreatePortalSessionRequiresCustomer(t *testing.T) {
	svc := newBillingService(t, &stubRepo{}, &stubProfiles{}, &stubStripe{})
	_, err := svc.CreatePortalSession(context.Background(), "u1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePortalSession(t *testing.T) {
	client := &stubStripe{}
	repo := &stubRepo{sub: &models.Subscription{ClerkUserID: "u1", StripeCustomerID: strPtr("cus_1")}}
	svc := newBillingService(t, repo, &stubProfiles{}, client)

	out, err := svc.CreatePortalSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("portal: %v", err)
	}
	if out.URL == "" {
		t.Fatalf("expected url")
	}
	if *client.portalParams.ReturnURL != "https://journal.test/pricing" {
		t.Fatalf("unexpected return url %s", *client.portalParams.ReturnURL)
	}
}

func TestSubscriptionView(t *testing.T) {
	amount := int64(5000)
	repo := &stubRepo{sub: &models.Subscription{
		ClerkUserID:   "u1",
		Status:        enums.SubscriptionStatusPastDue,
		PriceAmount:   &amount,
		PriceCurrency: strPtr("pln"),
	}}
	svc := newBillingService(t, repo, &stubProfiles{}, nil)

	view, err := svc.Subscription(context.Background(), "u1")
	if err != nil {
		t.Fatalf("subscription: %v", err)
	}
	if !view.Active || view.PriceDisplay != "50.00 PLN" || view.HasCustomer {
		t.Fatalf("unexpected view %+v", view)
	}

	svc = newBillingService(t, &stubRepo{err: errors.New("db down")}, &stubProfiles{}, nil)
	if _, err := svc.Subscription(context.Background(), "u1"); !pkgerrors.IsCode(err, pkgerrors.CodePersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
