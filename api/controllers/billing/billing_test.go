package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/moodjournal-backend/api/middleware"
	billingsvc "github.com/angelmondragon/moodjournal-backend/internal/billing"
	"github.com/angelmondragon/moodjournal-backend/internal/entitlements"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

type stubBillingService struct {
	view       *billingsvc.SubscriptionView
	checkout   *billingsvc.SessionURL
	portal     *billingsvc.SessionURL
	err        error
	lastUserID string
}

func (s *stubBillingService) Subscription(ctx context.Context, userID string) (*billingsvc.SubscriptionView, error) {
	s.lastUserID = userID
	return s.view, s.err
}

func (s *stubBillingService) CreateCheckoutSession(ctx context.Context, userID string) (*billingsvc.SessionURL, error) {
	s.lastUserID = userID
	return s.checkout, s.err
}

func (s *stubBillingService) CreatePortalSession(ctx context.Context, userID string) (*billingsvc.SessionURL, error) {
	s.lastUserID = userID
	return s.portal, s.err
}

type stubResolver struct {
	access entitlements.Access
}

func (s stubResolver) Resolve(ctx context.Context, userID string) (entitlements.Access, error) {
	return s.access, nil
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.WithUserID(req.Context(), "user_1"))
}

func TestSubscriptionReturnsViewAndAccess(t *testing.T) {
	svc := &stubBillingService{view: &billingsvc.SubscriptionView{Status: enums.SubscriptionStatusActive, Active: true}}
	handler := Subscription(svc, stubResolver{access: entitlements.Access{Tier: enums.EntitlementTierPro}}, nil)

	resp := httptest.NewRecorder()
	handler(resp, authedRequest(http.MethodGet, "/api/v1/billing/subscription"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Data struct {
			Subscription *billingsvc.SubscriptionView `json:"subscription"`
			Access       entitlements.Access          `json:"access"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Subscription == nil || !body.Data.Subscription.Active {
		t.Fatalf("expected active subscription, got %+v", body.Data.Subscription)
	}
	if body.Data.Access.Tier != enums.EntitlementTierPro {
		t.Fatalf("expected pro access, got %s", body.Data.Access.Tier)
	}
}

func TestCheckoutReturnsURL(t *testing.T) {
	svc := &stubBillingService{checkout: &billingsvc.SessionURL{URL: "https://checkout.stripe.com/c/pay/cs_1"}}
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/billing/checkout"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if svc.lastUserID != "user_1" {
		t.Fatalf("expected caller id passed through, got %q", svc.lastUserID)
	}
	var body struct {
		Data billingsvc.SessionURL `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.URL == "" {
		t.Fatalf("expected url in response")
	}
}

func TestCheckoutUnconfiguredIs503(t *testing.T) {
	svc := &stubBillingService{err: pkgerrors.New(pkgerrors.CodeDependency, "billing is not configured")}
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/billing/checkout"))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestPortalWithoutCustomerIs400(t *testing.T) {
	svc := &stubBillingService{err: pkgerrors.New(pkgerrors.CodeValidation, "user has no stripe customer")}
	resp := httptest.NewRecorder()
	Portal(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/billing/portal"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestBillingRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	Portal(&stubBillingService{}, nil)(resp, httptest.NewRequest(http.MethodPost, "/api/v1/billing/portal", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
