package webhooks

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/angelmondragon/moodjournal-backend/internal/profiles"
	clerkwebhook "github.com/angelmondragon/moodjournal-backend/internal/webhooks/clerk"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
)

const clerkTestSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type recordingProfiles struct {
	upserts []profiles.UpsertInput
	deleted []string
}

func (r *recordingProfiles) Upsert(ctx context.Context, input profiles.UpsertInput) (*models.Profile, error) {
	r.upserts = append(r.upserts, input)
	return &models.Profile{ID: input.ID}, nil
}

func (r *recordingProfiles) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func newClerkHandler(t *testing.T, store *recordingProfiles) http.HandlerFunc {
	t.Helper()
	svc, err := clerkwebhook.NewService(clerkwebhook.ServiceParams{Profiles: store, SigningSecret: clerkTestSecret})
	if err != nil {
		t.Fatalf("clerk service: %v", err)
	}
	return ClerkWebhook(svc, newTestGuard(t, providerClerk), nil, nil)
}

func signedClerkRequest(t *testing.T, msgID string, payload []byte) *http.Request {
	t.Helper()
	wh, err := svix.NewWebhook(clerkTestSecret)
	if err != nil {
		t.Fatalf("svix: %v", err)
	}
	now := time.Now()
	sig, err := wh.Sign(msgID, now, payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("svix-signature", sig)
	return req
}

func TestClerkWebhook_UserCreated(t *testing.T) {
	store := &recordingProfiles{}
	handler := newClerkHandler(t, store)
	payload := []byte(`{"type":"user.created","data":{"id":"user_1","email_addresses":[{"id":"idn_1","email_address":"a@example.com"}],"primary_email_address_id":"idn_1","first_name":"Ada","last_name":null}}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedClerkRequest(t, "msg_1", payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(store.upserts) != 1 || store.upserts[0].ID != "user_1" {
		t.Fatalf("expected profile upsert, got %+v", store.upserts)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedClerkRequest(t, "msg_1", payload))
	if rec.Code != http.StatusOK || len(store.upserts) != 1 {
		t.Fatalf("duplicate delivery should be acknowledged without reprocessing")
	}
}

func TestClerkWebhook_UserDeleted(t *testing.T) {
	store := &recordingProfiles{}
	handler := newClerkHandler(t, store)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedClerkRequest(t, "msg_2", []byte(`{"type":"user.deleted","data":{"id":"user_1","deleted":true}}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "user_1" {
		t.Fatalf("expected delete, got %+v", store.deleted)
	}
}

func TestClerkWebhook_InvalidSignature(t *testing.T) {
	store := &recordingProfiles{}
	handler := newClerkHandler(t, store)

	req := signedClerkRequest(t, "msg_3", []byte(`{"type":"user.deleted","data":{"id":"user_1"}}`))
	req.Header.Set("svix-signature", "v1,bm90LWEtcmVhbC1zaWduYXR1cmU=")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "SIGNATURE_INVALID" {
		t.Fatalf("expected SIGNATURE_INVALID, got %s", code)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("invalid signature must not mutate")
	}
}
