package clerkwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/angelmondragon/moodjournal-backend/internal/profiles"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type fakeProfiles struct {
	upserts []profiles.UpsertInput
	deleted []string
	err     error
}

func (f *fakeProfiles) Upsert(ctx context.Context, input profiles.UpsertInput) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.upserts = append(f.upserts, input)
	return &models.Profile{ID: input.ID, Email: input.Email, FullName: input.FullName}, nil
}

func (f *fakeProfiles) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newClerkService(t *testing.T, store *fakeProfiles) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Profiles: store, SigningSecret: testSecret})
	require.NoError(t, err)
	return svc
}

func signedHeaders(t *testing.T, payload []byte, ts time.Time) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(testSecret)
	require.NoError(t, err)
	sig, err := wh.Sign("msg_1", ts, payload)
	require.NoError(t, err)
	headers := http.Header{}
	headers.Set("svix-id", "msg_1")
	headers.Set("svix-timestamp", strconv.FormatInt(ts.Unix(), 10))
	headers.Set("svix-signature", sig)
	return headers
}

func TestVerifyEventAcceptsValidSignature(t *testing.T) {
	svc := newClerkService(t, &fakeProfiles{})
	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)

	event, err := svc.VerifyEvent(payload, signedHeaders(t, payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, EventUserCreated, event.Type)
}

func TestVerifyEventRejectsTamperedPayload(t *testing.T) {
	svc := newClerkService(t, &fakeProfiles{})
	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	headers := signedHeaders(t, payload, time.Now())

	_, err := svc.VerifyEvent([]byte(`{"type":"user.deleted","data":{"id":"user_1"}}`), headers)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSignature))

	_, err = svc.VerifyEvent(payload, http.Header{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSignature))
}

func TestHandleUserCreatedUpsertsProfile(t *testing.T) {
	store := &fakeProfiles{}
	svc := newClerkService(t, store)

	event := &Event{Type: EventUserCreated, Data: json.RawMessage(`{
		"id": "user_1",
		"email_addresses": [
			{"id": "idn_a", "email_address": "old@example.com"},
			{"id": "idn_b", "email_address": "primary@example.com"}
		],
		"primary_email_address_id": "idn_b",
		"first_name": "Ada",
		"last_name": "Lovelace"
	}`)}
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Len(t, store.upserts, 1)
	got := store.upserts[0]
	assert.Equal(t, "user_1", got.ID)
	require.NotNil(t, got.Email)
	assert.Equal(t, "primary@example.com", *got.Email)
	require.NotNil(t, got.FullName)
	assert.Equal(t, "Ada Lovelace", *got.FullName)
}

func TestHandleUserUpdatedFallsBackToFirstEmail(t *testing.T) {
	store := &fakeProfiles{}
	svc := newClerkService(t, store)

	event := &Event{Type: EventUserUpdated, Data: json.RawMessage(`{
		"id": "user_1",
		"email_addresses": [{"id": "idn_a", "email_address": "first@example.com"}],
		"primary_email_address_id": "idn_missing",
		"first_name": "",
		"last_name": null
	}`)}
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Len(t, store.upserts, 1)
	require.NotNil(t, store.upserts[0].Email)
	assert.Equal(t, "first@example.com", *store.upserts[0].Email)
	assert.Nil(t, store.upserts[0].FullName)
}

func TestHandleUserDeletedRemovesProfile(t *testing.T) {
	store := &fakeProfiles{}
	svc := newClerkService(t, store)

	event := &Event{Type: EventUserDeleted, Data: json.RawMessage(`{"id":"user_1","deleted":true}`)}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Equal(t, []string{"user_1"}, store.deleted)
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	store := &fakeProfiles{}
	svc := newClerkService(t, store)

	require.NoError(t, svc.HandleEvent(context.Background(), &Event{Type: "session.created", Data: json.RawMessage(`{}`)}))
	assert.Empty(t, store.upserts)
	assert.Empty(t, store.deleted)
}

func TestHandleEventValidation(t *testing.T) {
	svc := newClerkService(t, &fakeProfiles{})

	err := svc.HandleEvent(context.Background(), &Event{Type: EventUserCreated, Data: json.RawMessage(`{"id":" "}`)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = svc.HandleEvent(context.Background(), &Event{Type: EventUserDeleted})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestHandleEventPropagatesStoreErrors(t *testing.T) {
	boom := pkgerrors.Wrap(pkgerrors.CodePersistence, errors.New("db down"), "upsert profile")
	svc := newClerkService(t, &fakeProfiles{err: boom})

	err := svc.HandleEvent(context.Background(), &Event{Type: EventUserCreated, Data: json.RawMessage(`{"id":"user_1"}`)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(ServiceParams{Profiles: &fakeProfiles{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{SigningSecret: testSecret})
	assert.Error(t, err)
}
