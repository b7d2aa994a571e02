package clerkwebhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/angelmondragon/moodjournal-backend/internal/profiles"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
)

type profileStore interface {
	Upsert(ctx context.Context, input profiles.UpsertInput) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

type ServiceParams struct {
	Profiles      profileStore
	SigningSecret string
	Logger        *logger.Logger
}

type Service struct {
	profiles profileStore
	verifier *svix.Webhook
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile store required")
	}
	secret := strings.TrimSpace(params.SigningSecret)
	if secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "clerk webhook secret required")
	}
	verifier, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid clerk webhook secret")
	}
	return &Service{profiles: params.Profiles, verifier: verifier, logg: params.Logger}, nil
}

// VerifyEvent checks the svix signature headers and decodes the envelope.
func (s *Service) VerifyEvent(payload []byte, headers http.Header) (*Event, error) {
	if err := s.verifier.Verify(payload, headers); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "invalid webhook signature")
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode clerk event")
	}
	return &event, nil
}

// HandleEvent mirrors user lifecycle events into profiles. Unknown types are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "clerk event required")
	}

	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		user, err := decodeUser(event.Data)
		if err != nil {
			return err
		}
		_, err = s.profiles.Upsert(ctx, profiles.UpsertInput{
			ID:       user.ID,
			Email:    user.PrimaryEmail(),
			FullName: user.FullName(),
		})
		return err
	case EventUserDeleted:
		user, err := decodeUser(event.Data)
		if err != nil {
			return err
		}
		return s.profiles.Delete(ctx, user.ID)
	default:
		if s.logg != nil {
			s.logg.Debug(s.logg.WithField(ctx, "event_type", event.Type), "clerk.event_ignored")
		}
		return nil
	}
}

func decodeUser(raw json.RawMessage) (UserData, error) {
	var user UserData
	if len(raw) == 0 {
		return user, pkgerrors.New(pkgerrors.CodeValidation, "clerk event data required")
	}
	if err := json.Unmarshal(raw, &user); err != nil {
		return user, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode clerk user")
	}
	user.ID = strings.TrimSpace(user.ID)
	if user.ID == "" {
		return user, pkgerrors.New(pkgerrors.CodeValidation, "clerk user id missing")
	}
	return user, nil
}
