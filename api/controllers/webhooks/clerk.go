package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/moodjournal-backend/api/responses"
	clerkwebhook "github.com/angelmondragon/moodjournal-backend/internal/webhooks/clerk"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
	"github.com/angelmondragon/moodjournal-backend/pkg/metrics"
)

const providerClerk = "clerk"

type ClerkWebhookService interface {
	VerifyEvent(payload []byte, headers http.Header) (*clerkwebhook.Event, error)
	HandleEvent(ctx context.Context, event *clerkwebhook.Event) error
}

// ClerkWebhook verifies svix-signed user lifecycle events and mirrors them into profiles.
func ClerkWebhook(svc ClerkWebhookService, guard EventGuard, counter eventCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "clerk webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		event, err := svc.VerifyEvent(payload, r.Header)
		if err != nil {
			count(counter, delivery{provider: providerClerk}, metrics.WebhookRejected)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		d := delivery{provider: providerClerk, eventID: r.Header.Get("svix-id"), eventType: event.Type}
		process(ctx, w, d, guard, counter, logg, func(ctx context.Context) error {
			return svc.HandleEvent(ctx, event)
		})
	}
}
