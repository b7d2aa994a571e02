package webhooks

import (
	"context"
	"net/http"

	"github.com/angelmondragon/moodjournal-backend/api/responses"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/logger"
	"github.com/angelmondragon/moodjournal-backend/pkg/metrics"
)

const maxPayloadBytes = 1 << 20

// EventGuard deduplicates provider deliveries by event id.
type EventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type eventCounter interface {
	Inc(provider, eventType, result string)
}

type delivery struct {
	provider  string
	eventID   string
	eventType string
}

// process runs handle once per event id. The mark is cleared when handle
// fails so the provider's retry gets a fresh attempt.
func process(ctx context.Context, w http.ResponseWriter, d delivery, guard EventGuard, counter eventCounter, logg *logger.Logger, handle func(context.Context) error) {
	if logg != nil {
		ctx = logg.WithWebhook(ctx, d.provider, d.eventID)
	}

	alreadyProcessed, err := guard.CheckAndMark(ctx, d.eventID)
	if err != nil {
		count(counter, d, metrics.WebhookFailed)
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	if alreadyProcessed {
		count(counter, d, metrics.WebhookDuplicate)
		if logg != nil {
			logg.Info(ctx, "webhook.duplicate")
		}
		responses.WriteSuccess(w, nil)
		return
	}

	if err := handle(ctx); err != nil {
		if delErr := guard.Delete(ctx, d.eventID); delErr != nil && logg != nil {
			logg.Error(ctx, "webhook.idempotency_clear_failed", delErr)
		}
		count(counter, d, metrics.WebhookFailed)
		responses.WriteError(ctx, logg, w, err)
		return
	}

	count(counter, d, metrics.WebhookProcessed)
	if logg != nil {
		logg.Info(logg.WithField(ctx, "event_type", d.eventType), "webhook.processed")
	}
	responses.WriteSuccess(w, nil)
}

func count(counter eventCounter, d delivery, result string) {
	if counter != nil {
		counter.Inc(d.provider, d.eventType, result)
	}
}
