package billing

import (
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/datatypes"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

// MetadataUserIDKey is the Stripe metadata key carrying the owning user.
const MetadataUserIDKey = "clerkUserId"

// UserIDFromMetadata returns the owning user attached at checkout, or "".
func UserIDFromMetadata(metadata map[string]string) string {
	if metadata == nil {
		return ""
	}
	return strings.TrimSpace(metadata[MetadataUserIDKey])
}

// ApplyStripeSubscription copies the provider's subscription state onto target.
func ApplyStripeSubscription(target *models.Subscription, sub *stripe.Subscription) error {
	if target == nil || sub == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}
	status, err := enums.ParseSubscriptionStatus(string(sub.Status))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported subscription status")
	}

	target.StripeSubscriptionID = sub.ID
	target.Status = status
	if sub.Customer != nil && sub.Customer.ID != "" {
		target.StripeCustomerID = trimmedPtr(sub.Customer.ID)
	}

	target.PriceID = nil
	target.PriceAmount = nil
	target.PriceCurrency = nil
	target.PriceInterval = nil
	target.CurrentPeriodEnd = nil
	if item := firstItem(sub); item != nil {
		target.CurrentPeriodEnd = toTimePtr(item.CurrentPeriodEnd)
		if price := item.Price; price != nil {
			target.PriceID = trimmedPtr(price.ID)
			if price.UnitAmount != 0 {
				amount := price.UnitAmount
				target.PriceAmount = &amount
			}
			target.PriceCurrency = trimmedPtr(string(price.Currency))
			if price.Recurring != nil {
				if interval, err := enums.ParseBillingInterval(string(price.Recurring.Interval)); err == nil {
					target.PriceInterval = &interval
				}
			}
		}
	}

	target.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	target.CancelAt = toTimePtr(sub.CancelAt)
	target.CanceledAt = toTimePtr(sub.CanceledAt)
	target.TrialEnd = toTimePtr(sub.TrialEnd)
	target.Metadata = mergeMetadata(target.Metadata, sub.Metadata)
	return nil
}

func firstItem(sub *stripe.Subscription) *stripe.SubscriptionItem {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

func mergeMetadata(base datatypes.JSONMap, extras map[string]string) datatypes.JSONMap {
	merged := datatypes.JSONMap{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extras {
		if v == "" {
			continue
		}
		merged[k] = v
	}
	return merged
}

func toTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func trimmedPtr(value string) *string {
	if s := strings.TrimSpace(value); s != "" {
		return &s
	}
	return nil
}
