package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
)

// SubscriptionView is the pricing page projection of a subscription row.
type SubscriptionView struct {
	Status            enums.SubscriptionStatus `json:"status"`
	Active            bool                     `json:"active"`
	PriceID           *string                  `json:"price_id,omitempty"`
	PriceAmount       *int64                   `json:"price_amount,omitempty"`
	PriceCurrency     *string                  `json:"price_currency,omitempty"`
	PriceInterval     *enums.BillingInterval   `json:"price_interval,omitempty"`
	PriceDisplay      string                   `json:"price_display,omitempty"`
	CurrentPeriodEnd  *time.Time               `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool                     `json:"cancel_at_period_end"`
	CancelAt          *time.Time               `json:"cancel_at,omitempty"`
	CanceledAt        *time.Time               `json:"canceled_at,omitempty"`
	TrialEnd          *time.Time               `json:"trial_end,omitempty"`
	HasCustomer       bool                     `json:"has_customer"`
}

// SessionURL carries a hosted Stripe page the client should redirect to.
type SessionURL struct {
	URL string `json:"url"`
}

func FromModel(sub *models.Subscription) *SubscriptionView {
	if sub == nil {
		return nil
	}
	return &SubscriptionView{
		Status:            sub.Status,
		Active:            sub.Status.IsActiveEquivalent(),
		PriceID:           sub.PriceID,
		PriceAmount:       sub.PriceAmount,
		PriceCurrency:     sub.PriceCurrency,
		PriceInterval:     sub.PriceInterval,
		PriceDisplay:      FormatPrice(sub.PriceAmount, sub.PriceCurrency, sub.PriceInterval),
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CancelAt:          sub.CancelAt,
		CanceledAt:        sub.CanceledAt,
		TrialEnd:          sub.TrialEnd,
		HasCustomer:       sub.StripeCustomerID != nil && *sub.StripeCustomerID != "",
	}
}

// FormatPrice renders minor units as "50.00 PLN/month". Empty when no amount is known.
func FormatPrice(amount *int64, currency *string, interval *enums.BillingInterval) string {
	if amount == nil {
		return ""
	}
	out := decimal.New(*amount, -2).StringFixed(2)
	if currency != nil && *currency != "" {
		out += " " + strings.ToUpper(*currency)
	}
	if interval != nil && *interval != "" {
		out += "/" + interval.String()
	}
	return out
}
