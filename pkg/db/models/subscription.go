package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
)

// Subscription persists Stripe subscription state per user.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;primaryKey"`
	ClerkUserID          string                   `gorm:"column:clerk_user_id;type:text;not null;uniqueIndex"`
	StripeCustomerID     *string                  `gorm:"column:stripe_customer_id"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;uniqueIndex"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null"`
	PriceID              *string                  `gorm:"column:price_id"`
	PriceAmount          *int64                   `gorm:"column:price_amount"`
	PriceCurrency        *string                  `gorm:"column:price_currency"`
	PriceInterval        *enums.BillingInterval   `gorm:"column:price_interval;type:billing_interval"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	CancelAtPeriodEnd    bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CancelAt             *time.Time               `gorm:"column:cancel_at"`
	CanceledAt           *time.Time               `gorm:"column:canceled_at"`
	TrialEnd             *time.Time               `gorm:"column:trial_end"`
	Metadata             datatypes.JSONMap        `gorm:"column:metadata;type:jsonb"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
