package billing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
)

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID string) (*models.Subscription, error)
	FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	UpsertByUser(ctx context.Context, subscription *models.Subscription) error
	Update(ctx context.Context, subscription *models.Subscription) error
	MarkCanceled(ctx context.Context, stripeSubscriptionID string, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	return r.findOne(ctx, "clerk_user_id = ?", userID)
}

func (r *repository) FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	if stripeSubscriptionID == "" {
		return nil, nil
	}
	return r.findOne(ctx, "stripe_subscription_id = ?", stripeSubscriptionID)
}

func (r *repository) findOne(ctx context.Context, where string, arg any) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where(where, arg).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

var upsertColumns = []string{
	"stripe_customer_id",
	"stripe_subscription_id",
	"status",
	"price_id",
	"price_amount",
	"price_currency",
	"price_interval",
	"current_period_end",
	"cancel_at_period_end",
	"cancel_at",
	"canceled_at",
	"trial_end",
	"metadata",
	"updated_at",
}

// UpsertByUser keeps at most one subscription row per user.
func (r *repository) UpsertByUser(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clerk_user_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(subscription).Error
}

func (r *repository) Update(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *repository) MarkCanceled(ctx context.Context, stripeSubscriptionID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]any{
			"status":      enums.SubscriptionStatusCanceled,
			"canceled_at": at,
			"updated_at":  at,
		})
	return res.RowsAffected, res.Error
}
