package journal

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
)

// Repository persists journal entries. Every query is scoped by user id.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.JournalEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByUserWithTx(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a journal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.JournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser returns the newest entries first.
func (r *repository) ListByUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("clerk_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("clerk_user_id = ?", userID).Delete(&models.JournalEntry{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByUserWithTx(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	return r.WithTx(tx).DeleteByUser(ctx, userID)
}
