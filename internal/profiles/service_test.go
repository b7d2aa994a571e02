package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeEntryDeleter struct {
	deleteFn func(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}

func (f *fakeEntryDeleter) DeleteByUserWithTx(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, tx, userID)
	}
	return 0, nil
}

func newTestService(t *testing.T, db *gorm.DB, entries entryDeleter, period time.Duration, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(db),
		Entries:           entries,
		TransactionRunner: gormTxRunner{db: db},
		TrialPeriod:       period,
		Now:               func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func TestService_UpsertStampsTrialOnce(t *testing.T) {
	db := setupProfilesTestDB(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, &fakeEntryDeleter{}, 7*24*time.Hour, created)

	first, err := svc.Upsert(context.Background(), UpsertInput{ID: "user_1", Email: strPtr("a@example.com")})
	require.NoError(t, err)
	require.NotNil(t, first.TrialEnd)
	assert.True(t, first.TrialEnd.Equal(created.Add(7*24*time.Hour)))

	later := newTestService(t, db, &fakeEntryDeleter{}, 7*24*time.Hour, created.Add(10*24*time.Hour))
	second, err := later.Upsert(context.Background(), UpsertInput{ID: "user_1", Email: strPtr("new@example.com")})
	require.NoError(t, err)
	require.NotNil(t, second.TrialEnd)
	assert.True(t, second.TrialEnd.Equal(created.Add(7*24*time.Hour)))
	assert.Equal(t, "new@example.com", *second.Email)
}

func TestService_UpsertWithoutTrial(t *testing.T) {
	db := setupProfilesTestDB(t)
	svc := newTestService(t, db, &fakeEntryDeleter{}, 0, time.Now())

	profile, err := svc.Upsert(context.Background(), UpsertInput{ID: "user_free"})
	require.NoError(t, err)
	assert.Nil(t, profile.TrialStart)
	assert.Nil(t, profile.TrialEnd)
}

func TestService_UpsertRequiresID(t *testing.T) {
	svc := newTestService(t, setupProfilesTestDB(t), &fakeEntryDeleter{}, time.Hour, time.Now())
	_, err := svc.Upsert(context.Background(), UpsertInput{ID: "  "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestService_DeleteRemovesEntriesAndProfile(t *testing.T) {
	db := setupProfilesTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewRepository(db).Upsert(ctx, &models.Profile{ID: "user_1"}))

	var deletedFor string
	deleter := &fakeEntryDeleter{deleteFn: func(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
		deletedFor = userID
		res := tx.Exec("DELETE FROM journal_entries WHERE clerk_user_id = ?", userID)
		return res.RowsAffected, res.Error
	}}
	svc := newTestService(t, db, deleter, time.Hour, time.Now())

	require.NoError(t, svc.Delete(ctx, "user_1"))
	assert.Equal(t, "user_1", deletedFor)

	got, err := NewRepository(db).FindByID(ctx, "user_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_DeleteRollsBackOnEntryFailure(t *testing.T) {
	db := setupProfilesTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewRepository(db).Upsert(ctx, &models.Profile{ID: "user_1"}))

	deleter := &fakeEntryDeleter{deleteFn: func(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
		return 0, errors.New("boom")
	}}
	svc := newTestService(t, db, deleter, time.Hour, time.Now())

	err := svc.Delete(ctx, "user_1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))

	got, err := NewRepository(db).FindByID(ctx, "user_1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
