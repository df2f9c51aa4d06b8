package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.TokenBlacklist{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleMember,
		Status:       model.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRefreshTokenService_Create_ReplacesExisting(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "alice")
	svc := NewRefreshTokenService(db, time.Hour)
	ctx := context.Background()

	first, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)

	second, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	// Exactly one live token per user
	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = svc.FindByToken(ctx, first.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	found, err := svc.FindByToken(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)
}

func TestRefreshTokenService_VerifyExpiration_DeletesExpired(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "bob")
	svc := NewRefreshTokenService(db, -time.Minute)
	ctx := context.Background()

	rt, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, rt.IsExpired())

	_, err = svc.VerifyExpiration(ctx, rt)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)

	// Expired row is gone; a second lookup is not-found, not expired
	_, err = svc.FindByToken(ctx, rt.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRefreshTokenService_VerifyExpiration_KeepsLiveToken(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "carol")
	svc := NewRefreshTokenService(db, time.Hour)
	ctx := context.Background()

	rt, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)

	verified, err := svc.VerifyExpiration(ctx, rt)
	require.NoError(t, err)
	assert.Equal(t, rt.Token, verified.Token)

	_, err = svc.FindByToken(ctx, rt.Token)
	assert.NoError(t, err)
}

func TestRefreshTokenService_DeleteByUser_Idempotent(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "dave")
	svc := NewRefreshTokenService(db, time.Hour)
	ctx := context.Background()

	rt, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByUser(ctx, user.ID))
	_, err = svc.FindByToken(ctx, rt.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// Deleting again is a no-op, not an error
	assert.NoError(t, svc.DeleteByUser(ctx, user.ID))
}

func TestRefreshTokenService_PurgeExpired(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	ctx := context.Background()

	expired := createTestUser(t, db, "erin")
	live := createTestUser(t, db, "frank")

	_, err := NewRefreshTokenService(db, -time.Minute).Create(ctx, expired.ID)
	require.NoError(t, err)
	kept, err := NewRefreshTokenService(db, time.Hour).Create(ctx, live.ID)
	require.NoError(t, err)

	svc := NewRefreshTokenService(db, time.Hour)
	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = svc.FindByToken(ctx, kept.Token)
	assert.NoError(t, err)
}
