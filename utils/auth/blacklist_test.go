package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblio-app/biblio-api/model"
)

func TestBlacklistService_RevokeAndIsRevoked(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "alice")
	svc := NewBlacklistService(db)
	ctx := context.Background()

	const token = "some.bearer.token"

	revoked, err := svc.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Revoke(ctx, token, user.ID, time.Now().Add(time.Hour), "logout"))

	revoked, err = svc.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	// Revoking the same token twice is a no-op
	assert.NoError(t, svc.Revoke(ctx, token, user.ID, time.Now().Add(time.Hour), "logout"))
}

func TestBlacklistService_ExpiredEntriesDoNotMatch(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "bob")
	svc := NewBlacklistService(db)
	ctx := context.Background()

	const token = "expired.bearer.token"
	require.NoError(t, svc.Revoke(ctx, token, user.ID, time.Now().Add(-time.Minute), "logout"))

	// The underlying token can no longer pass expiry validation, so the
	// stale row does not count as revoked
	revoked, err := svc.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistService_CleanupExpired(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "carol")
	svc := NewBlacklistService(db)
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "stale.token", user.ID, time.Now().Add(-time.Minute), "logout"))
	require.NoError(t, svc.Revoke(ctx, "live.token", user.ID, time.Now().Add(time.Hour), "logout"))

	pruned, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	var count int64
	require.NoError(t, db.Model(&model.TokenBlacklist{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	revoked, err := svc.IsRevoked(ctx, "live.token")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestBlacklistService_BumpTokenVersion(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := createTestUser(t, db, "dave")
	svc := NewBlacklistService(db)
	ctx := context.Background()

	require.NoError(t, svc.BumpTokenVersion(ctx, user.ID))
	require.NoError(t, svc.BumpTokenVersion(ctx, user.ID))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, user.TokenVersion+2, reloaded.TokenVersion)
}
