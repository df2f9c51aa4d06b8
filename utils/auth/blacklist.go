package auth

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
)

// BlacklistService revokes bearer tokens before their natural expiry.
// Rows are keyed by the raw token string and kept in the database so
// every API instance sees the same revocation set. A revoked token only
// needs to stay listed until it would have expired anyway; the cron
// cleanup prunes the rest.
type BlacklistService struct {
	db *gorm.DB
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{
		db: db,
	}
}

// Revoke records a token as blacklisted until its natural expiry.
// Revoking an already-revoked token is a no-op.
func (s *BlacklistService) Revoke(ctx context.Context, token string, userID uint, expiresAt time.Time, reason string) error {
	entry := &model.TokenBlacklist{
		Token:     token,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}

	err := s.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		var existing model.TokenBlacklist
		if s.db.WithContext(ctx).Where("token = ?", token).First(&existing).Error == nil {
			return nil
		}
		return err
	}
	return nil
}

// IsRevoked reports whether the token is currently blacklisted. Rows past
// their expiry no longer count even before the cleanup job removes them.
func (s *BlacklistService) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.TokenBlacklist{}).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CleanupExpired hard-deletes blacklist rows whose tokens have expired.
// Run from cron.
func (s *BlacklistService) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.TokenBlacklist{})
	return result.RowsAffected, result.Error
}

// BumpTokenVersion increments the user's token version epoch. Every bearer
// token issued before the bump carries the old version and fails the
// middleware's version check, which is how sign-out-everywhere works
// without enumerating tokens.
func (s *BlacklistService) BumpTokenVersion(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
}
