package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
)

var (
	// ErrRefreshTokenNotFound is returned when the opaque token matches no row
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrRefreshTokenExpired is returned after an expired token has been deleted
	ErrRefreshTokenExpired = errors.New("refresh token expired, please sign in again")
)

// RefreshTokenService manages the one-per-user opaque refresh tokens.
// Tokens are random UUIDs with no embedded claims; everything about them
// lives in the refresh_tokens table.
type RefreshTokenService struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewRefreshTokenService creates a new refresh token service
func NewRefreshTokenService(db *gorm.DB, ttl time.Duration) *RefreshTokenService {
	return &RefreshTokenService{
		db:  db,
		ttl: ttl,
	}
}

// Create issues a fresh token for the user, replacing any existing one.
// Delete and insert run in one transaction so the unique index on user_id
// never rejects a re-login.
func (s *RefreshTokenService) Create(ctx context.Context, userID uint) (*model.RefreshToken, error) {
	token := &model.RefreshToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.ttl),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// FindByToken loads the row for an opaque token string
func (s *RefreshTokenService) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// VerifyExpiration returns the token unchanged while it is still live.
// An expired token is deleted before the error is returned, so a retry
// with the same token fails as not-found rather than expired.
func (s *RefreshTokenService) VerifyExpiration(ctx context.Context, rt *model.RefreshToken) (*model.RefreshToken, error) {
	if !rt.IsExpired() {
		return rt, nil
	}

	if err := s.db.WithContext(ctx).Delete(&model.RefreshToken{}, rt.ID).Error; err != nil {
		return nil, err
	}
	return nil, ErrRefreshTokenExpired
}

// DeleteByUser removes the user's refresh token if one exists. Deleting
// for a user with no token is a no-op, not an error.
func (s *RefreshTokenService) DeleteByUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

// PurgeExpired deletes all refresh tokens past their expiry. Run from cron.
func (s *RefreshTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&model.RefreshToken{})
	return result.RowsAffected, result.Error
}
