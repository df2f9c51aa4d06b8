package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret: "test-signing-secret",
		Expiry: expiry,
		Issuer: "biblio-test",
	})
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(time.Hour)

	token, err := m.Generate("alice", 3)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "biblio-test", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTManager_Validate_UniformRejection(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(time.Hour)

	expired, err := newTestJWTManager(-time.Minute).Generate("alice", 0)
	require.NoError(t, err)

	forged, err := NewJWTManager(JWTConfig{Secret: "other-secret", Expiry: time.Hour, Issuer: "biblio-test"}).Generate("alice", 0)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "malformed", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "expired", token: expired},
		{name: "wrong signature", token: forged},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := m.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTManager_Subject_AcceptsExpiredToken(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(-time.Minute)

	token, err := m.Generate("bob", 0)
	require.NoError(t, err)

	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	subject, err := m.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", subject)
}

func TestJWTManager_Subject_RejectsForgedToken(t *testing.T) {
	t.Parallel()

	forged, err := NewJWTManager(JWTConfig{Secret: "other-secret", Expiry: time.Hour}).Generate("bob", 0)
	require.NoError(t, err)

	_, err = newTestJWTManager(time.Hour).Subject(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Expiry(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(2 * time.Hour)

	token, err := m.Generate("carol", 0)
	require.NoError(t, err)

	expiry, err := m.Expiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiry, 5*time.Second)
}
