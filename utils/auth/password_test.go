package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Secret123", hash)

	assert.True(t, VerifyPassword("Secret123", hash))
	assert.False(t, VerifyPassword("Secret124", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestIsPasswordValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid", password: "Secret123", wantErr: nil},
		{name: "too short", password: "Ab1", wantErr: ErrPasswordTooShort},
		{name: "no uppercase", password: "secret123", wantErr: ErrPasswordTooWeak},
		{name: "no lowercase", password: "SECRET123", wantErr: ErrPasswordTooWeak},
		{name: "no digit", password: "SecretPass", wantErr: ErrPasswordTooWeak},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := IsPasswordValid(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestHashPassword_RejectsWeakPassword(t *testing.T) {
	t.Parallel()

	_, err := HashPassword("weak")
	assert.Error(t, err)
}
