package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewTokenService("secret", time.Hour)

	token, err := s.Issue("user-1", "freelancer")
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "freelancer", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("one", time.Hour).Issue("u", "client")
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	s := NewTokenService("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Minute)
	s.now = func() time.Time { return issued }

	token, err := s.Issue("u", "client")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.True(t, h.Compare(hash, "correct horse"))
	assert.False(t, h.Compare(hash, "wrong"))
}
