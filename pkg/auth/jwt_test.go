package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateAndVerify(t *testing.T) {
	service, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := service.Generate(42, "user@example.com", "student")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
}

func TestTokenService_RejectsEmptySecret(t *testing.T) {
	service, err := NewTokenService("", time.Hour)
	assert.Nil(t, service)
	assert.Error(t, err)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	service, err := NewTokenService("test-secret", time.Nanosecond)
	require.NoError(t, err)

	token, err := service.Generate(1, "user@example.com", "admin")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := service.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer, err := NewTokenService("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenService("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate(1, "user@example.com", "admin")
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_MalformedToken(t *testing.T) {
	service, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := service.Verify("not-a-token")
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
