package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medshift/marketplace/internal/service"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	userID := uuid.New()

	pair, err := tokens.GenerateTokenPair(userID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	got, err := tokens.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestValidateTokenRejectsRefreshToken(t *testing.T) {
	tokens := service.NewTokenService("test-secret")

	pair, err := tokens.GenerateTokenPair(uuid.New())
	require.NoError(t, err)

	_, err = tokens.ValidateToken(pair.RefreshToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	pair, err := service.NewTokenService("secret-a").GenerateTokenPair(uuid.New())
	require.NoError(t, err)

	_, err = service.NewTokenService("secret-b").ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	tokens := service.NewTokenService("test-secret")

	_, err := tokens.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
