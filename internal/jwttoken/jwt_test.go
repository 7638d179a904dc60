package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
)

var jwtService = New("test-signing-key", "test-issuer", time.Hour)
var userID = id.NewUserID()
var email = "jules.durand@example.com"

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, email)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, email, claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	expired := New("test-signing-key", "test-issuer", -time.Hour)
	token, err := expired.GenerateAccessToken(userID, email)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := New("another-signing-key", "test-issuer", time.Hour)
	token, err := other.GenerateAccessToken(userID, email)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ExtractUserID(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, email)
	require.NoError(t, err)

	extracted, err := jwtService.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, extracted)
}
