package jwttoken

import (
	"context"
	"testing"
	"time"

	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/requestcontext"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userID = id.UserID(uuid.New())
var expiresIn = time.Minute

var jwtService = NewJWTService("test-signing-key", "test-issuer", expiresIn)

func Test_GenerateAccessToken(t *testing.T) {
	ctx := context.Background()
	token, jti, err := jwtService.GenerateAccessToken(ctx, userID, id.RoleEditor)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Len(t, jti, 32)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, jti, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateAccessToken_NilUser(t *testing.T) {
	_, _, err := jwtService.GenerateAccessToken(context.Background(), id.UserID{}, id.RoleAdmin)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	past := requestcontext.WithTime(context.Background(), time.Now().Add(-2*expiresIn))
	token, _, err := jwtService.GenerateAccessToken(past, userID, id.RoleReader)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorContains(t, err, "token expired")
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer", expiresIn)
	token, _, err := other.GenerateAccessToken(context.Background(), userID, id.RoleAdmin)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService("test-signing-key", "someone-else", expiresIn)
	token, _, err := other.GenerateAccessToken(context.Background(), userID, id.RoleAdmin)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{
		UserID: userID.String(),
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	require.Error(t, err)
}

func Test_CreateRefreshToken(t *testing.T) {
	a, err := jwtService.CreateRefreshToken()
	require.NoError(t, err)
	b, err := jwtService.CreateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func Test_AdapterMapsClaims(t *testing.T) {
	token, jti, err := jwtService.GenerateAccessToken(context.Background(), userID, id.RoleAdmin)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, jti, claims.JTI)
}
