package auth_test

import (
	"testing"
	"time"

	"flowfix/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	manager := auth.NewTokenManager(testSecret, 24*time.Hour)

	// Generate a token
	userID := uuid.New()
	token, err := manager.GenerateToken(userID, true)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Parse it back
	claims, err := manager.ParseToken(token)

	assert.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestParseToken_InvalidToken(t *testing.T) {
	manager := auth.NewTokenManager(testSecret, time.Hour)

	_, err := manager.ParseToken("invalid-token")

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := auth.NewTokenManager("other-secret", time.Hour).GenerateToken(uuid.New(), false)
	assert.NoError(t, err)

	_, err = auth.NewTokenManager(testSecret, time.Hour).ParseToken(token)

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_ExpiredToken(t *testing.T) {
	manager := auth.NewTokenManager(testSecret, time.Hour)

	// Token expired an hour ago
	claims := jwt.MapClaims{
		"user_id": "test-user-id",
		"exp":     time.Now().Add(-1 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, _ := token.SignedString([]byte(testSecret))

	_, err := manager.ParseToken(expiredToken)

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_MissingClaims(t *testing.T) {
	manager := auth.NewTokenManager(testSecret, time.Hour)

	// Token without a user id
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenWithoutUserID, _ := token.SignedString([]byte(testSecret))

	_, err := manager.ParseToken(tokenWithoutUserID)

	assert.Error(t, err)
	assert.Equal(t, "invalid claims", err.Error())
}
