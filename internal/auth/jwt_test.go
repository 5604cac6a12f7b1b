package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanfrill/storefront/internal/domain/user"
)

func testIdentity(uid string) *user.Identity {
	return &user.Identity{
		UID:         uid,
		Email:       "test@example.com",
		DisplayName: "Test Shopper",
		Provider:    user.ProviderPassword,
	}
}

func newTestJWTService() *JWTService {
	return NewJWTService(
		"test-secret-key-for-testing-purposes",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func TestNewJWTService(t *testing.T) {
	service := newTestJWTService()
	assert.NotNil(t, service)
	assert.Equal(t, 15*time.Minute, service.GetAccessTokenExpiry())
	assert.Equal(t, 7*24*time.Hour, service.GetRefreshTokenExpiry())
}

func TestJWTService_GenerateAccessToken_Success(t *testing.T) {
	service := newTestJWTService()

	token, expiresAt, err := service.GenerateAccessToken(testIdentity("user-123"))

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
}

func TestJWTService_ValidateAccessToken_Valid(t *testing.T) {
	service := newTestJWTService()

	id := testIdentity("user-456")
	id.PhotoURL = "https://files.test/profilePictures/user-456/1_me.png"

	token, _, err := service.GenerateAccessToken(id)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-456", claims.UserID)
	assert.Equal(t, "user-456", claims.Subject)
	assert.Equal(t, id, claims.Identity())
}

func TestJWTService_ValidateAccessToken_Expired(t *testing.T) {
	// Create a service with very short expiry
	service := NewJWTService("test-secret", 1*time.Millisecond, 7*24*time.Hour)

	token, _, err := service.GenerateAccessToken(testIdentity("user-123"))
	require.NoError(t, err)

	// Wait for token to expire
	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateAccessToken_Invalid(t *testing.T) {
	service := newTestJWTService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ValidateAccessToken_WrongSignature(t *testing.T) {
	service1 := NewJWTService("secret-key-1", 15*time.Minute, 7*24*time.Hour)
	service2 := NewJWTService("secret-key-2", 15*time.Minute, 7*24*time.Hour)

	// Generate token with service1
	token, _, err := service1.GenerateAccessToken(testIdentity("user-123"))
	require.NoError(t, err)

	// Try to validate with service2 (different secret)
	claims, err := service2.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateAccessToken_WrongAlgorithm(t *testing.T) {
	service := newTestJWTService()

	// Create a token with a different algorithm (none)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-123",
		Email:  "test@example.com",
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_GenerateRefreshToken_Success(t *testing.T) {
	service := newTestJWTService()

	userID := "user-789"

	token, expiresAt, err := service.GenerateRefreshToken(userID, user.ProviderPassword)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(8*24*time.Hour)))
}

func TestJWTService_ValidateRefreshToken_Valid(t *testing.T) {
	service := newTestJWTService()

	userID := "user-refresh-test"

	token, _, err := service.GenerateRefreshToken(userID, user.ProviderPassword)
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(token)

	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, user.ProviderPassword, claims.Provider)
}

func TestJWTService_ValidateRefreshToken_Expired(t *testing.T) {
	// Create a service with very short refresh expiry
	service := NewJWTService("test-secret", 15*time.Minute, 1*time.Millisecond)

	token, _, err := service.GenerateRefreshToken("user-123", user.ProviderSSO)
	require.NoError(t, err)

	// Wait for token to expire
	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateRefreshToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateRefreshToken_Invalid(t *testing.T) {
	service := newTestJWTService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "invalid-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateRefreshToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ValidateRefreshToken_WrongSignature(t *testing.T) {
	service1 := NewJWTService("secret-key-1", 15*time.Minute, 7*24*time.Hour)
	service2 := NewJWTService("secret-key-2", 15*time.Minute, 7*24*time.Hour)

	// Generate token with service1
	token, _, err := service1.GenerateRefreshToken("user-123", user.ProviderSSO)
	require.NoError(t, err)

	// Try to validate with service2 (different secret)
	claims, err := service2.ValidateRefreshToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_TokensAreDifferent(t *testing.T) {
	service := newTestJWTService()

	userID := "user-123"

	accessToken, _, err := service.GenerateAccessToken(testIdentity(userID))
	require.NoError(t, err)

	refreshToken, _, err := service.GenerateRefreshToken(userID, user.ProviderPassword)
	require.NoError(t, err)

	// Access and refresh tokens should be different
	assert.NotEqual(t, accessToken, refreshToken)
}

func TestJWTService_CannotUseRefreshTokenAsAccessToken(t *testing.T) {
	service := newTestJWTService()

	refreshToken, _, err := service.GenerateRefreshToken("user-123", user.ProviderSSO)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(refreshToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_CannotUseAccessTokenAsRefreshToken(t *testing.T) {
	service := newTestJWTService()

	accessToken, _, err := service.GenerateAccessToken(testIdentity("user-123"))
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(accessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_GetExpiry(t *testing.T) {
	accessExpiry := 30 * time.Minute
	refreshExpiry := 14 * 24 * time.Hour

	service := NewJWTService("secret", accessExpiry, refreshExpiry)

	assert.Equal(t, accessExpiry, service.GetAccessTokenExpiry())
	assert.Equal(t, refreshExpiry, service.GetRefreshTokenExpiry())
}
