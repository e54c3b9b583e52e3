package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkahistory/chat-archive/internal/domain"
)

const testSecret = "test-secret-that-is-long-enough-0123456789"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute)

	token, issued, err := tm.GenerateToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, issued.IssuedAt.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestTokenManager_UniqueIDs(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)

	_, c1, err := tm.GenerateToken("user-1", domain.RoleUser)
	require.NoError(t, err)
	_, c2, err := tm.GenerateToken("user-1", domain.RoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)
	issuedAt := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return issuedAt }

	token, _, err := tm.GenerateToken("user-1", domain.RoleUser)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_Tampered(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)
	token, _, err := tm.GenerateToken("user-1", domain.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, _, err := NewTokenManager("another-secret-entirely-0123456789abc", time.Minute).GenerateToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	tests := map[string]string{
		"swapped payload": parts[0] + "." + forgedParts[1] + "." + parts[2],
		"wrong key":       forged,
		"garbage":         "not.a.token",
		"empty":           "",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tm.ParseToken(tok)
			assert.Error(t, err)
		})
	}
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)
	claims := &Claims{
		UserID: "user-1",
		Role:   domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ParseToken(unsigned)
	assert.Error(t, err)
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	tm := NewTokenManager(testSecret, 0)
	assert.Equal(t, time.Hour, tm.ttl)
}
