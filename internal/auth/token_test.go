package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	issued, err := tm.GenerateToken(42, domain.RoleSupport)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := tm.ParseToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleSupport, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issued, err := NewTokenManager("secret", time.Hour).GenerateToken(1, domain.RoleClient)
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).ParseToken(issued.Token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	start := time.Now()
	tm.now = func() time.Time { return start }

	issued, err := tm.GenerateToken(1, domain.RoleClient)
	require.NoError(t, err)

	tm.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = tm.ParseToken(issued.Token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).ParseToken("not-a-jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hashed, "hunter22"))
	assert.Error(t, ComparePassword(hashed, "wrong"))
}

func TestTokenStoreLocalRevocation(t *testing.T) {
	store := NewTokenStore(nil)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.Revoke(context.Background(), "jti-1", time.Minute)
	assert.True(t, store.IsRevoked(context.Background(), "jti-1"))
	assert.False(t, store.IsRevoked(context.Background(), "jti-2"))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, store.IsRevoked(context.Background(), "jti-1"))
}
