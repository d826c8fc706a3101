package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("secret", 15)

	token, expiresAt, err := tm.GenerateToken("user-1", domain.RoleL2)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleL2, claims.Role)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, _, err := auth.NewTokenManager("secret-a", 15).GenerateToken("user-1", domain.RoleEndUser)
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b", 15).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	_, err := auth.NewTokenManager("secret", 15).ParseToken("not.a.token")
	assert.Error(t, err)
}
