package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsupport/helpdesk/internal/config"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/service"
	"github.com/smartsupport/helpdesk/internal/testutil"
)

func newAuthService(store *testutil.Store) *service.AuthService {
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}}
	return service.NewAuthService(cfg, store.Users)
}

func TestRegisterCreatesEndUser(t *testing.T) {
	store := testutil.NewStore()
	svc := newAuthService(store)
	ctx := context.Background()

	user, token, expiresAt, err := svc.Register(ctx, "Rita", "Rita@Example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEndUser, user.Role)
	assert.Equal(t, "rita@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleEndUser, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := testutil.NewStore()
	svc := newAuthService(store)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Rita", "rita@example.com", "hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, "Other Rita", "rita@example.com", "hunter3")
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, _, _, err = svc.Register(ctx, "", "new@example.com", "hunter2")
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestLogin(t *testing.T) {
	store := testutil.NewStore()
	svc := newAuthService(store)
	ctx := context.Background()

	registered, _, _, err := svc.Register(ctx, "Rita", "rita@example.com", "hunter2")
	require.NoError(t, err)

	user, token, _, err := svc.Login(ctx, "rita@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, _, err = svc.Login(ctx, "rita@example.com", "wrong")
	requireDomainCode(t, err, "UNAUTHORIZED")

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "hunter2")
	requireDomainCode(t, err, "UNAUTHORIZED")
}
