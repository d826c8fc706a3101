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

func newUserService(store *testutil.Store) *service.UserService {
	return service.NewUserService(store.Users, config.PagingConfig{DefaultPerPage: 20, MaxPerPage: 100})
}

func TestListUsersAdminOnly(t *testing.T) {
	store := testutil.NewStore()
	admin := testutil.SeedUser(t, store, "Ada", "ada@example.com", domain.RoleAdmin)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleAgent)
	testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newUserService(store)
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, agent, 1, 10)
	requireDomainCode(t, err, "PERMISSION_DENIED")

	page, err := svc.ListUsers(ctx, admin, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Items, 2)
}

func TestUpdateUserRole(t *testing.T) {
	store := testutil.NewStore()
	admin := testutil.SeedUser(t, store, "Ada", "ada@example.com", domain.RoleAdmin)
	rita := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newUserService(store)
	ctx := context.Background()

	role := "L2"
	updated, err := svc.UpdateUser(ctx, admin, rita.ID, service.UserUpdateInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleL2, updated.Role)

	bogus := "SUPERUSER"
	_, err = svc.UpdateUser(ctx, admin, rita.ID, service.UserUpdateInput{Role: &bogus})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.UpdateUser(ctx, rita, admin.ID, service.UserUpdateInput{Role: &role})
	requireDomainCode(t, err, "PERMISSION_DENIED")

	_, err = svc.UpdateUser(ctx, admin, "no-such-user", service.UserUpdateInput{Role: &role})
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestUpdateProfile(t *testing.T) {
	store := testutil.NewStore()
	rita := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	testutil.SeedUser(t, store, "Sam", "sam@example.com", domain.RoleEndUser)
	svc := newUserService(store)
	ctx := context.Background()

	name := "Rita Q."
	email := "Rita.Q@Example.com"
	updated, err := svc.UpdateProfile(ctx, rita, &name, &email)
	require.NoError(t, err)
	assert.Equal(t, "Rita Q.", updated.Name)
	assert.Equal(t, "rita.q@example.com", updated.Email)

	taken := "sam@example.com"
	_, err = svc.UpdateProfile(ctx, rita, nil, &taken)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	empty := "  "
	_, err = svc.UpdateProfile(ctx, rita, &empty, nil)
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestDeleteUser(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	admin := testutil.SeedUser(t, store, "Ada", "ada@example.com", domain.RoleAdmin)
	rita := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	sam := testutil.SeedUser(t, store, "Sam", "sam@example.com", domain.RoleEndUser)
	svc := newUserService(store)
	tickets := newTicketService(store, nil)
	ctx := context.Background()

	_, err := tickets.CreateTicket(ctx, rita, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, admin, admin.ID)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	err = svc.DeleteUser(ctx, admin, rita.ID)
	requireDomainCode(t, err, "REFERENTIAL_CONFLICT")

	err = svc.DeleteUser(ctx, rita, sam.ID)
	requireDomainCode(t, err, "PERMISSION_DENIED")

	require.NoError(t, svc.DeleteUser(ctx, admin, sam.ID))

	err = svc.DeleteUser(ctx, admin, sam.ID)
	requireDomainCode(t, err, "NOT_FOUND")
}
