package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartsupport/helpdesk/internal/domain"
)

// SeedUser inserts an account with the given role.
func SeedUser(t *testing.T, store *Store, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

// SeedCatalog inserts the default status and category rows the schema
// migration ships with.
func SeedCatalog(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	statuses := []domain.TicketStatus{
		{Name: "Open"},
		{Name: "In Progress"},
		{Name: "On Hold"},
		{Name: "Resolved", IsTerminal: true},
		{Name: "Closed", IsTerminal: true},
	}
	for i := range statuses {
		require.NoError(t, store.Statuses.Create(ctx, &statuses[i]))
	}
	categories := []domain.Category{
		{Name: "Technical", Description: "Technical issues"},
		{Name: "Billing", Description: "Billing questions"},
		{Name: "General", Description: "General inquiries"},
		{Name: "Bug Report", Description: "Product defects"},
		{Name: "Feature Request", Description: "Enhancement ideas"},
	}
	for i := range categories {
		require.NoError(t, store.Categories.Create(ctx, &categories[i]))
	}
}

// StatusByName fetches a seeded status and fails the test when absent.
func StatusByName(t *testing.T, store *Store, name string) *domain.TicketStatus {
	t.Helper()
	status, err := store.Statuses.GetByName(context.Background(), name)
	require.NoError(t, err)
	return status
}

// CategoryByName fetches a seeded category and fails the test when absent.
func CategoryByName(t *testing.T, store *Store, name string) *domain.Category {
	t.Helper()
	category, err := store.Categories.GetByName(context.Background(), name)
	require.NoError(t, err)
	return category
}
