package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsupport/helpdesk/internal/config"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/service"
	"github.com/smartsupport/helpdesk/internal/testutil"
)

func newQueryService(store *testutil.Store) *service.QueryService {
	return service.NewQueryService(service.QueryDependencies{
		TicketRepo:   store.Tickets,
		StatusRepo:   store.Statuses,
		CategoryRepo: store.Categories,
		UserRepo:     store.Users,
		Paging:       config.PagingConfig{DefaultPerPage: 10, MaxPerPage: 100},
	})
}

func seedTickets(t *testing.T, store *testutil.Store, creator *domain.User, count int) []string {
	t.Helper()
	svc := newTicketService(store, nil)
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		view, err := svc.CreateTicket(context.Background(), creator, service.TicketCreateInput{
			Subject: fmt.Sprintf("ticket %d", i),
		})
		require.NoError(t, err)
		ids = append(ids, view.Ticket.ID)
	}
	return ids
}

func TestListTicketsPaginationCoversWholeSet(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleAgent)
	seedTickets(t, store, agent, 7)
	svc := newQueryService(store)
	ctx := context.Background()

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		result, err := svc.ListTickets(ctx, agent, service.TicketListInput{Page: page, PerPage: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(7), result.Total)
		assert.Equal(t, 3, result.Pages)
		assert.Equal(t, page, result.CurrentPage)
		for _, item := range result.Items {
			assert.False(t, seen[item.Ticket.ID], "ticket appeared on two pages")
			seen[item.Ticket.ID] = true
		}
	}
	assert.Len(t, seen, 7)

	// Past the end: empty but well-formed.
	result, err := svc.ListTickets(ctx, agent, service.TicketListInput{Page: 4, PerPage: 3})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int64(7), result.Total)
}

func TestListTicketsNewestFirst(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleAgent)
	ids := seedTickets(t, store, agent, 3)
	svc := newQueryService(store)

	result, err := svc.ListTickets(context.Background(), agent, service.TicketListInput{})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, ids[2], result.Items[0].Ticket.ID)
	assert.Equal(t, ids[0], result.Items[2].Ticket.ID)
}

func TestListTicketsVisibleSetScoping(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	rita := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	sam := testutil.SeedUser(t, store, "Sam", "sam@example.com", domain.RoleEndUser)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleL3)
	seedTickets(t, store, rita, 2)
	seedTickets(t, store, sam, 3)
	svc := newQueryService(store)
	ctx := context.Background()

	asRita, err := svc.ListTickets(ctx, rita, service.TicketListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), asRita.Total)
	for _, item := range asRita.Items {
		assert.Equal(t, rita.ID, item.Ticket.CreatedBy)
	}

	asAgent, err := svc.ListTickets(ctx, agent, service.TicketListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), asAgent.Total)
}

func TestListTicketsFilters(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleAgent)
	tickets := newTicketService(store, nil)
	svc := newQueryService(store)
	ctx := context.Background()

	billing := testutil.CategoryByName(t, store, "Billing")
	first, err := tickets.CreateTicket(ctx, agent, service.TicketCreateInput{
		Subject:    "Invoice totals wrong",
		Priority:   domain.TicketPriorityHigh,
		CategoryID: &billing.ID,
	})
	require.NoError(t, err)
	_, err = tickets.CreateTicket(ctx, agent, service.TicketCreateInput{Subject: "VPN drops"})
	require.NoError(t, err)

	resolved := testutil.StatusByName(t, store, "Resolved")
	_, err = tickets.UpdateTicket(ctx, agent, first.Ticket.ID, service.TicketUpdateInput{StatusID: &resolved.ID})
	require.NoError(t, err)

	byStatus, err := svc.ListTickets(ctx, agent, service.TicketListInput{StatusID: &resolved.ID})
	require.NoError(t, err)
	require.Len(t, byStatus.Items, 1)
	assert.Equal(t, first.Ticket.ID, byStatus.Items[0].Ticket.ID)

	high := domain.TicketPriorityHigh
	byPriority, err := svc.ListTickets(ctx, agent, service.TicketListInput{Priority: &high})
	require.NoError(t, err)
	require.Len(t, byPriority.Items, 1)

	byCategory, err := svc.ListTickets(ctx, agent, service.TicketListInput{CategoryID: &billing.ID})
	require.NoError(t, err)
	require.Len(t, byCategory.Items, 1)
	require.NotNil(t, byCategory.Items[0].Category)
	assert.Equal(t, "Billing", byCategory.Items[0].Category.Name)

	search := "invoice"
	bySubject, err := svc.ListTickets(ctx, agent, service.TicketListInput{Search: &search})
	require.NoError(t, err)
	require.Len(t, bySubject.Items, 1)

	number := fmt.Sprintf("%d", first.Ticket.Number)
	byNumber, err := svc.ListTickets(ctx, agent, service.TicketListInput{Search: &number})
	require.NoError(t, err)
	require.NotEmpty(t, byNumber.Items)
	assert.Equal(t, first.Ticket.ID, byNumber.Items[0].Ticket.ID)
}

func TestGetStatsPerRole(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	rita := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleAgent)
	seedTickets(t, store, rita, 2)
	seedTickets(t, store, agent, 1)
	svc := newQueryService(store)
	ctx := context.Background()

	asAgent, err := svc.GetStats(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, int64(3), asAgent.Total)
	assert.Equal(t, int64(3), asAgent.StatusCounts["Open"])
	// Unused statuses and priorities still appear, at zero.
	assert.Contains(t, asAgent.StatusCounts, "Closed")
	assert.Equal(t, int64(0), asAgent.StatusCounts["Closed"])
	assert.Equal(t, int64(3), asAgent.PriorityCounts[domain.TicketPriorityMedium])
	assert.Equal(t, int64(0), asAgent.PriorityCounts[domain.TicketPriorityCritical])

	asRita, err := svc.GetStats(ctx, rita)
	require.NoError(t, err)
	assert.Equal(t, int64(2), asRita.Total)
	assert.Equal(t, int64(2), asRita.StatusCounts["Open"])
}
