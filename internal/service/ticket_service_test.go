package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/events"
	"github.com/smartsupport/helpdesk/internal/repository"
	"github.com/smartsupport/helpdesk/internal/service"
	"github.com/smartsupport/helpdesk/internal/testutil"
	apperrors "github.com/smartsupport/helpdesk/pkg/util"
)

func newTicketService(store *testutil.Store, dispatcher events.Dispatcher) *service.TicketService {
	return service.NewTicketService(service.TicketDependencies{
		TicketRepo:   store.Tickets,
		CommentRepo:  store.Comments,
		StatusRepo:   store.Statuses,
		CategoryRepo: store.Categories,
		UserRepo:     store.Users,
		Dispatcher:   dispatcher,
	})
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.ToDomainError(err).Code)
}

func TestCreateTicketDefaults(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newTicketService(store, nil)

	view, err := svc.CreateTicket(context.Background(), requester, service.TicketCreateInput{
		Subject:     "  Printer on fire  ",
		Description: "smoke everywhere",
	})
	require.NoError(t, err)

	assert.Equal(t, "Printer on fire", view.Ticket.Subject)
	assert.Equal(t, domain.TicketPriorityMedium, view.Ticket.Priority)
	assert.Equal(t, "Open", view.Status.Name)
	assert.Equal(t, requester.ID, view.Ticket.CreatedBy)
	assert.Nil(t, view.Ticket.AssignedTo)
	assert.NotZero(t, view.Ticket.Number)
}

func TestCreateTicketRequiresSubject(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newTicketService(store, nil)

	_, err := svc.CreateTicket(context.Background(), requester, service.TicketCreateInput{Subject: "   "})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestCreateTicketUnknownCategory(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newTicketService(store, nil)

	missing := "no-such-category"
	_, err := svc.CreateTicket(context.Background(), requester, service.TicketCreateInput{
		Subject:    "broken",
		CategoryID: &missing,
	})
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestUpdateTicketCreatedByImmutable(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	admin := testutil.SeedUser(t, store, "Ada", "ada@example.com", domain.RoleAdmin)
	svc := newTicketService(store, nil)

	view, err := svc.CreateTicket(context.Background(), requester, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	other := admin.ID
	_, err = svc.UpdateTicket(context.Background(), admin, view.Ticket.ID, service.TicketUpdateInput{CreatedBy: &other})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	unchanged, err := store.Tickets.GetByID(context.Background(), view.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, requester.ID, unchanged.CreatedBy)
}

func TestUpdateTicketEndUserFieldGates(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newTicketService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateTicket(ctx, requester, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	resolved := testutil.StatusByName(t, store, "Resolved")
	_, err = svc.UpdateTicket(ctx, requester, view.Ticket.ID, service.TicketUpdateInput{StatusID: &resolved.ID})
	requireDomainCode(t, err, "PERMISSION_DENIED")

	high := domain.TicketPriorityHigh
	_, err = svc.UpdateTicket(ctx, requester, view.Ticket.ID, service.TicketUpdateInput{Priority: &high})
	requireDomainCode(t, err, "PERMISSION_DENIED")

	subject := "new subject"
	_, err = svc.UpdateTicket(ctx, requester, view.Ticket.ID, service.TicketUpdateInput{Subject: &subject})
	requireDomainCode(t, err, "PERMISSION_DENIED")

	// Description stays open to the ticket's creator.
	desc := "it is now also sparking"
	updated, err := svc.UpdateTicket(ctx, requester, view.Ticket.ID, service.TicketUpdateInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Ticket.Description)
}

func TestUpdateTicketForeignTicketDenied(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	stranger := testutil.SeedUser(t, store, "Sam", "sam@example.com", domain.RoleEndUser)
	svc := newTicketService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateTicket(ctx, requester, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	desc := "drive-by edit"
	_, err = svc.UpdateTicket(ctx, stranger, view.Ticket.ID, service.TicketUpdateInput{Description: &desc})
	requireDomainCode(t, err, "PERMISSION_DENIED")

	_, err = svc.GetTicket(ctx, stranger, view.Ticket.ID)
	requireDomainCode(t, err, "PERMISSION_DENIED")
}

func TestUpdateTicketAssignmentRules(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleL1)
	admin := testutil.SeedUser(t, store, "Ada", "ada@example.com", domain.RoleAdmin)
	svc := newTicketService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateTicket(ctx, requester, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	_, err = svc.UpdateTicket(ctx, agent, view.Ticket.ID, service.TicketUpdateInput{AssignedTo: &agent.ID})
	requireDomainCode(t, err, "PERMISSION_DENIED")

	updated, err := svc.UpdateTicket(ctx, admin, view.Ticket.ID, service.TicketUpdateInput{AssignedTo: &agent.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.Ticket.AssignedTo)
	assert.Equal(t, agent.ID, *updated.Ticket.AssignedTo)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, agent.Email, updated.Assignee.Email)

	_, err = svc.UpdateTicket(ctx, admin, view.Ticket.ID, service.TicketUpdateInput{AssignedTo: &requester.ID})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	ghost := "no-such-user"
	_, err = svc.UpdateTicket(ctx, admin, view.Ticket.ID, service.TicketUpdateInput{AssignedTo: &ghost})
	requireDomainCode(t, err, "NOT_FOUND")

	clear := ""
	updated, err = svc.UpdateTicket(ctx, admin, view.Ticket.ID, service.TicketUpdateInput{AssignedTo: &clear})
	require.NoError(t, err)
	assert.Nil(t, updated.Ticket.AssignedTo)
}

func TestUpdateTicketEmitsEvents(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleAgent)
	dispatcher := events.NewInMemoryDispatcher()

	var seen []events.EventType
	record := func(_ context.Context, event events.Event) error {
		seen = append(seen, event.Type)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketUpdated, record)
	dispatcher.Subscribe(events.EventTicketStatusChanged, record)

	svc := newTicketService(store, dispatcher)
	ctx := context.Background()

	view, err := svc.CreateTicket(ctx, agent, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	resolved := testutil.StatusByName(t, store, "Resolved")
	_, err = svc.UpdateTicket(ctx, agent, view.Ticket.ID, service.TicketUpdateInput{StatusID: &resolved.ID})
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventTicketUpdated, events.EventTicketStatusChanged}, seen)
}

func TestAddCommentInternalVisibility(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleL2)
	svc := newTicketService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateTicket(ctx, requester, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, requester, view.Ticket.ID, "please hurry", true)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, agent, view.Ticket.ID, "user seems agitated", true)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, agent, view.Ticket.ID, "on it", false)
	require.NoError(t, err)

	// End-user comments are always customer-facing, and end-users never
	// see the internal thread.
	asRequester, err := svc.GetTicket(ctx, requester, view.Ticket.ID)
	require.NoError(t, err)
	require.Len(t, asRequester.Comments, 2)
	assert.Equal(t, "please hurry", asRequester.Comments[0].Comment.Text)
	assert.False(t, asRequester.Comments[0].Comment.IsInternal)
	assert.Equal(t, "on it", asRequester.Comments[1].Comment.Text)

	asAgent, err := svc.GetTicket(ctx, agent, view.Ticket.ID)
	require.NoError(t, err)
	require.Len(t, asAgent.Comments, 3)
	assert.True(t, asAgent.Comments[1].Comment.IsInternal)
}

func TestAddCommentValidation(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newTicketService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateTicket(ctx, requester, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, requester, view.Ticket.ID, "   ", false)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.AddComment(ctx, requester, "no-such-ticket", "hello", false)
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestAddCommentTouchesTicket(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	requester := testutil.SeedUser(t, store, "Rita", "rita@example.com", domain.RoleEndUser)
	svc := newTicketService(store, nil)
	ctx := context.Background()

	view, err := svc.CreateTicket(ctx, requester, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, requester, view.Ticket.ID, "any news?", false)
	require.NoError(t, err)

	after, err := store.Tickets.GetByID(ctx, view.Ticket.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(view.Ticket.UpdatedAt))
}

// contendedTicketRepo lets another writer slip in between the service's
// read and its guarded update, once.
type contendedTicketRepo struct {
	repository.TicketRepository
	interloper func(ctx context.Context, id string)
	fired      bool
}

func (r *contendedTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if !r.fired {
		r.fired = true
		r.interloper(ctx, ticket.ID)
	}
	return r.TicketRepository.Update(ctx, ticket)
}

func TestUpdateTicketConcurrentWriteConflicts(t *testing.T) {
	store := testutil.NewStore()
	testutil.SeedCatalog(t, store)
	agent := testutil.SeedUser(t, store, "Gus", "gus@example.com", domain.RoleAgent)
	ctx := context.Background()

	contended := &contendedTicketRepo{
		TicketRepository: store.Tickets,
		interloper: func(ctx context.Context, id string) {
			current, err := store.Tickets.GetByID(ctx, id)
			require.NoError(t, err)
			current.Description = "edited out of band"
			require.NoError(t, store.Tickets.Update(ctx, current))
		},
	}
	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   contended,
		CommentRepo:  store.Comments,
		StatusRepo:   store.Statuses,
		CategoryRepo: store.Categories,
		UserRepo:     store.Users,
	})

	view, err := svc.CreateTicket(ctx, agent, service.TicketCreateInput{Subject: "broken"})
	require.NoError(t, err)

	subject := "still broken"
	_, err = svc.UpdateTicket(ctx, agent, view.Ticket.ID, service.TicketUpdateInput{Subject: &subject})
	requireDomainCode(t, err, "CONFLICT")

	// The interloper's write survives, the rejected one does not.
	after, err := store.Tickets.GetByID(ctx, view.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "broken", after.Subject)
	assert.Equal(t, "edited out of band", after.Description)
}
