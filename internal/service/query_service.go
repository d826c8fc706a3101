package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/config"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/repository"
	apperrors "github.com/smartsupport/helpdesk/pkg/util"
)

// QueryService serves filtered ticket listings and dashboard statistics
// over the per-role visible set: every ticket for agent-tier and admin
// actors, own tickets only for end-users.
type QueryService struct {
	tickets    repository.TicketRepository
	statuses   repository.StatusRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	paging     config.PagingConfig
}

// QueryDependencies bundles repositories for the query service.
type QueryDependencies struct {
	TicketRepo   repository.TicketRepository
	StatusRepo   repository.StatusRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	Paging       config.PagingConfig
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	paging := deps.Paging
	if paging.DefaultPerPage <= 0 {
		paging.DefaultPerPage = 10
	}
	if paging.MaxPerPage <= 0 {
		paging.MaxPerPage = 100
	}
	return &QueryService{
		tickets:    deps.TicketRepo,
		statuses:   deps.StatusRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		paging:     paging,
	}
}

// TicketListInput captures the optional, AND-combined listing filters.
type TicketListInput struct {
	StatusID   *string
	Priority   *domain.TicketPriority
	CategoryID *string
	Search     *string
	Page       int
	PerPage    int
}

// TicketPage is the pagination envelope for listings. Total counts the
// full filtered visible set, not just the returned page.
type TicketPage struct {
	Items       []TicketView
	Total       int64
	Pages       int
	CurrentPage int
	PerPage     int
}

// TicketStats aggregates counts over the actor's unfiltered visible set.
type TicketStats struct {
	Total          int64
	StatusCounts   map[string]int64
	PriorityCounts map[domain.TicketPriority]int64
}

// ListTickets returns one page of the filtered visible set, ordered by
// creation time descending. A page past the end yields an empty list.
func (s *QueryService) ListTickets(ctx context.Context, actor *domain.User, input TicketListInput) (*TicketPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage <= 0 {
		perPage = s.paging.DefaultPerPage
	}
	if perPage > s.paging.MaxPerPage {
		perPage = s.paging.MaxPerPage
	}

	filter := repository.TicketFilter{
		StatusID:   input.StatusID,
		Priority:   input.Priority,
		CategoryID: input.CategoryID,
		Search:     input.Search,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}
	caps := auth.CapabilitiesOf(actor)
	if caps.IsEndUser {
		filter.CreatedBy = &actor.ID
	}

	total, err := s.tickets.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	items, err := s.resolveSummaries(ctx, tickets)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &TicketPage{
		Items:       items,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

// GetStats computes dashboard counts over the actor's visible set with no
// filter, so an end-user's numbers reflect only their own tickets.
func (s *QueryService) GetStats(ctx context.Context, actor *domain.User) (*TicketStats, error) {
	var createdBy *string
	caps := auth.CapabilitiesOf(actor)
	if caps.IsEndUser {
		createdBy = &actor.ID
	}

	total, err := s.tickets.CountWithFilter(ctx, repository.TicketFilter{CreatedBy: createdBy})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	statusCounts, err := s.tickets.StatusCounts(ctx, createdBy)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	priorityCounts, err := s.tickets.PriorityCounts(ctx, createdBy)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &TicketStats{
		Total:          total,
		StatusCounts:   statusCounts,
		PriorityCounts: priorityCounts,
	}, nil
}

// resolveSummaries attaches statuses, categories and user records to a
// page of tickets, caching catalog lookups across the page.
func (s *QueryService) resolveSummaries(ctx context.Context, tickets []domain.Ticket) ([]TicketView, error) {
	statusList, err := s.statuses.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	statusByID := make(map[string]domain.TicketStatus, len(statusList))
	for _, status := range statusList {
		statusByID[status.ID] = status
	}

	categoryList, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categoryByID := make(map[string]domain.Category, len(categoryList))
	for _, category := range categoryList {
		categoryByID[category.ID] = category
	}

	userByID := map[string]*domain.User{}
	lookupUser := func(id string) (*domain.User, error) {
		if user, seen := userByID[id]; seen {
			return user, nil
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				userByID[id] = nil
				return nil, nil
			}
			return nil, apperrors.MapError(err)
		}
		userByID[id] = user
		return user, nil
	}

	items := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view := TicketView{Ticket: ticket}
		view.Status = statusByID[ticket.StatusID]
		if ticket.CategoryID != nil {
			if category, ok := categoryByID[*ticket.CategoryID]; ok {
				view.Category = &category
			}
		}
		creator, err := lookupUser(ticket.CreatedBy)
		if err != nil {
			return nil, err
		}
		view.Creator = creator
		if ticket.AssignedTo != nil {
			assignee, err := lookupUser(*ticket.AssignedTo)
			if err != nil {
				return nil, err
			}
			view.Assignee = assignee
		}
		items = append(items, view)
	}
	return items, nil
}
