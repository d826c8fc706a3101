package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/events"
	"github.com/smartsupport/helpdesk/internal/repository"
	apperrors "github.com/smartsupport/helpdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, gated updates,
// comment threads and single-ticket reads.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	statuses   repository.StatusRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.CommentRepository
	StatusRepo   repository.StatusRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		statuses:   deps.StatusRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	Priority    domain.TicketPriority
	CategoryID  *string
}

// TicketUpdateInput is a partial field set. Nil means "leave unchanged".
// For AssignedTo and CategoryID an empty string clears the reference.
type TicketUpdateInput struct {
	Subject     *string
	Description *string
	Priority    *domain.TicketPriority
	StatusID    *string
	CategoryID  *string
	AssignedTo  *string
	// CreatedBy is never updatable; a non-nil value is rejected outright.
	CreatedBy *string
}

// TicketView is a ticket with its related entities resolved, ready for
// the gateway to serialize.
type TicketView struct {
	Ticket   domain.Ticket
	Status   domain.TicketStatus
	Category *domain.Category
	Creator  *domain.User
	Assignee *domain.User
	Comments []CommentView
}

// CommentView pairs a comment with its author.
type CommentView struct {
	Comment domain.Comment
	Author  *domain.User
}

// CreateTicket creates a ticket for the actor. The status defaults to the
// lowest-order non-terminal catalog status; assignment starts empty.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*TicketView, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	var categoryID *string
	if input.CategoryID != nil && *input.CategoryID != "" {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("category", map[string]any{"category_id": *input.CategoryID})
			}
			return nil, apperrors.MapError(err)
		}
		categoryID = &category.ID
	}

	status, err := s.statuses.DefaultOpen(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ticket := &domain.Ticket{
		Subject:     subject,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		StatusID:    status.ID,
		CategoryID:  categoryID,
		CreatedBy:   actor.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Number:   ticket.Number,
			Subject:  ticket.Subject,
			Priority: ticket.Priority,
		},
	})
	return s.buildView(ctx, actor, ticket, false)
}

// UpdateTicket applies a partial field set, gated per field by the actor's
// capabilities. All accepted fields commit in a single write.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*TicketView, error) {
	if input.CreatedBy != nil {
		return nil, apperrors.NewValidationError("created_by cannot be changed", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	caps := auth.CapabilitiesOf(actor)
	if !caps.CanMutateTicket(ticket) {
		return nil, apperrors.NewPermissionDenied("access denied")
	}

	updated := *ticket
	fields := []string{}
	oldStatusID := ticket.StatusID
	oldAssignee := ticket.AssignedTo

	if input.Subject != nil {
		if !caps.CanSetWorkflowFields() {
			return nil, apperrors.NewPermissionDenied("subject changes require an agent or admin")
		}
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return nil, apperrors.NewValidationError("subject cannot be empty", nil)
		}
		updated.Subject = subject
		fields = append(fields, "subject")
	}

	if input.Description != nil {
		updated.Description = strings.TrimSpace(*input.Description)
		fields = append(fields, "description")
	}

	if input.Priority != nil {
		if !caps.CanSetWorkflowFields() {
			return nil, apperrors.NewPermissionDenied("priority changes require an agent or admin")
		}
		if _, ok := domain.ParsePriority(string(*input.Priority)); !ok {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		updated.Priority = *input.Priority
		fields = append(fields, "priority")
	}

	if input.StatusID != nil {
		if !caps.CanSetWorkflowFields() {
			return nil, apperrors.NewPermissionDenied("status changes require an agent or admin")
		}
		status, err := s.statuses.GetByID(ctx, *input.StatusID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("status", map[string]any{"status_id": *input.StatusID})
			}
			return nil, apperrors.MapError(err)
		}
		updated.StatusID = status.ID
		fields = append(fields, "status")
	}

	if input.CategoryID != nil {
		if !caps.CanSetWorkflowFields() {
			return nil, apperrors.NewPermissionDenied("category changes require an agent or admin")
		}
		if *input.CategoryID == "" {
			updated.CategoryID = nil
		} else {
			category, err := s.categories.GetByID(ctx, *input.CategoryID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewNotFound("category", map[string]any{"category_id": *input.CategoryID})
				}
				return nil, apperrors.MapError(err)
			}
			updated.CategoryID = &category.ID
		}
		fields = append(fields, "category")
	}

	if input.AssignedTo != nil {
		if !caps.CanAssignTicket() {
			return nil, apperrors.NewPermissionDenied("assignment is admin-only")
		}
		if *input.AssignedTo == "" {
			updated.AssignedTo = nil
		} else {
			assignee, err := s.users.GetByID(ctx, *input.AssignedTo)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewNotFound("user", map[string]any{"user_id": *input.AssignedTo})
				}
				return nil, apperrors.MapError(err)
			}
			if assignee.Role == domain.RoleEndUser {
				return nil, apperrors.NewValidationError("tickets cannot be assigned to end-users",
					map[string]any{"user_id": assignee.ID})
			}
			updated.AssignedTo = &assignee.ID
		}
		fields = append(fields, "assigned_to")
	}

	if err := s.tickets.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrStaleUpdate) {
			return nil, apperrors.NewConflict("ticket was modified concurrently, retry with fresh data")
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: updated.ID,
		Payload:  events.TicketUpdatedPayload{Fields: fields},
	})
	if updated.StatusID != oldStatusID {
		s.publish(ctx, actor, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatusID: oldStatusID,
				NewStatusID: updated.StatusID,
			},
		})
	}
	if !equalRef(oldAssignee, updated.AssignedTo) {
		s.publish(ctx, actor, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: updated.ID,
			Payload:  events.TicketAssignedPayload{AssignedTo: updated.AssignedTo},
		})
	}

	return s.buildView(ctx, actor, &updated, false)
}

// GetTicket fetches a ticket with its comment thread, filtered for the
// actor's visibility.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*TicketView, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	caps := auth.CapabilitiesOf(actor)
	if !caps.CanViewTicket(ticket) {
		return nil, apperrors.NewPermissionDenied("access denied")
	}
	return s.buildView(ctx, actor, ticket, true)
}

// AddComment appends a comment to the ticket's thread. End-user comments
// are always customer-facing regardless of the requested flag.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, text string, isInternal bool) (*CommentView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	caps := auth.CapabilitiesOf(actor)
	if !caps.CanViewTicket(ticket) {
		return nil, apperrors.NewPermissionDenied("access denied")
	}
	if !caps.CanMarkInternal() {
		isInternal = false
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		Text:       strings.TrimSpace(text),
		IsInternal: isInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Payload: events.CommentAddedPayload{
			CommentID:  comment.ID,
			AuthorID:   comment.AuthorID,
			IsInternal: comment.IsInternal,
		},
	})
	return &CommentView{Comment: *comment, Author: actor}, nil
}

// buildView resolves the ticket's related entities. When withComments is
// set, the thread is loaded and filtered per the actor's visibility.
func (s *TicketService) buildView(ctx context.Context, actor *domain.User, ticket *domain.Ticket, withComments bool) (*TicketView, error) {
	view := &TicketView{Ticket: *ticket}

	status, err := s.statuses.GetByID(ctx, ticket.StatusID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	view.Status = *status

	if ticket.CategoryID != nil {
		if category, err := s.categories.GetByID(ctx, *ticket.CategoryID); err == nil {
			view.Category = category
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	if creator, err := s.users.GetByID(ctx, ticket.CreatedBy); err == nil {
		view.Creator = creator
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if ticket.AssignedTo != nil {
		if assignee, err := s.users.GetByID(ctx, *ticket.AssignedTo); err == nil {
			view.Assignee = assignee
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	if !withComments {
		return view, nil
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	caps := auth.CapabilitiesOf(actor)
	authors := map[string]*domain.User{}
	view.Comments = make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		if comment.IsInternal && !caps.CanMarkInternal() {
			continue
		}
		author, seen := authors[comment.AuthorID]
		if !seen {
			author, err = s.users.GetByID(ctx, comment.AuthorID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
			authors[comment.AuthorID] = author
		}
		view.Comments = append(view.Comments, CommentView{Comment: comment, Author: author})
	}
	return view, nil
}

func (s *TicketService) publish(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Actor = events.Actor{UserID: actor.ID, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}

func equalRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
