package dto

import (
	"time"

	"github.com/smartsupport/helpdesk/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string  `json:"subject"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	CategoryID  *string `json:"category_id"`
}

// UpdateTicketRequest is a partial field set; absent fields stay
// unchanged. An empty category_id or assigned_to clears the reference.
type UpdateTicketRequest struct {
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	StatusID    *string `json:"status_id"`
	CategoryID  *string `json:"category_id"`
	AssignedTo  *string `json:"assigned_to"`
	CreatedBy   *string `json:"created_by"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	CommentText string `json:"comment_text"`
	IsInternal  bool   `json:"is_internal"`
}

// CommentResponse representation of a thread entry.
type CommentResponse struct {
	ID          string       `json:"id"`
	TicketID    string       `json:"ticket_id"`
	Author      UserResponse `json:"user"`
	CommentText string       `json:"comment_text"`
	IsInternal  bool         `json:"is_internal"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TicketResponse is the nested ticket representation. Comments are only
// populated on single-ticket reads.
type TicketResponse struct {
	ID          string            `json:"id"`
	Number      int64             `json:"ticket_number"`
	Subject     string            `json:"subject"`
	Description string            `json:"description"`
	Priority    string            `json:"priority"`
	Status      StatusResponse    `json:"status"`
	Category    *CategoryResponse `json:"category"`
	CreatedBy   UserResponse      `json:"created_by"`
	AssignedTo  *UserResponse     `json:"assigned_to"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Comments    []CommentResponse `json:"comments,omitempty"`
}

// TicketListResponse is the pagination envelope for listings.
type TicketListResponse struct {
	Tickets     []TicketResponse `json:"tickets"`
	Total       int64            `json:"total"`
	Pages       int              `json:"pages"`
	CurrentPage int              `json:"current_page"`
	PerPage     int              `json:"per_page"`
}

// StatsResponse is the dashboard aggregation payload.
type StatsResponse struct {
	TotalTickets   int64            `json:"total_tickets"`
	StatusCounts   map[string]int64 `json:"status_counts"`
	PriorityCounts map[string]int64 `json:"priority_counts"`
}

// NewTicketResponse maps a resolved ticket view.
func NewTicketResponse(view *service.TicketView) TicketResponse {
	resp := TicketResponse{
		ID:          view.Ticket.ID,
		Number:      view.Ticket.Number,
		Subject:     view.Ticket.Subject,
		Description: view.Ticket.Description,
		Priority:    string(view.Ticket.Priority),
		Status:      NewStatusResponse(view.Status),
		CreatedBy:   NewUserResponse(view.Creator),
		CreatedAt:   view.Ticket.CreatedAt,
		UpdatedAt:   view.Ticket.UpdatedAt,
	}
	if view.Category != nil {
		category := NewCategoryResponse(*view.Category)
		resp.Category = &category
	}
	if view.Assignee != nil {
		assignee := NewUserResponse(view.Assignee)
		resp.AssignedTo = &assignee
	}
	for _, comment := range view.Comments {
		resp.Comments = append(resp.Comments, NewCommentResponse(comment))
	}
	return resp
}

// NewCommentResponse maps a comment view.
func NewCommentResponse(view service.CommentView) CommentResponse {
	return CommentResponse{
		ID:          view.Comment.ID,
		TicketID:    view.Comment.TicketID,
		Author:      NewUserResponse(view.Author),
		CommentText: view.Comment.Text,
		IsInternal:  view.Comment.IsInternal,
		CreatedAt:   view.Comment.CreatedAt,
	}
}

// NewStatsResponse maps aggregated counts.
func NewStatsResponse(stats *service.TicketStats) StatsResponse {
	priorities := make(map[string]int64, len(stats.PriorityCounts))
	for priority, count := range stats.PriorityCounts {
		priorities[string(priority)] = count
	}
	return StatsResponse{
		TotalTickets:   stats.Total,
		StatusCounts:   stats.StatusCounts,
		PriorityCounts: priorities,
	}
}
