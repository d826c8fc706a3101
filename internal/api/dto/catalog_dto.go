package dto

import "github.com/smartsupport/helpdesk/internal/domain"

// StatusRequest payload for status create/update. Omitted fields keep the
// current values on update.
type StatusRequest struct {
	Name       string `json:"name"`
	Order      int    `json:"order"`
	IsTerminal *bool  `json:"is_terminal"`
}

// StatusResponse representation of a workflow status.
type StatusResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Order      int    `json:"order"`
	IsTerminal bool   `json:"is_terminal"`
}

// CategoryRequest payload for category create/update. An omitted description
// keeps the current value on update.
type CategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CategoryResponse representation of a category.
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewStatusResponse maps a domain status.
func NewStatusResponse(status domain.TicketStatus) StatusResponse {
	return StatusResponse{
		ID:         status.ID,
		Name:       status.Name,
		Order:      status.SortOrder,
		IsTerminal: status.IsTerminal,
	}
}

// NewCategoryResponse maps a domain category.
func NewCategoryResponse(category domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	}
}
