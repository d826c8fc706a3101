package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/smartsupport/helpdesk/internal/api/dto"
	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/service"
	apperrors "github.com/smartsupport/helpdesk/pkg/util"
)

// TicketsHandler manages ticket and comment endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	queries *service.QueryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, queries *service.QueryService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, queries: queries}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	if req.Priority != "" {
		priority, valid := domain.ParsePriority(req.Priority)
		if !valid {
			return apperrors.NewValidationError("unknown priority: "+req.Priority, nil)
		}
		input.Priority = priority
	}

	view, err := h.tickets.CreateTicket(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(view))
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	input, err := parseTicketListQuery(c)
	if err != nil {
		return err
	}

	page, err := h.queries.ListTickets(c.Context(), principal.User, input)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewTicketResponse(&page.Items[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Tickets:     items,
		Total:       page.Total,
		Pages:       page.Pages,
		CurrentPage: page.CurrentPage,
		PerPage:     page.PerPage,
	})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	view, err := h.tickets.GetTicket(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(view))
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		StatusID:    req.StatusID,
		CategoryID:  req.CategoryID,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   req.CreatedBy,
	}
	if req.Priority != nil {
		priority, valid := domain.ParsePriority(*req.Priority)
		if !valid {
			return apperrors.NewValidationError("unknown priority: "+*req.Priority, nil)
		}
		input.Priority = &priority
	}

	view, err := h.tickets.UpdateTicket(c.Context(), principal.User, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(view))
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.tickets.AddComment(c.Context(), principal.User, c.Params("id"), req.CommentText, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCommentResponse(*view))
}

// GetStats GET /api/tickets/stats.
func (h *TicketsHandler) GetStats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.queries.GetStats(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatsResponse(stats))
}

func parseTicketListQuery(c *fiber.Ctx) (service.TicketListInput, error) {
	input := service.TicketListInput{
		Page:    parseIntQuery(c, "page", 0),
		PerPage: parseIntQuery(c, "per_page", 0),
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		input.StatusID = &v
	}
	if v := strings.TrimSpace(c.Query("category")); v != "" {
		input.CategoryID = &v
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		input.Search = &v
	}
	if v := strings.TrimSpace(c.Query("priority")); v != "" {
		priority, valid := domain.ParsePriority(v)
		if !valid {
			return input, apperrors.NewValidationError("unknown priority: "+v, nil)
		}
		input.Priority = &priority
	}
	return input, nil
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
