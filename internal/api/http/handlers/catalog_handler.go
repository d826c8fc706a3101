package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartsupport/helpdesk/internal/api/dto"
	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/service"
	apperrors "github.com/smartsupport/helpdesk/pkg/util"
)

// CatalogHandler manages workflow status and category endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListStatuses GET /api/statuses.
func (h *CatalogHandler) ListStatuses(c *fiber.Ctx) error {
	statuses, err := h.catalog.ListStatuses(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, dto.NewStatusResponse(status))
	}
	return c.JSON(fiber.Map{"statuses": items})
}

// CreateStatus POST /api/statuses, admin-only.
func (h *CatalogHandler) CreateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.catalog.CreateStatus(c.Context(), principal.User, service.StatusInput{
		Name:       req.Name,
		SortOrder:  req.Order,
		IsTerminal: req.IsTerminal,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStatusResponse(*status))
}

// UpdateStatus PUT /api/statuses/:id, admin-only.
func (h *CatalogHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.catalog.UpdateStatus(c.Context(), principal.User, c.Params("id"), service.StatusInput{
		Name:       req.Name,
		SortOrder:  req.Order,
		IsTerminal: req.IsTerminal,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatusResponse(*status))
}

// DeleteStatus DELETE /api/statuses/:id, admin-only.
func (h *CatalogHandler) DeleteStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.catalog.DeleteStatus(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "status deleted"})
}

// ListCategories GET /api/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.NewCategoryResponse(category))
	}
	return c.JSON(fiber.Map{"categories": items})
}

// CreateCategory POST /api/categories, admin-only.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.catalog.CreateCategory(c.Context(), principal.User, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCategoryResponse(*category))
}

// UpdateCategory PUT /api/categories/:id, admin-only.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.catalog.UpdateCategory(c.Context(), principal.User, c.Params("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCategoryResponse(*category))
}

// DeleteCategory DELETE /api/categories/:id, admin-only.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.catalog.DeleteCategory(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "category deleted"})
}
