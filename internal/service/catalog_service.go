package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/repository"
	apperrors "github.com/smartsupport/helpdesk/pkg/util"
)

// CatalogService manages the status and category reference data. Mutations
// are admin-only; deletion is rejected while tickets still reference the
// row.
type CatalogService struct {
	statuses   repository.StatusRepository
	categories repository.CategoryRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(statuses repository.StatusRepository, categories repository.CategoryRepository) *CatalogService {
	return &CatalogService{statuses: statuses, categories: categories}
}

// StatusInput describes status create/update payloads. A zero SortOrder on
// create means "append after the highest existing order". On update, an
// empty Name, zero SortOrder and nil IsTerminal each keep the current value.
type StatusInput struct {
	Name       string
	SortOrder  int
	IsTerminal *bool
}

// CategoryInput describes category create/update payloads. On update, a nil
// Description keeps the current value.
type CategoryInput struct {
	Name        string
	Description *string
}

// ListStatuses returns the catalog ordered by sort order. Any
// authenticated principal may read it.
func (s *CatalogService) ListStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return statuses, nil
}

// CreateStatus adds a workflow status.
func (s *CatalogService) CreateStatus(ctx context.Context, actor *domain.User, input StatusInput) (*domain.TicketStatus, error) {
	if err := requireCatalogAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if _, err := s.statuses.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewValidationError("status name already in use", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	isTerminal := false
	if input.IsTerminal != nil {
		isTerminal = *input.IsTerminal
	}
	status := &domain.TicketStatus{
		Name:       name,
		SortOrder:  input.SortOrder,
		IsTerminal: isTerminal,
	}
	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	return status, nil
}

// UpdateStatus renames or reorders a status.
func (s *CatalogService) UpdateStatus(ctx context.Context, actor *domain.User, id string, input StatusInput) (*domain.TicketStatus, error) {
	if err := requireCatalogAdmin(actor); err != nil {
		return nil, err
	}
	status, err := s.statuses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("status", map[string]any{"status_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != status.Name {
		if _, err := s.statuses.GetByName(ctx, name); err == nil {
			return nil, apperrors.NewValidationError("status name already in use", map[string]any{"name": name})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		status.Name = name
	}
	if input.SortOrder > 0 {
		status.SortOrder = input.SortOrder
	}
	if input.IsTerminal != nil {
		status.IsTerminal = *input.IsTerminal
	}

	if err := s.statuses.Update(ctx, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	return status, nil
}

// DeleteStatus removes a status unless tickets still reference it.
func (s *CatalogService) DeleteStatus(ctx context.Context, actor *domain.User, id string) error {
	if err := requireCatalogAdmin(actor); err != nil {
		return err
	}
	if err := s.statuses.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return apperrors.NewReferentialConflict("status is in use by tickets", map[string]any{"status_id": id})
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("status", map[string]any{"status_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListCategories returns categories ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// CreateCategory adds a category.
func (s *CatalogService) CreateCategory(ctx context.Context, actor *domain.User, input CategoryInput) (*domain.Category, error) {
	if err := requireCatalogAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewValidationError("category name already in use", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	description := ""
	if input.Description != nil {
		description = strings.TrimSpace(*input.Description)
	}
	category := &domain.Category{
		Name:        name,
		Description: description,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory renames a category or changes its description.
func (s *CatalogService) UpdateCategory(ctx context.Context, actor *domain.User, id string, input CategoryInput) (*domain.Category, error) {
	if err := requireCatalogAdmin(actor); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != category.Name {
		if _, err := s.categories.GetByName(ctx, name); err == nil {
			return nil, apperrors.NewValidationError("category name already in use", map[string]any{"name": name})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// DeleteCategory removes a category unless tickets still reference it.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *domain.User, id string) error {
	if err := requireCatalogAdmin(actor); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return apperrors.NewReferentialConflict("category is in use by tickets", map[string]any{"category_id": id})
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func requireCatalogAdmin(actor *domain.User) error {
	if !auth.CapabilitiesOf(actor).CanManageCatalog() {
		return apperrors.NewPermissionDenied("catalog management is admin-only")
	}
	return nil
}
