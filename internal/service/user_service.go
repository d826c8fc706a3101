package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/config"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/repository"
	apperrors "github.com/smartsupport/helpdesk/pkg/util"
)

// UserService covers admin user management plus self-service profile
// updates. Users referenced by tickets are never hard-deleted.
type UserService struct {
	users  repository.UserRepository
	paging config.PagingConfig
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, paging config.PagingConfig) *UserService {
	if paging.DefaultPerPage <= 0 {
		paging.DefaultPerPage = 20
	}
	if paging.MaxPerPage <= 0 {
		paging.MaxPerPage = 100
	}
	return &UserService{users: users, paging: paging}
}

// UserUpdateInput is a partial field set for admin updates.
type UserUpdateInput struct {
	Name  *string
	Email *string
	Role  *string
}

// UserPage is the pagination envelope for user listings.
type UserPage struct {
	Items       []domain.User
	Total       int64
	Pages       int
	CurrentPage int
	PerPage     int
}

// ListUsers returns one page of accounts, admin-only.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, page, perPage int) (*UserPage, error) {
	if !auth.CapabilitiesOf(actor).CanManageUsers() {
		return nil, apperrors.NewPermissionDenied("user management is admin-only")
	}
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.paging.DefaultPerPage
	}
	if perPage > s.paging.MaxPerPage {
		perPage = s.paging.MaxPerPage
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	users, err := s.users.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &UserPage{
		Items:       users,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

// UpdateUser applies an admin update to any account, including role changes.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, userID string, input UserUpdateInput) (*domain.User, error) {
	if !auth.CapabilitiesOf(actor).CanManageUsers() {
		return nil, apperrors.NewPermissionDenied("user management is admin-only")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}

	if input.Role != nil {
		role, err := domain.ParseRole(*input.Role)
		if err != nil {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		user.Role = role
	}
	if err := s.applyProfileFields(ctx, user, input.Name, input.Email); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateProfile lets any principal change their own name and email. Role
// changes stay admin-only.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, name, email *string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.applyProfileFields(ctx, user, name, email); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account, admin-only. Admins cannot delete
// themselves, and accounts referenced by tickets are kept.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if !auth.CapabilitiesOf(actor).CanManageUsers() {
		return apperrors.NewPermissionDenied("user management is admin-only")
	}
	if userID == actor.ID {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return apperrors.NewReferentialConflict("user is referenced by tickets", map[string]any{"user_id": userID})
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *UserService) applyProfileFields(ctx context.Context, user *domain.User, name, email *string) error {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = trimmed
	}
	if email != nil {
		trimmed := strings.TrimSpace(strings.ToLower(*email))
		if trimmed == "" {
			return apperrors.NewValidationError("email cannot be empty", nil)
		}
		if existing, err := s.users.GetByEmail(ctx, trimmed); err == nil {
			if existing.ID != user.ID {
				return apperrors.NewValidationError("email already in use", map[string]any{"email": trimmed})
			}
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		user.Email = trimmed
	}
	return nil
}
