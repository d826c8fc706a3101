package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/smartsupport/helpdesk/internal/auth"
	"github.com/smartsupport/helpdesk/internal/config"
	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/repository"
)

// BootstrapAdmin creates the initial admin account when configured and
// absent. Safe to run on every boot.
func BootstrapAdmin(ctx context.Context, cfg config.Config, users repository.UserRepository, logger *zap.Logger) error {
	email := cfg.Bootstrap.AdminEmail
	if email == "" || cfg.Bootstrap.AdminPassword == "" {
		return nil
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(cfg.Bootstrap.AdminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Name:         cfg.Bootstrap.AdminName,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	logger.Info("bootstrapped admin account", zap.String("email", email))
	return nil
}
