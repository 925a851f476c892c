package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/password"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

// EnsureAdmin creates a verified admin account for dev/e2e if ADMIN_EMAIL is set and missing.
func EnsureAdmin(lc fx.Lifecycle, cfg config.Config, users repository.UserRepository, accounts repository.AccountRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := Admin(ctx, cfg, users, accounts, node, logger)
			return err
		},
	})
}

// Admin provisions the bootstrap admin. It reports whether an account was created.
func Admin(ctx context.Context, cfg config.Config, users repository.UserRepository, accounts repository.AccountRepository, node *snowflake.Node, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.L()
	}
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		logger.Debug("admin bootstrap skipped, ADMIN_EMAIL not set")
		return false, nil
	}
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		return false, fmt.Errorf("admin bootstrap missing required config")
	}
	if err := password.Validate(cfg.AdminPassword); err != nil {
		return false, fmt.Errorf("admin bootstrap password: %w", err)
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("bootstrap lookup user: %w", err)
	}

	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("bootstrap hash password: %w", err)
	}

	now := time.Now().UTC()
	org := domain.NewOrganization(node.Generate().Int64(), cfg.AdminOrganization, now)
	user := domain.User{
		ID:             node.Generate().Int64(),
		OrganizationID: org.ID,
		Email:          email,
		PasswordHash:   hashed,
		FullName:       "Admin",
		Role:           domain.RoleAdmin,
		IsActive:       true,
		IsVerified:     true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := accounts.CreateAccount(ctx, org, user); err != nil {
		// another replica won the race
		if errors.Is(err, repository.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("bootstrap create account: %w", err)
	}

	logger.Info("bootstrap admin user created",
		zap.String("email", user.Email),
		zap.Int64("org_id", org.ID),
		zap.Int64("user_id", user.ID),
	)
	return true, nil
}
