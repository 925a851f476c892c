package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

// Actor is the authenticated caller of an administrative operation.
type Actor struct {
	UserID         int64
	OrganizationID int64
}

// AdminService lets organization admins manage members of their own organization.
type AdminService struct {
	instrumentation
	users    repository.UserRepository
	accounts repository.AccountRepository
	now      func() time.Time
}

func NewAdminService(users repository.UserRepository, accounts repository.AccountRepository, logger *zap.Logger) *AdminService {
	return &AdminService{
		instrumentation: newInstrumentation(logger),
		users:           users,
		accounts:        accounts,
		now:             time.Now,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, actor Actor) ([]domain.User, error) {
	ctx, span := s.startSpan(ctx, "AdminService.ListUsers")
	defer span.End()

	users, err := s.users.ListByOrganization(ctx, actor.OrganizationID)
	if err != nil {
		span.RecordError(err)
		return nil, internalError(err)
	}
	return users, nil
}

func (s *AdminService) UpdateRole(ctx context.Context, actor Actor, targetID int64, role domain.Role) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AdminService.UpdateRole")
	defer span.End()

	if !role.Valid() {
		return domain.User{}, newError(KindValidation, "Role must be USER or ADMIN", nil)
	}
	if targetID == actor.UserID {
		return domain.User{}, newError(KindValidation, "You cannot change your own role", nil)
	}
	target, err := s.member(ctx, actor, targetID)
	if err != nil {
		return domain.User{}, err
	}
	target.Role = role
	target.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, target); err != nil {
		span.RecordError(err)
		return domain.User{}, internalError(err)
	}
	s.audit("admin.role.updated", "actor_id", actor.UserID, "user_id", target.ID, "role", role)
	return target, nil
}

// SetActive suspends or reactivates a member. Suspended users cannot log in or refresh.
func (s *AdminService) SetActive(ctx context.Context, actor Actor, targetID int64, active bool) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AdminService.SetActive")
	defer span.End()

	if targetID == actor.UserID && !active {
		return domain.User{}, newError(KindValidation, "You cannot deactivate your own account", nil)
	}
	target, err := s.member(ctx, actor, targetID)
	if err != nil {
		return domain.User{}, err
	}
	target.IsActive = active
	target.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, target); err != nil {
		span.RecordError(err)
		return domain.User{}, internalError(err)
	}
	s.audit("admin.user.active_changed", "actor_id", actor.UserID, "user_id", target.ID, "active", active)
	return target, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor Actor, targetID int64) error {
	ctx, span := s.startSpan(ctx, "AdminService.DeleteUser")
	defer span.End()

	if targetID == actor.UserID {
		return newError(KindValidation, "You cannot delete your own account here", nil)
	}
	if _, err := s.member(ctx, actor, targetID); err != nil {
		return err
	}
	if _, err := s.accounts.DeleteAccount(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "User not found", err)
		}
		span.RecordError(err)
		return internalError(err)
	}
	s.audit("admin.user.deleted", "actor_id", actor.UserID, "user_id", targetID)
	return nil
}

// member loads targetID and hides users of other organizations.
func (s *AdminService) member(ctx context.Context, actor Actor, targetID int64) (domain.User, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, newError(KindNotFound, "User not found", err)
		}
		return domain.User{}, internalError(err)
	}
	if target.OrganizationID != actor.OrganizationID {
		return domain.User{}, newError(KindNotFound, "User not found", nil)
	}
	return target, nil
}
