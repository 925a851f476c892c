package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	pw "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/password"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

// ProfileUpdate holds optional profile changes. Nil fields are left as they are.
type ProfileUpdate struct {
	FullName        *string
	ProfileImageURL *string
}

// UserService covers what a signed-in user can do to their own account.
type UserService struct {
	instrumentation
	users    repository.UserRepository
	accounts repository.AccountRepository
	tokens   repository.TokenStore
	notifier Notifier
	grace    time.Duration
	frontend string
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, accounts repository.AccountRepository, tokens repository.TokenStore, notifier Notifier, cfg config.Config, logger *zap.Logger) *UserService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &UserService{
		instrumentation: newInstrumentation(logger),
		users:           users,
		accounts:        accounts,
		tokens:          tokens,
		notifier:        notifier,
		grace:           cfg.AccountDeletionGrace,
		frontend:        cfg.FrontendURL,
		now:             time.Now,
	}
}

// WithClock replaces the time source.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func (s *UserService) Get(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, newError(KindNotFound, "User not found", err)
		}
		return domain.User{}, internalError(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.UpdateProfile")
	defer span.End()

	user, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if in.FullName != nil {
		if err := validateName("Full name", *in.FullName); err != nil {
			return domain.User{}, err
		}
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.ProfileImageURL != nil {
		trimmed := strings.TrimSpace(*in.ProfileImageURL)
		if trimmed == "" {
			user.ProfileImageURL = nil
		} else {
			user.ProfileImageURL = &trimmed
		}
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		span.RecordError(err)
		return domain.User{}, internalError(err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// Outstanding reset links are revoked.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	ctx, span := s.startSpan(ctx, "UserService.ChangePassword")
	defer span.End()

	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	valid, err := pw.Verify(current, user.PasswordHash)
	if err != nil || !valid {
		return newError(KindValidation, "Current password is incorrect", nil)
	}
	if err := pw.Validate(next); err != nil {
		return newError(KindValidation, err.Error(), err)
	}
	if current == next {
		return newError(KindValidation, "New password must differ from the current password", nil)
	}

	hash, err := pw.Hash(next)
	if err != nil {
		span.RecordError(err)
		return internalError(err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		span.RecordError(err)
		return internalError(err)
	}

	if _, err := s.tokens.RevokeUser(ctx, domain.TokenPasswordReset, user.ID); err != nil {
		s.log().Warn("revoke reset tokens failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	s.notifier.Notify(ctx, domain.Notification{
		To:       user.Email,
		Template: domain.TemplatePasswordChanged,
		Data:     map[string]any{"full_name": user.FullName},
	})
	s.audit("password.changed", "user_id", user.ID)
	return nil
}

// RequestDeletion schedules the account for removal after the grace period.
func (s *UserService) RequestDeletion(ctx context.Context, userID int64) (DeletionScheduled, error) {
	ctx, span := s.startSpan(ctx, "UserService.RequestDeletion")
	defer span.End()

	user, err := s.Get(ctx, userID)
	if err != nil {
		return DeletionScheduled{}, err
	}
	if user.DeletionPending() {
		return DeletionScheduled{}, newError(KindValidation, "Account deletion is already scheduled", nil)
	}

	now := s.now().UTC()
	user.DeletionRequestedAt = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		span.RecordError(err)
		return DeletionScheduled{}, internalError(err)
	}

	due, _ := user.DeletionDueAt(s.grace)
	s.notifier.Notify(ctx, domain.Notification{
		To:       user.Email,
		Template: domain.TemplateDeletionRequested,
		Data: map[string]any{
			"full_name":     user.FullName,
			"deletion_date": due.Format("January 2, 2006"),
			"link":          s.frontend + "/login",
		},
	})
	s.audit("account.deletion.requested", "user_id", user.ID, "deletes_at", due)
	return DeletionScheduled{RequestedAt: now, DeletesAt: due}, nil
}

func (s *UserService) CancelDeletion(ctx context.Context, userID int64) error {
	ctx, span := s.startSpan(ctx, "UserService.CancelDeletion")
	defer span.End()

	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !user.DeletionPending() {
		return newError(KindValidation, "No account deletion is scheduled", nil)
	}
	user.DeletionRequestedAt = nil
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		span.RecordError(err)
		return internalError(err)
	}
	s.audit("account.deletion.canceled", "user_id", user.ID)
	return nil
}

// PurgeExpiredDeletions hard deletes accounts whose grace period has ended.
// It returns how many accounts were removed; one failure does not stop the sweep.
func (s *UserService) PurgeExpiredDeletions(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "UserService.PurgeExpiredDeletions")
	defer span.End()

	due, err := s.users.ListDeletionDue(ctx, s.now().UTC().Add(-s.grace))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	var purged int
	var errs []error
	for _, user := range due {
		orgDeleted, err := s.accounts.DeleteAccount(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			s.log().Error("purge account failed", zap.Int64("user_id", user.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		purged++
		s.audit("account.purged", "user_id", user.ID, "org_id", user.OrganizationID, "org_deleted", orgDeleted)
	}
	return purged, errors.Join(errs...)
}
