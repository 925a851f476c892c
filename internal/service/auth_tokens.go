package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	pw "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/password"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

// VerifyEmail consumes a verification token and marks its user verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyEmail")
	defer span.End()

	record, err := s.consume(ctx, domain.TokenEmailVerification, token,
		"Invalid verification token", "Verification token has expired")
	if err != nil {
		return false, err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, newError(KindNotFound, "User not found", err)
		}
		s.restore(ctx, record)
		span.RecordError(err)
		return false, internalError(err)
	}

	alreadyVerified := user.IsVerified
	user.IsVerified = true
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		s.restore(ctx, record)
		span.RecordError(err)
		return false, internalError(err)
	}

	if !alreadyVerified {
		s.notifier.Notify(ctx, domain.Notification{
			To:       user.Email,
			Template: domain.TemplateWelcome,
			Data: map[string]any{
				"full_name": user.FullName,
				"link":      s.frontendLink("/dashboard", ""),
			},
		})
	}
	s.audit("email.verified", "user_id", user.ID)
	return true, nil
}

// ResendVerification replaces any outstanding verification link of an unverified user.
func (s *AuthService) ResendVerification(ctx context.Context, userID int64) error {
	ctx, span := s.startSpan(ctx, "AuthService.ResendVerification")
	defer span.End()

	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return newError(KindValidation, "Email is already verified", nil)
	}
	if _, err := s.tokens.RevokeUser(ctx, domain.TokenEmailVerification, user.ID); err != nil {
		span.RecordError(err)
		return internalError(err)
	}
	s.sendVerification(ctx, user)
	return nil
}

// RequestPasswordReset emails a reset link when email belongs to an active account.
// It never reports whether the account exists; failures are only logged.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	ctx, span := s.startSpan(ctx, "AuthService.RequestPasswordReset")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			span.RecordError(err)
			s.log().Error("password reset lookup failed", zap.Error(err))
		}
		return
	}
	if !user.IsActive {
		s.log().Info("password reset skipped for inactive account", zap.Int64("user_id", user.ID))
		return
	}

	if revoked, err := s.tokens.RevokeUser(ctx, domain.TokenPasswordReset, user.ID); err != nil {
		s.log().Warn("revoke previous reset tokens failed", zap.Int64("user_id", user.ID), zap.Error(err))
	} else if revoked > 0 {
		s.log().Debug("previous reset tokens revoked", zap.Int64("user_id", user.ID), zap.Int("count", revoked))
	}

	token, err := s.issueEphemeral(ctx, domain.TokenPasswordReset, user, s.cfg.PasswordResetTokenTTL)
	if err != nil {
		span.RecordError(err)
		s.log().Error("issue reset token failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}

	s.notifier.Notify(ctx, domain.Notification{
		To:       user.Email,
		Template: domain.TemplatePasswordReset,
		Data: map[string]any{
			"full_name":  user.FullName,
			"link":       s.frontendLink("/reset-password", token),
			"expires_in": humanizeDuration(s.cfg.PasswordResetTokenTTL),
		},
	})
	s.audit("password.reset.requested", "user_id", user.ID)
}

// ConfirmPasswordReset consumes a reset token and stores the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (bool, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ConfirmPasswordReset")
	defer span.End()

	// checked before consuming so a weak password does not burn the link
	if err := pw.Validate(newPassword); err != nil {
		return false, newError(KindValidation, err.Error(), err)
	}

	record, err := s.consume(ctx, domain.TokenPasswordReset, token,
		"Invalid or expired reset token", "Reset token has expired")
	if err != nil {
		return false, err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, newError(KindNotFound, "User not found", err)
		}
		s.restore(ctx, record)
		span.RecordError(err)
		return false, internalError(err)
	}

	hash, err := pw.Hash(newPassword)
	if err != nil {
		s.restore(ctx, record)
		span.RecordError(err)
		return false, internalError(err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		s.restore(ctx, record)
		span.RecordError(err)
		return false, internalError(err)
	}

	if _, err := s.tokens.RevokeUser(ctx, domain.TokenPasswordReset, user.ID); err != nil {
		s.log().Warn("revoke remaining reset tokens failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	s.notifier.Notify(ctx, domain.Notification{
		To:       user.Email,
		Template: domain.TemplatePasswordChanged,
		Data:     map[string]any{"full_name": user.FullName},
	})
	s.audit("password.reset.completed", "user_id", user.ID)
	return true, nil
}

// consume takes a token out of the store. Expired records are removed as a side effect.
func (s *AuthService) consume(ctx context.Context, kind domain.TokenKind, token, invalidMsg, expiredMsg string) (*domain.EphemeralToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(KindToken, invalidMsg, ErrInvalidToken)
	}
	record, err := s.tokens.Consume(ctx, kind, token)
	if err != nil {
		return nil, internalError(err)
	}
	if record == nil {
		s.log().Info("unknown token presented", zap.String("kind", string(kind)), zap.String("token_hint", tokenHint(token)))
		return nil, newError(KindToken, invalidMsg, ErrInvalidToken)
	}
	if record.Expired(s.now()) {
		return nil, newError(KindToken, expiredMsg, ErrExpiredToken)
	}
	return record, nil
}

// restore puts a consumed token back after a downstream failure so the link can be retried.
func (s *AuthService) restore(ctx context.Context, record *domain.EphemeralToken) {
	if err := s.tokens.Save(context.WithoutCancel(ctx), *record); err != nil {
		s.log().Error("restore consumed token failed",
			zap.String("kind", string(record.Kind)),
			zap.Int64("user_id", record.UserID),
			zap.Error(err))
	}
}
