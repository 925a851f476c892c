package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/jwt"
	pw "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/password"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgAccountDeactivated = "Your account has been deactivated. Please contact support."
	msgEmailTaken         = "An account with this email already exists"
)

// RegisterInput carries the fields of a self-service sign up.
type RegisterInput struct {
	Email            string
	Password         string
	FullName         string
	OrganizationName string
}

// AuthService encapsulates authentication flows.
type AuthService struct {
	instrumentation
	users     repository.UserRepository
	accounts  repository.AccountRepository
	tokens    repository.TokenStore
	notifier  Notifier
	snowflake *snowflake.Node
	jwt       *jwt.Generator
	cfg       config.Config
	now       func() time.Time
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, accounts repository.AccountRepository, tokens repository.TokenStore, notifier Notifier, node *snowflake.Node, generator *jwt.Generator, cfg config.Config, logger *zap.Logger) *AuthService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AuthService{
		instrumentation: newInstrumentation(logger),
		users:           users,
		accounts:        accounts,
		tokens:          tokens,
		notifier:        notifier,
		snowflake:       node,
		jwt:             generator,
		cfg:             cfg,
		now:             time.Now,
	}
}

// WithClock replaces the time source used for token expiry checks.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates a FREE organization with the caller as its ADMIN and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	email := normalizeEmail(in.Email)
	if err := validateRegistration(email, in); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, newError(KindRegistration, "Registration failed", err)
	}
	if exists {
		return nil, newError(KindRegistration, msgEmailTaken, ErrEmailTaken)
	}

	hash, err := pw.Hash(in.Password)
	if err != nil {
		span.RecordError(err)
		return nil, newError(KindRegistration, "Registration failed", err)
	}

	now := s.now().UTC()
	org := domain.NewOrganization(s.snowflake.Generate().Int64(), strings.TrimSpace(in.OrganizationName), now)
	user := domain.User{
		ID:             s.snowflake.Generate().Int64(),
		OrganizationID: org.ID,
		Email:          email,
		PasswordHash:   hash,
		FullName:       strings.TrimSpace(in.FullName),
		Role:           domain.RoleAdmin,
		IsActive:       true,
		IsVerified:     false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.accounts.CreateAccount(ctx, org, user); err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrConflict) {
			return nil, newError(KindRegistration, "Registration failed due to data conflict", err)
		}
		return nil, newError(KindRegistration, "Registration failed", err)
	}

	s.sendVerification(ctx, user)

	pair, err := s.jwt.IssuePair(jwt.SubjectOf(user))
	if err != nil {
		span.RecordError(err)
		return nil, internalError(err)
	}
	s.audit("user.registered", "org_id", org.ID, "user_id", user.ID)
	return newTokenResponse(pair), nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			span.RecordError(err)
			return nil, internalError(err)
		}
		pw.VerifyDummy(password)
		s.audit("password.login.failure", "reason", "unknown_email")
		return nil, newError(KindAuthentication, msgInvalidCredentials, nil)
	}

	valid, err := pw.Verify(password, user.PasswordHash)
	if err != nil {
		s.log().Warn("stored password hash unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	if err != nil || !valid {
		s.audit("password.login.failure", "user_id", user.ID, "reason", "wrong_password")
		return nil, newError(KindAuthentication, msgInvalidCredentials, nil)
	}
	if !user.IsActive {
		return nil, newError(KindForbidden, msgAccountDeactivated, ErrInactive)
	}

	pair, err := s.jwt.IssuePair(jwt.SubjectOf(user))
	if err != nil {
		span.RecordError(err)
		return nil, internalError(err)
	}
	s.audit("password.login.success", "org_id", user.OrganizationID, "user_id", user.ID)
	return newTokenResponse(pair), nil
}

// Refresh mints a new access token. The refresh token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Refresh")
	defer span.End()

	claims, err := s.jwt.Parse(refreshToken)
	if err != nil {
		return nil, newError(KindToken, "Invalid or expired refresh token", err)
	}
	if claims.Kind != jwt.KindRefresh {
		return nil, newError(KindToken, "Invalid token type", ErrWrongTokenUse)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindToken, "User not found", err)
		}
		span.RecordError(err)
		return nil, internalError(err)
	}
	if !user.IsActive {
		return nil, newError(KindToken, "Account is inactive", ErrInactive)
	}

	access, err := s.jwt.Issue(jwt.KindAccess, jwt.SubjectOf(user))
	if err != nil {
		span.RecordError(err)
		return nil, internalError(err)
	}
	s.audit("token.refreshed", "user_id", user.ID)
	return newTokenResponse(jwt.Pair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.TTL(jwt.KindAccess),
	}), nil
}

// CurrentUser loads the profile of an authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.CurrentUser")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, newError(KindNotFound, "User not found", err)
		}
		span.RecordError(err)
		return domain.User{}, internalError(err)
	}
	return user, nil
}

// sendVerification issues a verification token and queues the email.
// Failures are logged; the account stays usable and the user can request a new link.
func (s *AuthService) sendVerification(ctx context.Context, user domain.User) {
	token, err := s.issueEphemeral(ctx, domain.TokenEmailVerification, user, s.cfg.VerificationTokenTTL)
	if err != nil {
		s.log().Error("issue verification token failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, domain.Notification{
		To:       user.Email,
		Template: domain.TemplateVerifyEmail,
		Data: map[string]any{
			"full_name":  user.FullName,
			"link":       s.frontendLink("/verify-email", token),
			"expires_in": humanizeDuration(s.cfg.VerificationTokenTTL),
		},
	})
}

func (s *AuthService) issueEphemeral(ctx context.Context, kind domain.TokenKind, user domain.User, ttl time.Duration) (string, error) {
	value, err := randomToken()
	if err != nil {
		return "", err
	}
	record := domain.EphemeralToken{
		Token:     value,
		Kind:      kind,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: s.now().UTC().Add(ttl),
	}
	if err := s.tokens.Save(ctx, record); err != nil {
		return "", fmt.Errorf("save %s token: %w", kind, err)
	}
	return value, nil
}

func (s *AuthService) frontendLink(path, token string) string {
	if token == "" {
		return s.cfg.FrontendURL + path
	}
	return s.cfg.FrontendURL + path + "?token=" + url.QueryEscape(token)
}

// normalizeEmail trims surrounding whitespace. Matching stays case-sensitive.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func validateRegistration(email string, in RegisterInput) error {
	if email == "" || !strings.Contains(email, "@") {
		return newError(KindValidation, "A valid email address is required", nil)
	}
	if err := pw.Validate(in.Password); err != nil {
		return newError(KindValidation, err.Error(), err)
	}
	if err := validateName("Full name", in.FullName); err != nil {
		return err
	}
	return validateName("Organization name", in.OrganizationName)
}

func validateName(field, value string) error {
	n := len([]rune(strings.TrimSpace(value)))
	if n < 2 || n > 100 {
		return newError(KindValidation, field+" must be between 2 and 100 characters", nil)
	}
	return nil
}
