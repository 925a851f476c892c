package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/jwt"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

func TestRegisterCreatesFreeOrganizationAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Register(ctx, service.RegisterInput{
		Email:            "  Coach@Example.COM ",
		Password:         strongPassword,
		FullName:         "Sam Lifter",
		OrganizationName: "Iron Gym",
	})
	require.NoError(t, err)
	require.Equal(t, "bearer", resp.TokenType)
	require.Equal(t, int((30 * time.Minute).Seconds()), resp.ExpiresIn)

	user, err := f.store.Users().GetByEmail(ctx, "Coach@Example.COM")
	require.NoError(t, err)
	require.Equal(t, "Coach@Example.COM", user.Email)
	require.Equal(t, domain.RoleAdmin, user.Role)
	require.True(t, user.IsActive)
	require.False(t, user.IsVerified)

	org, err := f.store.Organizations().GetByID(ctx, user.OrganizationID)
	require.NoError(t, err)
	require.Equal(t, "Iron Gym", org.Name)
	require.True(t, org.IsFree())
	require.Equal(t, domain.StatusActive, org.SubscriptionStatus)

	claims, err := f.jwt.Parse(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, org.ID, claims.OrganizationID)
	require.Equal(t, domain.RoleAdmin, claims.Role)
	require.Equal(t, jwt.KindAccess, claims.Kind)

	refresh, err := f.jwt.Parse(resp.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, jwt.KindRefresh, refresh.Kind)

	require.Equal(t, 1, f.tokens.Outstanding(domain.TokenEmailVerification, user.ID))
	mails := f.notifier.byTemplate(domain.TemplateVerifyEmail)
	require.Len(t, mails, 1)
	require.Equal(t, "Coach@Example.COM", mails[0].To)
	require.Equal(t, "24 hours", mails[0].Data["expires_in"])
	require.Contains(t, mails[0].Data["link"], "https://app.hypertroq.test/verify-email?token=")
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "coach@example.com")

	_, err := f.auth.Register(context.Background(), service.RegisterInput{
		Email:            " coach@example.com ",
		Password:         strongPassword,
		FullName:         "Other Coach",
		OrganizationName: "Other Gym",
	})
	requireKind(t, err, service.KindRegistration, "An account with this email already exists")
	require.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestEmailMatchingIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	upper := f.register(t, "Coach@Example.com")
	lower := f.register(t, "coach@example.com")
	require.NotEqual(t, upper.ID, lower.ID)
	require.NotEqual(t, upper.OrganizationID, lower.OrganizationID)

	stored, err := f.store.Users().GetByEmail(ctx, "Coach@Example.com")
	require.NoError(t, err)
	require.Equal(t, upper.ID, stored.ID)

	_, err = f.auth.Login(ctx, "COACH@EXAMPLE.COM", strongPassword)
	requireKind(t, err, service.KindAuthentication, "Invalid email or password")

	resp, err := f.auth.Login(ctx, "Coach@Example.com", strongPassword)
	require.NoError(t, err)
	claims, err := f.jwt.Parse(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, upper.ID, claims.UserID)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	base := service.RegisterInput{Email: "a@example.com", Password: strongPassword, FullName: "Sam Lifter", OrganizationName: "Iron Gym"}

	weak := base
	weak.Password = "short"
	_, err := f.auth.Register(context.Background(), weak)
	requireKind(t, err, service.KindValidation, "")

	noName := base
	noName.FullName = " "
	_, err = f.auth.Register(context.Background(), noName)
	requireKind(t, err, service.KindValidation, "Full name must be between 2 and 100 characters")

	badEmail := base
	badEmail.Email = "not-an-email"
	_, err = f.auth.Register(context.Background(), badEmail)
	requireKind(t, err, service.KindValidation, "")
}

func TestRegisterPersistenceFailures(t *testing.T) {
	f := newFixture(t)
	in := service.RegisterInput{Email: "a@example.com", Password: strongPassword, FullName: "Sam Lifter", OrganizationName: "Iron Gym"}

	f.store.FailNextCreate = repository.ErrConflict
	_, err := f.auth.Register(context.Background(), in)
	requireKind(t, err, service.KindRegistration, "Registration failed due to data conflict")

	f.store.FailNextCreate = errors.New("connection reset")
	_, err = f.auth.Register(context.Background(), in)
	requireKind(t, err, service.KindRegistration, "Registration failed")

	// nothing half-written, so a retry succeeds
	_, err = f.auth.Register(context.Background(), in)
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "coach@example.com")

	resp, err := f.auth.Login(ctx, " coach@example.com ", strongPassword)
	require.NoError(t, err)
	claims, err := f.jwt.Parse(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	_, err = f.auth.Login(ctx, "coach@example.com", "Wr0ng!Pass")
	requireKind(t, err, service.KindAuthentication, "Invalid email or password")

	_, err = f.auth.Login(ctx, "nobody@example.com", strongPassword)
	requireKind(t, err, service.KindAuthentication, "Invalid email or password")

	user.IsActive = false
	require.NoError(t, f.store.Users().Update(ctx, user))
	_, err = f.auth.Login(ctx, "coach@example.com", strongPassword)
	requireKind(t, err, service.KindForbidden, "Your account has been deactivated. Please contact support.")
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "coach@example.com")
	pair, err := f.auth.Login(ctx, "coach@example.com", strongPassword)
	require.NoError(t, err)

	// role comes from the current row, not the old token
	user.Role = domain.RoleUser
	require.NoError(t, f.store.Users().Update(ctx, user))
	f.clock.Advance(time.Minute)

	refreshed, err := f.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	require.NotEqual(t, pair.AccessToken, refreshed.AccessToken)
	claims, err := f.jwt.Parse(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, claims.Role)

	_, err = f.auth.Refresh(ctx, pair.AccessToken)
	requireKind(t, err, service.KindToken, "Invalid token type")

	_, err = f.auth.Refresh(ctx, "garbage")
	requireKind(t, err, service.KindToken, "Invalid or expired refresh token")

	user.IsActive = false
	require.NoError(t, f.store.Users().Update(ctx, user))
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	requireKind(t, err, service.KindToken, "Account is inactive")

	_, err = f.store.Accounts().DeleteAccount(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	requireKind(t, err, service.KindToken, "User not found")
}

func TestRefreshTokenExpires(t *testing.T) {
	f := newFixture(t)
	f.register(t, "coach@example.com")
	pair, err := f.auth.Login(context.Background(), "coach@example.com", strongPassword)
	require.NoError(t, err)

	f.clock.Advance(f.cfg.RefreshTokenTTL + time.Second)
	_, err = f.auth.Refresh(context.Background(), pair.RefreshToken)
	requireKind(t, err, service.KindToken, "Invalid or expired refresh token")
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "coach@example.com")

	got, err := f.auth.CurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	_, err = f.auth.CurrentUser(context.Background(), 42)
	requireKind(t, err, service.KindNotFound, "User not found")
}
