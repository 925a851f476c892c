package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

func newUserService(f *fixture) *service.UserService {
	return service.NewUserService(f.store.Users(), f.store.Accounts(), f.tokens, f.notifier, f.cfg, zap.NewNop()).
		WithClock(f.clock.Now)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	user := f.register(t, "coach@example.com")

	name := "  Alex Strong "
	image := "https://cdn.hypertroq.test/a.png"
	updated, err := users.UpdateProfile(context.Background(), user.ID, service.ProfileUpdate{FullName: &name, ProfileImageURL: &image})
	require.NoError(t, err)
	require.Equal(t, "Alex Strong", updated.FullName)
	require.Equal(t, image, *updated.ProfileImageURL)

	empty := ""
	updated, err = users.UpdateProfile(context.Background(), user.ID, service.ProfileUpdate{ProfileImageURL: &empty})
	require.NoError(t, err)
	require.Nil(t, updated.ProfileImageURL)
	require.Equal(t, "Alex Strong", updated.FullName)

	tooShort := "A"
	_, err = users.UpdateProfile(context.Background(), user.ID, service.ProfileUpdate{FullName: &tooShort})
	requireKind(t, err, service.KindValidation, "")
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := newUserService(f)
	user := f.register(t, "coach@example.com")
	f.auth.RequestPasswordReset(ctx, "coach@example.com")

	err := users.ChangePassword(ctx, user.ID, "Wr0ng!Pass", "N3w!Password")
	requireKind(t, err, service.KindValidation, "Current password is incorrect")

	err = users.ChangePassword(ctx, user.ID, strongPassword, "weak")
	requireKind(t, err, service.KindValidation, "")

	require.NoError(t, users.ChangePassword(ctx, user.ID, strongPassword, "N3w!Password"))
	require.Zero(t, f.tokens.Outstanding(domain.TokenPasswordReset, user.ID))
	require.Len(t, f.notifier.byTemplate(domain.TemplatePasswordChanged), 1)

	_, err = f.auth.Login(ctx, "coach@example.com", "N3w!Password")
	require.NoError(t, err)
}

func TestDeletionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := newUserService(f)
	user := f.register(t, "coach@example.com")

	err := users.CancelDeletion(ctx, user.ID)
	requireKind(t, err, service.KindValidation, "No account deletion is scheduled")

	scheduled, err := users.RequestDeletion(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, f.clock.Now(), scheduled.RequestedAt)
	require.Equal(t, f.clock.Now().Add(30*24*time.Hour), scheduled.DeletesAt)
	require.Len(t, f.notifier.byTemplate(domain.TemplateDeletionRequested), 1)

	_, err = users.RequestDeletion(ctx, user.ID)
	requireKind(t, err, service.KindValidation, "Account deletion is already scheduled")

	require.NoError(t, users.CancelDeletion(ctx, user.ID))
	stored, err := users.Get(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, stored.DeletionPending())
}

func TestPurgeExpiredDeletions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := newUserService(f)
	leaving := f.register(t, "leaving@example.com")
	staying := f.register(t, "staying@example.com")
	late := f.register(t, "late@example.com")

	_, err := users.RequestDeletion(ctx, leaving.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * 24 * time.Hour)
	_, err = users.RequestDeletion(ctx, late.ID)
	require.NoError(t, err)

	f.clock.Advance(25 * 24 * time.Hour)
	purged, err := users.PurgeExpiredDeletions(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	_, err = users.Get(ctx, leaving.ID)
	requireKind(t, err, service.KindNotFound, "")
	_, err = f.store.Organizations().GetByID(ctx, leaving.OrganizationID)
	require.Error(t, err)

	_, err = users.Get(ctx, staying.ID)
	require.NoError(t, err)
	_, err = users.Get(ctx, late.ID)
	require.NoError(t, err)
}
