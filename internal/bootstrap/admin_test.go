package bootstrap_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/bootstrap"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

func TestAdminCreatesOnce(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	cfg := config.Config{AdminEmail: "Root@HypertroQ.test", AdminPassword: "Adm1n!Secret", AdminOrganization: "HypertroQ"}

	created, err := bootstrap.Admin(ctx, cfg, store.Users(), store.Accounts(), node, zap.NewNop())
	require.NoError(t, err)
	require.True(t, created)

	user, err := store.Users().GetByEmail(ctx, "Root@HypertroQ.test")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, user.Role)
	require.True(t, user.IsVerified)

	org, err := store.Organizations().GetByID(ctx, user.OrganizationID)
	require.NoError(t, err)
	require.Equal(t, "HypertroQ", org.Name)

	created, err = bootstrap.Admin(ctx, cfg, store.Users(), store.Accounts(), node, zap.NewNop())
	require.NoError(t, err)
	require.False(t, created)
}

func TestAdminSkippedWithoutEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	created, err := bootstrap.Admin(context.Background(), config.Config{}, store.Users(), store.Accounts(), node, nil)
	require.NoError(t, err)
	require.False(t, created)
}

func TestAdminRejectsWeakPassword(t *testing.T) {
	store := repository.NewMemoryStore()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	_, err = bootstrap.Admin(context.Background(), config.Config{AdminEmail: "a@b.test", AdminPassword: "weak"}, store.Users(), store.Accounts(), node, nil)
	require.Error(t, err)
}
