package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

func TestSubscriptionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orgs := service.NewOrganizationService(f.store.Organizations(), zap.NewNop())
	owner := f.register(t, "owner@example.com")

	org, err := orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{
		Action: service.ActionReactivate,
	})
	requireKind(t, err, service.KindValidation, "Only PRO subscriptions can be reactivated")

	org, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{
		Action:         service.ActionUpgrade,
		CustomerID:     "cus_123",
		SubscriptionID: "sub_456",
	})
	require.NoError(t, err)
	require.True(t, org.CanCreateCustomExercises())
	require.Equal(t, "cus_123", *org.BillingCustomerID)
	require.Equal(t, "sub_456", *org.BillingSubscriptionID)

	org, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: service.ActionCancel})
	require.NoError(t, err)
	require.True(t, org.IsPro())
	require.False(t, org.CanCreateCustomExercises())

	org, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: service.ActionReactivate})
	require.NoError(t, err)
	require.True(t, org.HasUnlimitedAIQueries())

	org, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: service.ActionExpire})
	require.NoError(t, err)
	require.Equal(t, domain.TierFree, org.SubscriptionTier)
	require.Equal(t, domain.StatusExpired, org.SubscriptionStatus)

	stored, err := orgs.Get(ctx, owner.OrganizationID)
	require.NoError(t, err)
	require.Equal(t, org.SubscriptionStatus, stored.SubscriptionStatus)

	org, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{
		Action: service.ActionUpgrade, CustomerID: "cus_123", SubscriptionID: "sub_789",
	})
	require.NoError(t, err)
	org, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: service.ActionDowngrade})
	require.NoError(t, err)
	require.True(t, org.IsFree())
	require.Equal(t, "cus_123", *org.BillingCustomerID)
	require.Equal(t, "sub_789", *org.BillingSubscriptionID)

	_, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{
		Action: service.ActionUpgrade, CustomerID: "cus_123",
	})
	requireKind(t, err, service.KindValidation, "Upgrade requires customer_id and subscription_id")

	_, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: "refund"})
	requireKind(t, err, service.KindValidation, "Unknown subscription action")

	_, err = orgs.ApplySubscriptionChange(ctx, 99, service.SubscriptionChange{Action: service.ActionUpgrade})
	requireKind(t, err, service.KindNotFound, "Organization not found")
}

func TestRenameOrganization(t *testing.T) {
	f := newFixture(t)
	orgs := service.NewOrganizationService(f.store.Organizations(), zap.NewNop())
	owner := f.register(t, "owner@example.com")

	org, err := orgs.Rename(context.Background(), owner.OrganizationID, " Hypertrophy Lab ")
	require.NoError(t, err)
	require.Equal(t, "Hypertrophy Lab", org.Name)

	_, err = orgs.Rename(context.Background(), owner.OrganizationID, "x")
	requireKind(t, err, service.KindValidation, "")
}

func TestOrganizationViewModelFeatures(t *testing.T) {
	org := domain.Organization{ID: 7, Name: "Iron", SubscriptionTier: domain.TierPro, SubscriptionStatus: domain.StatusActive}
	view := service.NewOrganizationViewModel(org)
	require.Equal(t, map[string]bool{
		"custom_exercises":     true,
		"custom_programs":      true,
		"unlimited_ai_queries": true,
	}, view.Features)

	org.CancelSubscription()
	view = service.NewOrganizationViewModel(org)
	require.False(t, view.Features["custom_exercises"])
}
