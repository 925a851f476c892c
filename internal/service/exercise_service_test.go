package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
)

func TestCustomExercisesRequirePro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orgs := service.NewOrganizationService(f.store.Organizations(), zap.NewNop())
	exercises := service.NewExerciseService(f.store.Exercises(), f.store.Organizations(), f.node, zap.NewNop())
	owner := f.register(t, "owner@example.com")
	actor := service.Actor{UserID: owner.ID, OrganizationID: owner.OrganizationID}
	in := service.ExerciseInput{Name: "Cable Fly", MuscleGroup: "chest", Equipment: "cable"}

	_, err := exercises.Create(ctx, actor, in)
	requireKind(t, err, service.KindForbidden, "This feature requires an active PRO subscription")
	require.ErrorIs(t, err, service.ErrFeatureLocked)

	_, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: service.ActionUpgrade, CustomerID: "cus_1", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	created, err := exercises.Create(ctx, actor, in)
	require.NoError(t, err)
	require.Equal(t, owner.ID, *created.CreatedBy)

	_, err = exercises.Create(ctx, actor, in)
	requireKind(t, err, service.KindValidation, "An exercise with this name already exists")

	_, err = exercises.Create(ctx, actor, service.ExerciseInput{Name: "Row"})
	requireKind(t, err, service.KindValidation, "Muscle group is required")

	list, err := exercises.List(ctx, owner.OrganizationID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// a canceled subscription keeps existing exercises readable but blocks new ones
	_, err = orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: service.ActionCancel})
	require.NoError(t, err)
	_, err = exercises.Create(ctx, actor, service.ExerciseInput{Name: "Leg Press", MuscleGroup: "legs"})
	requireKind(t, err, service.KindForbidden, "")
	list, err = exercises.List(ctx, owner.OrganizationID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteExerciseScopedToOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orgs := service.NewOrganizationService(f.store.Organizations(), zap.NewNop())
	exercises := service.NewExerciseService(f.store.Exercises(), f.store.Organizations(), f.node, zap.NewNop())
	owner := f.register(t, "owner@example.com")
	other := f.register(t, "other@example.com")
	_, err := orgs.ApplySubscriptionChange(ctx, owner.OrganizationID, service.SubscriptionChange{Action: service.ActionUpgrade, CustomerID: "cus_1", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	actor := service.Actor{UserID: owner.ID, OrganizationID: owner.OrganizationID}
	created, err := exercises.Create(ctx, actor, service.ExerciseInput{Name: "Hack Squat", MuscleGroup: "legs"})
	require.NoError(t, err)

	err = exercises.Delete(ctx, service.Actor{UserID: other.ID, OrganizationID: other.OrganizationID}, created.ID)
	requireKind(t, err, service.KindNotFound, "Exercise not found")

	require.NoError(t, exercises.Delete(ctx, actor, created.ID))
	list, err := exercises.List(ctx, owner.OrganizationID)
	require.NoError(t, err)
	require.Empty(t, list)
}
